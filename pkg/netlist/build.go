package netlist

import (
	"strings"

	"github.com/edp1096/toy-mna/pkg/circuit"
	"github.com/edp1096/toy-mna/pkg/device"
	"github.com/edp1096/toy-mna/pkg/matrix"
	"github.com/pkg/errors"
)

func isGround(name string) bool {
	return name == "0" || strings.EqualFold(name, "gnd")
}

// Build creates a circuit from parsed netlist data. Node "0" or "gnd" is
// ground; every other node name becomes one pin. Netlist .options override
// opts.
func Build(data *NetlistData, opts circuit.Options) (*circuit.Circuit, error) {
	if backend, ok := data.Options["backend"]; ok {
		b, err := matrix.ParseBackend(backend)
		if err != nil {
			return nil, err
		}
		opts.Backend = b
	}
	for key, dst := range map[string]*float64{"tickrate": &opts.TickRate, "gmin": &opts.Gmin, "tol": &opts.Tolerance} {
		if s, ok := data.Options[key]; ok {
			v, err := ParseValue(s)
			if err != nil {
				return nil, errors.Wrapf(err, "option %s", key)
			}
			*dst = v
		}
	}

	pins := make(map[string]*device.Pin)
	pin := func(name string) *device.Pin {
		if isGround(name) {
			return nil
		}
		p, ok := pins[name]
		if !ok {
			p = device.NewNamedPin(name)
			pins[name] = p
		}
		return p
	}

	ckt := circuit.NewWithOptions(data.Title, opts)
	for _, elem := range data.Elements {
		dev, err := CreateDevice(elem, pin, data.Models)
		if err != nil {
			return nil, errors.Wrapf(err, "element %s", elem.Name)
		}
		ckt.AddElement(dev)
	}
	return ckt, nil
}

func CreateDevice(elem Element, pin func(string) *device.Pin, models map[string]device.ModelParam) (device.Device, error) {
	n := make([]*device.Pin, len(elem.Nodes))
	for i, name := range elem.Nodes {
		n[i] = pin(name)
	}

	switch elem.Type {
	case "R":
		return device.NewResistor(elem.Name, n[0], n[1], elem.Value), nil

	case "C":
		c := device.NewCapacitor(elem.Name, n[0], n[1], elem.Value)
		if ic, ok := elem.Params["ic"]; ok {
			v, err := ParseValue(ic)
			if err != nil {
				return nil, errors.Wrap(err, "initial voltage")
			}
			c.SetInitialVoltage(v)
		}
		return c, nil

	case "L":
		l := device.NewInductor(elem.Name, n[0], n[1], elem.Value)
		if ic, ok := elem.Params["ic"]; ok {
			v, err := ParseValue(ic)
			if err != nil {
				return nil, errors.Wrap(err, "initial current")
			}
			l.SetInitialCurrent(v)
		}
		return l, nil

	case "D":
		diode := device.NewDiode(elem.Name, n[0], n[1])
		if model, err := lookupModel(elem, models, "D"); err != nil {
			return nil, err
		} else if model != nil {
			diode.SetModelParameters(model.Params)
		}
		return diode, nil

	case "Q":
		model, err := lookupModel(elem, models, "NPN", "PNP")
		if err != nil {
			return nil, err
		}
		q := device.NewBJT(elem.Name, n[0], n[1], n[2], model != nil && model.Type == "PNP")
		if model != nil {
			q.SetModelParameters(model.Params)
		}
		return q, nil

	case "S":
		return device.NewSwitch(elem.Name, n[0], n[1], elem.Params["state"] == "open"), nil

	case "W":
		r := device.NewRelay(elem.Name, n[0], n[1], n[2], n[3])
		for key, dst := range map[string]*float64{"pickup": &r.PickupCurrent, "ron": &r.ClosedResistance, "roff": &r.OpenResistance} {
			if s, ok := elem.Params[key]; ok {
				v, err := ParseValue(s)
				if err != nil {
					return nil, errors.Wrapf(err, "relay %s", key)
				}
				*dst = v
			}
		}
		return r, nil

	case "E":
		return device.NewVCVS(elem.Name, n[0], n[1], n[2], n[3], elem.Value), nil
	case "F":
		return device.NewCCCS(elem.Name, n[0], n[1], n[2], n[3], elem.Value), nil
	case "G":
		return device.NewVCCS(elem.Name, n[0], n[1], n[2], n[3], elem.Value), nil
	case "H":
		return device.NewCCVS(elem.Name, n[0], n[1], n[2], n[3], elem.Value), nil

	case "I":
		return device.NewCurrentSource(elem.Name, n[0], n[1], elem.Value), nil

	case "V":
		kind := elem.Params["type"]
		if kind == "dc" {
			return device.NewVoltageSource(elem.Name, n[0], n[1], elem.Value), nil
		}
		shape, err := parseWaveform(kind, elem.Params[kind])
		if err != nil {
			return nil, err
		}
		return device.NewWaveformVoltageSource(elem.Name, n[0], n[1], shape), nil
	}
	return nil, errors.Errorf("unsupported device type: %s", elem.Type)
}

func lookupModel(elem Element, models map[string]device.ModelParam, types ...string) (*device.ModelParam, error) {
	name, ok := elem.Params["model"]
	if !ok {
		return nil, nil
	}
	model, ok := models[name]
	if !ok {
		return nil, errors.Errorf("undefined model %s", name)
	}
	for _, t := range types {
		if model.Type == t {
			return &model, nil
		}
	}
	return nil, errors.Errorf("model %s has type %s, want %s", name, model.Type, strings.Join(types, " or "))
}
