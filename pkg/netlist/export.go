package netlist

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/edp1096/toy-mna/pkg/circuit"
	"github.com/edp1096/toy-mna/pkg/device"
	"github.com/pkg/errors"
)

func nodeNames(d device.Device) string {
	pins := d.Pins()
	names := make([]string, len(pins))
	for i, p := range pins {
		names[i] = p.String()
	}
	return strings.Join(names, " ")
}

// exportName prefixes names that do not start with their element letter.
func exportName(d device.Device) string {
	name := d.GetName()
	if name == "" || !strings.EqualFold(name[:1], d.GetType()) {
		return d.GetType() + "_" + name
	}
	return name
}

func initialCondition(v float64) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprintf(" ic=%g", v)
}

// Export writes ckt as a netlist that Parse and Build read back into an
// equivalent circuit. Diodes and transistors get one .model line each.
func Export(w io.Writer, ckt *circuit.Circuit) error {
	bw := bufio.NewWriter(w)
	title := ckt.Name()
	if title == "" {
		title = "untitled"
	}
	fmt.Fprintf(bw, "* %s\n", title)

	var models []string
	for _, e := range ckt.Elements() {
		name, nodes := exportName(e), nodeNames(e)
		switch d := e.(type) {
		case *device.WaveformVoltageSource:
			fmt.Fprintf(bw, "%s %s %s\n", name, nodes, d.Shape)
		case *device.VoltageSource:
			fmt.Fprintf(bw, "%s %s DC %g\n", name, nodes, d.SourceVoltage())
		case *device.CurrentSource:
			fmt.Fprintf(bw, "%s %s DC %g\n", name, nodes, d.SourceCurrent())
		case *device.Diode:
			model := "D_" + name
			fmt.Fprintf(bw, "%s %s %s\n", name, nodes, model)
			models = append(models, fmt.Sprintf(".model %s D(is=%g n=%g vt=%g)", model, d.Is, d.N, d.Vt))
		case *device.BJT:
			model, kind := "Q_"+name, "NPN"
			if d.PNP {
				kind = "PNP"
			}
			fmt.Fprintf(bw, "%s %s %s\n", name, nodes, model)
			models = append(models, fmt.Sprintf(".model %s %s(is=%g bf=%g br=%g)", model, kind, d.Is, d.Bf, d.Br))
		case *device.Switch:
			state := "closed"
			if d.IsOpen() {
				state = "open"
			}
			fmt.Fprintf(bw, "%s %s %s\n", name, nodes, state)
		case *device.Relay:
			fmt.Fprintf(bw, "%s %s pickup=%g ron=%g roff=%g\n", name, nodes, d.PickupCurrent, d.ClosedResistance, d.OpenResistance)
		case *device.Capacitor:
			fmt.Fprintf(bw, "%s %s %g%s\n", name, nodes, d.Capacitance(), initialCondition(d.InitialVoltage()))
		case *device.Inductor:
			fmt.Fprintf(bw, "%s %s %g%s\n", name, nodes, d.Inductance(), initialCondition(d.Current()))
		case *device.Resistor, *device.VCVS, *device.CCCS, *device.VCCS, *device.CCVS:
			fmt.Fprintf(bw, "%s %s %g\n", name, nodes, e.GetValue())
		default:
			return errors.Errorf("cannot export %s of type %s", name, e.GetType())
		}
	}

	for _, m := range models {
		fmt.Fprintln(bw, m)
	}
	fmt.Fprintln(bw, ".end")
	return bw.Flush()
}
