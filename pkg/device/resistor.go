package device

import (
	"github.com/edp1096/toy-mna/pkg/matrix"
	"github.com/pkg/errors"
)

type Resistor struct {
	BaseDevice
}

var _ Device = (*Resistor)(nil)

func NewResistor(name string, a, b *Pin, resistance float64) *Resistor {
	return &Resistor{BaseDevice: newBaseDevice(name, resistance, a, b)}
}

func (r *Resistor) GetType() string { return "R" }

func (r *Resistor) Resistance() float64 {
	return r.Value
}

// SetResistance changes the value. The owning circuit must be marked dirty.
func (r *Resistor) SetResistance(v float64) {
	r.Value = v
}

func (r *Resistor) Stamp(s matrix.Stamper) error {
	if r.Value == 0 {
		return errors.Errorf("resistor %s: zero resistance", r.Name)
	}
	return s.StampConductance(r.A().Address(), r.B().Address(), 1.0/r.Value)
}

func (r *Resistor) Current() float64 {
	return r.Voltage() / r.Value
}
