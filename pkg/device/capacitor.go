package device

import (
	"math"

	"github.com/edp1096/toy-mna/pkg/matrix"
)

// Capacitor in backward Euler companion form: a conductance C/dt in
// parallel with a source carrying the previous tick's charge.
type Capacitor struct {
	BaseDevice
	conductance float64
	history     float64 // voltage at the end of the previous tick
	source      float64
	current     float64
}

var _ Dynamic = (*Capacitor)(nil)

func NewCapacitor(name string, a, b *Pin, capacitance float64) *Capacitor {
	return &Capacitor{BaseDevice: newBaseDevice(name, capacitance, a, b)}
}

func (c *Capacitor) GetType() string { return "C" }

func (c *Capacitor) Capacitance() float64 {
	return c.Value
}

// SetInitialVoltage seeds the voltage held at t=0.
func (c *Capacitor) SetInitialVoltage(v float64) {
	c.history = v
}

// InitialVoltage is the voltage the next tick starts from.
func (c *Capacitor) InitialVoltage() float64 {
	return c.history
}

func (c *Capacitor) Initiate(tickRate float64) {
	c.conductance = c.Value / tickRate
}

func (c *Capacitor) Stamp(s matrix.Stamper) error {
	return s.StampConductance(c.A().Address(), c.B().Address(), c.conductance)
}

func (c *Capacitor) PreEvaluation(s matrix.Stamper) error {
	c.source = c.conductance * c.history
	return s.StampCurrent(c.A().Address(), c.B().Address(), c.source)
}

func (c *Capacitor) PosEvaluation() {
	v := c.Voltage()
	c.current = c.conductance*v - c.source
	c.history = v
}

func (c *Capacitor) MinTickRate() float64 {
	return math.MaxFloat64
}

func (c *Capacitor) Current() float64 {
	return c.current
}
