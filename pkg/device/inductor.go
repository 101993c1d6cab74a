package device

import (
	"math"

	"github.com/edp1096/toy-mna/pkg/matrix"
)

// Inductor in backward Euler companion form: a conductance dt/L in parallel
// with a source carrying the accumulated current.
type Inductor struct {
	BaseDevice
	conductance float64
	current     float64
}

var _ Dynamic = (*Inductor)(nil)

func NewInductor(name string, a, b *Pin, inductance float64) *Inductor {
	return &Inductor{BaseDevice: newBaseDevice(name, inductance, a, b)}
}

func (l *Inductor) GetType() string { return "L" }

func (l *Inductor) Inductance() float64 {
	return l.Value
}

// SetInitialCurrent seeds the current flowing at t=0.
func (l *Inductor) SetInitialCurrent(i float64) {
	l.current = i
}

func (l *Inductor) Initiate(tickRate float64) {
	l.conductance = tickRate / l.Value
}

func (l *Inductor) Stamp(s matrix.Stamper) error {
	return s.StampConductance(l.A().Address(), l.B().Address(), l.conductance)
}

func (l *Inductor) PreEvaluation(s matrix.Stamper) error {
	return s.StampCurrent(l.B().Address(), l.A().Address(), l.current)
}

func (l *Inductor) PosEvaluation() {
	l.current += l.conductance * l.Voltage()
}

func (l *Inductor) MinTickRate() float64 {
	return math.MaxFloat64
}

func (l *Inductor) Current() float64 {
	return l.current
}
