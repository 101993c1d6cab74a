package device

import (
	"github.com/edp1096/toy-mna/pkg/matrix"
)

type Device interface {
	GetName() string
	GetType() string
	GetValue() float64
	Pins() []*Pin
	SetPin(i int, p *Pin)
	Voltage() float64
	Current() float64
	Stamp(s matrix.Stamper) error
}

// RHSElement owns one auxiliary unknown.
type RHSElement interface {
	Device
	SetBranch(b Branch)
}

// MultipleRHSElement owns BranchCount auxiliary unknowns.
type MultipleRHSElement interface {
	Device
	BranchCount() int
	SetBranches(bs []Branch)
}

// Dynamic elements carry state between ticks through a backward Euler
// companion model. Initiate is called on every rebuild with the tick rate,
// PreEvaluation stamps the companion source from the previous tick and
// PosEvaluation captures the new state once the solution is broadcast.
type Dynamic interface {
	Device
	Initiate(tickRate float64)
	PreEvaluation(s matrix.Stamper) error
	PosEvaluation()
	MinTickRate() float64
}

// NonLinear elements stamp their operating point current with Stamp and
// their derivative with StampSmallSignal.
type NonLinear interface {
	Device
	StampSmallSignal(s matrix.Stamper) error
}

// Operational elements change their stamped value on internal state
// transitions. IsDirty reports a change not yet stamped.
type Operational interface {
	Device
	IsDirty() bool
	MarkDirty()
}

type BaseDevice struct {
	Name  string
	Value float64
	pins  []*Pin
}

type ModelParam struct {
	Type   string
	Name   string
	Params map[string]float64
}

func newBaseDevice(name string, value float64, pins ...*Pin) BaseDevice {
	return BaseDevice{Name: name, Value: value, pins: pins}
}

func (d *BaseDevice) GetName() string {
	return d.Name
}

func (d *BaseDevice) GetValue() float64 {
	return d.Value
}

func (d *BaseDevice) Pins() []*Pin {
	out := make([]*Pin, len(d.pins))
	copy(out, d.pins)
	return out
}

func (d *BaseDevice) Pin(i int) *Pin {
	return d.pins[i]
}

func (d *BaseDevice) SetPin(i int, p *Pin) {
	d.pins[i] = p
}

func (d *BaseDevice) A() *Pin { return d.pins[0] }
func (d *BaseDevice) B() *Pin { return d.pins[1] }

// Voltage is V(A) - V(B).
func (d *BaseDevice) Voltage() float64 {
	return VoltageDiff(d.pins[0], d.pins[1])
}

// Power is the power absorbed by d, positive current flowing from A to B
// through the element.
func Power(d Device) float64 {
	return d.Voltage() * d.Current()
}
