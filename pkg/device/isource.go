package device

import (
	"github.com/edp1096/toy-mna/pkg/matrix"
)

// CurrentSource pushes its value into node A and draws it from node B.
type CurrentSource struct {
	BaseDevice
}

var _ Device = (*CurrentSource)(nil)

func NewCurrentSource(name string, a, b *Pin, current float64) *CurrentSource {
	return &CurrentSource{BaseDevice: newBaseDevice(name, current, a, b)}
}

func (i *CurrentSource) GetType() string { return "I" }

func (i *CurrentSource) SourceCurrent() float64 {
	return i.Value
}

// SetSourceCurrent changes the value. The owning circuit must be marked dirty.
func (i *CurrentSource) SetSourceCurrent(value float64) {
	i.Value = value
}

func (i *CurrentSource) Stamp(s matrix.Stamper) error {
	return s.StampCurrent(i.A().Address(), i.B().Address(), i.Value)
}

// Current through the element from A to B: the source delivers its value
// out of A, so the element current is its negation.
func (i *CurrentSource) Current() float64 {
	return -i.Value
}
