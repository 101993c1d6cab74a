package device

import (
	"github.com/edp1096/toy-mna/pkg/matrix"
)

type Switch struct {
	BaseDevice
	ClosedResistance float64
	OpenResistance   float64

	open    bool
	dirty   bool
	stamped float64
}

var _ Operational = (*Switch)(nil)

func NewSwitch(name string, a, b *Pin, open bool) *Switch {
	return &Switch{
		BaseDevice:       newBaseDevice(name, 0, a, b),
		ClosedResistance: 1e-3,
		OpenResistance:   1e6,
		open:             open,
		dirty:            true,
	}
}

func (w *Switch) GetType() string { return "S" }

func (w *Switch) GetValue() float64 {
	return w.resistance()
}

func (w *Switch) resistance() float64 {
	if w.open {
		return w.OpenResistance
	}
	return w.ClosedResistance
}

func (w *Switch) IsOpen() bool {
	return w.open
}

func (w *Switch) SetOpen(open bool) {
	if w.open != open {
		w.open = open
		w.MarkDirty()
	}
}

func (w *Switch) Toggle() {
	w.SetOpen(!w.open)
}

func (w *Switch) IsDirty() bool {
	return w.dirty
}

func (w *Switch) MarkDirty() {
	w.dirty = true
}

func (w *Switch) Stamp(s matrix.Stamper) error {
	w.stamped = w.resistance()
	w.dirty = false
	return s.StampConductance(w.A().Address(), w.B().Address(), 1.0/w.stamped)
}

// Current uses the resistance of the last stamp, which is what the solved
// voltages reflect.
func (w *Switch) Current() float64 {
	r := w.stamped
	if r == 0 {
		r = w.resistance()
	}
	return w.Voltage() / r
}
