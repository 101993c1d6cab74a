package device

import (
	"github.com/edp1096/toy-mna/pkg/matrix"
)

// Relay coil defaults: a 12 V coil picking up at 100 mA within 10 ms.
const (
	RelayPickupCurrent = 0.1
	relayCoilVoltage   = 12.0
	relayPickupTime    = 0.01
)

// Relay switches contacts A-B on the current through its coil C-D. The coil
// is an inductor; the contacts close while the coil current is at or above
// PickupCurrent.
type Relay struct {
	BaseDevice
	ClosedResistance float64
	OpenResistance   float64
	PickupCurrent    float64

	coil    *Inductor
	open    bool
	dirty   bool
	stamped float64
}

var (
	_ Dynamic     = (*Relay)(nil)
	_ Operational = (*Relay)(nil)
)

func NewRelay(name string, a, b, c, d *Pin) *Relay {
	return &Relay{
		BaseDevice:       newBaseDevice(name, 0, a, b, c, d),
		ClosedResistance: 1e-6,
		OpenResistance:   1e6,
		PickupCurrent:    RelayPickupCurrent,
		coil:             NewInductor(name+".coil", c, d, relayCoilVoltage*relayPickupTime/RelayPickupCurrent),
		open:             true,
		dirty:            true,
	}
}

func (r *Relay) GetType() string { return "W" }

func (r *Relay) GetValue() float64 {
	return r.coil.Value
}

func (r *Relay) C() *Pin { return r.pins[2] }
func (r *Relay) D() *Pin { return r.pins[3] }

func (r *Relay) SetPin(i int, p *Pin) {
	r.BaseDevice.SetPin(i, p)
	if i >= 2 {
		r.coil.SetPin(i-2, p)
	}
}

func (r *Relay) Coil() *Inductor {
	return r.coil
}

func (r *Relay) IsOpen() bool {
	return r.open
}

func (r *Relay) resistance() float64 {
	if r.open {
		return r.OpenResistance
	}
	return r.ClosedResistance
}

func (r *Relay) IsDirty() bool {
	return r.dirty
}

func (r *Relay) MarkDirty() {
	r.dirty = true
}

func (r *Relay) Initiate(tickRate float64) {
	r.coil.Initiate(tickRate)
}

func (r *Relay) PreEvaluation(s matrix.Stamper) error {
	return r.coil.PreEvaluation(s)
}

func (r *Relay) PosEvaluation() {
	r.coil.PosEvaluation()
	if open := r.coil.Current() < r.PickupCurrent; open != r.open {
		r.open = open
		r.MarkDirty()
	}
}

func (r *Relay) MinTickRate() float64 {
	return r.coil.MinTickRate()
}

func (r *Relay) Stamp(s matrix.Stamper) error {
	r.stamped = r.resistance()
	r.dirty = false
	if err := s.StampConductance(r.A().Address(), r.B().Address(), 1.0/r.stamped); err != nil {
		return err
	}
	return r.coil.Stamp(s)
}

// Current is the contact current from A to B.
func (r *Relay) Current() float64 {
	res := r.stamped
	if res == 0 {
		res = r.resistance()
	}
	return r.Voltage() / res
}
