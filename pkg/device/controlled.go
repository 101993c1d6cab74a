package device

import (
	"github.com/edp1096/toy-mna/pkg/matrix"
)

// Controlled sources have output pins A, B and control pins C, D. Current
// controlled kinds sense through a zero volt branch from C to D.

// VCVS holds V(A,B) = Gain * V(C,D).
type VCVS struct {
	BaseDevice
	branch Branch
}

var _ RHSElement = (*VCVS)(nil)

func NewVCVS(name string, a, b, c, d *Pin, gain float64) *VCVS {
	return &VCVS{BaseDevice: newBaseDevice(name, gain, a, b, c, d)}
}

func (v *VCVS) GetType() string { return "E" }

func (v *VCVS) SetBranch(b Branch) {
	v.branch = b
}

func (v *VCVS) Stamp(s matrix.Stamper) error {
	aux := v.branch.Address()
	if err := s.StampVoltageSource(v.pins[0].Address(), v.pins[1].Address(), aux, 0); err != nil {
		return err
	}
	if err := s.StampLHS(aux, v.pins[2].Address(), -v.Value); err != nil {
		return err
	}
	return s.StampLHS(aux, v.pins[3].Address(), v.Value)
}

func (v *VCVS) Current() float64 {
	return v.branch.Current()
}

// CCCS drives Gain times the C to D current through A to B.
type CCCS struct {
	BaseDevice
	branch Branch
}

var _ RHSElement = (*CCCS)(nil)

func NewCCCS(name string, a, b, c, d *Pin, gain float64) *CCCS {
	return &CCCS{BaseDevice: newBaseDevice(name, gain, a, b, c, d)}
}

func (f *CCCS) GetType() string { return "F" }

func (f *CCCS) SetBranch(b Branch) {
	f.branch = b
}

func (f *CCCS) Stamp(s matrix.Stamper) error {
	aux := f.branch.Address()
	if err := s.StampVoltageSource(f.pins[2].Address(), f.pins[3].Address(), aux, 0); err != nil {
		return err
	}
	if err := s.StampLHS(f.pins[0].Address(), aux, f.Value); err != nil {
		return err
	}
	return s.StampLHS(f.pins[1].Address(), aux, -f.Value)
}

// SenseCurrent is the controlling current from C to D.
func (f *CCCS) SenseCurrent() float64 {
	return f.branch.Current()
}

func (f *CCCS) Current() float64 {
	return f.Value * f.branch.Current()
}

// CCVS holds V(A,B) = Gain * I(C,D). It owns the output branch and the
// sense branch, in that order.
type CCVS struct {
	BaseDevice
	out   Branch
	sense Branch
}

var _ MultipleRHSElement = (*CCVS)(nil)

func NewCCVS(name string, a, b, c, d *Pin, gain float64) *CCVS {
	return &CCVS{BaseDevice: newBaseDevice(name, gain, a, b, c, d)}
}

func (h *CCVS) GetType() string { return "H" }

func (h *CCVS) BranchCount() int {
	return 2
}

func (h *CCVS) SetBranches(bs []Branch) {
	h.out, h.sense = bs[0], bs[1]
}

func (h *CCVS) Stamp(s matrix.Stamper) error {
	out, sense := h.out.Address(), h.sense.Address()
	if err := s.StampVoltageSource(h.pins[2].Address(), h.pins[3].Address(), sense, 0); err != nil {
		return err
	}
	if err := s.StampVoltageSource(h.pins[0].Address(), h.pins[1].Address(), out, 0); err != nil {
		return err
	}
	return s.StampLHS(out, sense, -h.Value)
}

func (h *CCVS) SenseCurrent() float64 {
	return h.sense.Current()
}

func (h *CCVS) Current() float64 {
	return h.out.Current()
}

// VCCS drives Gain * V(C,D) through A to B.
type VCCS struct {
	BaseDevice
}

var _ Device = (*VCCS)(nil)

func NewVCCS(name string, a, b, c, d *Pin, gain float64) *VCCS {
	return &VCCS{BaseDevice: newBaseDevice(name, gain, a, b, c, d)}
}

func (g *VCCS) GetType() string { return "G" }

func (g *VCCS) Stamp(s matrix.Stamper) error {
	a, b := g.pins[0].Address(), g.pins[1].Address()
	c, d := g.pins[2].Address(), g.pins[3].Address()
	for _, cell := range []struct {
		row, col int
		value    float64
	}{
		{a, c, g.Value}, {a, d, -g.Value},
		{b, c, -g.Value}, {b, d, g.Value},
	} {
		if err := s.StampLHS(cell.row, cell.col, cell.value); err != nil {
			return err
		}
	}
	return nil
}

func (g *VCCS) Current() float64 {
	return g.Value * VoltageDiff(g.pins[2], g.pins[3])
}
