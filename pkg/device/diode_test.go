package device

import (
	"math"
	"testing"
	"testing/quick"
)

func TestDiodeFromForward(t *testing.T) {
	d := NewDiodeFromForward("d", nil, nil, 0.7, 0.080, 1e-3)
	if got := d.CurrentAt(0.7); math.Abs(got-0.080) > 1e-9 {
		t.Errorf("I(0.7) = %g, want 0.080", got)
	}
	if d.Is != 1e-3 || d.GetValue() != 1e-3 {
		t.Errorf("Is = %g, value = %g", d.Is, d.GetValue())
	}
}

func TestDiodeThreshold(t *testing.T) {
	d := NewDiode("d", nil, nil)
	if got := d.CurrentAt(d.Threshold()); math.Abs(got-1e-3) > 1e-12 {
		t.Errorf("I(threshold) = %g, want 1mA", got)
	}
}

func TestDiodeConductanceIsDerivative(t *testing.T) {
	d := NewDiode("d", nil, nil)
	f := func(raw int16) bool {
		v := float64(raw) / 32768 // [-1, 1) V
		const h = 1e-7
		want := (d.CurrentAt(v+h) - d.CurrentAt(v-h)) / (2 * h)
		got := d.ConductanceAt(v)
		return math.Abs(got-math.Max(want, d.Gmin)) <= 1e-5*math.Abs(want)+1e-9
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestLimitedExp(t *testing.T) {
	below, slopeBelow := limitedExp(expLimit - 1e-9)
	above, slopeAbove := limitedExp(expLimit + 1e-9)
	if math.Abs(above-below) > 1e-6*below || slopeAbove != math.Exp(expLimit) {
		t.Errorf("discontinuous at the limit: %g %g", below, above)
	}
	if math.Abs(slopeBelow-slopeAbove) > 1e-6*slopeAbove {
		t.Errorf("slope jumps: %g %g", slopeBelow, slopeAbove)
	}
	if v, _ := limitedExp(1e6); math.IsInf(v, 0) {
		t.Error("limitedExp overflowed")
	}
}

func TestDiodeModelParameters(t *testing.T) {
	d := NewDiode("d", nil, nil)
	d.SetModelParameters(map[string]float64{"is": 1e-14, "n": 2, "vt": 0.03})
	if d.Is != 1e-14 || d.N != 2 || d.Vt != 0.03 {
		t.Errorf("params = %+v", d)
	}
	d.SetModelParameters(map[string]float64{"n": -1})
	if d.N != 2 {
		t.Errorf("negative n accepted: %g", d.N)
	}
}
