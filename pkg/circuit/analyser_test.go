package circuit

import (
	"bytes"
	"log"
	"math"
	"strings"
	"testing"
	"testing/quick"

	"github.com/edp1096/toy-mna/pkg/device"
	"github.com/edp1096/toy-mna/pkg/matrix"
	"github.com/pkg/errors"
)

func TestAnalyseNumbering(t *testing.T) {
	a, b := device.NewNamedPin("a"), device.NewNamedPin("b")
	h := device.NewCCVS("h", b, nil, a, nil, 2)
	elements := []device.Device{
		device.NewVoltageSource("v", a, nil, 1),
		device.NewResistor("r1", a, b, 1),
		h,
		device.NewResistor("r2", b, nil, 1),
		device.NewDiode("d", a, nil),
	}

	an, err := Analyse(elements)
	if err != nil {
		t.Fatal(err)
	}
	if len(an.Nodes) != 2 || an.Nodes[0] != a || an.Nodes[1] != b {
		t.Fatalf("nodes = %v", an.Nodes)
	}
	if an.Size != 5 || an.BranchCount() != 3 {
		t.Errorf("size = %d, branches = %d", an.Size, an.BranchCount())
	}
	if !an.IsNonLinear() || len(an.Linears) != 4 {
		t.Errorf("nonlinear = %v, linears = %d", an.IsNonLinear(), len(an.Linears))
	}
	if an.IsDynamic() {
		t.Error("no dynamic element expected")
	}

	s := device.NewSolution(an.Size)
	an.bind(s)
	if a.Address() != 0 || b.Address() != 1 {
		t.Errorf("addresses = %d, %d", a.Address(), b.Address())
	}
	s.Set([]float64{0, 0, 7, 8, 9})
	if got := elements[0].Current(); got != 7 {
		t.Errorf("source branch current = %g, want 7", got)
	}
	if h.Current() != 8 || h.SenseCurrent() != 9 {
		t.Errorf("ccvs branches = %g, %g", h.Current(), h.SenseCurrent())
	}
}

func TestAnalyseTopologyErrors(t *testing.T) {
	tests := []struct {
		name     string
		elements func() []device.Device
	}{
		{"floating node", func() []device.Device {
			a, b := device.NewPin(), device.NewPin()
			return []device.Device{
				device.NewVoltageSource("v", a, nil, 1),
				device.NewResistor("r", a, b, 1),
			}
		}},
		{"single ground", func() []device.Device {
			a, b := device.NewPin(), device.NewPin()
			return []device.Device{
				device.NewVoltageSource("v", a, b, 1),
				device.NewResistor("r1", a, b, 1),
				device.NewResistor("r2", b, nil, 1),
			}
		}},
		{"no ground", func() []device.Device {
			a, b := device.NewPin(), device.NewPin()
			return []device.Device{
				device.NewVoltageSource("v", a, b, 1),
				device.NewResistor("r", a, b, 1),
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Analyse(tt.elements())
			if errors.Cause(err) != ErrInconsistentTopology {
				t.Errorf("err = %v, want %v", err, ErrInconsistentTopology)
			}
		})
	}
}

func TestAnalyseEmpty(t *testing.T) {
	an, err := Analyse(nil)
	if err != nil {
		t.Fatal(err)
	}
	if an.Size != 0 {
		t.Errorf("size = %d", an.Size)
	}
}

func TestPrepareKeepsStateOnTopologyError(t *testing.T) {
	a := device.NewPin()
	c := New("broken")
	c.AddElement(device.NewResistor("r", a, nil, 1))
	if err := c.Tick(); errors.Cause(err) != ErrInconsistentTopology {
		t.Fatalf("err = %v", err)
	}
	if c.State() != Dirty || c.Ticks() != 0 {
		t.Errorf("state = %s, ticks = %d", c.State(), c.Ticks())
	}
}

func TestConflictingSourcesAreSingular(t *testing.T) {
	a := device.NewPin()
	c := New("conflict")
	c.AddElement(
		device.NewVoltageSource("v1", a, nil, 5),
		device.NewVoltageSource("v2", a, nil, 10),
	)
	if err := c.Prepare(); errors.Cause(err) != matrix.ErrSingularMatrix {
		t.Errorf("err = %v, want %v", err, matrix.ErrSingularMatrix)
	}
}

func TestZeroResistance(t *testing.T) {
	a := device.NewPin()
	c := New("short")
	c.AddElement(
		device.NewVoltageSource("v", a, nil, 5),
		device.NewResistor("r", a, nil, 0),
	)
	err := c.Prepare()
	if err == nil || !strings.Contains(err.Error(), "stamping device r") {
		t.Errorf("err = %v", err)
	}
}

func TestSetTickRate(t *testing.T) {
	a := device.NewPin()
	c := New("ac")
	c.AddElement(
		device.NewACVoltageSource("v", a, nil, 1, 1),
		device.NewResistor("r", a, nil, 1),
	)

	for _, r := range []float64{0, -1, math.NaN(), math.Inf(1), 0.2} {
		if err := c.SetTickRate(r); errors.Cause(err) != ErrInvalidTickRate {
			t.Errorf("SetTickRate(%g) = %v", r, err)
		}
	}
	if c.TickRate() != DefaultOptions().TickRate {
		t.Errorf("rejected rate changed the tick rate to %g", c.TickRate())
	}

	if err := c.Prepare(); err != nil {
		t.Fatal(err)
	}
	if err := c.SetTickRate(0.1); err != nil {
		t.Fatal(err)
	}
	if c.State() != Dirty || c.TickRate() != 0.1 {
		t.Errorf("state = %s, rate = %g", c.State(), c.TickRate())
	}
}

func TestPrepareClampsTickRate(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.TickRate = 1
	opts.Logger = log.New(&buf, "", 0)

	a := device.NewPin()
	c := NewWithOptions("clamp", opts)
	c.AddElement(
		device.NewACVoltageSource("v", a, nil, 1, 1),
		device.NewResistor("r", a, nil, 1),
	)
	if err := c.Prepare(); err != nil {
		t.Fatal(err)
	}
	if c.TickRate() != 0.125 {
		t.Errorf("tick rate = %g, want 0.125", c.TickRate())
	}
	if !strings.Contains(buf.String(), "clamped") {
		t.Errorf("log = %q", buf.String())
	}
}

func TestWatchAndTime(t *testing.T) {
	a := device.NewPin()
	r := device.NewResistor("r", a, nil, 2)
	c := New("watch")
	c.AddElement(device.NewVoltageSource("v", a, nil, 4), r)

	var calls int
	var last float64
	c.Watch(r, func(d device.Device) {
		calls++
		last = d.Current()
	})
	for i := 0; i < 4; i++ {
		if err := c.Tick(); err != nil {
			t.Fatal(err)
		}
	}
	if calls != 4 || math.Abs(last-2) > 1e-12 {
		t.Errorf("calls = %d, last = %g", calls, last)
	}
	if math.Abs(c.Time()-4*c.TickRate()) > 1e-12 || c.Ticks() != 4 {
		t.Errorf("time = %g, ticks = %d", c.Time(), c.Ticks())
	}
}

func TestElementsAndSolution(t *testing.T) {
	a := device.NewNamedPin("a")
	v := device.NewVoltageSource("v", a, nil, 4)
	r := device.NewResistor("r", a, nil, 2)
	c := New("sol")
	if c.GetSolution() != nil {
		t.Error("solution before prepare")
	}
	c.AddElement(v, r, v)
	if n := len(c.Elements()); n != 2 {
		t.Fatalf("elements = %d, want 2", n)
	}
	if err := c.Prepare(); err != nil {
		t.Fatal(err)
	}
	sol := c.GetSolution()
	for key, want := range map[string]float64{"V(a)": 4, "I(r)": 2, "I(v)": -2} {
		if got, ok := sol[key]; !ok || math.Abs(got-want) > 1e-12 {
			t.Errorf("%s = %g, want %g", key, got, want)
		}
	}

	if !c.RemoveElement(r) || c.RemoveElement(r) {
		t.Error("remove should succeed exactly once")
	}
	if c.State() != Dirty {
		t.Errorf("state = %s after remove", c.State())
	}
}

func TestPrepareIsIdempotent(t *testing.T) {
	f := func(v0, i0 int8, r0 uint8) bool {
		a, b := device.NewPin(), device.NewPin()
		c := New("idem")
		c.AddElement(
			device.NewVoltageSource("v", a, nil, float64(v0)),
			device.NewResistor("r1", a, b, float64(r0)+1),
			device.NewResistor("r2", b, nil, 3),
			device.NewCurrentSource("i", b, nil, float64(i0)/10),
		)
		if err := c.Prepare(); err != nil {
			return false
		}
		first := c.X()
		c.Dirty()
		if err := c.Prepare(); err != nil {
			return false
		}
		second := c.X()
		for i := range first {
			if math.Abs(first[i]-second[i]) > 1e-12 {
				return false
			}
		}
		return true
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

// bridge builds a two source resistor network and returns every element.
func bridge(v, i float64, r [4]float64) []device.Device {
	a, b, m := device.NewPin(), device.NewPin(), device.NewPin()
	return []device.Device{
		device.NewVoltageSource("v", a, nil, v),
		device.NewCurrentSource("i", b, nil, i),
		device.NewResistor("r1", a, m, r[0]),
		device.NewResistor("r2", m, b, r[1]),
		device.NewResistor("r3", m, nil, r[2]),
		device.NewResistor("r4", b, nil, r[3]),
	}
}

func resistances(raw [4]uint8) [4]float64 {
	var r [4]float64
	for k, x := range raw {
		r[k] = float64(x)/10 + 0.5
	}
	return r
}

func TestPowerIsConserved(t *testing.T) {
	f := func(v, i int8, raw [4]uint8) bool {
		elements := bridge(float64(v), float64(i)/10, resistances(raw))
		c := New("power")
		c.AddElement(elements...)
		if err := c.Prepare(); err != nil {
			return false
		}
		var sum, scale float64
		for _, e := range elements {
			p := device.Power(e)
			sum += p
			scale += math.Abs(p)
		}
		return math.Abs(sum) <= 1e-9*(1+scale)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestSuperposition(t *testing.T) {
	solve := func(v, i float64, r [4]float64) []float64 {
		c := New("superposition")
		c.AddElement(bridge(v, i, r)...)
		if err := c.Prepare(); err != nil {
			return nil
		}
		return c.X()[:3]
	}
	f := func(v, i int8, raw [4]uint8) bool {
		r := resistances(raw)
		both := solve(float64(v), float64(i), r)
		onlyV := solve(float64(v), 0, r)
		onlyI := solve(0, float64(i), r)
		if both == nil || onlyV == nil || onlyI == nil {
			return false
		}
		for k := range both {
			if math.Abs(both[k]-onlyV[k]-onlyI[k]) > 1e-9*(1+math.Abs(both[k])) {
				return false
			}
		}
		return true
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestPrintSystem(t *testing.T) {
	a := device.NewPin()
	c := New("print")
	var buf bytes.Buffer
	c.PrintSystem(&buf)
	if !strings.Contains(buf.String(), "not built") {
		t.Errorf("output = %q", buf.String())
	}

	c.AddElement(device.NewVoltageSource("v", a, nil, 4), device.NewResistor("r", a, nil, 2))
	if err := c.Prepare(); err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	c.PrintSystem(&buf)
	if !strings.Contains(buf.String(), "Circuit Equations (2x2)") {
		t.Errorf("output = %q", buf.String())
	}
}
