package netlist

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/edp1096/toy-mna/pkg/circuit"
	"github.com/edp1096/toy-mna/pkg/device"
	"github.com/edp1096/toy-mna/pkg/matrix"
	"github.com/pkg/errors"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1", 1},
		{"-2.5", -2.5},
		{".5", 0.5},
		{"1k", 1e3},
		{"4.7K", 4.7e3},
		{"1meg", 1e6},
		{"2MEG", 2e6},
		{"10m", 10e-3},
		{"10M", 10e-3},
		{"3u", 3e-6},
		{"22n", 22e-9},
		{"5p", 5e-12},
		{"1f", 1e-15},
		{"1e-3", 1e-3},
		{"2.5e3k", 2.5e6},
		{"10uF", 10e-6},
		{"100ms", 0.1},
		{"5V", 5},
		{"1G", 1e9},
		{"1T", 1e12},
		{"1g", 1e9},
		{"2t", 2e12},
		{"1kohm", 1e3},
		{"4.7mH", 4.7e-3},
		{"60Hz", 60},
		{"1Megohm", 1e6},
	}
	for _, tt := range tests {
		got, err := ParseValue(tt.in)
		if err != nil {
			t.Errorf("ParseValue(%q): %v", tt.in, err)
			continue
		}
		if math.Abs(got-tt.want) > 1e-12*math.Abs(tt.want) {
			t.Errorf("ParseValue(%q) = %g, want %g", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "k", "1..2", "abc", "1k2", "1x", "10kx", "1e", "3volts"} {
		if _, err := ParseValue(bad); err == nil {
			t.Errorf("ParseValue(%q) accepted", bad)
		}
	}
}

const rectifier = `Half wave rectifier
* source
V1 in 0 SIN(0 10 1)
R1 in out 0.5 ; series resistance
D1 out gnd DMOD
.model DMOD D(is=1e-3
+ n=6.16)
.options backend=sparse tickrate=10m
.tran 10m 2 1
.end
R9 ignored 0 1
`

func TestParse(t *testing.T) {
	data, err := Parse(rectifier)
	if err != nil {
		t.Fatal(err)
	}
	if data.Title != "Half wave rectifier" {
		t.Errorf("title = %q", data.Title)
	}
	if len(data.Elements) != 3 {
		t.Fatalf("elements = %+v", data.Elements)
	}

	v := data.Elements[0]
	if v.Type != "V" || v.Params["type"] != "sin" || v.Params["sin"] != "0 10 1" {
		t.Errorf("source = %+v", v)
	}
	if r := data.Elements[1]; r.Value != 0.5 || r.Nodes[0] != "in" || r.Nodes[1] != "out" {
		t.Errorf("resistor = %+v", r)
	}
	if d := data.Elements[2]; d.Params["model"] != "DMOD" {
		t.Errorf("diode = %+v", d)
	}

	model, ok := data.Models["DMOD"]
	if !ok || model.Type != "D" || model.Params["is"] != 1e-3 || model.Params["n"] != 6.16 {
		t.Errorf("model = %+v", model)
	}
	if data.Options["backend"] != "sparse" {
		t.Errorf("options = %v", data.Options)
	}
	if data.Analysis != AnalysisTRAN || data.TranParam.TStep != 10e-3 || data.TranParam.TStop != 2 || data.TranParam.TStart != 1 {
		t.Errorf("tran = %v %+v", data.Analysis, data.TranParam)
	}
	if len(data.Nodes) != 4 {
		t.Errorf("nodes = %v", data.Nodes)
	}
}

func TestParseDC(t *testing.T) {
	data, err := Parse("dc\nV1 a 0 1\nI1 a 0 DC 2m\nR1 a 0 1k\n.dc V1 0 5 1 I1 0 1m 0.5m\n")
	if err != nil {
		t.Fatal(err)
	}
	p := data.DCParam
	if data.Analysis != AnalysisDC || p.Source1 != "V1" || p.Stop1 != 5 || p.Source2 != "I1" || p.Increment2 != 0.5e-3 {
		t.Errorf("dc = %+v", p)
	}
	if data.Elements[1].Value != 2e-3 {
		t.Errorf("current source = %+v", data.Elements[1])
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"t\nX1 a b 1\n",
		"t\nR1 a 1\n",
		"t\nR1 a b\n",
		"t\nR1 a b x\n",
		"t\n+ 1\n",
		"t\n.tran 1m\n",
		"t\n.dc V1 0 1\n",
		"t\n.model M1 Z(is=1)\n",
		"t\n.model M1 D(is)\n",
		"t\n.ac dec 10 1 1k\n",
		"t\nS1 a b ajar\n",
		"t\nI1 a 0 SIN(0 1 1)\n",
		"t\n.options backend\n",
		"t\nC1 a b 1u ic\n",
		"t\n.model dm ()\n",
		"t\nR1 a b 1g5\n",
		"t\nR1 a b 1x\n",
		"t\n.tran 1m 1y\n",
	}
	for _, input := range tests {
		_, err := Parse(input)
		if errors.Cause(err) != ErrSyntax {
			t.Errorf("Parse(%q) = %v, want syntax error", input, err)
			continue
		}
		if !strings.Contains(err.Error(), "line 2") {
			t.Errorf("Parse(%q) = %v, want the line number", input, err)
		}
	}
}

func TestBuildDivider(t *testing.T) {
	data, err := Parse("divider\nV1 in 0 DC 10\nR1 in out 1k\nR2 out gnd 1k\n.op\n")
	if err != nil {
		t.Fatal(err)
	}
	ckt, err := Build(data, circuit.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if ckt.Name() != "divider" {
		t.Errorf("name = %q", ckt.Name())
	}
	if err := ckt.Prepare(); err != nil {
		t.Fatal(err)
	}
	if got := ckt.GetSolution()["V(out)"]; math.Abs(got-5) > 1e-9 {
		t.Errorf("V(out) = %g", got)
	}
}

func TestBuildOptionsAndModels(t *testing.T) {
	data, err := Parse(rectifier)
	if err != nil {
		t.Fatal(err)
	}
	ckt, err := Build(data, circuit.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	opts := ckt.Options()
	if opts.Backend != matrix.Sparse || opts.TickRate != 10e-3 || ckt.TickRate() != 10e-3 {
		t.Errorf("options = %+v", opts)
	}

	d, ok := ckt.Elements()[2].(*device.Diode)
	if !ok || d.Is != 1e-3 || d.N != 6.16 {
		t.Errorf("diode = %+v", ckt.Elements()[2])
	}
	if _, ok := ckt.Elements()[0].(*device.WaveformVoltageSource); !ok {
		t.Errorf("source = %T", ckt.Elements()[0])
	}
}

func TestBuildErrors(t *testing.T) {
	for _, input := range []string{
		"t\nD1 a 0 NOPE\nR1 a 0 1\n",
		"t\n.model Q1 NPN(bf=50)\nD1 a 0 Q1\nR1 a 0 1\n",
		"t\nV1 a 0 PULSE(0 1)\nR1 a 0 1\n",
		"t\n.options backend=gpu\n",
	} {
		data, err := Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q): %v", input, err)
		}
		if _, err := Build(data, circuit.DefaultOptions()); err == nil {
			t.Errorf("Build(%q) accepted", input)
		}
	}
}

func TestBuildAllElements(t *testing.T) {
	input := `all
V1 a 0 10
VS s 0 SQUARE(1 10 0.5)
VP p 0 PULSE(0 1 0 1m 1m 10m 20m)
VW w 0 PWL(0 0 1 1)
R1 a b 1k
RS s 0 1k
RP p 0 1k
RW w 0 1k
C1 b 0 1u ic=1
L1 b c 1m ic=0.5m
R2 c 0 100
D1 b 0
Q1 c b 0 QP
.model QP PNP(bf=50)
S1 a d open
R3 d 0 1k
W1 a e c 0 pickup=50m
R4 e 0 1k
E1 f 0 a 0 2
R5 f 0 1k
F1 g 0 a h 3
R6 h 0 1
R7 g 0 1k
G1 i 0 a 0 1m
R8 i 0 1k
H1 j 0 a k 2
R9 k 0 1
R10 j 0 1k
I1 a 0 1m
.end
`
	data, err := Parse(input)
	if err != nil {
		t.Fatal(err)
	}
	ckt, err := Build(data, circuit.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	types := make(map[string]int)
	for _, e := range ckt.Elements() {
		types[e.GetType()]++
	}
	for _, want := range []string{"V", "R", "C", "L", "D", "Q", "S", "W", "E", "F", "G", "H", "I"} {
		if types[want] == 0 {
			t.Errorf("no element of type %s", want)
		}
	}

	var q *device.BJT
	var sw *device.Switch
	var relay *device.Relay
	for _, e := range ckt.Elements() {
		switch d := e.(type) {
		case *device.BJT:
			q = d
		case *device.Switch:
			sw = d
		case *device.Relay:
			relay = d
		}
	}
	if q == nil || !q.PNP || q.Bf != 50 {
		t.Errorf("bjt = %+v", q)
	}
	if sw == nil || !sw.IsOpen() {
		t.Errorf("switch = %+v", sw)
	}
	if relay == nil || relay.PickupCurrent != 50e-3 {
		t.Errorf("relay = %+v", relay)
	}
}

func TestExportRoundTrip(t *testing.T) {
	input := `round trip
V1 in 0 DC 10
VS sq 0 SQUARE(1 10 0.25)
R1 in mid 1k
R2 mid 0 2k
RS sq 0 10
D1 mid x DX
R3 x 0 100
.model DX D(is=1e-9 n=1.5)
E1 e 0 mid 0 2
R4 e 0 1k
S1 in y closed
R5 y 0 10
`
	data, err := Parse(input)
	if err != nil {
		t.Fatal(err)
	}
	first, err := Build(data, circuit.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Export(&buf, first); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"* round trip", "V1 in 0 DC 10", "SQUARE(1 10 0.25 0)", ".model D_D1 D(", "S1 in y closed", ".end"} {
		if !strings.Contains(out, want) {
			t.Errorf("export lacks %q:\n%s", want, out)
		}
	}

	data2, err := Parse(out)
	if err != nil {
		t.Fatalf("parse exported: %v\n%s", err, out)
	}
	second, err := Build(data2, circuit.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	if err := first.Prepare(); err != nil {
		t.Fatal(err)
	}
	want := first.GetSolution()
	if err := second.Prepare(); err != nil {
		t.Fatal(err)
	}
	got := second.GetSolution()
	if len(got) != len(want) {
		t.Fatalf("solutions differ in size: %v vs %v", got, want)
	}
	for key, w := range want {
		if g, ok := got[key]; !ok || math.Abs(g-w) > 1e-6*(1+math.Abs(w)) {
			t.Errorf("%s = %g, want %g", key, g, w)
		}
	}
}

func TestExportKeepsDeviceState(t *testing.T) {
	input := `state
V1 a 0 DC 12
C1 a b 1u ic=2.5
L1 b 0 10m ic=-0.3
W1 a c b 0 pickup=50m ron=2 roff=1meg
R1 c 0 1k
.end
`
	data, err := Parse(input)
	if err != nil {
		t.Fatal(err)
	}
	first, err := Build(data, circuit.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Export(&buf, first); err != nil {
		t.Fatal(err)
	}
	data2, err := Parse(buf.String())
	if err != nil {
		t.Fatalf("parse exported: %v\n%s", err, buf.String())
	}
	second, err := Build(data2, circuit.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	for _, ckt := range []*circuit.Circuit{first, second} {
		var (
			capacitor *device.Capacitor
			inductor  *device.Inductor
			relay     *device.Relay
		)
		for _, e := range ckt.Elements() {
			switch d := e.(type) {
			case *device.Capacitor:
				capacitor = d
			case *device.Inductor:
				inductor = d
			case *device.Relay:
				relay = d
			}
		}
		if capacitor == nil || capacitor.InitialVoltage() != 2.5 {
			t.Errorf("capacitor = %+v\n%s", capacitor, buf.String())
		}
		if inductor == nil || inductor.Current() != -0.3 {
			t.Errorf("inductor = %+v\n%s", inductor, buf.String())
		}
		if relay == nil || relay.PickupCurrent != 50e-3 || relay.ClosedResistance != 2 || relay.OpenResistance != 1e6 {
			t.Errorf("relay = %+v\n%s", relay, buf.String())
		}
	}
}

func TestExportRenamesElements(t *testing.T) {
	a := device.NewNamedPin("a")
	ckt := circuit.New("names")
	ckt.AddElement(
		device.NewVoltageSource("supply", a, nil, 1),
		device.NewResistor("load", a, nil, 1),
	)
	var buf bytes.Buffer
	if err := Export(&buf, ckt); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "V_supply a 0 DC 1") || !strings.Contains(buf.String(), "R_load a 0 1") {
		t.Errorf("export = %s", buf.String())
	}
}
