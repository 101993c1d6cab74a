package device

import (
	"github.com/edp1096/toy-mna/internal/consts"
	"github.com/edp1096/toy-mna/pkg/matrix"
)

// BJT is an Ebers-Moll transistor with pins collector, base, emitter.
type BJT struct {
	BaseDevice
	PNP bool
	Is  float64 // Transport saturation current
	Bf  float64 // Forward beta
	Br  float64 // Reverse beta
	Vt  float64 // Thermal voltage
}

var _ NonLinear = (*BJT)(nil)

func NewBJT(name string, c, b, e *Pin, pnp bool) *BJT {
	q := &BJT{BaseDevice: newBaseDevice(name, 0, c, b, e), PNP: pnp}
	q.setDefaultParameters()
	return q
}

func (q *BJT) GetType() string { return "Q" }

func (q *BJT) setDefaultParameters() {
	q.Is = 1e-6
	q.Bf = 100
	q.Br = q.reverseBeta()
	q.Vt = consts.ThermalVoltage
	q.Value = q.Bf
}

// reverseBeta makes alphaR a twentieth of alphaF.
func (q *BJT) reverseBeta() float64 {
	alphaR := q.Bf / (q.Bf + 1) / 20
	return alphaR / (1 - alphaR)
}

func (q *BJT) SetModelParameters(params map[string]float64) {
	if is, ok := params["is"]; ok {
		q.Is = is
	}
	if bf, ok := params["bf"]; ok && bf > 0 {
		q.Bf = bf
		q.Br = q.reverseBeta()
	}
	if br, ok := params["br"]; ok && br > 0 {
		q.Br = br
	}
	if temp, ok := params["temp"]; ok {
		q.Vt = thermalVoltage(temp)
	}
	q.Value = q.Bf
}

func (q *BJT) C() *Pin { return q.pins[0] }
func (q *BJT) B() *Pin { return q.pins[1] }
func (q *BJT) E() *Pin { return q.pins[2] }

func (q *BJT) sign() float64 {
	if q.PNP {
		return -1
	}
	return 1
}

type bjtPoint struct {
	ic, ib, ie float64 // currents into each terminal
	gF, gR     float64
	alphaF     float64
	alphaR     float64
}

func (q *BJT) operatingPoint() bjtPoint {
	s := q.sign()
	vc, vb, ve := q.C().Voltage(), q.B().Voltage(), q.E().Voltage()
	vbe := s * (vb - ve)
	vbc := s * (vb - vc)

	eF, sF := limitedExp(vbe / q.Vt)
	eR, sR := limitedExp(vbc / q.Vt)
	iF := q.Is * (eF - 1)
	iR := q.Is * (eR - 1)

	p := bjtPoint{
		gF:     q.Is / q.Vt * sF,
		gR:     q.Is / q.Vt * sR,
		alphaF: q.Bf / (q.Bf + 1),
		alphaR: q.Br / (q.Br + 1),
	}
	p.ic = s * (p.alphaF*iF - iR)
	p.ie = -s * (iF - p.alphaR*iR)
	p.ib = -(p.ic + p.ie)
	return p
}

// Stamp injects the negated terminal currents at the present operating point.
func (q *BJT) Stamp(s matrix.Stamper) error {
	p := q.operatingPoint()
	for i, current := range []float64{p.ic, p.ib, p.ie} {
		if err := s.StampCurrent(q.pins[i].Address(), matrix.Ground, -current); err != nil {
			return err
		}
	}
	return nil
}

// StampSmallSignal writes d(terminal current)/d(node voltage). The pattern is
// the same for both polarities.
func (q *BJT) StampSmallSignal(s matrix.Stamper) error {
	p := q.operatingPoint()
	c, b, e := q.C().Address(), q.B().Address(), q.E().Address()

	rowC := [3]float64{p.gR, p.alphaF*p.gF - p.gR, -p.alphaF * p.gF}
	rowE := [3]float64{-p.alphaR * p.gR, -p.gF + p.alphaR*p.gR, p.gF}
	var rowB [3]float64
	for i := range rowB {
		rowB[i] = -(rowC[i] + rowE[i])
	}

	nodes := [3]int{c, b, e}
	for k, row := range [3][3]float64{rowC, rowB, rowE} {
		for m, col := range nodes {
			if err := s.StampLHS(nodes[k], col, row[m]); err != nil {
				return err
			}
		}
	}
	return nil
}

// Voltage is the base-emitter voltage.
func (q *BJT) Voltage() float64 {
	return VoltageDiff(q.B(), q.E())
}

// Current is the collector current.
func (q *BJT) Current() float64 {
	return q.operatingPoint().ic
}

func (q *BJT) BaseCurrent() float64 {
	return q.operatingPoint().ib
}

func (q *BJT) EmitterCurrent() float64 {
	return q.operatingPoint().ie
}
