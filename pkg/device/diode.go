package device

import (
	"math"

	"github.com/edp1096/toy-mna/internal/consts"
	"github.com/edp1096/toy-mna/pkg/matrix"
)

// Diode follows the Shockley equation with forward current from A to B.
type Diode struct {
	BaseDevice
	Is   float64 // Saturation current
	N    float64 // Emission coefficient
	Vt   float64 // Thermal voltage
	Gmin float64 // Floor of the small-signal conductance
}

var _ NonLinear = (*Diode)(nil)

func NewDiode(name string, a, b *Pin) *Diode {
	d := &Diode{BaseDevice: newBaseDevice(name, 0, a, b)}
	d.setDefaultParameters()
	return d
}

// NewDiodeFromForward fits N so the diode conducts openCurrent at
// forwardVoltage.
func NewDiodeFromForward(name string, a, b *Pin, forwardVoltage, openCurrent, saturation float64) *Diode {
	d := NewDiode(name, a, b)
	d.Is = saturation
	d.N = forwardVoltage / (d.Vt * math.Log(openCurrent/saturation+1))
	d.Value = d.Is
	return d
}

func (d *Diode) GetType() string { return "D" }

func (d *Diode) setDefaultParameters() {
	d.Is = 1e-6
	d.N = 1.0
	d.Vt = consts.ThermalVoltage
	d.Gmin = consts.Gmin
	d.Value = d.Is
}

func (d *Diode) SetModelParameters(params map[string]float64) {
	if is, ok := params["is"]; ok {
		d.Is = is
	}
	if n, ok := params["n"]; ok && n > 0 {
		d.N = n
	}
	if temp, ok := params["temp"]; ok {
		d.Vt = thermalVoltage(temp)
	}
	if vt, ok := params["vt"]; ok && vt > 0 {
		d.Vt = vt
	}
	d.Value = d.Is
}

func (d *Diode) CurrentAt(v float64) float64 {
	e, _ := limitedExp(v / (d.N * d.Vt))
	return d.Is * (e - 1)
}

func (d *Diode) ConductanceAt(v float64) float64 {
	nvt := d.N * d.Vt
	_, slope := limitedExp(v / nvt)
	return math.Max(d.Is/nvt*slope, d.Gmin)
}

// Threshold is the voltage at which the diode conducts 1 mA.
func (d *Diode) Threshold() float64 {
	return d.N * d.Vt * math.Log(1e-3/d.Is+1)
}

func (d *Diode) Stamp(s matrix.Stamper) error {
	return s.StampCurrent(d.A().Address(), d.B().Address(), -d.CurrentAt(d.Voltage()))
}

func (d *Diode) StampSmallSignal(s matrix.Stamper) error {
	return s.StampConductance(d.A().Address(), d.B().Address(), d.ConductanceAt(d.Voltage()))
}

func (d *Diode) Current() float64 {
	return d.CurrentAt(d.Voltage())
}
