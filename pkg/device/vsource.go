package device

import (
	"math"

	"github.com/edp1096/toy-mna/pkg/matrix"
)

// VoltageSource holds V(A) - V(B) at its value. Its branch current flows
// from A to B through the source.
type VoltageSource struct {
	BaseDevice
	branch Branch
}

var _ RHSElement = (*VoltageSource)(nil)

func NewVoltageSource(name string, a, b *Pin, voltage float64) *VoltageSource {
	return &VoltageSource{BaseDevice: newBaseDevice(name, voltage, a, b)}
}

func (v *VoltageSource) GetType() string { return "V" }

func (v *VoltageSource) SourceVoltage() float64 {
	return v.Value
}

// SetSourceVoltage changes the DC value. The owning circuit must be marked dirty.
func (v *VoltageSource) SetSourceVoltage(value float64) {
	v.Value = value
}

func (v *VoltageSource) SetBranch(b Branch) {
	v.branch = b
}

func (v *VoltageSource) Branch() Branch {
	return v.branch
}

func (v *VoltageSource) Stamp(s matrix.Stamper) error {
	return s.StampVoltageSource(v.A().Address(), v.B().Address(), v.branch.Address(), v.Value)
}

func (v *VoltageSource) Current() float64 {
	return v.branch.Current()
}

// WaveformVoltageSource follows a time function. Only the RHS of its
// constraint changes between ticks, so the LHS stays factored.
type WaveformVoltageSource struct {
	VoltageSource
	Shape Waveform

	tickRate float64
	elapsed  float64
}

var _ Dynamic = (*WaveformVoltageSource)(nil)

func NewWaveformVoltageSource(name string, a, b *Pin, shape Waveform) *WaveformVoltageSource {
	return &WaveformVoltageSource{
		VoltageSource: VoltageSource{BaseDevice: newBaseDevice(name, shape.At(0), a, b)},
		Shape:         shape,
	}
}

// NewACVoltageSource is a sine of the given amplitude and frequency
// starting at 0 V.
func NewACVoltageSource(name string, a, b *Pin, amplitude, frequency float64) *WaveformVoltageSource {
	return NewWaveformVoltageSource(name, a, b, &Sine{Amplitude: amplitude, Frequency: frequency})
}

func NewSquareVoltageSource(name string, a, b *Pin, amplitude, frequency, duty float64) *WaveformVoltageSource {
	return NewWaveformVoltageSource(name, a, b, &Square{Amplitude: amplitude, Frequency: frequency, Duty: duty})
}

// Elapsed is the source's own time since the last rebuild.
func (w *WaveformVoltageSource) Elapsed() float64 {
	return w.elapsed
}

func (w *WaveformVoltageSource) Initiate(tickRate float64) {
	w.tickRate = tickRate
	w.elapsed = 0
	w.Value = w.Shape.At(0)
}

func (w *WaveformVoltageSource) PreEvaluation(s matrix.Stamper) error {
	w.Value = w.Shape.At(w.elapsed + w.tickRate)
	return s.StampRHS(w.branch.Address(), w.Value)
}

func (w *WaveformVoltageSource) PosEvaluation() {
	w.elapsed += w.tickRate
}

func (w *WaveformVoltageSource) MinTickRate() float64 {
	if m, ok := w.Shape.(interface{ MinTickRate() float64 }); ok {
		return m.MinTickRate()
	}
	return math.MaxFloat64
}
