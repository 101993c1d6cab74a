package device

import (
	"fmt"
	"math"
	"strings"
)

// Waveform is a source value as a function of time.
type Waveform interface {
	At(t float64) float64
	String() string
}

// Sine is offset + amplitude*sin(2πft + phase), phase in degrees.
type Sine struct {
	Offset    float64
	Amplitude float64
	Frequency float64
	Phase     float64
}

func (s *Sine) At(t float64) float64 {
	return s.Offset + s.Amplitude*math.Sin(2*math.Pi*s.Frequency*t+s.Phase*math.Pi/180)
}

// MinTickRate samples each period at least eight times.
func (s *Sine) MinTickRate() float64 {
	if s.Frequency <= 0 {
		return math.MaxFloat64
	}
	return 1.0 / (s.Frequency * 8)
}

func (s *Sine) String() string {
	return fmt.Sprintf("SIN(%g %g %g %g)", s.Offset, s.Amplitude, s.Frequency, s.Phase)
}

// Square swings between +Amplitude and -Amplitude around Offset. Duty is
// the high fraction of the period.
type Square struct {
	Offset    float64
	Amplitude float64
	Frequency float64
	Duty      float64
}

func (s *Square) At(t float64) float64 {
	if s.Frequency <= 0 {
		return s.Offset + s.Amplitude
	}
	period := 1.0 / s.Frequency
	if math.Mod(t, period) < s.Duty*period {
		return s.Offset + s.Amplitude
	}
	return s.Offset - s.Amplitude
}

func (s *Square) String() string {
	return fmt.Sprintf("SQUARE(%g %g %g %g)", s.Amplitude, s.Frequency, s.Duty, s.Offset)
}

type Pulse struct {
	V1, V2 float64
	Delay  float64
	Rise   float64
	Fall   float64
	Width  float64
	Period float64
}

func (p *Pulse) At(t float64) float64 {
	if t < p.Delay {
		return p.V1
	}

	t = t - p.Delay
	if p.Period > 0 {
		t = math.Mod(t, p.Period)
	}

	if t < p.Rise {
		return p.V1 + (p.V2-p.V1)*t/p.Rise
	}

	if t < p.Rise+p.Width {
		return p.V2
	}

	fallStart := p.Rise + p.Width
	if t < fallStart+p.Fall {
		return p.V2 - (p.V2-p.V1)*(t-fallStart)/p.Fall
	}

	return p.V1
}

func (p *Pulse) String() string {
	return fmt.Sprintf("PULSE(%g %g %g %g %g %g %g)", p.V1, p.V2, p.Delay, p.Rise, p.Fall, p.Width, p.Period)
}

// PWL interpolates linearly between (Times[i], Values[i]) and holds the end
// values outside the range.
type PWL struct {
	Times  []float64
	Values []float64
}

func (p *PWL) At(t float64) float64 {
	if len(p.Times) == 0 {
		return 0
	}
	if t <= p.Times[0] {
		return p.Values[0]
	}

	lastIdx := len(p.Times) - 1
	if t >= p.Times[lastIdx] {
		return p.Values[lastIdx]
	}

	for i := 1; i < len(p.Times); i++ {
		if t <= p.Times[i] {
			t1, t2 := p.Times[i-1], p.Times[i]
			v1, v2 := p.Values[i-1], p.Values[i]
			return v1 + (v2-v1)*(t-t1)/(t2-t1)
		}
	}

	return p.Values[lastIdx]
}

func (p *PWL) String() string {
	var sb strings.Builder
	sb.WriteString("PWL(")
	for i := range p.Times {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%g %g", p.Times[i], p.Values[i])
	}
	sb.WriteByte(')')
	return sb.String()
}
