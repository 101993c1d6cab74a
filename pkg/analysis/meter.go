package analysis

import (
	"fmt"
	"math"

	"github.com/edp1096/toy-mna/pkg/circuit"
	"github.com/edp1096/toy-mna/pkg/device"
)

type Quantity int

const (
	Voltage Quantity = iota
	Current
	Power
)

func (q Quantity) String() string {
	switch q {
	case Current:
		return "I"
	case Power:
		return "P"
	}
	return "V"
}

func (q Quantity) read(d device.Device) float64 {
	switch q {
	case Current:
		return d.Current()
	case Power:
		return device.Power(d)
	}
	return d.Voltage()
}

// Meter samples one quantity of a device after every tick and keeps its
// running average, RMS and extremes.
type Meter struct {
	Device   device.Device
	Quantity Quantity

	count    int
	sum      float64
	sumSq    float64
	min, max float64
	last     float64
}

func NewMeter(d device.Device, q Quantity) *Meter {
	return &Meter{Device: d, Quantity: q}
}

// Attach samples the meter on every tick of ckt.
func (m *Meter) Attach(ckt *circuit.Circuit) {
	ckt.Watch(m.Device, func(device.Device) { m.Sample() })
}

func (m *Meter) Sample() {
	v := m.Quantity.read(m.Device)
	if m.count == 0 {
		m.min, m.max = v, v
	}
	m.count++
	m.sum += v
	m.sumSq += v * v
	m.min = math.Min(m.min, v)
	m.max = math.Max(m.max, v)
	m.last = v
}

func (m *Meter) Reset() {
	*m = Meter{Device: m.Device, Quantity: m.Quantity}
}

func (m *Meter) Count() int    { return m.count }
func (m *Meter) Last() float64 { return m.last }
func (m *Meter) Min() float64  { return m.min }
func (m *Meter) Max() float64  { return m.max }

func (m *Meter) Average() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}

func (m *Meter) RMS() float64 {
	if m.count == 0 {
		return 0
	}
	return math.Sqrt(m.sumSq / float64(m.count))
}

func (m *Meter) String() string {
	return fmt.Sprintf("%s(%s): avg=%g rms=%g min=%g max=%g n=%d",
		m.Quantity, m.Device.GetName(), m.Average(), m.RMS(), m.min, m.max, m.count)
}
