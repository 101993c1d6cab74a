package analysis

import (
	"fmt"

	"github.com/edp1096/toy-mna/pkg/circuit"
	"github.com/edp1096/toy-mna/pkg/device"
	"github.com/pkg/errors"
)

// sweepable is a source whose DC value can be driven by a sweep.
type sweepable interface {
	device.Device
	SetValue(v float64)
}

type voltageSweep struct{ *device.VoltageSource }

func (s voltageSweep) SetValue(v float64) { s.SetSourceVoltage(v) }

type currentSweep struct{ *device.CurrentSource }

func (s currentSweep) SetValue(v float64) { s.SetSourceCurrent(v) }

type DCSweep struct {
	BaseAnalysis
	sourceNames []string    // Names of voltage/current sources to sweep
	startVals   []float64   // Start values for each source
	stopVals    []float64   // Stop values for each source
	increments  []float64   // Incremental value of steps for each source
	sweepVals   [][]float64 // Generated sweep values for each source
	origVals    []float64   // Original values of the sources
	sources     []sweepable
}

func NewDCSweep(sources []string, starts, stops, increments []float64) (*DCSweep, error) {
	if len(sources) != len(starts) || len(sources) != len(stops) || len(sources) != len(increments) {
		return nil, errors.New("inconsistent sweep parameter lengths")
	}
	if len(sources) == 0 || len(sources) > 2 {
		return nil, errors.Errorf("unsupported number of sweep sources: %d", len(sources))
	}

	dc := &DCSweep{
		BaseAnalysis: *NewBaseAnalysis(),
		sourceNames:  sources,
		startVals:    starts,
		stopVals:     stops,
		increments:   increments,
		sweepVals:    make([][]float64, len(sources)),
		origVals:     make([]float64, len(sources)),
	}

	// Generate sweep values for each source
	for i := range sources {
		if increments[i] == 0 || (stops[i]-starts[i])/increments[i] < 0 {
			return nil, errors.Errorf("sweep of %s never reaches %g", sources[i], stops[i])
		}
		n := int((stops[i]-starts[i])/increments[i]+1e-9) + 1
		sweep := make([]float64, n)
		for k := range sweep {
			sweep[k] = starts[i] + float64(k)*increments[i]
		}
		dc.sweepVals[i] = sweep
	}

	return dc, nil
}

func (dc *DCSweep) Setup(ckt *circuit.Circuit) error {
	dc.Circuit = ckt
	dc.sources = dc.sources[:0]

	for i, name := range dc.sourceNames {
		var found sweepable
		for _, dev := range ckt.Elements() {
			if dev.GetName() != name {
				continue
			}
			switch v := dev.(type) {
			case *device.VoltageSource:
				found = voltageSweep{v}
			case *device.CurrentSource:
				found = currentSweep{v}
			}
		}
		if found == nil {
			return errors.Errorf("source %s not found", name)
		}
		dc.origVals[i] = found.GetValue()
		dc.sources = append(dc.sources, found)
	}

	return nil
}

func (dc *DCSweep) Execute() error {
	if dc.Circuit == nil {
		return errors.New("circuit not set")
	}
	defer dc.restore()

	if len(dc.sources) == 1 {
		for _, val := range dc.sweepVals[0] {
			if err := dc.point(val); err != nil {
				return err
			}
		}
		return nil
	}

	// Nested sweep: the second source is the outer loop.
	for _, outer := range dc.sweepVals[1] {
		dc.sources[1].SetValue(outer)
		dc.results["SWEEP2"] = append(dc.results["SWEEP2"], outer)
		for _, val := range dc.sweepVals[0] {
			if err := dc.point(val); err != nil {
				return errors.Wrapf(err, "%s=%g", dc.sourceNames[1], outer)
			}
		}
	}
	return nil
}

func (dc *DCSweep) point(val float64) error {
	name := dc.sourceNames[0]
	dc.sources[0].SetValue(val)
	dc.Circuit.Dirty()
	if err := dc.Circuit.Prepare(); err != nil {
		return errors.Wrapf(err, "%s=%g", name, val)
	}
	if err := dc.checkConvergence(); err != nil {
		return errors.Wrapf(err, "%s=%g", name, val)
	}
	dc.StoreSweepResult(val, dc.Circuit.GetSolution())
	return nil
}

func (dc *DCSweep) restore() {
	for i, s := range dc.sources {
		s.SetValue(dc.origVals[i])
	}
	dc.Circuit.Dirty()
}

// Label names the swept quantity for plots and tables.
func (dc *DCSweep) Label() string {
	return fmt.Sprintf("%s (%s)", dc.sourceNames[0], dc.unit())
}

func (dc *DCSweep) unit() string {
	if len(dc.sources) > 0 {
		if _, ok := dc.sources[0].(currentSweep); ok {
			return "A"
		}
	}
	return "V"
}
