package analysis

import (
	"github.com/edp1096/toy-mna/pkg/circuit"
	"github.com/edp1096/toy-mna/pkg/util"
	"github.com/pkg/errors"
)

// Transient ticks the circuit from 0 to stopTime at a fixed step and
// records every tick at or after startTime.
type Transient struct {
	BaseAnalysis
	startTime float64
	stopTime  float64
	timeStep  float64
}

func NewTransient(tStart, tStop, tStep float64) *Transient {
	return &Transient{
		BaseAnalysis: *NewBaseAnalysis(),
		startTime:    tStart,
		stopTime:     tStop,
		timeStep:     tStep,
	}
}

func (tr *Transient) Setup(ckt *circuit.Circuit) error {
	tr.Circuit = ckt
	if tr.stopTime <= tr.startTime || tr.stopTime <= 0 {
		return errors.Errorf("invalid transient window %s to %s",
			util.FormatValueFactor(tr.startTime, "s"), util.FormatValueFactor(tr.stopTime, "s"))
	}
	if tr.timeStep > 0 {
		if err := ckt.SetTickRate(tr.timeStep); err != nil {
			return errors.Wrap(err, "transient step")
		}
	}
	ckt.Dirty()
	return ckt.Prepare()
}

func (tr *Transient) Execute() error {
	if tr.Circuit == nil {
		return errors.New("circuit not set")
	}
	ckt := tr.Circuit

	if tr.startTime <= 0 {
		tr.StoreTimeResult(ckt.Time(), ckt.GetSolution())
	}

	// Stop within half a tick of stopTime.
	for ckt.Time() < tr.stopTime-ckt.TickRate()/2 {
		if err := ckt.Tick(); err != nil {
			return errors.Wrapf(err, "t=%s", util.FormatValueFactor(ckt.Time(), "s"))
		}
		if err := tr.checkConvergence(); err != nil {
			return errors.Wrapf(err, "t=%s", util.FormatValueFactor(ckt.Time(), "s"))
		}
		if ckt.Time() >= tr.startTime {
			tr.StoreTimeResult(ckt.Time(), ckt.GetSolution())
		}
	}
	return nil
}
