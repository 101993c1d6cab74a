package analysis

import (
	"github.com/edp1096/toy-mna/pkg/circuit"
	"github.com/pkg/errors"
)

const (
	OP int = iota
	TRAN
	DC
)

var ErrNotConverged = errors.New("newton did not converge")

type Analysis interface {
	Setup(ckt *circuit.Circuit) error
	Execute() error
	GetResults() map[string][]float64
}

type BaseAnalysis struct {
	Circuit *circuit.Circuit
	results map[string][]float64 // key: variable name, value: result by time or sweep point
}

func NewBaseAnalysis() *BaseAnalysis {
	return &BaseAnalysis{results: make(map[string][]float64)}
}

func (a *BaseAnalysis) checkConvergence() error {
	if a.Circuit.Analysis() == nil || !a.Circuit.Analysis().IsNonLinear() {
		return nil
	}
	if stats := a.Circuit.NewtonStats(); !stats.Converged {
		return errors.Wrapf(ErrNotConverged, "%d iterations, residual %g", stats.Iterations, stats.Residual)
	}
	return nil
}

func (a *BaseAnalysis) StoreTimeResult(time float64, solution map[string]float64) {
	// Ignore same or earlier time
	if times := a.results["TIME"]; len(times) > 0 && time <= times[len(times)-1] {
		return
	}
	a.store("TIME", time, solution)
}

func (a *BaseAnalysis) StoreSweepResult(value float64, solution map[string]float64) {
	a.store("SWEEP", value, solution)
}

func (a *BaseAnalysis) store(axis string, x float64, solution map[string]float64) {
	a.results[axis] = append(a.results[axis], x)
	for name, value := range solution {
		a.results[name] = append(a.results[name], value)
	}
}

func (a *BaseAnalysis) GetResults() map[string][]float64 {
	return a.results
}
