package analysis

import (
	"github.com/edp1096/toy-mna/pkg/circuit"
	"github.com/pkg/errors"
)

type OperatingPoint struct{ BaseAnalysis }

func NewOP() *OperatingPoint {
	return &OperatingPoint{
		BaseAnalysis: *NewBaseAnalysis(),
	}
}

func (op *OperatingPoint) Setup(ckt *circuit.Circuit) error {
	op.Circuit = ckt
	return nil
}

// Execute rebuilds the circuit and records the initial condition solution,
// which for a circuit without charged storage is its DC operating point.
func (op *OperatingPoint) Execute() error {
	if op.Circuit == nil {
		return errors.New("circuit not set")
	}
	op.Circuit.Dirty()
	if err := op.Circuit.Prepare(); err != nil {
		return errors.Wrap(err, "operating point")
	}
	if err := op.checkConvergence(); err != nil {
		return errors.Wrap(err, "operating point")
	}

	for key, value := range op.Circuit.GetSolution() {
		op.results[key] = []float64{value}
	}
	return nil
}
