package circuit

import (
	"github.com/edp1096/toy-mna/pkg/device"
	"github.com/edp1096/toy-mna/pkg/matrix"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// nonLinearSystem evaluates F(x) = LHS·x - RHS - I(x) over the closed linear
// builder, where I(x) collects the currents the nonlinear elements inject at
// operating point x.
type nonLinearSystem struct {
	base     *matrix.Builder
	scratch  *matrix.Builder
	elements []device.NonLinear
	solution *device.Solution
	gmin     float64
	nodes    int
}

func newNonLinearSystem(base *matrix.Builder, a *Analysis, solution *device.Solution, gmin float64) *nonLinearSystem {
	return &nonLinearSystem{
		base:     base,
		scratch:  matrix.NewBuilder(base.Size(), matrix.Dense),
		elements: a.NonLinears,
		solution: solution,
		gmin:     gmin,
		nodes:    len(a.Nodes),
	}
}

func (s *nonLinearSystem) broadcast(x []float64) {
	s.solution.Set(x)
}

func (s *nonLinearSystem) residual(x []float64) ([]float64, error) {
	s.broadcast(x)
	s.scratch.Reopen()
	for _, e := range s.elements {
		if err := e.Stamp(s.scratch); err != nil {
			return nil, errors.Wrapf(err, "stamping device %s", e.GetName())
		}
	}

	f := s.base.MulLHS(x)
	floats.Sub(f, s.base.RHS())
	floats.Sub(f, s.scratch.RHS())
	return f, nil
}

// jacobian is evaluated at the last broadcast operating point.
func (s *nonLinearSystem) jacobian() ([][]float64, error) {
	s.scratch.Reopen()
	for _, e := range s.elements {
		if err := e.StampSmallSignal(s.scratch); err != nil {
			return nil, errors.Wrapf(err, "stamping device %s", e.GetName())
		}
	}

	j := s.base.LHS()
	small := s.scratch.LHS()
	for i := range j {
		floats.Add(j[i], small[i])
	}
	for i := 0; i < s.nodes; i++ {
		j[i][i] += s.gmin
	}
	return j, nil
}
