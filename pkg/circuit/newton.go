package circuit

import (
	"github.com/edp1096/toy-mna/pkg/matrix"
	"gonum.org/v1/gonum/floats"
)

type NewtonStats struct {
	Iterations int
	Residual   float64
	Converged  bool
}

// solve runs damped Newton-Raphson from x and leaves the last iterate
// broadcast. A step that does not reduce |F| is halved up to maxDamping
// times before it is taken anyway.
func (s *nonLinearSystem) solve(x []float64, maxIter, maxDamping int, tol float64) ([]float64, NewtonStats, error) {
	var stats NewtonStats

	x = append([]float64(nil), x...)
	dx := make([]float64, len(x))

	fx, err := s.residual(x)
	if err != nil {
		return nil, stats, err
	}

	stats.Converged = matrix.Norm(fx) < tol
	for !stats.Converged && stats.Iterations < maxIter {
		nfx := matrix.Norm(fx)
		stats.Iterations++

		s.broadcast(x)
		j, err := s.jacobian()
		if err != nil {
			return nil, stats, err
		}
		lu, err := matrix.FactorLU(j)
		if err != nil {
			return nil, stats, err
		}
		step := lu.Solve(fx)

		t := make([]float64, len(x))
		floats.SubTo(t, x, step)
		ft, err := s.residual(t)
		if err != nil {
			return nil, stats, err
		}

		alpha := 1.0
		for k := 0; !(matrix.Norm(ft) < nfx) && k < maxDamping; k++ {
			alpha /= 2
			copy(t, x)
			floats.AddScaled(t, -alpha, step)
			if ft, err = s.residual(t); err != nil {
				return nil, stats, err
			}
		}

		floats.SubTo(dx, x, t)
		x, fx = t, ft
		stats.Converged = matrix.Norm(fx) < tol || matrix.Norm(dx) < tol
	}

	s.broadcast(x)
	stats.Residual = matrix.Norm(fx)
	return x, stats, nil
}
