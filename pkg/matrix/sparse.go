package matrix

import (
	"github.com/edp1096/sparse"
	"github.com/pkg/errors"
)

// SparseLU factors a closed system with Markowitz ordering. The sparse
// package indexes from 1, so vectors are shifted on the way in and out.
type SparseLU struct {
	Size   int
	matrix *sparse.Matrix
	config *sparse.Configuration
}

func NewSparseLU(a [][]float64) (*SparseLU, error) {
	size := len(a)
	if size == 0 {
		return &SparseLU{}, nil
	}

	config := &sparse.Configuration{
		Real:           true,
		Expandable:     true,
		ModifiedNodal:  true,
		TiesMultiplier: 5,
		PrinterWidth:   140,
	}

	mat, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, errors.Wrap(err, "creating sparse matrix")
	}

	for i, row := range a {
		for j, v := range row {
			if v != 0 {
				mat.GetElement(int64(i+1), int64(j+1)).Real += v
			}
		}
	}

	if err := mat.Factor(); err != nil {
		mat.Destroy()
		return nil, errors.Wrapf(ErrSingularMatrix, "sparse factorization: %v", err)
	}

	return &SparseLU{Size: size, matrix: mat, config: config}, nil
}

func (s *SparseLU) Solve(rhs []float64) ([]float64, error) {
	if s.matrix == nil {
		return []float64{}, nil
	}
	if len(rhs) != s.Size {
		return nil, errors.Wrapf(ErrIndexRange, "rhs length %d, size %d", len(rhs), s.Size)
	}

	in := make([]float64, s.Size+1)
	copy(in[1:], rhs)

	out, err := s.matrix.Solve(in)
	if err != nil {
		return nil, errors.Wrap(err, "sparse solve")
	}

	x := make([]float64, s.Size)
	copy(x, out[1:])
	return x, nil
}

// Print dumps the factored matrix through the sparse package's printer.
func (s *SparseLU) Print() {
	if s.matrix != nil {
		s.matrix.Print(false, true, true)
	}
}

func (s *SparseLU) Destroy() {
	if s.matrix != nil {
		s.matrix.Destroy()
		s.matrix = nil
	}
}
