package matrix

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var ErrSingularMatrix = errors.New("singular matrix")

// Invert returns the inverse of a by Gauss-Jordan elimination. Rows are
// scaled by their largest magnitude and the pivot is searched down each
// column. a is left untouched.
func Invert(a [][]float64) ([][]float64, error) {
	n := len(a)
	m := Copy(a)
	inv := Identity(n)

	for i := 0; i < n; i++ {
		scale := 0.0
		for _, v := range m[i] {
			scale = math.Max(scale, math.Abs(v))
		}
		if scale == 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
			return nil, errors.Wrapf(ErrSingularMatrix, "row %d", i)
		}
		floats.Scale(1/scale, m[i])
		floats.Scale(1/scale, inv[i])
	}

	det := 1.0
	for col := 0; col < n; col++ {
		p := col
		for r := col + 1; r < n; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[p][col]) {
				p = r
			}
		}
		if p != col {
			m[p], m[col] = m[col], m[p]
			inv[p], inv[col] = inv[col], inv[p]
			det = -det
		}

		pivot := m[col][col]
		det *= pivot
		if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
			return nil, errors.Wrapf(ErrSingularMatrix, "determinant %g at column %d", det, col)
		}

		floats.Scale(1/pivot, m[col])
		floats.Scale(1/pivot, inv[col])

		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			f := m[r][col]
			if f == 0 {
				continue
			}
			floats.AddScaled(m[r], -f, m[col])
			floats.AddScaled(inv[r], -f, inv[col])
		}
	}

	return inv, nil
}

// LU holds a Doolittle factorization packed in one matrix: the unit lower
// triangle below the diagonal, U on and above it.
type LU struct {
	lu [][]float64
}

// FactorLU factors a without pivoting. A zero pivot is reported as
// ErrSingularMatrix, rows are never exchanged.
func FactorLU(a [][]float64) (*LU, error) {
	n := len(a)
	lu := Copy(a)

	for k := 0; k < n; k++ {
		pivot := lu[k][k]
		if pivot == 0 || math.IsNaN(pivot) || math.IsInf(pivot, 0) {
			return nil, errors.Wrapf(ErrSingularMatrix, "zero pivot at step %d", k)
		}
		for i := k + 1; i < n; i++ {
			if lu[i][k] == 0 {
				continue
			}
			f := lu[i][k] / pivot
			lu[i][k] = f
			for j := k + 1; j < n; j++ {
				lu[i][j] -= f * lu[k][j]
			}
		}
	}

	return &LU{lu: lu}, nil
}

func (f *LU) Size() int {
	return len(f.lu)
}

func (f *LU) L() [][]float64 {
	n := len(f.lu)
	l := Identity(n)
	for i := 0; i < n; i++ {
		copy(l[i][:i], f.lu[i][:i])
	}
	return l
}

func (f *LU) U() [][]float64 {
	n := len(f.lu)
	u := Zeros(n, n)
	for i := 0; i < n; i++ {
		copy(u[i][i:], f.lu[i][i:])
	}
	return u
}

// Solve runs forward then backward substitution for one right-hand side.
func (f *LU) Solve(b []float64) []float64 {
	n := len(f.lu)
	x := make([]float64, n)
	copy(x, b)

	for i := 0; i < n; i++ {
		x[i] -= floats.Dot(f.lu[i][:i], x[:i])
	}
	for i := n - 1; i >= 0; i-- {
		x[i] = (x[i] - floats.Dot(f.lu[i][i+1:], x[i+1:])) / f.lu[i][i]
	}

	return x
}

// SolveMatrix solves for every column of b.
func (f *LU) SolveMatrix(b [][]float64) [][]float64 {
	n := len(f.lu)
	cols := 0
	if len(b) > 0 {
		cols = len(b[0])
	}
	x := Zeros(n, cols)
	col := make([]float64, n)
	for j := 0; j < cols; j++ {
		for i := 0; i < n; i++ {
			col[i] = b[i][j]
		}
		s := f.Solve(col)
		for i := 0; i < n; i++ {
			x[i][j] = s[i]
		}
	}
	return x
}

func (f *LU) Inverse() [][]float64 {
	return f.SolveMatrix(Identity(len(f.lu)))
}

// Norm is the Euclidean norm.
// SolveLU solves a·x = b through an LU factorization with partial pivoting.
// Ill-conditioned systems are still solved; only an exactly singular one
// fails.
func SolveLU(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	if n == 0 {
		return []float64{}, nil
	}
	if len(b) != n {
		return nil, errors.Wrapf(ErrIndexRange, "rhs length %d, size %d", len(b), n)
	}

	m := mat.NewDense(n, n, nil)
	for i, row := range a {
		m.SetRow(i, row)
	}
	var lu mat.LU
	lu.Factorize(m)

	var x mat.VecDense
	if err := lu.SolveVecTo(&x, false, mat.NewVecDense(n, append([]float64(nil), b...))); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 0) || math.IsNaN(float64(cond)) {
			return nil, errors.Wrapf(ErrSingularMatrix, "lu solve: %v", err)
		}
	}

	out := make([]float64, n)
	for i := range out {
		out[i] = x.AtVec(i)
		if math.IsNaN(out[i]) || math.IsInf(out[i], 0) {
			return nil, errors.Wrapf(ErrSingularMatrix, "lu solve: x[%d] = %g", i, out[i])
		}
	}
	return out, nil
}

func Norm(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Norm(v, 2)
}

func MulVec(a [][]float64, x []float64) []float64 {
	y := make([]float64, len(a))
	for i, row := range a {
		y[i] = floats.Dot(row, x)
	}
	return y
}

func Mul(a, b [][]float64) [][]float64 {
	n := len(a)
	cols := 0
	if len(b) > 0 {
		cols = len(b[0])
	}
	c := Zeros(n, cols)
	for i := range a {
		for k, v := range a[i] {
			if v == 0 {
				continue
			}
			floats.AddScaled(c[i], v, b[k])
		}
	}
	return c
}

func Zeros(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

func Identity(n int) [][]float64 {
	m := Zeros(n, n)
	for i := range m {
		m[i][i] = 1
	}
	return m
}

func Copy(a [][]float64) [][]float64 {
	m := make([][]float64, len(a))
	for i, row := range a {
		m[i] = make([]float64, len(row))
		copy(m[i], row)
	}
	return m
}
