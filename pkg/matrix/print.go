package matrix

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"
)

func Format(a [][]float64) string {
	if len(a) == 0 || len(a[0]) == 0 {
		return "[]"
	}
	rows, cols := len(a), len(a[0])
	data := make([]float64, 0, rows*cols)
	for _, row := range a {
		data = append(data, row...)
	}
	return fmt.Sprintf("%v", mat.Formatted(mat.NewDense(rows, cols, data), mat.Squeeze()))
}

func FormatVec(v []float64) string {
	if len(v) == 0 {
		return "[]"
	}
	data := make([]float64, len(v))
	copy(data, v)
	return fmt.Sprintf("%v", mat.Formatted(mat.NewVecDense(len(data), data).T(), mat.Squeeze()))
}

// PrintSystem writes the equations row by row, skipping zero cells.
func (b *Builder) PrintSystem(w io.Writer) {
	fmt.Fprintf(w, "Circuit Equations (%dx%d), %s backend:\n", b.size, b.size, b.backend)
	rhs := b.activeRHS()
	for i := 0; i < b.size; i++ {
		fmt.Fprintf(w, "Equation %d:", i)
		empty := true
		for j := 0; j < b.size; j++ {
			if v := b.lhs[i][j]; v != 0 {
				fmt.Fprintf(w, "  %+g*x%d", v, j)
				empty = false
			}
		}
		if empty {
			fmt.Fprint(w, "  0")
		}
		fmt.Fprintf(w, " = %g\n", rhs[i])
	}
	fmt.Fprintf(w, "LHS =\n%s\n", Format(b.lhs))
	fmt.Fprintf(w, "RHS = %s\n", FormatVec(rhs))

	if s, ok := b.solver.(*SparseLU); ok {
		s.Print()
	}
}
