package matrix

import (
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrBuilderClosed = errors.New("builder is closed")
	ErrNotFactored   = errors.New("builder closed without factorization")
	ErrIndexRange    = errors.New("matrix index out of range")
)

type Backend int

const (
	Dense Backend = iota
	Sparse
)

func (b Backend) String() string {
	if b == Sparse {
		return "sparse"
	}
	return "dense"
}

func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dense":
		return Dense, nil
	case "sparse":
		return Sparse, nil
	}
	return Dense, errors.Errorf("unknown matrix backend %q", s)
}

type solver interface {
	Solve(rhs []float64) ([]float64, error)
	Destroy()
}

type denseInverse [][]float64

func (d denseInverse) Solve(rhs []float64) ([]float64, error) {
	return MulVec(d, rhs), nil
}

func (d denseInverse) Destroy() {}

// Builder accumulates the MNA system LHS·X = RHS.
//
// While open every primitive is legal. Close freezes the LHS and, when asked,
// factors it once so later ticks only pay for Result. After Close the LHS
// rejects writes with ErrBuilderClosed, but RHS writes still land in a per-tick
// copy of the static RHS that ResetTick restores.
type Builder struct {
	size    int
	backend Backend

	lhs  [][]float64
	rhs  []float64
	tick []float64

	closed bool
	solver solver
}

func NewBuilder(size int, backend Backend) *Builder {
	return &Builder{
		size:    size,
		backend: backend,
		lhs:     Zeros(size, size),
		rhs:     make([]float64, size),
		tick:    make([]float64, size),
	}
}

func (b *Builder) Size() int {
	return b.size
}

func (b *Builder) Backend() Backend {
	return b.backend
}

func (b *Builder) Closed() bool {
	return b.closed
}

func (b *Builder) Factored() bool {
	return b.solver != nil
}

func (b *Builder) check(indices ...int) error {
	for _, i := range indices {
		if i < Ground || i >= b.size {
			return errors.Wrapf(ErrIndexRange, "index %d, size %d", i, b.size)
		}
	}
	return nil
}

func (b *Builder) writableLHS() error {
	if b.closed {
		return ErrBuilderClosed
	}
	return nil
}

func (b *Builder) activeRHS() []float64 {
	if b.closed {
		return b.tick
	}
	return b.rhs
}

func (b *Builder) StampConductance(a, c int, g float64) error {
	if err := b.writableLHS(); err != nil {
		return err
	}
	if err := b.check(a, c); err != nil {
		return err
	}
	if a != Ground {
		b.lhs[a][a] += g
	}
	if c != Ground {
		b.lhs[c][c] += g
	}
	if a != Ground && c != Ground {
		b.lhs[a][c] -= g
		b.lhs[c][a] -= g
	}
	return nil
}

// StampVoltageSource writes the constraint V(a) - V(c) = value carried by the
// auxiliary unknown aux.
func (b *Builder) StampVoltageSource(a, c, aux int, value float64) error {
	if err := b.writableLHS(); err != nil {
		return err
	}
	if err := b.check(a, c, aux); err != nil {
		return err
	}
	if aux == Ground {
		return errors.Wrap(ErrIndexRange, "voltage source without auxiliary unknown")
	}
	if a != Ground {
		b.lhs[a][aux] = 1
		b.lhs[aux][a] = 1
	}
	if c != Ground {
		b.lhs[c][aux] = -1
		b.lhs[aux][c] = -1
	}
	b.rhs[aux] = value
	return nil
}

// StampCurrent injects current into a and draws it from c.
func (b *Builder) StampCurrent(a, c int, current float64) error {
	if err := b.check(a, c); err != nil {
		return err
	}
	rhs := b.activeRHS()
	if a != Ground {
		rhs[a] += current
	}
	if c != Ground {
		rhs[c] -= current
	}
	return nil
}

func (b *Builder) StampLHS(row, col int, value float64) error {
	if err := b.writableLHS(); err != nil {
		return err
	}
	if err := b.check(row, col); err != nil {
		return err
	}
	if row == Ground || col == Ground {
		return nil
	}
	b.lhs[row][col] += value
	return nil
}

func (b *Builder) StampRHS(row int, value float64) error {
	if err := b.check(row); err != nil {
		return err
	}
	if row == Ground {
		return nil
	}
	b.activeRHS()[row] = value
	return nil
}

// Close freezes the LHS. With factor set the system is inverted (dense) or
// factored (sparse) once for every later Result.
func (b *Builder) Close(factor bool) error {
	if b.closed {
		return ErrBuilderClosed
	}
	if factor {
		var (
			s   solver
			err error
		)
		switch b.backend {
		case Sparse:
			s, err = NewSparseLU(b.lhs)
		default:
			var inv [][]float64
			inv, err = Invert(b.lhs)
			s = denseInverse(inv)
		}
		if err != nil {
			return err
		}
		b.solver = s
	}
	b.closed = true
	copy(b.tick, b.rhs)
	return nil
}

// Reopen discards every stamp and the factorization.
func (b *Builder) Reopen() {
	if b.solver != nil {
		b.solver.Destroy()
		b.solver = nil
	}
	for i := range b.lhs {
		clear(b.lhs[i])
	}
	clear(b.rhs)
	clear(b.tick)
	b.closed = false
}

// ResetTick restores the per-tick RHS from the static one.
func (b *Builder) ResetTick() {
	copy(b.tick, b.rhs)
}

// Result solves the closed system against the per-tick RHS.
func (b *Builder) Result() ([]float64, error) {
	if !b.closed || b.solver == nil {
		return nil, ErrNotFactored
	}
	return b.solver.Solve(b.tick)
}

// Solve factors the LHS with pivoting and solves it against the active RHS
// once. Nothing is cached.
func (b *Builder) Solve() ([]float64, error) {
	rhs := b.activeRHS()
	if b.backend == Sparse {
		lu, err := NewSparseLU(b.lhs)
		if err != nil {
			return nil, err
		}
		defer lu.Destroy()
		return lu.Solve(rhs)
	}
	return SolveLU(b.lhs, rhs)
}

// LHS returns a copy of the assembled matrix.
func (b *Builder) LHS() [][]float64 {
	return Copy(b.lhs)
}

// RHS returns a copy of the right-hand side in use: the per-tick one once
// closed, the static one while open.
func (b *Builder) RHS() []float64 {
	out := make([]float64, b.size)
	copy(out, b.activeRHS())
	return out
}

func (b *Builder) StaticRHS() []float64 {
	out := make([]float64, b.size)
	copy(out, b.rhs)
	return out
}

// MulLHS returns LHS·x.
func (b *Builder) MulLHS(x []float64) []float64 {
	return MulVec(b.lhs, x)
}

// Inverse returns the dense inverse when the builder was closed with
// factorization on the dense backend.
func (b *Builder) Inverse() ([][]float64, bool) {
	inv, ok := b.solver.(denseInverse)
	if !ok {
		return nil, false
	}
	return Copy(inv), true
}
