package device

import (
	"fmt"
	"sync/atomic"

	"github.com/edp1096/toy-mna/pkg/matrix"
	"github.com/pkg/errors"
)

var ErrUninitializedPin = errors.New("uninitialized pin")

var pinSeq int64

// Pin is a circuit node shared by every terminal connected to it. A nil *Pin
// is the ground reference.
type Pin struct {
	Name string

	id      int64
	address int
	arena   *Solution
}

func NewPin() *Pin {
	return NewNamedPin("")
}

func NewNamedPin(name string) *Pin {
	return &Pin{
		Name:    name,
		id:      atomic.AddInt64(&pinSeq, 1),
		address: matrix.Ground,
	}
}

func (p *Pin) ID() int64 {
	if p == nil {
		return 0
	}
	return p.id
}

func (p *Pin) IsGround() bool {
	return p == nil
}

// Address is the pin's row in the current build, matrix.Ground for ground or
// an unbuilt pin.
func (p *Pin) Address() int {
	if p == nil || p.arena == nil {
		return matrix.Ground
	}
	return p.address
}

// Bind attaches the pin to a row of a solution arena.
func (p *Pin) Bind(address int, arena *Solution) {
	p.address = address
	p.arena = arena
}

func (p *Pin) Unbind() {
	p.address = matrix.Ground
	p.arena = nil
}

// Voltage reads the solved node voltage. Ground is always 0. Reading a pin
// that no build has bound is a programming error and panics.
func (p *Pin) Voltage() float64 {
	if p == nil {
		return 0
	}
	if p.arena == nil {
		panic(errors.Wrapf(ErrUninitializedPin, "pin %s", p))
	}
	return p.arena.At(p.address)
}

func (p *Pin) String() string {
	switch {
	case p == nil:
		return "0"
	case p.Name != "":
		return p.Name
	}
	return fmt.Sprintf("n%d", p.id)
}

func VoltageDiff(a, b *Pin) float64 {
	return a.Voltage() - b.Voltage()
}

// Solution is the unknown vector: node voltages followed by auxiliary
// branch currents. Pins and branches read it by index.
type Solution struct {
	x []float64
}

func NewSolution(n int) *Solution {
	return &Solution{x: make([]float64, n)}
}

func (s *Solution) Len() int {
	return len(s.x)
}

func (s *Solution) At(i int) float64 {
	return s.x[i]
}

func (s *Solution) Set(x []float64) {
	copy(s.x, x)
}

func (s *Solution) Values() []float64 {
	out := make([]float64, len(s.x))
	copy(out, s.x)
	return out
}

// Branch is an auxiliary unknown owned by an element, usually the current
// through a voltage constraint.
type Branch struct {
	address int
	arena   *Solution
}

func NewBranch(address int, arena *Solution) Branch {
	return Branch{address: address, arena: arena}
}

func (b Branch) Address() int {
	if b.arena == nil {
		return matrix.Ground
	}
	return b.address
}

func (b Branch) Current() float64 {
	if b.arena == nil {
		panic(errors.Wrap(ErrUninitializedPin, "unallocated branch"))
	}
	return b.arena.At(b.address)
}
