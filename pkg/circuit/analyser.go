package circuit

import (
	"github.com/edp1096/toy-mna/pkg/device"
	"github.com/pkg/errors"
)

var ErrInconsistentTopology = errors.New("inconsistent topology")

type branchAlloc struct {
	first  int
	count  int
	single device.RHSElement
	multi  device.MultipleRHSElement
}

// Analysis summarizes one build of a topology. The element lists keep the
// circuit's element order, which is the stamping order of every tick.
type Analysis struct {
	Nodes        []*device.Pin
	Size         int
	Linears      []device.Device // everything stamped into the constant LHS
	Dynamics     []device.Dynamic
	NonLinears   []device.NonLinear
	Operationals []device.Operational

	branches []branchAlloc
}

func (a *Analysis) IsNonLinear() bool {
	return len(a.NonLinears) > 0
}

func (a *Analysis) IsDynamic() bool {
	return len(a.Dynamics) > 0
}

func (a *Analysis) BranchCount() int {
	return a.Size - len(a.Nodes)
}

// Analyse numbers the nodes in order of first appearance over the element
// pins, then hands out auxiliary unknowns from len(Nodes) in element order.
// Every node, ground included, needs at least two terminal references.
func Analyse(elements []device.Device) (*Analysis, error) {
	a := &Analysis{}

	refs := make(map[*device.Pin]int)
	groundRefs := 0
	for _, e := range elements {
		for _, p := range e.Pins() {
			if p.IsGround() {
				groundRefs++
				continue
			}
			if _, ok := refs[p]; !ok {
				a.Nodes = append(a.Nodes, p)
			}
			refs[p]++
		}
	}

	for _, p := range a.Nodes {
		if refs[p] < 2 {
			return nil, errors.Wrapf(ErrInconsistentTopology, "node %s has %d connection", p, refs[p])
		}
	}
	switch {
	case len(a.Nodes) > 0 && groundRefs == 0:
		return nil, errors.Wrap(ErrInconsistentTopology, "no ground reference")
	case groundRefs == 1:
		return nil, errors.Wrap(ErrInconsistentTopology, "ground has 1 connection")
	}

	size := len(a.Nodes)
	for _, e := range elements {
		switch v := e.(type) {
		case device.MultipleRHSElement:
			a.branches = append(a.branches, branchAlloc{first: size, count: v.BranchCount(), multi: v})
			size += v.BranchCount()
		case device.RHSElement:
			a.branches = append(a.branches, branchAlloc{first: size, count: 1, single: v})
			size++
		}

		if d, ok := e.(device.Dynamic); ok {
			a.Dynamics = append(a.Dynamics, d)
		}
		if op, ok := e.(device.Operational); ok {
			a.Operationals = append(a.Operationals, op)
		}
		if nl, ok := e.(device.NonLinear); ok {
			a.NonLinears = append(a.NonLinears, nl)
		} else {
			a.Linears = append(a.Linears, e)
		}
	}
	a.Size = size

	return a, nil
}

// bind points every node pin and every branch at arena.
func (a *Analysis) bind(arena *device.Solution) {
	for i, p := range a.Nodes {
		p.Bind(i, arena)
	}
	for _, b := range a.branches {
		if b.multi != nil {
			bs := make([]device.Branch, b.count)
			for i := range bs {
				bs[i] = device.NewBranch(b.first+i, arena)
			}
			b.multi.SetBranches(bs)
			continue
		}
		b.single.SetBranch(device.NewBranch(b.first, arena))
	}
}
