package circuit

import (
	"fmt"
	"io"
	"log"
	"math"

	"github.com/edp1096/toy-mna/internal/consts"
	"github.com/edp1096/toy-mna/pkg/device"
	"github.com/edp1096/toy-mna/pkg/matrix"
	"github.com/edp1096/toy-mna/pkg/util"
	"github.com/pkg/errors"
)

var ErrInvalidTickRate = errors.New("invalid tick rate")

type State int

const (
	Dirty State = iota
	Analyzed
	Built
	InitialConditionsSolved
	Steady
)

func (s State) String() string {
	switch s {
	case Analyzed:
		return "analyzed"
	case Built:
		return "built"
	case InitialConditionsSolved:
		return "initial conditions solved"
	case Steady:
		return "steady"
	}
	return "dirty"
}

type Options struct {
	TickRate             float64 // (s)
	InitialConditionTick float64 // (s)
	MaxNewtonIterations  int
	MaxDampingSteps      int
	Tolerance            float64
	Gmin                 float64 // added to node diagonals of the Newton Jacobian
	Backend              matrix.Backend
	Logger               *log.Logger
}

func DefaultOptions() Options {
	return Options{
		TickRate:             consts.DefaultTickRate,
		InitialConditionTick: consts.InitialConditionTick,
		MaxNewtonIterations:  consts.MaxNewtonIterations,
		MaxDampingSteps:      consts.MaxDampingSteps,
		Tolerance:            consts.NewtonTolerance,
		Gmin:                 consts.Gmin,
		Backend:              matrix.Dense,
		Logger:               log.New(io.Discard, "", 0),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TickRate <= 0 {
		o.TickRate = d.TickRate
	}
	if o.InitialConditionTick <= 0 {
		o.InitialConditionTick = d.InitialConditionTick
	}
	if o.MaxNewtonIterations <= 0 {
		o.MaxNewtonIterations = d.MaxNewtonIterations
	}
	if o.MaxDampingSteps <= 0 {
		o.MaxDampingSteps = d.MaxDampingSteps
	}
	if o.Tolerance <= 0 {
		o.Tolerance = d.Tolerance
	}
	if o.Gmin < 0 {
		o.Gmin = d.Gmin
	}
	if o.Logger == nil {
		o.Logger = d.Logger
	}
	return o
}

type watcher struct {
	device device.Device
	fn     func(device.Device)
}

// Circuit owns a set of elements and advances them in fixed ticks. Any
// topology or value change marks it dirty; the next Tick rebuilds the system
// and re-solves the initial conditions before stepping.
type Circuit struct {
	name     string
	opts     Options
	elements []device.Device
	tickRate float64
	state    State

	analysis *Analysis
	solution *device.Solution
	builder  *matrix.Builder
	system   *nonLinearSystem
	stats    NewtonStats

	time     float64
	ticks    int
	watchers []watcher
}

func New(name string) *Circuit {
	return NewWithOptions(name, DefaultOptions())
}

func NewWithOptions(name string, opts Options) *Circuit {
	opts = opts.withDefaults()
	return &Circuit{
		name:     name,
		opts:     opts,
		tickRate: opts.TickRate,
	}
}

func (c *Circuit) Name() string {
	return c.name
}

func (c *Circuit) Options() Options {
	return c.opts
}

func (c *Circuit) State() State {
	return c.state
}

func (c *Circuit) Dirty() {
	c.state = Dirty
}

// AddElement appends elements not already in the circuit.
func (c *Circuit) AddElement(elements ...device.Device) {
	for _, e := range elements {
		if c.indexOf(e) >= 0 {
			continue
		}
		c.elements = append(c.elements, e)
	}
	c.Dirty()
}

func (c *Circuit) RemoveElement(e device.Device) bool {
	i := c.indexOf(e)
	if i < 0 {
		return false
	}
	c.elements = append(c.elements[:i], c.elements[i+1:]...)
	c.Dirty()
	return true
}

func (c *Circuit) indexOf(e device.Device) int {
	for i, el := range c.elements {
		if el == e {
			return i
		}
	}
	return -1
}

// Connect attaches terminal i of e to p, nil being ground.
func (c *Circuit) Connect(e device.Device, i int, p *device.Pin) {
	e.SetPin(i, p)
	c.Dirty()
}

func (c *Circuit) Elements() []device.Device {
	out := make([]device.Device, len(c.elements))
	copy(out, c.elements)
	return out
}

func (c *Circuit) TickRate() float64 {
	return c.tickRate
}

func (c *Circuit) minTickRate(dynamics []device.Dynamic) float64 {
	limit := math.MaxFloat64
	for _, d := range dynamics {
		limit = math.Min(limit, d.MinTickRate())
	}
	return limit
}

func (c *Circuit) dynamics() []device.Dynamic {
	var out []device.Dynamic
	for _, e := range c.elements {
		if d, ok := e.(device.Dynamic); ok {
			out = append(out, d)
		}
	}
	return out
}

// SetTickRate changes the simulation step. Rates above what a dynamic
// element can resolve are rejected and leave the circuit untouched.
func (c *Circuit) SetTickRate(r float64) error {
	if r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return errors.Wrapf(ErrInvalidTickRate, "%g", r)
	}
	if limit := c.minTickRate(c.dynamics()); r > limit {
		return errors.Wrapf(ErrInvalidTickRate, "%s exceeds %s", util.FormatValueFactor(r, "s"), util.FormatValueFactor(limit, "s"))
	}
	c.tickRate = r
	c.Dirty()
	return nil
}

func (c *Circuit) Time() float64 {
	return c.time
}

func (c *Circuit) Ticks() int {
	return c.ticks
}

// Watch calls fn with d after every tick.
func (c *Circuit) Watch(d device.Device, fn func(device.Device)) {
	c.watchers = append(c.watchers, watcher{device: d, fn: fn})
}

func (c *Circuit) Analysis() *Analysis {
	return c.analysis
}

func (c *Circuit) NewtonStats() NewtonStats {
	return c.stats
}

func (c *Circuit) Size() int {
	if c.analysis == nil {
		return 0
	}
	return c.analysis.Size
}

func (c *Circuit) LHS() [][]float64 {
	if c.builder == nil {
		return nil
	}
	return c.builder.LHS()
}

func (c *Circuit) RHS() []float64 {
	if c.builder == nil {
		return nil
	}
	return c.builder.RHS()
}

func (c *Circuit) X() []float64 {
	if c.solution == nil {
		return nil
	}
	return c.solution.Values()
}

func (c *Circuit) PrintSystem(w io.Writer) {
	if c.builder == nil {
		fmt.Fprintln(w, "Circuit not built")
		return
	}
	c.builder.PrintSystem(w)
}

// GetSolution maps V(node) and I(element) to their last solved values.
func (c *Circuit) GetSolution() map[string]float64 {
	if c.analysis == nil || c.state < InitialConditionsSolved {
		return nil
	}
	solution := make(map[string]float64)
	for _, p := range c.analysis.Nodes {
		solution[fmt.Sprintf("V(%s)", p)] = p.Voltage()
	}
	for _, e := range c.elements {
		solution[fmt.Sprintf("I(%s)", e.GetName())] = e.Current()
	}
	return solution
}

func (c *Circuit) stamp(b *matrix.Builder) error {
	for _, e := range c.analysis.Linears {
		if err := e.Stamp(b); err != nil {
			return errors.Wrapf(err, "stamping device %s", e.GetName())
		}
	}
	return nil
}

func (c *Circuit) initiate(tickRate float64) {
	for _, d := range c.analysis.Dynamics {
		d.Initiate(tickRate)
	}
}

// Prepare analyses the topology, builds the linear system and solves the
// initial conditions. Tick calls it whenever the circuit is dirty.
func (c *Circuit) Prepare() error {
	a, err := Analyse(c.elements)
	if err != nil {
		return err
	}
	if c.analysis != nil {
		for _, p := range c.analysis.Nodes {
			p.Unbind()
		}
	}
	c.analysis = a
	c.state = Analyzed

	if limit := c.minTickRate(a.Dynamics); c.tickRate > limit {
		c.opts.Logger.Printf("circuit %s: tick rate clamped from %s to %s", c.name,
			util.FormatValueFactor(c.tickRate, "s"), util.FormatValueFactor(limit, "s"))
		c.tickRate = limit
	}

	c.solution = device.NewSolution(a.Size)
	a.bind(c.solution)
	c.time = 0
	c.ticks = 0
	c.stats = NewtonStats{}

	if c.builder != nil {
		c.builder.Reopen()
	}
	c.builder = matrix.NewBuilder(a.Size, c.opts.Backend)
	c.initiate(c.tickRate)
	if err := c.stamp(c.builder); err != nil {
		return err
	}
	if err := c.builder.Close(!a.IsNonLinear()); err != nil {
		return err
	}
	c.system = nil
	if a.IsNonLinear() {
		c.system = newNonLinearSystem(c.builder, a, c.solution, c.opts.Gmin)
	}
	c.state = Built

	if err := c.solveInitialConditions(); err != nil {
		return err
	}
	c.state = InitialConditionsSolved
	c.opts.Logger.Printf("circuit %s: rebuilt %d nodes, %d unknowns, %s backend", c.name, len(a.Nodes), a.Size, c.opts.Backend)
	c.state = Steady
	return nil
}

// solveInitialConditions solves the circuit once with a vanishing tick so
// capacitors hold their voltage and inductors their current.
func (c *Circuit) solveInitialConditions() error {
	a := c.analysis
	c.initiate(c.opts.InitialConditionTick)

	b := matrix.NewBuilder(a.Size, c.opts.Backend)
	if err := c.stamp(b); err != nil {
		return err
	}
	if err := b.Close(false); err != nil {
		return err
	}
	if err := c.solve(b, a); err != nil {
		return err
	}
	b.Reopen()

	c.initiate(c.tickRate)
	return nil
}

// solve runs one evaluation on b: companion sources, the solution and the
// state update.
func (c *Circuit) solve(b *matrix.Builder, a *Analysis) error {
	for _, d := range a.Dynamics {
		if err := d.PreEvaluation(b); err != nil {
			return errors.Wrapf(err, "evaluating device %s", d.GetName())
		}
	}

	if a.IsNonLinear() {
		sys := c.system
		if b != c.builder {
			sys = newNonLinearSystem(b, a, c.solution, c.opts.Gmin)
		}
		_, stats, err := sys.solve(c.solution.Values(), c.opts.MaxNewtonIterations, c.opts.MaxDampingSteps, c.opts.Tolerance)
		if err != nil {
			return err
		}
		c.stats = stats
		if !stats.Converged {
			c.opts.Logger.Printf("circuit %s: newton did not converge after %d iterations, residual %g",
				c.name, stats.Iterations, stats.Residual)
		}
	} else {
		result := b.Result
		if !b.Factored() {
			result = b.Solve
		}
		x, err := result()
		if err != nil {
			return err
		}
		c.solution.Set(x)
	}

	for _, d := range a.Dynamics {
		d.PosEvaluation()
	}
	return nil
}

// Tick advances the circuit by one tick rate.
func (c *Circuit) Tick() error {
	if c.state != Steady {
		if err := c.Prepare(); err != nil {
			return err
		}
	}

	if c.restampNeeded() {
		c.opts.Logger.Printf("circuit %s: restamping at t=%s", c.name, util.FormatValueFactor(c.time, "s"))
		c.builder.Reopen()
		if err := c.stamp(c.builder); err != nil {
			c.state = Dirty
			return err
		}
		if err := c.builder.Close(!c.analysis.IsNonLinear()); err != nil {
			c.state = Dirty
			return err
		}
	}

	c.builder.ResetTick()
	if err := c.solve(c.builder, c.analysis); err != nil {
		return err
	}

	c.time += c.tickRate
	c.ticks++
	for _, w := range c.watchers {
		w.fn(w.device)
	}
	return nil
}

func (c *Circuit) restampNeeded() bool {
	for _, op := range c.analysis.Operationals {
		if op.IsDirty() {
			return true
		}
	}
	return false
}

// TickFor ticks until at least d seconds have elapsed.
func (c *Circuit) TickFor(d float64) error {
	for t := 0.0; d > t; t += c.tickRate {
		if err := c.Tick(); err != nil {
			return err
		}
	}
	return nil
}
