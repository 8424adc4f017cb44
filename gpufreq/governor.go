package gpufreq

import (
	"fmt"
	"sync"

	"github.com/go-logr/logr"
)

type Decision int

const (
	Stay Decision = iota
	StepUp
	StepDown
)

func (d Decision) String() string {
	switch d {
	case StepUp:
		return "step_up"
	case StepDown:
		return "step_down"
	}
	return "stay"
}

type Direction int

const (
	None Direction = iota
	Up
	Down
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	}
	return "none"
}

// StartPolicy picks the step a governor boots on.
type StartPolicy int

const (
	StartLowest StartPolicy = iota
	StartHighest
)

func ParseStartPolicy(s string) (StartPolicy, error) {
	switch s {
	case "", "lowest", "min":
		return StartLowest, nil
	case "highest", "max":
		return StartHighest, nil
	}
	return StartLowest, fmt.Errorf("unknown start policy %q", s)
}

type Stats struct {
	Samples   uint64
	Rejected  uint64
	StepUps   uint64
	StepDowns uint64
	// Residency counts accepted samples taken at each step index.
	Residency []uint64
}

type Option func(*Governor)

func WithLogger(logger logr.Logger) Option {
	return func(g *Governor) {
		g.logger = logger
	}
}

func WithStart(start StartPolicy) Option {
	return func(g *Governor) {
		g.start = start
	}
}

// Governor is the hysteresis frequency selector. All methods are safe for
// concurrent use; each decision runs under a single lock.
type Governor struct {
	mu sync.Mutex

	cfg    *Config
	table  *Table
	start  StartPolicy
	logger logr.Logger

	index        int
	pending      Direction
	pendingCount int
	stats        Stats
}

// Initialize selects the variant and boots a governor on its table.
func Initialize(v Variant, opts ...Option) (*Governor, error) {
	cfg, err := Select(v)
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...), nil
}

func New(cfg *Config, opts ...Option) *Governor {
	g := &Governor{
		cfg:    cfg,
		table:  cfg.Table,
		logger: logr.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.stats.Residency = make([]uint64, g.table.StepCount())
	g.index = g.startIndex()
	g.logger.V(5).Info("governor started", "variant", cfg.Variant, "steps", g.table.StepCount(), "clock", g.table.StepAt(g.index).ClockKHz)
	return g
}

func (g *Governor) startIndex() int {
	if g.start == StartHighest {
		return 0
	}
	return g.table.StepCount() - 1
}

func (g *Governor) Config() *Config {
	return g.cfg
}

// OnSample feeds one utilisation sample and reports whether the governor
// committed a transition. Loads outside [0,100] are rejected without touching
// any state.
func (g *Governor) OnSample(load int) (Decision, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if load < 0 || load > 100 {
		g.stats.Rejected++
		return Stay, fmt.Errorf("%w: %d", ErrLoadOutOfRange, load)
	}
	g.stats.Samples++
	g.stats.Residency[g.index]++

	step := g.table.StepAt(g.index)
	upTrigger := load > step.MaxThreshold
	downTrigger := load < step.MinThreshold

	var candidate Direction
	switch {
	case upTrigger && g.index > 0:
		candidate = Up
	case downTrigger && g.index < g.table.StepCount()-1:
		candidate = Down
	case upTrigger || downTrigger:
		// Already at the edge of the table in the requested direction.
		return Stay, nil
	default:
		g.pending = None
		g.pendingCount = 0
		return Stay, nil
	}

	if candidate != g.pending {
		g.pending = candidate
		g.pendingCount = 1
	} else {
		g.pendingCount++
	}

	if g.pendingCount < step.StayCount {
		g.logger.V(7).Info("transition pending", "direction", candidate, "count", g.pendingCount, "stay", step.StayCount, "load", load)
		return Stay, nil
	}

	prev := g.index
	decision := StepUp
	if candidate == Up {
		g.index--
		g.stats.StepUps++
	} else {
		g.index++
		g.stats.StepDowns++
		decision = StepDown
	}
	g.pending = None
	g.pendingCount = 0

	g.logger.V(6).Info("committed transition",
		"decision", decision,
		"load", load,
		"prev_clock", step.ClockKHz,
		"next_clock", g.table.StepAt(g.index).ClockKHz,
		"prev_index", prev,
		"next_index", g.index,
	)
	return decision, nil
}

func (g *Governor) Index() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.index
}

func (g *Governor) Pending() (Direction, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending, g.pendingCount
}

// SetIndex moves the governor to step i and drops any pending transition,
// e.g. after the host forced a clock through another path.
func (g *Governor) SetIndex(i int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i < 0 || i >= g.table.StepCount() {
		return &IndexOutOfRangeError{Index: i, Len: g.table.StepCount()}
	}
	g.index = i
	g.pending = None
	g.pendingCount = 0
	return nil
}

// Reset returns to the start step. Stats are kept.
func (g *Governor) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.index = g.startIndex()
	g.pending = None
	g.pendingCount = 0
}

func (g *Governor) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.stats
	s.Residency = make([]uint64, len(g.stats.Residency))
	copy(s.Residency, g.stats.Residency)
	return s
}

// CurrentPolicy snapshots the settings paired with the active step.
func (g *Governor) CurrentPolicy() Policy {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.policyAt(g.index)
}

func (g *Governor) policyAt(i int) Policy {
	step := g.table.StepAt(i)
	return Policy{
		Index:      i,
		ClockKHz:   step.ClockKHz,
		MemFreqKHz: step.MemFreqKHz,
		LittleCap:  step.LittleCap,
		MidCap:     g.cfg.MidCap,
		BigCap:     g.cfg.BigCap,
		LLCWays:    step.LLCWays,
	}
}
