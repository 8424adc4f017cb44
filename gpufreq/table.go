package gpufreq

// Table is an immutable list of frequency steps ordered from the highest clock
// (index 0) to the lowest.
type Table struct {
	steps []FrequencyStep
}

// NewTable validates steps and returns a table holding its own copy of them.
func NewTable(steps []FrequencyStep) (*Table, error) {
	if len(steps) == 0 {
		return nil, configErr("clock", "table has no steps")
	}
	for i, s := range steps {
		if s.ClockKHz == 0 {
			return nil, configErr("clock", "step %d has zero clock", i)
		}
		if i > 0 && s.ClockKHz >= steps[i-1].ClockKHz {
			return nil, configErr("clock", "step %d (%d) is not below step %d (%d)", i, s.ClockKHz, i-1, steps[i-1].ClockKHz)
		}
		if s.MinThreshold < 0 || s.MinThreshold > 100 {
			return nil, configErr("min_threshold", "step %d has %d", i, s.MinThreshold)
		}
		if s.MaxThreshold < 0 || s.MaxThreshold > 100 {
			return nil, configErr("max_threshold", "step %d has %d", i, s.MaxThreshold)
		}
		if s.StayCount < 0 {
			return nil, configErr("staycount", "step %d has %d", i, s.StayCount)
		}
		if s.LLCWays < 0 {
			return nil, configErr("llc_ways", "step %d has %d", i, s.LLCWays)
		}
	}
	t := &Table{steps: make([]FrequencyStep, len(steps))}
	copy(t.steps, steps)
	return t, nil
}

// NewTableFromColumns bundles the parallel columns into steps. Every column
// must be as long as the clock column.
func NewTableFromColumns(cols Columns) (*Table, error) {
	n := len(cols.Clock)
	lengths := []struct {
		field string
		n     int
	}{
		{"min_threshold", len(cols.MinThreshold)},
		{"max_threshold", len(cols.MaxThreshold)},
		{"staycount", len(cols.StayCount)},
		{"mem_freq", len(cols.MemFreq)},
		{"lit", len(cols.Lit)},
		{"llc_ways", len(cols.LLCWays)},
	}
	for _, l := range lengths {
		if l.n != n {
			return nil, configErr(l.field, "has %d entries, clock has %d", l.n, n)
		}
	}

	steps := make([]FrequencyStep, n)
	for i := range steps {
		steps[i] = FrequencyStep{
			ClockKHz:     cols.Clock[i],
			MinThreshold: cols.MinThreshold[i],
			MaxThreshold: cols.MaxThreshold[i],
			StayCount:    cols.StayCount[i],
			MemFreqKHz:   cols.MemFreq[i],
			LittleCap:    CapFromKHz(cols.Lit[i]),
			LLCWays:      cols.LLCWays[i],
		}
	}
	return NewTable(steps)
}

func (t *Table) StepCount() int {
	return len(t.steps)
}

// StepAt panics with *IndexOutOfRangeError when i is outside [0,StepCount()).
func (t *Table) StepAt(i int) FrequencyStep {
	if i < 0 || i >= len(t.steps) {
		panic(&IndexOutOfRangeError{Index: i, Len: len(t.steps)})
	}
	return t.steps[i]
}

func (t *Table) ClampIndex(i int) int {
	return clamp(i, 0, len(t.steps)-1)
}

func (t *Table) Highest() FrequencyStep {
	return t.steps[0]
}

func (t *Table) Lowest() FrequencyStep {
	return t.steps[len(t.steps)-1]
}

// IndexOf finds the step running at exactly clockKHz.
func (t *Table) IndexOf(clockKHz uint32) (int, bool) {
	for i, s := range t.steps {
		if s.ClockKHz == clockKHz {
			return i, true
		}
	}
	return -1, false
}

func (t *Table) Steps() []FrequencyStep {
	out := make([]FrequencyStep, len(t.steps))
	copy(out, t.steps)
	return out
}
