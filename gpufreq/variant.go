package gpufreq

import (
	"fmt"
	"strings"
)

// StockMaxKHz is the highest clock the stock silicon rating allows.
const StockMaxKHz uint32 = 858000

type Variant int

const (
	Stock Variant = iota
	Overclocked
)

func (v Variant) String() string {
	switch v {
	case Stock:
		return "stock"
	case Overclocked:
		return "overclocked"
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

func ParseVariant(s string) (Variant, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_") {
	case "stock", "default":
		return Stock, nil
	case "overclocked", "oc":
		return Overclocked, nil
	}
	return Stock, fmt.Errorf("unknown table variant %q", s)
}

// Set and Type let a Variant be bound directly as a command line flag.
func (v *Variant) Set(s string) error {
	parsed, err := ParseVariant(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v *Variant) Type() string {
	return "variant"
}

// Config is the immutable result of selecting a variant.
type Config struct {
	Variant    Variant
	Table      *Table
	FreqMaxKHz uint32
	FreqMinKHz uint32
	MidCap     ClusterCap
	BigCap     ClusterCap
}

type variantDef struct {
	freqMax, freqMin uint32
	cols             Columns
	mid, big         uint32
}

var variants = map[Variant]variantDef{
	Overclocked: {
		freqMax: 1001000,
		freqMin: 130000,
		cols: Columns{
			Clock:        []uint32{1040000, 949000, 858000, 767000, 676000, 585000, 494000, 403000, 312000, 221000, 130000},
			MinThreshold: []int{78, 78, 78, 78, 78, 78, 78, 78, 78, 78, 0},
			MaxThreshold: []int{100, 97, 95, 93, 95, 95, 95, 95, 90, 85, 85},
			StayCount:    []int{5, 5, 5, 5, 3, 1, 1, 1, 1, 1, 1},
			MemFreq:      []uint32{3172000, 3172000, 3172000, 2730000, 2535000, 2288000, 2028000, 2028000, 1539000, 1014000, 676000},
			Lit:          []uint32{858000, 858000, 858000, 858000, 858000, 858000, 858000, 858000, 0, 0, 0},
			LLCWays:      []int{16, 16, 16, 16, 16, 16, 16, 0, 0, 0, 0},
		},
		mid: 0,
		big: CPUMax,
	},
	Stock: {
		freqMax: 858000,
		freqMin: 130000,
		cols: Columns{
			Clock:        []uint32{858000, 767000, 676000, 585000, 494000, 403000, 312000, 221000, 130000},
			MinThreshold: []int{78, 78, 78, 78, 78, 78, 78, 78, 78},
			MaxThreshold: []int{95, 93, 95, 95, 95, 95, 90, 85, 85},
			StayCount:    []int{5, 5, 5, 3, 1, 1, 1, 1, 1},
			MemFreq:      []uint32{3172000, 2730000, 2535000, 2288000, 2028000, 2028000, 1539000, 1014000, 676000},
			Lit:          []uint32{858000, 858000, 858000, 858000, 858000, 858000, 858000, 0, 0},
			LLCWays:      []int{16, 16, 16, 16, 16, 16, 0, 0, 0},
		},
		mid: 0,
		big: CPUMax,
	},
}

// Select builds and validates the table for v.
func Select(v Variant) (*Config, error) {
	def, ok := variants[v]
	if !ok {
		return nil, configErr("variant", "unknown variant %d", int(v))
	}
	return newConfig(v, def)
}

func newConfig(v Variant, def variantDef) (*Config, error) {
	table, err := NewTableFromColumns(def.cols)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", v, err)
	}
	// The overclocked header declares a ceiling below its boost row, so the
	// max bound only has to fall inside the table's clock range.
	if def.freqMin != table.Lowest().ClockKHz {
		return nil, fmt.Errorf("%s: %w", v, configErr("freq_min", "%d does not match lowest step %d", def.freqMin, table.Lowest().ClockKHz))
	}
	if def.freqMax < def.freqMin || def.freqMax > table.Highest().ClockKHz {
		return nil, fmt.Errorf("%s: %w", v, configErr("freq_max", "%d outside [%d,%d]", def.freqMax, def.freqMin, table.Highest().ClockKHz))
	}
	return &Config{
		Variant:    v,
		Table:      table,
		FreqMaxKHz: def.freqMax,
		FreqMinKHz: def.freqMin,
		MidCap:     CapFromKHz(def.mid),
		BigCap:     CapFromKHz(def.big),
	}, nil
}
