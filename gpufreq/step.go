package gpufreq

import (
	"fmt"
	"math"
)

// CPUMax is the raw cluster cap value meaning "no cap" in the vendor tables.
const CPUMax uint32 = math.MaxInt32

type CapKind uint8

const (
	CapUnbounded CapKind = iota
	CapDisabled
	CapLimited
)

// ClusterCap is the maximum frequency a companion CPU cluster may run at while
// the GPU sits on a given step. Disabled and Unbounded are distinct directives:
// a disabled cluster is parked, an unbounded one is left alone.
type ClusterCap struct {
	kind CapKind
	khz  uint32
}

func Unbounded() ClusterCap {
	return ClusterCap{kind: CapUnbounded}
}

func Disabled() ClusterCap {
	return ClusterCap{kind: CapDisabled}
}

// Limit caps the cluster at khz. A zero limit is the disabled sentinel.
func Limit(khz uint32) ClusterCap {
	if khz == 0 {
		return Disabled()
	}
	return ClusterCap{kind: CapLimited, khz: khz}
}

// CapFromKHz converts a raw table value, where 0 disables the cluster and
// CPUMax or above leaves it unbounded.
func CapFromKHz(khz uint32) ClusterCap {
	switch {
	case khz == 0:
		return Disabled()
	case khz >= CPUMax:
		return Unbounded()
	}
	return Limit(khz)
}

func (c ClusterCap) Kind() CapKind {
	return c.kind
}

// KHz returns the explicit limit, if there is one.
func (c ClusterCap) KHz() (uint32, bool) {
	return c.khz, c.kind == CapLimited
}

func (c ClusterCap) String() string {
	switch c.kind {
	case CapDisabled:
		return "disabled"
	case CapLimited:
		return fmt.Sprintf("%dkHz", c.khz)
	}
	return "unbounded"
}

// FrequencyStep is one GPU operating point and the settings paired with it.
type FrequencyStep struct {
	ClockKHz     uint32
	MinThreshold int
	MaxThreshold int
	StayCount    int
	MemFreqKHz   uint32
	LittleCap    ClusterCap
	LLCWays      int
}

// Columns mirrors the vendor header layout: parallel arrays, highest clock
// first, where index i of every column is the same operating point.
type Columns struct {
	Clock        []uint32
	MinThreshold []int
	MaxThreshold []int
	StayCount    []int
	MemFreq      []uint32
	Lit          []uint32
	LLCWays      []int
}
