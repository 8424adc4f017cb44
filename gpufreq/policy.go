package gpufreq

// Policy is what the hardware side has to program for one GPU step.
type Policy struct {
	Index      int
	ClockKHz   uint32
	MemFreqKHz uint32
	LittleCap  ClusterCap
	MidCap     ClusterCap
	BigCap     ClusterCap
	LLCWays    int
}

// Applier programs a policy. Implementations must treat Disabled and
// Unbounded cluster caps as different directives.
type Applier interface {
	Apply(p Policy) error
}
