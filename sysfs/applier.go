package sysfs

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/go-logr/logr"

	"github.com/AndroidPlusProject/GPUPulse/gpufreq"
)

const (
	RoleLittle = "little"
	RoleMid    = "mid"
	RoleBig    = "big"
)

// Applier programs governor policies through sysfs: GPU DVFS locks, the MIF
// devfreq floor, per-cluster cpufreq caps and LLC ways.
type Applier struct {
	mu        sync.Mutex
	paths     *Paths
	roles     map[string]string
	writer    *Writer
	logger    logr.Logger
	lastClock uint32
}

// NewApplier maps the little/mid/big roles onto cluster names in paths.
// A nil or partial roles map falls back to the role name itself.
func NewApplier(paths *Paths, roles map[string]string, logger logr.Logger) *Applier {
	a := &Applier{
		paths:  paths,
		roles:  map[string]string{RoleLittle: RoleLittle, RoleMid: RoleMid, RoleBig: RoleBig},
		writer: NewWriter(logger.WithName("writer")),
		logger: logger,
	}
	for role, cluster := range roles {
		a.roles[role] = cluster
	}
	a.checkWritable()
	a.seedClock()
	return a
}

//The first policy is ordered against whatever min lock the hardware booted with
func (a *Applier) seedClock() {
	gpu := a.paths.GPU
	if gpu == nil || gpu.DVFS == nil {
		return
	}
	if n, err := ReadNumber(pathJoin(gpu.Path, gpu.DVFS.Min)); err == nil {
		a.lastClock = uint32(n)
		return
	}
	if clock, err := ReadClock(a.paths); err == nil {
		a.lastClock = clock
	}
}

func (a *Applier) checkWritable() {
	for _, path := range a.targets() {
		if !pathWritable(path) {
			a.logger.Info("node is not writable, policy writes to it will fail", "path", path)
		}
	}
}

func (a *Applier) targets() []string {
	out := make([]string, 0)
	if gpu := a.paths.GPU; gpu != nil && gpu.DVFS != nil {
		out = append(out, pathJoin(gpu.Path, gpu.DVFS.Max), pathJoin(gpu.Path, gpu.DVFS.Min))
	}
	if mif := a.paths.MIF; mif != nil && mif.Min != "" {
		out = append(out, pathJoin(mif.Path, mif.Min))
	}
	for _, role := range []string{RoleLittle, RoleMid, RoleBig} {
		if path := a.clusterMaxPath(role); path != "" {
			out = append(out, path)
		}
	}
	if llc := a.paths.LLC; llc != nil && llc.Ways != "" {
		out = append(out, pathJoin(llc.Path, llc.Ways))
	}
	return out
}

func (a *Applier) Apply(p gpufreq.Policy) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if gpu := a.paths.GPU; gpu != nil && gpu.DVFS != nil {
		maxPath := pathJoin(gpu.Path, gpu.DVFS.Max)
		minPath := pathJoin(gpu.Path, gpu.DVFS.Min)
		//Order the locks so max never drops below min in between
		if p.ClockKHz >= a.lastClock {
			a.writer.BufferWriteNumber(maxPath, uint64(p.ClockKHz))
			a.writer.BufferWriteNumber(minPath, uint64(p.ClockKHz))
		} else {
			a.writer.BufferWriteNumber(minPath, uint64(p.ClockKHz))
			a.writer.BufferWriteNumber(maxPath, uint64(p.ClockKHz))
		}
	}

	if mif := a.paths.MIF; mif != nil && mif.Min != "" {
		a.writer.BufferWriteNumber(pathJoin(mif.Path, mif.Min), uint64(p.MemFreqKHz))
	}

	caps := []struct {
		role string
		cap  gpufreq.ClusterCap
	}{
		{RoleLittle, p.LittleCap},
		{RoleMid, p.MidCap},
		{RoleBig, p.BigCap},
	}
	var capErrs []error
	for _, c := range caps {
		if err := a.bufferClusterCap(c.role, c.cap); err != nil {
			capErrs = append(capErrs, err)
		}
	}

	if llc := a.paths.LLC; llc != nil && llc.Ways != "" {
		a.writer.BufferWrite(pathJoin(llc.Path, llc.Ways), strconv.Itoa(p.LLCWays))
	}

	syncErr := a.writer.Sync()
	if syncErr == nil {
		a.lastClock = p.ClockKHz
	}
	if err := errors.Join(append(capErrs, syncErr)...); err != nil {
		return fmt.Errorf("failed applying step %d (%dkHz): %w", p.Index, p.ClockKHz, err)
	}
	a.logger.V(5).Info("applied policy",
		"index", p.Index,
		"clock", p.ClockKHz,
		"mem_freq", p.MemFreqKHz,
		"little", p.LittleCap.String(),
		"mid", p.MidCap.String(),
		"big", p.BigCap.String(),
		"llc_ways", p.LLCWays,
	)
	return nil
}

func (a *Applier) cluster(role string) (PathsCluster, bool) {
	name, ok := a.roles[role]
	if !ok {
		return PathsCluster{}, false
	}
	cluster, ok := a.paths.Clusters[name]
	if !ok || cluster.CPUFreq == nil {
		return PathsCluster{}, false
	}
	return cluster, true
}

func (a *Applier) clusterMaxPath(role string) string {
	cluster, ok := a.cluster(role)
	if !ok || cluster.CPUFreq.Max == "" {
		return ""
	}
	return pathJoin(cluster.Path, cluster.CPUFreq.Path, cluster.CPUFreq.Max)
}

// bufferClusterCap resolves a cap to a scaling_max_freq value. Unbounded
// restores the hardware maximum; Disabled parks the cluster at its hardware
// minimum.
func (a *Applier) bufferClusterCap(role string, c gpufreq.ClusterCap) error {
	maxPath := a.clusterMaxPath(role)
	if maxPath == "" {
		a.logger.V(6).Info("no cpufreq for cluster role, skipping cap", "role", role, "cap", c.String())
		return nil
	}
	cluster, _ := a.cluster(role)
	freqPath := pathJoin(cluster.Path, cluster.CPUFreq.Path)

	var value uint64
	switch c.Kind() {
	case gpufreq.CapLimited:
		khz, _ := c.KHz()
		value = uint64(khz)
	case gpufreq.CapUnbounded:
		if cluster.CPUFreq.HWMax == "" {
			return fmt.Errorf("cluster %s has no cpuinfo_max_freq to lift its cap", role)
		}
		n, err := ReadNumber(pathJoin(freqPath, cluster.CPUFreq.HWMax))
		if err != nil {
			return fmt.Errorf("failed to lift cap on cluster %s: %w", role, err)
		}
		value = n
	case gpufreq.CapDisabled:
		if cluster.CPUFreq.HWMin == "" {
			return fmt.Errorf("cluster %s has no cpuinfo_min_freq to park at", role)
		}
		n, err := ReadNumber(pathJoin(freqPath, cluster.CPUFreq.HWMin))
		if err != nil {
			return fmt.Errorf("failed to park cluster %s: %w", role, err)
		}
		value = n
	}
	a.writer.BufferWriteNumber(maxPath, value)
	return nil
}
