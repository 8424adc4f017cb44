package sysfs

import (
	"path/filepath"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndroidPlusProject/GPUPulse/gpufreq"
)

func newTestApplier(t *testing.T) (string, *Applier) {
	root := fakeSysfs(t)
	paths := &Paths{}
	require.NoError(t, paths.Init())
	return root, NewApplier(paths, nil, testr.New(t))
}

func TestApplierAppliesPolicy(t *testing.T) {
	root, applier := newTestApplier(t)

	err := applier.Apply(gpufreq.Policy{
		Index:      7,
		ClockKHz:   221000,
		MemFreqKHz: 1014000,
		LittleCap:  gpufreq.Disabled(),
		MidCap:     gpufreq.Limit(1248000),
		BigCap:     gpufreq.Unbounded(),
		LLCWays:    0,
	})
	require.NoError(t, err)

	assert.Equal(t, "221000", readNode(t, filepath.Join(root, "gpu", "dvfs_max_lock")))
	assert.Equal(t, "221000", readNode(t, filepath.Join(root, "gpu", "dvfs_min_lock")))
	assert.Equal(t, "1014000", readNode(t, filepath.Join(root, "mif", "scaling_devfreq_min")))
	assert.Equal(t, "400000", readNode(t, filepath.Join(root, "cpu", "cpu0", "cpufreq", "scaling_max_freq")))
	assert.Equal(t, "1248000", readNode(t, filepath.Join(root, "cpu", "cpu4", "cpufreq", "scaling_max_freq")))
	assert.Equal(t, "2912000", readNode(t, filepath.Join(root, "cpu", "cpu7", "cpufreq", "scaling_max_freq")))
	assert.Equal(t, "0", readNode(t, filepath.Join(root, "llc", "gpu_ways")))
}

func TestApplierDisabledAndUnboundedDiffer(t *testing.T) {
	root, applier := newTestApplier(t)
	little := filepath.Join(root, "cpu", "cpu0", "cpufreq", "scaling_max_freq")

	base := gpufreq.Policy{ClockKHz: 403000, MidCap: gpufreq.Disabled(), BigCap: gpufreq.Unbounded()}

	base.LittleCap = gpufreq.Disabled()
	require.NoError(t, applier.Apply(base))
	assert.Equal(t, "400000", readNode(t, little))

	base.LittleCap = gpufreq.Unbounded()
	require.NoError(t, applier.Apply(base))
	assert.Equal(t, "2002000", readNode(t, little))

	base.LittleCap = gpufreq.Limit(858000)
	base.LLCWays = 16
	require.NoError(t, applier.Apply(base))
	assert.Equal(t, "858000", readNode(t, little))
	assert.Equal(t, "16", readNode(t, filepath.Join(root, "llc", "gpu_ways")))
}

func TestApplierRoleMapping(t *testing.T) {
	root := fakeSysfs(t)
	paths := &Paths{}
	require.NoError(t, paths.Init())
	paths.Clusters["silver"] = paths.Clusters[RoleLittle]
	delete(paths.Clusters, RoleLittle)

	applier := NewApplier(paths, map[string]string{RoleLittle: "silver"}, testr.New(t))
	require.NoError(t, applier.Apply(gpufreq.Policy{
		ClockKHz:  130000,
		LittleCap: gpufreq.Limit(1000000),
		MidCap:    gpufreq.Unbounded(),
		BigCap:    gpufreq.Unbounded(),
	}))

	assert.Equal(t, "1000000", readNode(t, filepath.Join(root, "cpu", "cpu0", "cpufreq", "scaling_max_freq")))
	assert.Equal(t, "2400000", readNode(t, filepath.Join(root, "cpu", "cpu4", "cpufreq", "scaling_max_freq")))
}

func TestApplierSkipsMissingSections(t *testing.T) {
	root := fakeSysfs(t)
	override(t, &Paths_MIF, nil)
	override(t, &Paths_LLC, nil)
	override(t, &Paths_Cluster, nil)
	paths := &Paths{}
	require.NoError(t, paths.Init())

	applier := NewApplier(paths, nil, testr.New(t))
	require.NoError(t, applier.Apply(gpufreq.Policy{ClockKHz: 585000, LittleCap: gpufreq.Disabled()}))
	assert.Equal(t, "585000", readNode(t, filepath.Join(root, "gpu", "dvfs_min_lock")))
}

func TestApplierReportsCapFailures(t *testing.T) {
	root, applier := newTestApplier(t)
	cluster := applier.paths.Clusters[RoleBig]
	cluster.CPUFreq.HWMax = ""

	err := applier.Apply(gpufreq.Policy{
		ClockKHz:  767000,
		LittleCap: gpufreq.Limit(858000),
		MidCap:    gpufreq.Disabled(),
		BigCap:    gpufreq.Unbounded(),
	})
	assert.ErrorContains(t, err, "cluster big has no cpuinfo_max_freq")

	// Everything else still lands.
	assert.Equal(t, "767000", readNode(t, filepath.Join(root, "gpu", "dvfs_max_lock")))
	assert.Equal(t, "858000", readNode(t, filepath.Join(root, "cpu", "cpu0", "cpufreq", "scaling_max_freq")))
}

func TestApplierSeedsClockFromBootLocks(t *testing.T) {
	root := fakeSysfs(t)
	minLock := filepath.Join(root, "gpu", "dvfs_min_lock")
	writeNode(t, minLock, "858000\n")
	writeNode(t, filepath.Join(root, "gpu", "dvfs_max_lock"), "858000\n")
	paths := &Paths{}
	require.NoError(t, paths.Init())

	applier := NewApplier(paths, nil, testr.New(t))
	assert.Equal(t, uint32(858000), applier.lastClock)

	// Stepping down from the boot lock lowers min before max.
	require.NoError(t, applier.Apply(gpufreq.Policy{ClockKHz: 403000, MidCap: gpufreq.Disabled(), BigCap: gpufreq.Unbounded()}))
	assert.Equal(t, "403000", readNode(t, minLock))
	assert.Equal(t, "403000", readNode(t, filepath.Join(root, "gpu", "dvfs_max_lock")))
	assert.Equal(t, uint32(403000), applier.lastClock)

	// An unreadable min lock falls back to the reported clock.
	writeNode(t, minLock, "unlocked\n")
	applier = NewApplier(paths, nil, testr.New(t))
	assert.Equal(t, uint32(403000), applier.lastClock)
}
