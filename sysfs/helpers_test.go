package sysfs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeNode(t *testing.T, path, content string) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readNode(t *testing.T, path string) string {
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.TrimSpace(string(data))
}

// fakeSysfs lays out an exynos2100-like tree and points the stock candidates
// at it for the duration of the test.
func fakeSysfs(t *testing.T) string {
	root := t.TempDir()

	writeNode(t, filepath.Join(root, "gpu", "dvfs_max_lock"), "0\n")
	writeNode(t, filepath.Join(root, "gpu", "dvfs_min_lock"), "0\n")
	writeNode(t, filepath.Join(root, "gpu", "utilization"), "37\n")
	writeNode(t, filepath.Join(root, "gpu", "clock"), "403000\n")
	writeNode(t, filepath.Join(root, "mif", "scaling_devfreq_min"), "421000\n")
	for cpu, freqs := range map[string][2]string{
		"cpu0": {"2002000", "400000"},
		"cpu4": {"2400000", "507000"},
		"cpu7": {"2912000", "533000"},
	} {
		dir := filepath.Join(root, "cpu", cpu, "cpufreq")
		writeNode(t, filepath.Join(dir, "scaling_max_freq"), freqs[0]+"\n")
		writeNode(t, filepath.Join(dir, "cpuinfo_max_freq"), freqs[0]+"\n")
		writeNode(t, filepath.Join(dir, "cpuinfo_min_freq"), freqs[1]+"\n")
	}
	writeNode(t, filepath.Join(root, "llc", "gpu_ways"), "0\n")

	override(t, &Paths_GPU, []string{filepath.Join(root, "gpu")})
	override(t, &Paths_MIF, []string{filepath.Join(root, "mif")})
	override(t, &Paths_Cluster, []string{filepath.Join(root, "cpu")})
	override(t, &Paths_LLC, []string{filepath.Join(root, "llc")})
	return root
}

func override(t *testing.T, target *[]string, value []string) {
	original := *target
	*target = value
	t.Cleanup(func() { *target = original })
}
