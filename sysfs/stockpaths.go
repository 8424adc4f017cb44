package sysfs

var Paths_GPU = []string{"/sys/devices/platform/18500000.mali", "/sys/kernel/gpu"}
func GetPaths_GPU(prefix ...string) (string, string) {
	return pathLoop(Paths_GPU, prefix...)
}

var Paths_GPU_DVFS_Max = []string{"dvfs_max_lock", "gpu_max_clock"}
func GetPaths_GPU_DVFS_Max(prefix ...string) (string, string) {
	return pathLoop(Paths_GPU_DVFS_Max, prefix...)
}

var Paths_GPU_DVFS_Min = []string{"dvfs_min_lock", "gpu_min_clock"}
func GetPaths_GPU_DVFS_Min(prefix ...string) (string, string) {
	return pathLoop(Paths_GPU_DVFS_Min, prefix...)
}

var Paths_GPU_Utilization = []string{"utilization", "gpu_busy"}
func GetPaths_GPU_Utilization(prefix ...string) (string, string) {
	return pathLoop(Paths_GPU_Utilization, prefix...)
}

var Paths_GPU_Clock = []string{"clock", "gpu_clock"}
func GetPaths_GPU_Clock(prefix ...string) (string, string) {
	return pathLoop(Paths_GPU_Clock, prefix...)
}

var Paths_MIF = []string{"/sys/class/devfreq/17000010.devfreq_mif"}
func GetPaths_MIF(prefix ...string) (string, string) {
	return pathLoop(Paths_MIF, prefix...)
}

var Paths_MIF_Min = []string{"scaling_devfreq_min", "min_freq"}
func GetPaths_MIF_Min(prefix ...string) (string, string) {
	return pathLoop(Paths_MIF_Min, prefix...)
}

var Paths_Cluster = []string{"/sys/devices/system/cpu"}
func GetPaths_Cluster(prefix ...string) (string, string) {
	return pathLoop(Paths_Cluster, prefix...)
}

//Keyed by cluster role, first CPU of each exynos2100 cluster
var Paths_Cluster_CPUFreq = map[string][]string{
	"little": {"cpu0/cpufreq", "cpufreq/policy0"},
	"mid":    {"cpu4/cpufreq", "cpufreq/policy4"},
	"big":    {"cpu7/cpufreq", "cpufreq/policy7"},
}

var Paths_CPUFreq_Max = []string{"scaling_max_freq"}
func GetPaths_CPUFreq_Max(prefix ...string) (string, string) {
	return pathLoop(Paths_CPUFreq_Max, prefix...)
}

var Paths_CPUFreq_HWMax = []string{"cpuinfo_max_freq"}
func GetPaths_CPUFreq_HWMax(prefix ...string) (string, string) {
	return pathLoop(Paths_CPUFreq_HWMax, prefix...)
}

var Paths_CPUFreq_HWMin = []string{"cpuinfo_min_freq"}
func GetPaths_CPUFreq_HWMin(prefix ...string) (string, string) {
	return pathLoop(Paths_CPUFreq_HWMin, prefix...)
}

var Paths_LLC = []string{"/sys/kernel/llc", "/sys/devices/platform/exynos-llc"}
func GetPaths_LLC(prefix ...string) (string, string) {
	return pathLoop(Paths_LLC, prefix...)
}

var Paths_LLC_Ways = []string{"gpu_ways", "llc_ways"}
func GetPaths_LLC_Ways(prefix ...string) (string, string) {
	return pathLoop(Paths_LLC_Ways, prefix...)
}
