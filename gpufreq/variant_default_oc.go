//go:build exynos_gpu_oc

package gpufreq

// DefaultVariant is the table a build ships with.
const DefaultVariant = Overclocked
