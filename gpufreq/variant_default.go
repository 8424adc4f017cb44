//go:build !exynos_gpu_oc

package gpufreq

// DefaultVariant is the table a build ships with. Build with the exynos_gpu_oc
// tag to default to the overclocked table.
const DefaultVariant = Stock
