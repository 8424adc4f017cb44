package sysfs

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Paths is the manifest of sysfs nodes the governor reads and programs.
// Anything left empty is resolved from the stock candidates in stockpaths.go.
type Paths struct {
	GPU      *PathsGPU
	MIF      *PathsDevfreq
	Clusters map[string]PathsCluster
	LLC      *PathsLLC
}

type PathsGPU struct {
	Path        string //exynos2100: /sys/devices/platform/18500000.mali
	DVFS        *PathsGPUDVFS
	Utilization string //exynos2100: utilization
	Clock       string //exynos2100: clock
}

type PathsGPUDVFS struct {
	Max string //exynos2100: dvfs_max_lock
	Min string //exynos2100: dvfs_min_lock
}

type PathsDevfreq struct {
	Path string //exynos2100: /sys/class/devfreq/17000010.devfreq_mif
	Min  string //exynos2100: scaling_devfreq_min
}

type PathsCluster struct { //exynos2100: little, mid, big
	Path    string //exynos2100: /sys/devices/system/cpu
	CPUFreq *PathsCPUFreq
}

type PathsCPUFreq struct {
	Path  string //exynos2100: little: cpu0/cpufreq, mid: cpu4/cpufreq, big: cpu7/cpufreq
	Max   string //exynos2100: scaling_max_freq
	HWMax string //exynos2100: cpuinfo_max_freq
	HWMin string //exynos2100: cpuinfo_min_freq
}

type PathsLLC struct {
	Path string //exynos2100: /sys/kernel/llc
	Ways string //exynos2100: gpu_ways
}

func (p *Paths) Init() error {
	if p.GPU == nil {
		gpuPath, _ := GetPaths_GPU()
		if gpuPath == "" {
			return pathErrorDefinition("gpu")
		}
		gpu := &PathsGPU{Path: gpuPath}
		dvfs := &PathsGPUDVFS{}
		if err := pathStockMustExist(&dvfs.Max, GetPaths_GPU_DVFS_Max, gpuPath); err == nil {
			if err := pathStockMustExist(&dvfs.Min, GetPaths_GPU_DVFS_Min, gpuPath); err == nil {
				gpu.DVFS = dvfs
			}
		}
		pathStockCanExist(&gpu.Utilization, GetPaths_GPU_Utilization, gpuPath)
		pathStockCanExist(&gpu.Clock, GetPaths_GPU_Clock, gpuPath)
		p.GPU = gpu
	} else {
		gpu := p.GPU
		gpuPath, err := pathOrStockMustExist(&gpu.Path, GetPaths_GPU)
		if err != nil {
			//GPU defined in manifest paths, require a valid path to be available
			return pathErrorDefinition("gpu")
		}
		if gpu.DVFS == nil {
			gpu.DVFS = &PathsGPUDVFS{}
		}
		if err := pathMustOrStockCanExist(&gpu.DVFS.Max, GetPaths_GPU_DVFS_Max, gpuPath); err != nil {
			return pathErrorInvalid(gpu.DVFS.Max, "gpu/dvfs/max")
		}
		if err := pathMustOrStockCanExist(&gpu.DVFS.Min, GetPaths_GPU_DVFS_Min, gpuPath); err != nil {
			return pathErrorInvalid(gpu.DVFS.Min, "gpu/dvfs/min")
		}
		if err := pathMustOrStockCanExist(&gpu.Utilization, GetPaths_GPU_Utilization, gpuPath); err != nil {
			return pathErrorInvalid(gpu.Utilization, "gpu/utilization")
		}
		if err := pathMustOrStockCanExist(&gpu.Clock, GetPaths_GPU_Clock, gpuPath); err != nil {
			return pathErrorInvalid(gpu.Clock, "gpu/clock")
		}
	}

	if p.MIF == nil {
		mifPath, _ := GetPaths_MIF()
		if mifPath != "" {
			mif := &PathsDevfreq{Path: mifPath}
			pathStockCanExist(&mif.Min, GetPaths_MIF_Min, mifPath)
			p.MIF = mif
		}
	} else {
		mif := p.MIF
		mifPath, err := pathOrStockMustExist(&mif.Path, GetPaths_MIF)
		if err != nil {
			return pathErrorDefinition("mif")
		}
		if err := pathMustOrStockCanExist(&mif.Min, GetPaths_MIF_Min, mifPath); err != nil {
			return pathErrorInvalid(mif.Min, "mif/min")
		}
	}

	if len(p.Clusters) == 0 {
		p.Clusters = make(map[string]PathsCluster)
		clusterPath, _ := GetPaths_Cluster()
		if clusterPath != "" {
			for clusterName, stock := range Paths_Cluster_CPUFreq {
				freqPath, _ := pathLoop(stock, clusterPath)
				if freqPath == "" {
					continue
				}
				freq := &PathsCPUFreq{Path: freqPath}
				fullPath := pathJoin(clusterPath, freqPath)
				pathStockCanExist(&freq.Max, GetPaths_CPUFreq_Max, fullPath)
				pathStockCanExist(&freq.HWMax, GetPaths_CPUFreq_HWMax, fullPath)
				pathStockCanExist(&freq.HWMin, GetPaths_CPUFreq_HWMin, fullPath)
				p.Clusters[clusterName] = PathsCluster{Path: clusterPath, CPUFreq: freq}
			}
		}
	} else {
		for clusterName, cluster := range p.Clusters {
			if _, err := pathOrStockMustExist(&cluster.Path, GetPaths_Cluster); err != nil {
				//Cluster defined in manifest paths, require a valid path to be available
				return pathErrorDefinition("clusters/%s", clusterName)
			}
			freq := cluster.CPUFreq
			if freq == nil {
				freq = &PathsCPUFreq{}
			}
			stock := Paths_Cluster_CPUFreq[clusterName]
			freqPath, err := pathOrStockMustExist(&freq.Path, func(prefix ...string) (string, string) {
				return pathLoop(stock, prefix...)
			}, cluster.Path)
			if err != nil {
				return pathErrorDefinition("clusters/%s/cpufreq relative to path %s", clusterName, cluster.Path)
			}
			if err := pathMustOrStockCanExist(&freq.Max, GetPaths_CPUFreq_Max, freqPath); err != nil {
				return pathErrorInvalid(freq.Max, "clusters/%s/cpufreq/max", clusterName)
			}
			if err := pathMustOrStockCanExist(&freq.HWMax, GetPaths_CPUFreq_HWMax, freqPath); err != nil {
				return pathErrorInvalid(freq.HWMax, "clusters/%s/cpufreq/hw_max", clusterName)
			}
			if err := pathMustOrStockCanExist(&freq.HWMin, GetPaths_CPUFreq_HWMin, freqPath); err != nil {
				return pathErrorInvalid(freq.HWMin, "clusters/%s/cpufreq/hw_min", clusterName)
			}
			cluster.CPUFreq = freq
			p.Clusters[clusterName] = cluster
		}
	}

	if p.LLC == nil {
		llcPath, _ := GetPaths_LLC()
		if llcPath != "" {
			llc := &PathsLLC{Path: llcPath}
			pathStockCanExist(&llc.Ways, GetPaths_LLC_Ways, llcPath)
			p.LLC = llc
		}
	} else {
		llc := p.LLC
		llcPath, err := pathOrStockMustExist(&llc.Path, GetPaths_LLC)
		if err != nil {
			return pathErrorDefinition("llc")
		}
		if err := pathMustOrStockCanExist(&llc.Ways, GetPaths_LLC_Ways, llcPath); err != nil {
			return pathErrorInvalid(llc.Ways, "llc/ways")
		}
	}

	return nil
}

func pathErrorDefinition(nameFormat string, formats ...any) error {
	name := fmt.Sprintf(nameFormat, formats...)
	return fmt.Errorf("please define path for %s, or remove it from manifest", name)
}

func pathErrorInvalid(path, nameFormat string, formats ...any) error {
	name := fmt.Sprintf(nameFormat, formats...)
	return fmt.Errorf("invalid %s path %s", name, path)
}

func pathJoin(parts ...string) string {
	path := ""
	for i := 0; i < len(parts); i++ {
		if parts[i] == "" {
			continue
		}
		if path != "" {
			path += "/"
		}
		path += parts[i]
	}
	return path
}

func pathOrStockMustExist(path *string, handler func(...string) (string, string), prefixes ...string) (string, error) {
	if *path == "" {
		tmp, prefix := handler(prefixes...)
		if tmp == "" {
			return "", fmt.Errorf("stock path not found")
		}
		*path = tmp
		if prefix != "" {
			return pathJoin(prefix, *path), nil
		}
	} else {
		if len(prefixes) > 0 {
			for i := 0; i < len(prefixes); i++ {
				tmp := prefixes[i] + "/" + *path
				if pathValid(tmp) {
					return tmp, nil
				}
			}
			return "", fmt.Errorf("defined path is invalid for prefixes")
		} else if !pathValid(*path) {
			return "", fmt.Errorf("defined path is invalid")
		}
	}
	return *path, nil
}

func pathMustOrStockCanExist(path *string, handler func(...string) (string, string), prefixes ...string) error {
	if *path == "" {
		*path, _ = handler(prefixes...)
	} else {
		if len(prefixes) > 0 {
			for i := 0; i < len(prefixes); i++ {
				if pathValid(prefixes[i] + "/" + *path) {
					return nil
				}
			}
			return fmt.Errorf("defined path is invalid for prefixes")
		} else if !pathValid(*path) {
			return fmt.Errorf("defined path is invalid")
		}
	}
	return nil
}

func pathStockCanExist(path *string, handler func(...string) (string, string), prefixes ...string) {
	_ = pathStockMustExist(path, handler, prefixes...)
}

func pathStockMustExist(path *string, handler func(...string) (string, string), prefixes ...string) error {
	*path, _ = handler(prefixes...)
	if *path == "" {
		return fmt.Errorf("stock path not found")
	}
	return nil
}

func pathValid(path string) bool {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false
	}
	return true
}

// pathWritable reports whether the daemon may write path, so a read-only node
// is reported once at startup instead of failing on every tick.
func pathWritable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}

/* NOTES:
- When testing against prefixes, paths MUST NOT be prefixed as root paths! For example:
    paths[0]: /bar
    prefix[0]: /foo
    test: /foo//bar - likely invalid on your platform!
*/
func pathLoop(paths []string, prefix ...string) (string, string) {
	if len(paths) < 1 {
		return "", ""
	}
	if len(prefix) > 0 {
		for i := 0; i < len(prefix); i++ {
			if !pathValid(prefix[i]) {
				continue
			}
			for j := 0; j < len(paths); j++ {
				path := prefix[i] + "/" + paths[j]
				if pathValid(path) {
					return paths[j], prefix[i]
				}
			}
		}
		return "", ""
	}
	for i := 0; i < len(paths); i++ {
		if pathValid(paths[i]) {
			return paths[i], ""
		}
	}
	return "", ""
}
