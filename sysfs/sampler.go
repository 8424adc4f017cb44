package sysfs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadReader supplies GPU utilisation samples in percent.
type LoadReader interface {
	ReadLoad() (int, error)
}

type FileLoadReader struct {
	path string
}

func NewLoadReader(paths *Paths) (*FileLoadReader, error) {
	if paths.GPU == nil || paths.GPU.Utilization == "" {
		return nil, pathErrorDefinition("gpu/utilization")
	}
	return &FileLoadReader{path: pathJoin(paths.GPU.Path, paths.GPU.Utilization)}, nil
}

func (r *FileLoadReader) Path() string {
	return r.path
}

func (r *FileLoadReader) ReadLoad() (int, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return 0, fmt.Errorf("failed to read gpu utilization: %w", err)
	}
	return ParseLoad(string(data))
}

// ParseLoad accepts the formats exposed by mali kernels: "45", "45%" and
// "45 %". The value is returned as read, range checks belong to the governor.
func ParseLoad(s string) (int, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	load, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid gpu utilization %q: %w", s, err)
	}
	return load, nil
}

// ReadClock returns the GPU clock the kernel currently reports, used to line
// the governor up with the hardware at startup.
func ReadClock(paths *Paths) (uint32, error) {
	if paths.GPU == nil || paths.GPU.Clock == "" {
		return 0, pathErrorDefinition("gpu/clock")
	}
	n, err := ReadNumber(pathJoin(paths.GPU.Path, paths.GPU.Clock))
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}
