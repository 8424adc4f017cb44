package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/AndroidPlusProject/GPUPulse/gpufreq"
	"github.com/AndroidPlusProject/GPUPulse/sysfs"
)

const defaultSampleMs = 50

type Manifest struct {
	Variant     string            `json:"variant"`      //stock or overclocked, defaults to the build's table
	Start       string            `json:"start"`        //lowest or highest step at boot
	SampleMs    json.Number       `json:"sample_ms"`    //Sampling period in milliseconds
	MetricsAddr string            `json:"metrics_addr"` //Serve prometheus metrics here when set
	Clusters    map[string]string `json:"clusters"`     //Cluster role (little, mid, big) to cluster name in paths
	Paths       *sysfs.Paths      `json:"paths"`        //Overrides for stock sysfs nodes
}

// loadManifest reads the first non-empty manifest in the search list. No
// manifest at all is fine: stock paths and defaults are used.
func loadManifest(search []string) (*Manifest, string, error) {
	m := &Manifest{}
	for i := 0; i < len(search); i++ {
		data, err := os.ReadFile(search[i])
		if err != nil || len(data) == 0 {
			continue
		}
		if err := json.Unmarshal(data, m); err != nil {
			return nil, search[i], fmt.Errorf("failed to parse manifest %s: %w", search[i], err)
		}
		return m, search[i], nil
	}
	return m, "", nil
}

func (m *Manifest) variant(fallback gpufreq.Variant) (gpufreq.Variant, error) {
	if m.Variant == "" {
		return fallback, nil
	}
	return gpufreq.ParseVariant(m.Variant)
}

func (m *Manifest) samplePeriod() (time.Duration, error) {
	if m.SampleMs.String() == "" {
		return defaultSampleMs * time.Millisecond, nil
	}
	ms, err := m.SampleMs.Int64()
	if err != nil {
		return 0, fmt.Errorf("invalid sample_ms %s: %w", m.SampleMs, err)
	}
	if ms <= 0 {
		return 0, fmt.Errorf("sample_ms must be positive, got %d", ms)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
