package gpufreq

import (
	"strconv"

	prom "github.com/prometheus/client_golang/prometheus"
)

const (
	promNamespace = "gpupulse"
	promSubsystem = "gpu"
)

type collectorImpl struct {
	collectFunc  func(ch chan<- prom.Metric)
	describeFunc func(ch chan<- *prom.Desc)
}

func (c collectorImpl) Collect(ch chan<- prom.Metric) {
	c.collectFunc(ch)
}

func (c collectorImpl) Describe(ch chan<- *prom.Desc) {
	c.describeFunc(ch)
}

// NewCollector exports the governor's active policy and counters. Each scrape
// reads one consistent snapshot.
func NewCollector(g *Governor) prom.Collector {
	variant := prom.Labels{"variant": g.cfg.Variant.String()}
	clockDesc := prom.NewDesc(prom.BuildFQName(promNamespace, promSubsystem, "clock_khz"),
		"GPU clock of the active step", nil, variant)
	indexDesc := prom.NewDesc(prom.BuildFQName(promNamespace, promSubsystem, "step_index"),
		"Index of the active step, 0 is the highest clock", nil, variant)
	memDesc := prom.NewDesc(prom.BuildFQName(promNamespace, promSubsystem, "mem_freq_khz"),
		"Memory bus frequency paired with the active step", nil, variant)
	llcDesc := prom.NewDesc(prom.BuildFQName(promNamespace, promSubsystem, "llc_ways"),
		"LLC ways reserved at the active step", nil, variant)
	transitionsDesc := prom.NewDesc(prom.BuildFQName(promNamespace, promSubsystem, "transitions_total"),
		"Committed step transitions", []string{"direction"}, variant)
	samplesDesc := prom.NewDesc(prom.BuildFQName(promNamespace, promSubsystem, "samples_total"),
		"Load samples seen by the governor", []string{"result"}, variant)
	residencyDesc := prom.NewDesc(prom.BuildFQName(promNamespace, promSubsystem, "residency_samples_total"),
		"Accepted samples taken at each step", []string{"clock_khz"}, variant)

	descs := []*prom.Desc{clockDesc, indexDesc, memDesc, llcDesc, transitionsDesc, samplesDesc, residencyDesc}

	return collectorImpl{
		describeFunc: func(ch chan<- *prom.Desc) {
			for _, d := range descs {
				ch <- d
			}
		},
		collectFunc: func(ch chan<- prom.Metric) {
			g.mu.Lock()
			p := g.policyAt(g.index)
			stats := g.stats
			residency := make([]uint64, len(g.stats.Residency))
			copy(residency, g.stats.Residency)
			g.mu.Unlock()

			ch <- prom.MustNewConstMetric(clockDesc, prom.GaugeValue, float64(p.ClockKHz))
			ch <- prom.MustNewConstMetric(indexDesc, prom.GaugeValue, float64(p.Index))
			ch <- prom.MustNewConstMetric(memDesc, prom.GaugeValue, float64(p.MemFreqKHz))
			ch <- prom.MustNewConstMetric(llcDesc, prom.GaugeValue, float64(p.LLCWays))
			ch <- prom.MustNewConstMetric(transitionsDesc, prom.CounterValue, float64(stats.StepUps), Up.String())
			ch <- prom.MustNewConstMetric(transitionsDesc, prom.CounterValue, float64(stats.StepDowns), Down.String())
			ch <- prom.MustNewConstMetric(samplesDesc, prom.CounterValue, float64(stats.Samples), "accepted")
			ch <- prom.MustNewConstMetric(samplesDesc, prom.CounterValue, float64(stats.Rejected), "rejected")
			for i, n := range residency {
				clock := strconv.FormatUint(uint64(g.table.StepAt(i).ClockKHz), 10)
				ch <- prom.MustNewConstMetric(residencyDesc, prom.CounterValue, float64(n), clock)
			}
		},
	}
}
