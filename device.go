package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/AndroidPlusProject/GPUPulse/gpufreq"
	"github.com/AndroidPlusProject/GPUPulse/sysfs"
)

var testHookStopLoop func() bool

type Device struct {
	sync.Mutex

	Manifest     *Manifest
	Governor     *gpufreq.Governor
	Applier      gpufreq.Applier
	Loads        sysfs.LoadReader
	SamplePeriod time.Duration

	logger     logr.Logger
	cancelFunc func()
	waitGroup  sync.WaitGroup
	running    bool
}

// NewDevice resolves the manifest's sysfs nodes and boots a governor on the
// selected table. override wins over the manifest's variant when non-nil.
func NewDevice(m *Manifest, override *gpufreq.Variant) (*Device, error) {
	variant, err := m.variant(gpufreq.DefaultVariant)
	if err != nil {
		return nil, err
	}
	if override != nil {
		variant = *override
	}
	start, err := gpufreq.ParseStartPolicy(m.Start)
	if err != nil {
		return nil, err
	}
	period, err := m.samplePeriod()
	if err != nil {
		return nil, err
	}

	if m.Paths == nil {
		m.Paths = &sysfs.Paths{}
	}
	if err := m.Paths.Init(); err != nil {
		return nil, fmt.Errorf("failed parsing paths from device manifest: %w", err)
	}
	loads, err := sysfs.NewLoadReader(m.Paths)
	if err != nil {
		return nil, err
	}

	gov, err := gpufreq.Initialize(variant, gpufreq.WithStart(start), gpufreq.WithLogger(newLogger("governor")))
	if err != nil {
		return nil, err
	}
	applier := sysfs.NewApplier(m.Paths, m.Clusters, newLogger("applier"))

	dev := newDevice(m, gov, applier, loads, period)
	if clock, err := sysfs.ReadClock(m.Paths); err == nil {
		dev.Resync(clock)
	} else {
		Debug("Could not read GPU clock, keeping the boot step: %v", err)
	}
	return dev, nil
}

func newDevice(m *Manifest, gov *gpufreq.Governor, applier gpufreq.Applier, loads sysfs.LoadReader, period time.Duration) *Device {
	return &Device{
		Manifest:     m,
		Governor:     gov,
		Applier:      applier,
		Loads:        loads,
		SamplePeriod: period,
		logger:       newLogger("device"),
	}
}

// Resync lines the governor up with a clock the hardware is already running.
// Clocks that are not in the table leave the start step in place.
func (dev *Device) Resync(clockKHz uint32) {
	i, ok := dev.Governor.Config().Table.IndexOf(clockKHz)
	if !ok {
		Debug("GPU is at %dkHz, which is not a step of the %s table", clockKHz, dev.Governor.Config().Variant)
		return
	}
	if err := dev.Governor.SetIndex(i); err != nil {
		Error("Failed to resync governor to %dkHz: %v", clockKHz, err)
		return
	}
	Debug("Resynced governor to step %d (%dkHz)", i, clockKHz)
}

// ApplyCurrent pushes the active step to the hardware regardless of whether
// anything changed.
func (dev *Device) ApplyCurrent() error {
	dev.Lock()
	defer dev.Unlock()
	return dev.Applier.Apply(dev.Governor.CurrentPolicy())
}

// Tick takes one sample, feeds it to the governor and programs the new step
// when a transition commits.
func (dev *Device) Tick() (gpufreq.Decision, error) {
	dev.Lock()
	defer dev.Unlock()

	load, err := dev.Loads.ReadLoad()
	if err != nil {
		return gpufreq.Stay, err
	}
	return dev.sample(load)
}

// Sample feeds an externally measured load, as a HAL host does.
func (dev *Device) Sample(load int) (gpufreq.Decision, error) {
	dev.Lock()
	defer dev.Unlock()
	return dev.sample(load)
}

// HostSample is Sample for hosts that only see a decision code: 0 stay,
// 1 step up, 2 step down, -1 when the sample was rejected. A committed step
// that failed to program still reports its decision; the governor has moved.
func (dev *Device) HostSample(load int) int32 {
	decision, err := dev.Sample(load)
	if err != nil {
		if decision == gpufreq.Stay {
			Error("Sample %d rejected: %v", load, err)
			return -1
		}
		Error("GPU %s committed but not programmed: %v", decision, err)
	}
	return int32(decision)
}

func (dev *Device) sample(load int) (gpufreq.Decision, error) {
	decision, err := dev.Governor.OnSample(load)
	if err != nil {
		return decision, err
	}
	if decision == gpufreq.Stay {
		return decision, nil
	}

	policy := dev.Governor.CurrentPolicy()
	Verbose("GPU %s to %dkHz at %d%% load", decision, policy.ClockKHz, load)
	if err := dev.Applier.Apply(policy); err != nil {
		return decision, fmt.Errorf("failed to apply step %d: %w", policy.Index, err)
	}
	return decision, nil
}

func (dev *Device) Start() {
	dev.Lock()
	defer dev.Unlock()
	if dev.running {
		return
	}
	ctx, cancelFunc := context.WithCancel(context.Background())
	dev.cancelFunc = cancelFunc
	dev.running = true
	dev.waitGroup.Add(1)
	go dev.runLoop(ctx)
}

func (dev *Device) Stop() {
	dev.Lock()
	if !dev.running {
		dev.Unlock()
		return
	}
	dev.running = false
	dev.cancelFunc()
	dev.Unlock()
	dev.waitGroup.Wait()
}

func (dev *Device) runLoop(ctx context.Context) {
	defer dev.waitGroup.Done()

	for {
		if testHookStopLoop != nil {
			if testHookStopLoop() {
				return
			}
		}

		start := time.Now()
		if _, err := dev.Tick(); err != nil {
			if errors.Is(err, gpufreq.ErrLoadOutOfRange) {
				Warn("Ignoring GPU load sample: %v", err)
			} else {
				dev.logger.Error(err, "governor tick failed")
			}
		}

		//Keep the sampling cadence steady regardless of how long the tick took
		wait := dev.SamplePeriod - time.Since(start)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}
