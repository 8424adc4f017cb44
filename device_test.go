package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AndroidPlusProject/GPUPulse/gpufreq"
	"github.com/AndroidPlusProject/GPUPulse/sysfs"
)

type applierMock struct {
	mock.Mock
}

func (a *applierMock) Apply(p gpufreq.Policy) error {
	return a.Called(p).Error(0)
}

type loadsMock struct {
	mock.Mock
}

func (l *loadsMock) ReadLoad() (int, error) {
	args := l.Called()
	return args.Int(0), args.Error(1)
}

func newMockedDevice(t *testing.T) (*Device, *applierMock, *loadsMock) {
	gov, err := gpufreq.Initialize(gpufreq.Stock)
	require.NoError(t, err)
	applier := &applierMock{}
	loads := &loadsMock{}
	return newDevice(&Manifest{}, gov, applier, loads, 10*time.Millisecond), applier, loads
}

func TestDeviceTickStays(t *testing.T) {
	dev, applier, loads := newMockedDevice(t)
	loads.On("ReadLoad").Return(80, nil).Once()

	decision, err := dev.Tick()
	require.NoError(t, err)
	assert.Equal(t, gpufreq.Stay, decision)
	applier.AssertNotCalled(t, "Apply", mock.Anything)
	loads.AssertExpectations(t)
}

func TestDeviceTickAppliesCommittedStep(t *testing.T) {
	dev, applier, loads := newMockedDevice(t)
	loads.On("ReadLoad").Return(90, nil).Once()
	applier.On("Apply", mock.MatchedBy(func(p gpufreq.Policy) bool {
		return p.Index == 7 && p.ClockKHz == 221000 && p.MemFreqKHz == 1014000
	})).Return(nil).Once()

	decision, err := dev.Tick()
	require.NoError(t, err)
	assert.Equal(t, gpufreq.StepUp, decision)
	applier.AssertExpectations(t)
}

func TestDeviceTickErrors(t *testing.T) {
	dev, applier, loads := newMockedDevice(t)
	readErr := errors.New("no such device")
	loads.On("ReadLoad").Return(0, readErr).Once()
	loads.On("ReadLoad").Return(130, nil).Once()

	_, err := dev.Tick()
	assert.ErrorIs(t, err, readErr)

	decision, err := dev.Tick()
	assert.Equal(t, gpufreq.Stay, decision)
	assert.ErrorIs(t, err, gpufreq.ErrLoadOutOfRange)
	assert.Equal(t, 8, dev.Governor.Index())
	applier.AssertNotCalled(t, "Apply", mock.Anything)
}

func TestDeviceSampleApplyFailure(t *testing.T) {
	dev, applier, _ := newMockedDevice(t)
	applyErr := errors.New("read-only file system")
	applier.On("Apply", mock.Anything).Return(applyErr).Once()

	decision, err := dev.Sample(99)
	assert.Equal(t, gpufreq.StepUp, decision)
	assert.ErrorIs(t, err, applyErr)
	assert.ErrorContains(t, err, "failed to apply step 7")
}

func TestDeviceHostSample(t *testing.T) {
	dev, applier, _ := newMockedDevice(t)
	applier.On("Apply", mock.Anything).Return(errors.New("read-only file system")).Once()

	assert.Equal(t, int32(-1), dev.HostSample(101))
	assert.Equal(t, 8, dev.Governor.Index())

	// The step is committed even though programming it failed.
	assert.Equal(t, int32(gpufreq.StepUp), dev.HostSample(99))
	assert.Equal(t, 7, dev.Governor.Index())
	assert.Equal(t, int32(gpufreq.Stay), dev.HostSample(80))
	applier.AssertExpectations(t)
}

func TestDeviceApplyCurrent(t *testing.T) {
	dev, applier, _ := newMockedDevice(t)
	applier.On("Apply", mock.MatchedBy(func(p gpufreq.Policy) bool {
		return p.Index == 8 && p.LittleCap == gpufreq.Disabled() && p.BigCap == gpufreq.Unbounded()
	})).Return(nil).Once()

	require.NoError(t, dev.ApplyCurrent())
	applier.AssertExpectations(t)
}

func TestDeviceResync(t *testing.T) {
	dev, _, _ := newMockedDevice(t)

	dev.Resync(585000)
	assert.Equal(t, 3, dev.Governor.Index())

	dev.Resync(600000)
	assert.Equal(t, 3, dev.Governor.Index())
}

func TestDeviceStartStop(t *testing.T) {
	dev, applier, loads := newMockedDevice(t)
	var ticks atomic.Int32
	loads.On("ReadLoad").Return(80, nil).Run(func(mock.Arguments) { ticks.Add(1) })

	dev.Start()
	dev.Start()
	require.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, 5*time.Millisecond)

	doneCh := make(chan struct{})
	go func() {
		dev.Stop()
		close(doneCh)
	}()

	select {
	case <-doneCh:
		// function unblocked properly
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Stop did not return after the loop was cancelled.")
	}
	dev.Stop()
	applier.AssertNotCalled(t, "Apply", mock.Anything)
}

func TestDeviceRunLoopTestHook(t *testing.T) {
	dev, _, _ := newMockedDevice(t)
	testHookStopLoop = func() bool { return true }
	defer func() { testHookStopLoop = nil }()

	dev.waitGroup.Add(1)
	doneCh := make(chan struct{})
	go func() {
		dev.runLoop(context.Background())
		close(doneCh)
	}()

	select {
	case <-doneCh:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("runLoop ignored the stop hook")
	}
}

func writeNode(t *testing.T, path, content string) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestNewDevice(t *testing.T) {
	root := t.TempDir()
	writeNode(t, filepath.Join(root, "gpu", "dvfs_max_lock"), "0")
	writeNode(t, filepath.Join(root, "gpu", "dvfs_min_lock"), "0")
	writeNode(t, filepath.Join(root, "gpu", "utilization"), "50")
	writeNode(t, filepath.Join(root, "gpu", "clock"), "949000")

	origCluster, origMIF, origLLC := sysfs.Paths_Cluster, sysfs.Paths_MIF, sysfs.Paths_LLC
	sysfs.Paths_Cluster, sysfs.Paths_MIF, sysfs.Paths_LLC = nil, nil, nil
	defer func() {
		sysfs.Paths_Cluster, sysfs.Paths_MIF, sysfs.Paths_LLC = origCluster, origMIF, origLLC
	}()

	newManifest := func() *Manifest {
		return &Manifest{
			Variant:  "oc",
			SampleMs: "20",
			Paths:    &sysfs.Paths{GPU: &sysfs.PathsGPU{Path: filepath.Join(root, "gpu")}},
		}
	}

	dev, err := NewDevice(newManifest(), nil)
	require.NoError(t, err)
	assert.Equal(t, gpufreq.Overclocked, dev.Governor.Config().Variant)
	assert.Equal(t, 1, dev.Governor.Index())
	assert.Equal(t, 20*time.Millisecond, dev.SamplePeriod)

	decision, err := dev.Tick()
	require.NoError(t, err)
	assert.Equal(t, gpufreq.Stay, decision)

	stock := gpufreq.Stock
	dev, err = NewDevice(newManifest(), &stock)
	require.NoError(t, err)
	assert.Equal(t, gpufreq.Stock, dev.Governor.Config().Variant)
	assert.Equal(t, 8, dev.Governor.Index())

	m := newManifest()
	m.Start = "sideways"
	_, err = NewDevice(m, nil)
	assert.ErrorContains(t, err, "unknown start policy")

	m = newManifest()
	m.Paths.GPU.Path = filepath.Join(root, "missing")
	_, err = NewDevice(m, nil)
	assert.ErrorContains(t, err, "failed parsing paths")
}
