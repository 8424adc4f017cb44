package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logEntry struct {
	prio LogPriority
	msg  string
}

func captureLogs(t *testing.T, debugOn, verboseOn bool) *[]logEntry {
	entries := &[]logEntry{}
	origEmit, origDebug, origVerbose := emitLog, debug, verbose
	emitLog = func(prio LogPriority, msg string) {
		*entries = append(*entries, logEntry{prio, msg})
	}
	debug, verbose = debugOn, verboseOn
	t.Cleanup(func() {
		emitLog, debug, verbose = origEmit, origDebug, origVerbose
	})
	return entries
}

func TestLoggerSurfacesErrorsWithoutDebug(t *testing.T) {
	entries := captureLogs(t, false, false)
	logger := newLogger("device")

	logger.Error(errors.New("boom"), "governor tick failed")
	logger.Info("node is not writable", "path", "/sys/kernel/gpu/dvfs_max_lock")
	logger.V(6).Info("writing", "path", "/sys/kernel/gpu/dvfs_min_lock")
	logger.V(7).Info("skipping unchanged value")

	require.Len(t, *entries, 2)
	assert.Equal(t, LogPriority(LogError), (*entries)[0].prio)
	assert.Contains(t, (*entries)[0].msg, "device")
	assert.Contains(t, (*entries)[0].msg, "governor tick failed")
	assert.Contains(t, (*entries)[0].msg, "boom")
	assert.Equal(t, LogPriority(LogInfo), (*entries)[1].prio)
	assert.Contains(t, (*entries)[1].msg, "dvfs_max_lock")
}

func TestLoggerVerbosityFollowsFlags(t *testing.T) {
	entries := captureLogs(t, true, false)
	logger := newLogger("applier").WithValues("step", 3)

	logger.V(6).Info("writing")
	logger.V(7).Info("skipping unchanged value")
	require.Len(t, *entries, 1)
	assert.Equal(t, LogPriority(LogDebug), (*entries)[0].prio)
	assert.Contains(t, (*entries)[0].msg, `"step"=3`)

	entries = captureLogs(t, true, true)
	newLogger("writer").V(7).Info("skipping unchanged value")
	require.Len(t, *entries, 1)
	assert.Equal(t, LogPriority(LogVerbose), (*entries)[0].prio)
}

func TestHelpersUseTheirPriority(t *testing.T) {
	entries := captureLogs(t, false, false)
	Error("helper error %d", 1)
	Warn("load at %d%%", 100)
	require.Len(t, *entries, 2)
	assert.Equal(t, logEntry{LogError, "helper error 1"}, (*entries)[0])
	assert.Equal(t, logEntry{LogWarn, "load at 100%"}, (*entries)[1])
}
