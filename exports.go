//go:build cgo

package main

import "C"

//export GPUPulse_Init
func GPUPulse_Init() {
	initGPUPulse()
}

//export GPUPulse_ReloadConfig
func GPUPulse_ReloadConfig() {
	reloadConfig()
}

// GPUPulse_Sample feeds a load percentage measured by the host and returns
// the decision: 0 stay, 1 step up, 2 step down, -1 on a rejected sample.
//
//export GPUPulse_Sample
func GPUPulse_Sample(load int32) int32 {
	initGPUPulse()
	if device == nil {
		return -1
	}
	return device.HostSample(int(load))
}

//export GPUPulse_CurrentClock
func GPUPulse_CurrentClock() uint32 {
	initGPUPulse()
	if device == nil {
		return 0
	}
	return device.Governor.CurrentPolicy().ClockKHz
}

//export GPUPulse_Reset
func GPUPulse_Reset() {
	initGPUPulse()
	if device == nil {
		return
	}
	device.Governor.Reset()
	if err := device.ApplyCurrent(); err != nil {
		Error("Failed to apply reset step: %v", err)
	}
}
