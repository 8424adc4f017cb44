package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/AndroidPlusProject/GPUPulse/gpufreq"
)

var (
	device *Device = nil
	manifests = []string{
		"./gpupulse.json",
		"/data/local/tmp/gpupulse.json",
		"/vendor/etc/gpupulse.json",
		"/system/vendor/etc/gpupulse.json",
		"/system/etc/gpupulse.json",
		"/etc/gpupulse.json",
	}
	variantFlag = gpufreq.DefaultVariant
	variantSet = false
	metricsAddr = ""
	once = false
	debug = true
	verbose = true
	booted = false
)

func initGPUPulse() {
	if booted {
		return
	}
	booted = true
	startTime := time.Now()

	Info("Need to boot GPUPulse first, just a blip...")
	reloadConfig()

	deltaTime := time.Since(startTime).Milliseconds()
	Info("GPUPulse finished init in %dms", deltaTime)
}

func reloadConfig() {
	m, found, err := loadManifest(manifests)
	if err != nil {
		Error("Error reading device manifest: %v", err)
		return
	}
	if found != "" {
		Info("Found manifest at %s", found)
	} else {
		Info("No manifest found, using stock paths")
	}

	var override *gpufreq.Variant
	if variantSet {
		override = &variantFlag
	}
	if device != nil {
		device.Stop()
	}
	dev, err := NewDevice(m, override)
	if err != nil {
		device = nil
		Error("Error initializing governor: %v", err)
		return
	}
	device = dev
	if err := device.ApplyCurrent(); err != nil {
		Error("Failed to apply boot step: %v", err)
	}

	cfg := device.Governor.Config()
	Debug("Table %s: %d steps, %dkHz to %dkHz", cfg.Variant, cfg.Table.StepCount(), cfg.FreqMaxKHz, cfg.FreqMinKHz)
	if metricsAddr == "" {
		metricsAddr = m.MetricsAddr
	}
}

func serveMetrics(addr string, gov *gpufreq.Governor) *http.Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		gpufreq.NewCollector(gov),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		Info("Serving metrics on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			Error("Metrics server stopped: %v", err)
		}
	}()
	return srv
}

func main() {
	debug = false
	verbose = false
	pflag.StringArrayVarP(&manifests, "manifest", "m", manifests, "path to device manifest(s)")
	pflag.VarP(&variantFlag, "variant", "V", "frequency table variant (stock, overclocked)")
	pflag.StringVar(&metricsAddr, "metrics-addr", metricsAddr, "serve prometheus metrics on this address")
	pflag.BoolVar(&once, "once", once, "sample and apply a single tick, then exit")
	pflag.BoolVarP(&debug, "debug", "d", debug, "debug mode")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose mode")
	pflag.Parse()
	variantSet = pflag.CommandLine.Changed("variant")
	initGPUPulse()
	if device == nil {
		Fatal("No usable governor, check the device manifest")
	}

	if once {
		decision, err := device.Tick()
		if err != nil {
			Fatal("Tick failed: %v", err)
		}
		p := device.Governor.CurrentPolicy()
		Info("%s: step %d, %dkHz, mem %dkHz, little %s, llc %d", decision, p.Index, p.ClockKHz, p.MemFreqKHz, p.LittleCap, p.LLCWays)
		return
	}

	var srv *http.Server
	if metricsAddr != "" {
		srv = serveMetrics(metricsAddr, device.Governor)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	Info("Governing GPU every %s", device.SamplePeriod)
	device.Start()
	<-ctx.Done()
	device.Stop()
	if srv != nil {
		srv.Shutdown(context.Background())
	}
	Info("GPUPulse stopped")
}
