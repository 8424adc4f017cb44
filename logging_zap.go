//go:build !android

package main

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	zlog     *zap.SugaredLogger
	zlogOnce sync.Once
)

func zapLogger() *zap.SugaredLogger {
	zlogOnce.Do(func() {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		cfg.EncoderConfig.TimeKey = "T"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.DisableStacktrace = true
		logger, err := cfg.Build(zapOptions()...)
		if err != nil {
			logger = zap.NewExample(zapOptions()...)
		}
		zlog = logger.Named(LOG_TAG).Sugar()
	})
	return zlog
}

//Skip logMsg, parseMsg and the helper so callers are annotated
func zapOptions() []zap.Option {
	return []zap.Option{zap.AddCaller(), zap.AddCallerSkip(3)}
}

func logMsg(logPriority LogPriority, msg string) {
	log := zapLogger()
	switch logPriority {
	case LogVerbose:
		if !verbose {
			return
		}
		log.Debug(msg)
	case LogDebug:
		if !debug {
			return
		}
		log.Debug(msg)
	case LogWarn:
		log.Warn(msg)
	case LogError:
		log.Error(msg)
	case LogFatal:
		log.Fatal(msg)
	case LogSilent:
		return
	default:
		log.Info(msg)
	}
}
