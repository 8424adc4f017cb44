package main

import (
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

const LOG_TAG = "GPUPulse"

var emitLog = logMsg

type LogPriority int32
const (
	LogUnknown = iota
	LogDefault
	LogVerbose
	LogDebug
	LogInfo
	LogWarn
	LogError
	LogFatal
	LogSilent
)

func parseMsg(prio LogPriority, format string, replacements ...any) {
	if len(replacements) < 1 {
		replacements = []any{format}
		format = "%v"
	}
	msg := strings.TrimRight(fmt.Sprintf(format, replacements...), "\n")
	if msg != "" {
		emitLog(prio, msg)
	}
}

func Info(format string, replacements ...any) {
	parseMsg(LogInfo, format, replacements...)
}
func Warn(format string, replacements ...any) {
	parseMsg(LogWarn, format, replacements...)
}
func Error(format string, replacements ...any) {
	parseMsg(LogError, format, replacements...)
}
func Fatal(format string, replacements ...any) {
	parseMsg(LogFatal, format, replacements...)
}
func Verbose(format string, replacements ...any) {
	parseMsg(LogVerbose, format, replacements...)
}
func Debug(format string, replacements ...any) {
	parseMsg(LogDebug, format, replacements...)
}

//Library packages log through logr; route them onto the helpers above.
//Errors and V(0) info always surface, higher levels follow -d/-v.
func newLogger(name string) logr.Logger {
	verbosity := 0
	if debug {
		verbosity = 6
	}
	if verbose {
		verbosity = 7
	}
	sink := &helperSink{Formatter: funcr.NewFormatter(funcr.Options{Verbosity: verbosity})}
	return logr.New(sink).WithName(name)
}

type helperSink struct {
	funcr.Formatter
}

func (s *helperSink) Info(level int, msg string, kvList ...any) {
	prio := LogPriority(LogInfo)
	switch {
	case level >= 7:
		prio = LogVerbose
	case level > 0:
		prio = LogDebug
	}
	parseMsg(prio, joinPrefix(s.FormatInfo(level, msg, kvList)))
}

func (s *helperSink) Error(err error, msg string, kvList ...any) {
	parseMsg(LogError, joinPrefix(s.FormatError(err, msg, kvList)))
}

func (s *helperSink) WithValues(kvList ...any) logr.LogSink {
	c := *s
	c.AddValues(kvList)
	return &c
}

func (s *helperSink) WithName(name string) logr.LogSink {
	c := *s
	c.AddName(name)
	return &c
}

func joinPrefix(prefix, args string) string {
	if prefix == "" {
		return args
	}
	return prefix + ": " + args
}
