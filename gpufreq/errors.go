package gpufreq

import (
	"errors"
	"fmt"
)

var ErrLoadOutOfRange = errors.New("load outside [0,100]")

// ConfigurationError reports a table or variant that must not be used to start
// a governor.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid frequency table: %s: %s", e.Field, e.Reason)
}

func configErr(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IndexOutOfRangeError is a logic fault: a step index left [0,Len).
type IndexOutOfRangeError struct {
	Index int
	Len   int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("step index %d out of range [0,%d)", e.Index, e.Len)
}
