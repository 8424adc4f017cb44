package sysfs

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/go-logr/logr"
)

type BufferedWrite struct {
	Path string
	Data string
}

// Writer batches sysfs writes so one policy lands in a single pass, in the
// order it was buffered.
type Writer struct {
	mu       sync.Mutex
	buffered []BufferedWrite
	logger   logr.Logger
}

func NewWriter(logger logr.Logger) *Writer {
	return &Writer{logger: logger}
}

func (w *Writer) BufferWrite(path string, data string) {
	if path == "" || data == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := 0; i < len(w.buffered); i++ {
		if w.buffered[i].Path == path {
			w.buffered[i].Data = data
			return
		}
	}
	w.buffered = append(w.buffered, BufferedWrite{Path: path, Data: data})
}

func (w *Writer) BufferWriteNumber(path string, data uint64) {
	w.BufferWrite(path, strconv.FormatUint(data, 10))
}

func (w *Writer) Pending() []BufferedWrite {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]BufferedWrite, len(w.buffered))
	copy(out, w.buffered)
	return out
}

// Sync flushes the buffer. A failing node does not stop the rest of the
// buffer; all failures are returned together.
func (w *Writer) Sync() error {
	w.mu.Lock()
	buffered := w.buffered
	//Reset the buffer for the next policy
	w.buffered = nil
	w.mu.Unlock()

	var errs []error
	for _, bw := range buffered {
		if err := w.write(bw.Path, bw.Data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *Writer) write(path, data string) error {
	buffer, err := os.ReadFile(path)
	if err != nil {
		w.logger.V(1).Info("failed to read before write", "path", path, "error", err.Error())
	} else if strings.TrimRight(string(buffer), "\n") == data {
		w.logger.V(7).Info("skipping unchanged value", "path", path)
		return nil
	}

	w.logger.V(6).Info("writing", "path", path, "value", data)
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		w.logger.Error(err, "failed writing", "path", path, "value", data)
		return fmt.Errorf("failed writing '%s' > %s: %w", data, path, err)
	}
	return nil
}

func ReadNumber(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	n, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return n, nil
}
