package log

import (
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// traceEncMode writes events with integer keys in core deterministic order.
// Timestamps carry tag 0 so other CBOR tools decode them as times.
var traceEncMode = mustEncMode(cbor.EncOptions{
	Sort:        cbor.SortCoreDeterministic,
	IndefLength: cbor.IndefLengthForbidden,
	Time:        cbor.TimeRFC3339Nano,
	TimeTag:     cbor.EncTagRequired,
})

func mustEncMode(opts cbor.EncOptions) cbor.EncMode {
	em, err := opts.EncMode()
	if err != nil {
		panic("log: trace encoder options: " + err.Error())
	}
	return em
}

// FileLogger writes trace events to a file in CBOR format.
// It is safe for concurrent use from multiple goroutines.
type FileLogger struct {
	file    *os.File
	encoder *cbor.Encoder
	mu      sync.Mutex
	closed  bool
	written int
}

// NewFileLogger creates a FileLogger that appends to path, creating the
// file with permissions 0644 if needed.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &FileLogger{
		file:    f,
		encoder: traceEncMode.NewEncoder(f),
	}, nil
}

// Log writes an event to the trace file.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}

	// Encoding errors are dropped; tracing must not fail a command.
	if err := l.encoder.Encode(event); err == nil {
		l.written++
	}
}

// Written returns the number of events encoded so far.
func (l *FileLogger) Written() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.written
}

// Close closes the trace file. It is safe to call Close multiple times;
// later Log calls are ignored.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}

	l.closed = true
	return l.file.Close()
}

// Compile-time interface satisfaction check.
var _ Logger = (*FileLogger)(nil)
