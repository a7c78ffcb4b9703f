package log

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Filter specifies criteria for filtering trace events.
// Empty/nil fields match all events for that criterion.
type Filter struct {
	// SessionID filters by exact session ID match.
	SessionID string

	// Device filters by device identifier.
	Device string

	// Category filters by event category.
	Category *Category

	// Step filters by sequencer step.
	Step string

	// PathPrefix keeps register events whose path starts with the prefix.
	// Events without a register payload are dropped when set.
	PathPrefix string

	// TimeStart filters events at or after this time.
	TimeStart *time.Time

	// TimeEnd filters events before this time.
	TimeEnd *time.Time
}

// Matches reports whether the event satisfies all filter criteria.
func (f *Filter) Matches(event Event) bool {
	if f.SessionID != "" && event.SessionID != f.SessionID {
		return false
	}
	if f.Device != "" && event.Device != f.Device {
		return false
	}
	if f.Category != nil && event.Category != *f.Category {
		return false
	}
	if f.Step != "" && event.Step != f.Step {
		return false
	}
	if f.PathPrefix != "" {
		if event.Register == nil || !strings.HasPrefix(event.Register.Path, f.PathPrefix) {
			return false
		}
	}
	if f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart) {
		return false
	}
	if f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd) {
		return false
	}
	return true
}

// traceDecMode rejects what traceEncMode never writes: duplicate keys and
// indefinite-length items both mean a corrupt trace.
var traceDecMode = mustDecMode(cbor.DecOptions{
	DupMapKey:       cbor.DupMapKeyEnforcedAPF,
	IndefLength:     cbor.IndefLengthForbidden,
	MaxNestedLevels: 8,
})

func mustDecMode(opts cbor.DecOptions) cbor.DecMode {
	dm, err := opts.DecMode()
	if err != nil {
		panic("log: trace decoder options: " + err.Error())
	}
	return dm
}

// Reader reads trace events from a CBOR-encoded file.
// It provides an iterator interface for streaming large files.
type Reader struct {
	file    *os.File
	decoder *cbor.Decoder
	filter  Filter
}

// NewReader creates a Reader that reads all events from the trace file.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader creates a Reader that reads events matching the filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{
		file:    f,
		decoder: traceDecMode.NewDecoder(f),
		filter:  filter,
	}, nil
}

// Next returns the next event that matches the filter.
// Returns io.EOF when no more events are available.
func (r *Reader) Next() (Event, error) {
	for {
		var event Event
		if err := r.decoder.Decode(&event); err != nil {
			if errors.Is(err, io.EOF) {
				return Event{}, io.EOF
			}
			return Event{}, err
		}

		if r.filter.Matches(event) {
			return event, nil
		}
	}
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// ReadAll returns every event in the file that matches filter.
func ReadAll(path string, filter Filter) ([]Event, error) {
	r, err := NewFilteredReader(path, filter)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var events []Event
	for {
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, e)
	}
}
