package log

import (
	"time"
)

// Event is one entry in the register trace.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the device session (UUID). Empty before conf.
	SessionID string `cbor:"2,keyasint,omitempty"`

	// Device is the catalogue identifier of the pod.
	Device string `cbor:"3,keyasint,omitempty"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Step names the sequencer step that produced the event.
	Step string `cbor:"5,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Register    *RegisterEvent    `cbor:"10,keyasint,omitempty"`
	Dispatch    *DispatchEvent    `cbor:"11,keyasint,omitempty"`
	Command     *CommandEvent     `cbor:"12,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"13,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"`
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryRegister indicates a queued register access.
	CategoryRegister Category = 0
	// CategoryDispatch indicates a batch flush.
	CategoryDispatch Category = 1
	// CategoryCommand indicates a lifecycle command.
	CategoryCommand Category = 2
	// CategoryState indicates a lifecycle transition.
	CategoryState Category = 3
	// CategoryError indicates a failure.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryRegister:
		return "REGISTER"
	case CategoryDispatch:
		return "DISPATCH"
	case CategoryCommand:
		return "COMMAND"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory parses a category name as printed by String.
func ParseCategory(s string) (Category, bool) {
	for c := CategoryRegister; c <= CategoryError; c++ {
		if c.String() == s {
			return c, true
		}
	}
	return 0, false
}

// Access distinguishes register reads from writes.
type Access uint8

const (
	// AccessWrite indicates a queued write.
	AccessWrite Access = 0
	// AccessRead indicates a queued read.
	AccessRead Access = 1
)

// String returns the access name.
func (a Access) String() string {
	switch a {
	case AccessWrite:
		return "WRITE"
	case AccessRead:
		return "READ"
	default:
		return "UNKNOWN"
	}
}

// RegisterEvent captures one queued register access.
type RegisterEvent struct {
	// Access is the operation kind.
	Access Access `cbor:"1,keyasint"`

	// Path is the dotted register path.
	Path string `cbor:"2,keyasint"`

	// Value is the written value. Zero for reads.
	Value uint32 `cbor:"3,keyasint,omitempty"`
}

// DispatchEvent captures one flush of the pending batch.
type DispatchEvent struct {
	// Ops is the number of operations the flush carried.
	Ops int `cbor:"1,keyasint"`

	// Duration is the transport round-trip. Stored as nanoseconds.
	Duration time.Duration `cbor:"2,keyasint"`

	// Failed is set when the transport rejected the flush.
	Failed bool `cbor:"3,keyasint,omitempty"`
}

// CommandEvent captures a lifecycle command.
type CommandEvent struct {
	// Name is the command name (conf, start, ...).
	Name string `cbor:"1,keyasint"`

	// Duration is the time taken to complete the command.
	Duration time.Duration `cbor:"2,keyasint"`

	// Outcome is "ok" or the error code of the failure.
	Outcome string `cbor:"3,keyasint"`
}

// StateChangeEvent captures a lifecycle transition.
type StateChangeEvent struct {
	// OldState is the previous state.
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (the command name).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures a failure.
type ErrorEventData struct {
	// Code is the error kind code (e.g. "hardware_io").
	Code string `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
