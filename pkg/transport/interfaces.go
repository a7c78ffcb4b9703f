package transport

import (
	"errors"
	"fmt"
)

// Transport errors.
var (
	ErrCatalogueNotFound = errors.New("connection catalogue not found")
	ErrDeviceNotFound    = errors.New("device not found in catalogue")
	ErrNodeNotFound      = errors.New("register node not found")
	ErrNotDispatched     = errors.New("value read before dispatch")
	ErrClosed            = errors.New("device closed")
)

// Backend opens connection catalogues.
type Backend interface {
	// Connect loads the catalogue at uri and exposes the entries that use
	// one of protocols.
	Connect(uri string, protocols ...string) (Connections, error)
}

// Connections resolves device identifiers from an opened catalogue.
type Connections interface {
	// Device opens the device with the given identifier.
	Device(id string) (Device, error)

	// IDs lists the visible device identifiers in catalogue order.
	IDs() []string
}

// Device is an open handle on one pod.
type Device interface {
	// ID returns the catalogue identifier.
	ID() string

	// Node resolves a dotted register path.
	Node(path string) (Node, error)

	// Dispatch sends every queued operation to the device, in order.
	Dispatch() error

	// Close releases the handle. Queued operations are discarded.
	Close() error
}

// Node is one register in a device's address table.
type Node interface {
	// Path returns the dotted register path.
	Path() string

	// Write queues a write of value.
	Write(value uint32)

	// Read queues a read. The result is valid after the next Dispatch.
	Read() *ValWord
}

// ValWord holds the result of a queued read.
type ValWord struct {
	path  string
	value uint32
	valid bool
}

// NewValWord returns an unfilled ValWord for path. Backends fill it with Set.
func NewValWord(path string) *ValWord {
	return &ValWord{path: path}
}

// Set fills the word. Called by backends during Dispatch.
func (v *ValWord) Set(value uint32) {
	v.value = value
	v.valid = true
}

// Valid reports whether the read has been dispatched.
func (v *ValWord) Valid() bool { return v.valid }

// Value returns the read value, or ErrNotDispatched before dispatch.
func (v *ValWord) Value() (uint32, error) {
	if !v.valid {
		return 0, fmt.Errorf("%s: %w", v.path, ErrNotDispatched)
	}
	return v.value, nil
}

// OpKind distinguishes queued operations.
type OpKind uint8

const (
	OpWrite OpKind = iota
	OpRead
)

// String returns the operation name.
func (k OpKind) String() string {
	switch k {
	case OpWrite:
		return "WRITE"
	case OpRead:
		return "READ"
	default:
		return "UNKNOWN"
	}
}

// Op is one queued register operation.
type Op struct {
	Kind  OpKind
	Path  string
	Value uint32
}
