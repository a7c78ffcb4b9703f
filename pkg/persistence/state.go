package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/DUNE-DAQ/dtpctrllibs/pkg/config"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/issue"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/version"
)

// StateVersion is the current version of the journal format.
const StateVersion = 1

// ErrIncompatible is returned by Load for a journal written against a
// different major command interface.
var ErrIncompatible = errors.New("run-state journal from incompatible interface")

// RunState is the journal content.
type RunState struct {
	// Version is the journal format version.
	Version int `json:"version"`

	// Interface is the command interface version of the writer.
	// Journals without one predate the field and are accepted.
	Interface string `json:"interface,omitempty"`

	// SavedAt is when the journal was last saved.
	SavedAt time.Time `json:"saved_at"`

	// State is the lifecycle state name (UNCONFIGURED, CONFIGURED, RUNNING).
	State string `json:"state"`

	// Command is the last command executed.
	Command string `json:"command,omitempty"`

	// Device is the catalogue identifier of the open session's pod.
	Device string `json:"device,omitempty"`

	// Session is the open session's identifier.
	Session string `json:"session,omitempty"`

	// Links and Streams are the discovered topology.
	Links   int `json:"links,omitempty"`
	Streams int `json:"streams,omitempty"`

	// Record is the applied configuration record.
	Record *config.ConfParams `json:"record,omitempty"`

	// Failure describes the last failed command, if the last command failed.
	Failure *Failure `json:"failure,omitempty"`
}

// Failure is the persisted form of a command error.
type Failure struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Op      string `json:"op,omitempty"`
	Device  string `json:"device,omitempty"`
	Step    string `json:"step,omitempty"`
	Message string `json:"message"`
}

// FailureFrom converts err. It returns nil for a nil error.
func FailureFrom(err error) *Failure {
	if err == nil {
		return nil
	}
	f := &Failure{
		Kind:    issue.KindOf(err).String(),
		Code:    issue.KindOf(err).Code(),
		Message: err.Error(),
	}
	var e *issue.Error
	if errors.As(err, &e) {
		f.Op = e.Op
		f.Device = e.Device
		f.Step = e.Step
	}
	return f
}

// StateStore manages persistence of the run state to a JSON file.
type StateStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewStateStore creates a new run-state store.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path, now: time.Now}
}

// Path returns the journal file path.
func (s *StateStore) Path() string { return s.path }

// Save persists the run state to disk. The file is replaced atomically.
func (s *StateStore) Save(state *RunState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	state.Interface = version.Interface
	if state.SavedAt.IsZero() {
		state.SavedAt = s.now()
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load reads the run state from disk.
// Returns nil, nil if the file doesn't exist (empty state).
func (s *StateStore) Load() (*RunState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &RunState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}
	if err := checkInterface(state.Interface); err != nil {
		return nil, err
	}

	return state, nil
}

func checkInterface(written string) error {
	if written == "" {
		return nil
	}
	current, err := version.Parse(version.Interface)
	if err != nil {
		return err
	}
	got, err := version.Parse(written)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIncompatible, err)
	}
	if !current.Compatible(got) {
		return fmt.Errorf("%w: written by %s, reading with %s", ErrIncompatible, got, current)
	}
	return nil
}

// Clear removes the journal.
func (s *StateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
