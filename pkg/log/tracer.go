package log

import (
	"time"
)

// Tracer stamps events with the session and device before handing them to
// a Logger. A nil *Tracer, or one with a nil Logger, drops everything.
type Tracer struct {
	Logger    Logger
	SessionID string
	Device    string

	// Now returns the event timestamp. Defaults to time.Now.
	Now func() time.Time
}

// Enabled reports whether events will be recorded.
func (t *Tracer) Enabled() bool {
	return t != nil && t.Logger != nil
}

// Emit fills in the timestamp, session and device and logs the event.
func (t *Tracer) Emit(event Event) {
	if !t.Enabled() {
		return
	}
	if event.Timestamp.IsZero() {
		if t.Now != nil {
			event.Timestamp = t.Now()
		} else {
			event.Timestamp = time.Now()
		}
	}
	if event.SessionID == "" {
		event.SessionID = t.SessionID
	}
	if event.Device == "" {
		event.Device = t.Device
	}
	t.Logger.Log(event)
}

// Register records a queued register access.
func (t *Tracer) Register(step string, access Access, path string, value uint32) {
	t.Emit(Event{
		Category: CategoryRegister,
		Step:     step,
		Register: &RegisterEvent{Access: access, Path: path, Value: value},
	})
}

// Dispatch records a batch flush.
func (t *Tracer) Dispatch(step string, ops int, d time.Duration, failed bool) {
	t.Emit(Event{
		Category: CategoryDispatch,
		Step:     step,
		Dispatch: &DispatchEvent{Ops: ops, Duration: d, Failed: failed},
	})
}

// Command records a completed command.
func (t *Tracer) Command(name string, d time.Duration, outcome string) {
	t.Emit(Event{
		Category: CategoryCommand,
		Command:  &CommandEvent{Name: name, Duration: d, Outcome: outcome},
	})
}

// StateChange records a lifecycle transition.
func (t *Tracer) StateChange(oldState, newState, reason string) {
	t.Emit(Event{
		Category:    CategoryState,
		StateChange: &StateChangeEvent{OldState: oldState, NewState: newState, Reason: reason},
	})
}

// Error records a failure at step.
func (t *Tracer) Error(step, code, message, context string) {
	t.Emit(Event{
		Category: CategoryError,
		Step:     step,
		Error:    &ErrorEventData{Code: code, Message: message, Context: context},
	})
}
