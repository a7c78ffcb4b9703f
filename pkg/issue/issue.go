package issue

import (
	"errors"
	"strconv"
	"strings"
)

// Kind classifies a controller failure.
type Kind uint8

const (
	// KindUnknown is returned by KindOf for errors not raised by this package.
	KindUnknown Kind = iota

	// KindInvalidLogLevel indicates an unrecognized verbosity token.
	KindInvalidLogLevel

	// KindInvalidConfig indicates a payload that cannot be decoded into a
	// configuration record.
	KindInvalidConfig

	// KindConnectionFileMissing indicates the connection catalogue could not
	// be resolved.
	KindConnectionFileMissing

	// KindDeviceNotFound indicates the named device is absent from the catalogue.
	KindDeviceNotFound

	// KindNotConfigured indicates a command that needs an open session was
	// issued without one.
	KindNotConfigured

	// KindHardwareIO indicates a transport failure during register access.
	KindHardwareIO

	// KindUnknownCommand indicates a command name with no registered handler.
	KindUnknownCommand
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInvalidLogLevel:
		return "InvalidLogLevel"
	case KindInvalidConfig:
		return "InvalidConfig"
	case KindConnectionFileMissing:
		return "ConnectionFileMissing"
	case KindDeviceNotFound:
		return "DeviceNotFound"
	case KindNotConfigured:
		return "NotConfigured"
	case KindHardwareIO:
		return "HardwareIOError"
	case KindUnknownCommand:
		return "UnknownCommand"
	default:
		return "Unknown"
	}
}

// Code returns a short stable identifier suitable for metrics labels.
func (k Kind) Code() string {
	switch k {
	case KindInvalidLogLevel:
		return "invalid_log_level"
	case KindInvalidConfig:
		return "invalid_config"
	case KindConnectionFileMissing:
		return "connection_file_missing"
	case KindDeviceNotFound:
		return "device_not_found"
	case KindNotConfigured:
		return "not_configured"
	case KindHardwareIO:
		return "hardware_io"
	case KindUnknownCommand:
		return "unknown_command"
	default:
		return "error"
	}
}

// Sentinels for errors.Is. They carry no context.
var (
	ErrInvalidLogLevel       = &Error{Kind: KindInvalidLogLevel}
	ErrInvalidConfig         = &Error{Kind: KindInvalidConfig}
	ErrConnectionFileMissing = &Error{Kind: KindConnectionFileMissing}
	ErrDeviceNotFound        = &Error{Kind: KindDeviceNotFound}
	ErrNotConfigured         = &Error{Kind: KindNotConfigured}
	ErrHardwareIO            = &Error{Kind: KindHardwareIO}
	ErrUnknownCommand        = &Error{Kind: KindUnknownCommand}
)

// Error is the single error type raised by controller commands.
type Error struct {
	Kind Kind

	// Device is the device identifier the command addressed, if known.
	Device string

	// Step names the sequencer step that was executing (HardwareIOError).
	Step string

	// Op is the command being executed ("conf", "start", ...).
	Op string

	// Msg is free-form detail (offending token, catalogue path, ...).
	Msg string

	// Err is the underlying cause.
	Err error
}

// Error formats as "Kind: op device step: msg: cause", omitting empty parts.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())

	var ctx []string
	if e.Op != "" {
		ctx = append(ctx, "op="+e.Op)
	}
	if e.Device != "" {
		ctx = append(ctx, "device="+e.Device)
	}
	if e.Step != "" {
		ctx = append(ctx, "step="+e.Step)
	}
	if len(ctx) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(ctx, " "))
		b.WriteString("]")
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Code returns the kind's stable code.
func (e *Error) Code() string { return e.Kind.Code() }

// KindOf extracts the Kind from err, defaulting to KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// WithOp returns err with Op set when err is an *Error lacking one.
// Other errors are returned unchanged.
func WithOp(err error, op string) error {
	var e *Error
	if !errors.As(err, &e) || e.Op != "" {
		return err
	}
	cp := *e
	cp.Op = op
	return &cp
}

// Constructors.

// InvalidLogLevel reports an unrecognized verbosity token.
func InvalidLogLevel(token string) *Error {
	return &Error{Kind: KindInvalidLogLevel, Msg: "unrecognized log level " + strconv.Quote(token)}
}

// InvalidConfig reports a payload that could not be turned into a record.
func InvalidConfig(msg string, cause error) *Error {
	return &Error{Kind: KindInvalidConfig, Msg: msg, Err: cause}
}

// ConnectionFileMissing reports a catalogue resolution failure.
func ConnectionFileMissing(path string, cause error) *Error {
	return &Error{Kind: KindConnectionFileMissing, Msg: path, Err: cause}
}

// DeviceNotFound reports a device absent from the catalogue.
func DeviceNotFound(device string, cause error) *Error {
	return &Error{Kind: KindDeviceNotFound, Device: device, Err: cause}
}

// NotConfigured reports a command issued without an open session.
func NotConfigured(op string) *Error {
	return &Error{Kind: KindNotConfigured, Op: op, Msg: "no open device session"}
}

// HardwareIO reports a transport failure at the given step.
func HardwareIO(device, step string, cause error) *Error {
	return &Error{Kind: KindHardwareIO, Device: device, Step: step, Err: cause}
}

// UnknownCommand reports a command name with no handler.
func UnknownCommand(name string) *Error {
	return &Error{Kind: KindUnknownCommand, Op: name, Msg: "no handler registered"}
}
