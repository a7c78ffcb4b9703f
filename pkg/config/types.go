package config

import (
	"log/slog"
	"strings"

	"github.com/DUNE-DAQ/dtpctrllibs/pkg/issue"
)

// MaxThreshold is the largest value the per-stream threshold register holds.
const MaxThreshold = 0x7FFF

// DefaultProtocol is the transport protocol requested from the catalogue.
const DefaultProtocol = "ipbusflx-2.0"

// LogLevel is the transport diagnostic verbosity.
type LogLevel uint8

const (
	LogDebug LogLevel = iota
	LogInfo
	LogNotice
	LogWarning
	LogError
	LogFatal
)

// String returns the level token as it appears in payloads.
func (l LogLevel) String() string {
	switch l {
	case LogDebug:
		return "debug"
	case LogInfo:
		return "info"
	case LogNotice:
		return "notice"
	case LogWarning:
		return "warning"
	case LogError:
		return "error"
	case LogFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// SlogLevel maps the verbosity onto an slog level. notice and fatal have no
// slog equivalent and sit between/above the standard levels.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogInfo:
		return slog.LevelInfo
	case LogNotice:
		return slog.LevelInfo + 1
	case LogWarning:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelError + 4
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l LogLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *LogLevel) UnmarshalText(text []byte) error {
	v, err := ParseLogLevel(string(text))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// ParseLogLevel parses a verbosity token. Matching is case-insensitive;
// the empty string selects notice.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogDebug, nil
	case "info":
		return LogInfo, nil
	case "", "notice":
		return LogNotice, nil
	case "warning":
		return LogWarning, nil
	case "error":
		return LogError, nil
	case "fatal":
		return LogFatal, nil
	default:
		return 0, issue.InvalidLogLevel(s)
	}
}

// Source selects where the stream processors take their input from.
type Source string

const (
	// SourceExternal routes input from the external GBT links.
	SourceExternal Source = "ext"

	// SourceInternal routes input from the per-link pattern generators.
	SourceInternal Source = "int"
)

// ParseSource parses a source selector. The empty string selects external.
func ParseSource(s string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ext", "external", "gbt":
		return SourceExternal, nil
	case "int", "internal", "pattern":
		return SourceInternal, nil
	default:
		return "", issue.InvalidConfig("unknown source "+s, nil)
	}
}

// ConfParams is the configuration record applied by conf.
type ConfParams struct {
	// Device is the catalogue identifier of the pod.
	Device string `json:"device" yaml:"device"`

	// LogLevel is the transport diagnostic verbosity.
	LogLevel LogLevel `json:"uhal_log_level" yaml:"uhal_log_level"`

	// ConnectionsFile references the connection catalogue; may contain
	// ${NAME} placeholders.
	ConnectionsFile string `json:"connections_file" yaml:"connections_file"`

	// Source selects external links or the internal pattern generators.
	Source Source `json:"source" yaml:"source"`

	// Pattern references the injection pattern; required for SourceInternal.
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// Threshold is the initial hit threshold applied to every stream.
	Threshold uint32 `json:"threshold" yaml:"threshold"`

	// Masks holds one channel mask per (link, stream) in row-major order.
	// Ignored unless its length equals links*streams.
	Masks []uint64 `json:"masks,omitempty" yaml:"masks,omitempty"`
}

// Validate checks the record's internal consistency. It does not touch
// the environment or the device.
func (c ConfParams) Validate() error {
	if c.Device == "" {
		return issue.InvalidConfig("device is required", nil)
	}
	if c.ConnectionsFile == "" {
		return issue.InvalidConfig("connections_file is required", nil)
	}
	if c.LogLevel > LogFatal {
		return issue.InvalidLogLevel(c.LogLevel.String())
	}
	switch c.Source {
	case SourceExternal:
	case SourceInternal:
		if c.Pattern == "" {
			return issue.InvalidConfig("pattern is required when source is int", nil)
		}
	default:
		return issue.InvalidConfig("unknown source "+string(c.Source), nil)
	}
	if c.Threshold > MaxThreshold {
		return issue.InvalidConfig("threshold exceeds register width", nil)
	}
	return nil
}

// MasksFor returns the mask list if it covers exactly links*streams slots.
// A mismatched list is reported as not applicable rather than as an error.
func (c ConfParams) MasksFor(links, streams int) ([]uint64, bool) {
	if len(c.Masks) == 0 || len(c.Masks) != links*streams {
		return nil, false
	}
	return c.Masks, true
}
