package controller

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/DUNE-DAQ/dtpctrllibs/pkg/config"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/log"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/pod"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/transport"
)

// SettleInterval is how long pedestal capture runs before it is disabled.
const SettleInterval = time.Second

// State is the lifecycle state.
type State uint8

const (
	// StateUnconfigured - no device session.
	StateUnconfigured State = iota

	// StateConfigured - session open, configuration applied.
	StateConfigured

	// StateRunning - calibrated and producing output.
	StateRunning
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "UNCONFIGURED"
	case StateConfigured:
		return "CONFIGURED"
	case StateRunning:
		return "RUNNING"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "UNCONFIGURED":
		*s = StateUnconfigured
	case "CONFIGURED":
		*s = StateConfigured
	case "RUNNING":
		*s = StateRunning
	default:
		return fmt.Errorf("unknown state %q", text)
	}
	return nil
}

// Command names accepted by Execute.
const (
	CmdConf      = "conf"
	CmdConfigure = "configure"
	CmdStart     = "start"
	CmdStop      = "stop"
	CmdReset     = "reset"
	CmdScrap     = "scrap"
)

// Sequencer step names, as carried by HardwareIOError.
const (
	StepOpen           = "open"
	StepTopology       = "topology"
	StepReset          = "reset"
	StepFilterEnable   = "filter-enable"
	StepSourceSelect   = "source-select"
	StepPatternLoad    = "pattern-load"
	StepSinkSelect     = "sink-select"
	StepThresholdPrime = "threshold-prime"
	StepLinkEnable     = "link-enable"
	StepMaskApply      = "mask-apply"
	StepThresholdApply = "threshold-apply"
	StepConfDispatch   = "conf.dispatch"
	StepPatternFire    = "pattern-fire"
	StepGatesOff       = "calib.gates-off"
	StepCaptureOn      = "calib.capture-on"
	StepGatesOn        = "calib.gates-on"
	StepCaptureOff     = "calib.capture-off"
	StepOutputEnable   = "output-enable"
	StepStop           = "stop.gates-off"
	StepMonitor        = "monitor"
)

// Observer receives command outcomes, transitions and snapshots.
// pkg/metrics implements it.
type Observer interface {
	ObserveCommand(name string, d time.Duration, err error)
	ObserveState(from, to State)
	ObserveSnapshot(s Snapshot)
}

// Config configures a Controller.
type Config struct {
	// Backend opens connection catalogues. Required.
	Backend transport.Backend

	// Protocols restricts the catalogue entries considered
	// (default: config.DefaultProtocol).
	Protocols []string

	// PatternLoader resolves the pattern reference for the internal source
	// (default: pod.LoadPatternFile).
	PatternLoader pod.PatternLoader

	// LookupEnv resolves ${NAME} placeholders (default: os.LookupEnv).
	LookupEnv func(string) (string, bool)

	// SettleInterval is the pedestal capture time (default: SettleInterval).
	SettleInterval time.Duration

	// Sleep blocks for the settle interval (default: time.Sleep).
	Sleep func(time.Duration)

	// Now returns the snapshot timestamp (default: time.Now).
	Now func() time.Time

	// TransportLevel, if set, receives the record's verbosity on conf.
	TransportLevel *slog.LevelVar

	// Trace receives the register trace. If nil, tracing is disabled.
	Trace log.Logger

	// Observer receives command outcomes. Optional.
	Observer Observer

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults. Backend is unset.
func DefaultConfig() Config {
	return Config{
		Protocols:      []string{config.DefaultProtocol},
		PatternLoader:  pod.LoadPatternFile,
		LookupEnv:      os.LookupEnv,
		SettleInterval: SettleInterval,
		Sleep:          time.Sleep,
		Now:            time.Now,
	}
}

// withDefaults fills unset fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if len(c.Protocols) == 0 {
		c.Protocols = d.Protocols
	}
	if c.PatternLoader == nil {
		c.PatternLoader = d.PatternLoader
	}
	if c.LookupEnv == nil {
		c.LookupEnv = d.LookupEnv
	}
	if c.SettleInterval <= 0 {
		c.SettleInterval = d.SettleInterval
	}
	if c.Sleep == nil {
		c.Sleep = d.Sleep
	}
	if c.Now == nil {
		c.Now = d.Now
	}
	return c
}

// StreamInfo is one (link, stream) monitoring record.
type StreamInfo struct {
	Link          int     `json:"link_index"`
	Stream        int     `json:"stream_index"`
	PacketCounter uint32  `json:"packet_counter"`
	Threshold     *uint32 `json:"threshold,omitempty"`
}

// Snapshot is the result of GetInfo.
type Snapshot struct {
	Time    time.Time    `json:"time"`
	State   State        `json:"state"`
	Level   int          `json:"level"`
	Device  string       `json:"device,omitempty"`
	Session string       `json:"session,omitempty"`
	Streams []StreamInfo `json:"streams"`

	// Error is set when a read failed; Streams then holds the records
	// gathered before the failure.
	Error string `json:"error,omitempty"`
}

// Partial reports whether the snapshot stopped early.
func (s Snapshot) Partial() bool { return s.Error != "" }
