package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/DUNE-DAQ/dtpctrllibs/pkg/config"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/controller"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/metrics"
)

// SimSettings describes the simulated pod served by the host.
type SimSettings struct {
	Links   int `yaml:"links"`
	Streams int `yaml:"streams"`
}

// Settings holds the host configuration. Values come from the YAML file
// named by --config; flags given on the command line override them.
type Settings struct {
	// LogLevel is the host log level: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Trace is the register trace file. Empty disables the file trace.
	Trace string `yaml:"trace"`

	// StateFile is the run-state journal. Empty disables the journal.
	StateFile string `yaml:"state_file"`

	// PatternDir resolves relative pattern references.
	PatternDir string `yaml:"pattern_dir"`

	// Protocols restricts the catalogue entries considered.
	Protocols []string `yaml:"protocols"`

	// SettleInterval is the pedestal capture time.
	SettleInterval time.Duration `yaml:"settle_interval"`

	// Metrics configures the Prometheus endpoint. An empty Addr disables it.
	Metrics metrics.Config `yaml:"metrics"`

	// Sim is the simulated topology.
	Sim SimSettings `yaml:"sim"`

	// Run is the one-shot command sequence, e.g. [conf=rec.yaml, start, info=1].
	Run []string `yaml:"run"`

	// Interactive starts the operator console after Run.
	Interactive bool `yaml:"interactive"`
}

// DefaultSettings returns the settings used without a file.
func DefaultSettings() Settings {
	return Settings{
		LogLevel:       "info",
		Protocols:      []string{config.DefaultProtocol},
		SettleInterval: controller.SettleInterval,
		Metrics: metrics.Config{
			Namespace: metrics.DefaultConfig().Namespace,
			Path:      metrics.DefaultConfig().Path,
		},
		Sim: SimSettings{Links: 2, Streams: 4},
	}
}

// LoadSettings reads a YAML settings file over DefaultSettings.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("reading settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parsing settings %s: %w", path, err)
	}
	return s, s.Validate()
}

// Validate checks the settings.
func (s Settings) Validate() error {
	switch strings.ToLower(s.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", s.LogLevel)
	}
	if s.Sim.Links < 0 || s.Sim.Links > 64 || s.Sim.Streams < 0 || s.Sim.Streams > 16 {
		return fmt.Errorf("simulated topology %dx%d out of range", s.Sim.Links, s.Sim.Streams)
	}
	if s.SettleInterval < 0 {
		return fmt.Errorf("negative settle interval %s", s.SettleInterval)
	}
	return nil
}

// flagValues are the command-line overrides.
type flagValues struct {
	configPath  string
	logLevel    string
	trace       string
	stateFile   string
	patternDir  string
	metricsAddr string
	links       int
	streams     int
	settle      time.Duration
	run         []string
	interactive bool
	showVersion bool
}

func registerFlags(fs *pflag.FlagSet, v *flagValues) {
	d := DefaultSettings()
	fs.StringVarP(&v.configPath, "config", "c", "", "Settings file (YAML)")
	fs.StringVar(&v.logLevel, "log-level", d.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&v.trace, "trace", "", "Write the register trace to this file (.dlog)")
	fs.StringVar(&v.stateFile, "state-file", "", "Write the run-state journal to this file")
	fs.StringVar(&v.patternDir, "pattern-dir", "", "Directory for relative pattern references")
	fs.StringVar(&v.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9108)")
	fs.IntVar(&v.links, "links", d.Sim.Links, "Simulated links")
	fs.IntVar(&v.streams, "streams", d.Sim.Streams, "Simulated streams per link")
	fs.DurationVar(&v.settle, "settle", d.SettleInterval, "Pedestal capture time")
	fs.StringSliceVar(&v.run, "run", nil, "Commands to run in order (e.g. conf=rec.yaml,start,info=1)")
	fs.BoolVarP(&v.interactive, "interactive", "i", false, "Start the operator console")
	fs.BoolVar(&v.showVersion, "version", false, "Print the version and exit")
}

// applyFlags overrides s with the flags that were set explicitly.
func applyFlags(fs *pflag.FlagSet, v flagValues, s *Settings) {
	if fs.Changed("log-level") {
		s.LogLevel = v.logLevel
	}
	if fs.Changed("trace") {
		s.Trace = v.trace
	}
	if fs.Changed("state-file") {
		s.StateFile = v.stateFile
	}
	if fs.Changed("pattern-dir") {
		s.PatternDir = v.patternDir
	}
	if fs.Changed("metrics-addr") {
		s.Metrics.Addr = v.metricsAddr
	}
	if fs.Changed("links") {
		s.Sim.Links = v.links
	}
	if fs.Changed("streams") {
		s.Sim.Streams = v.streams
	}
	if fs.Changed("settle") {
		s.SettleInterval = v.settle
	}
	if fs.Changed("run") {
		s.Run = v.run
	}
	if fs.Changed("interactive") {
		s.Interactive = v.interactive
	}
}
