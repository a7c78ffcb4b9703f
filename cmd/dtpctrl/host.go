package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/DUNE-DAQ/dtpctrllibs/pkg/config"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/controller"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/issue"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/log"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/metrics"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/persistence"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/pod"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/transport"
)

// Host commands that are not controller commands.
const (
	cmdInfo   = "info"
	cmdStatus = "status"
)

// Host owns a controller and everything wired around it: trace file,
// metrics endpoint and run-state journal.
type Host struct {
	ctrl     *controller.Controller
	store    *persistence.StateStore
	exporter *metrics.Exporter
	trace    *log.FileLogger
	out      io.Writer
	logger   *slog.Logger
	last     persistence.RunState
}

// NewHost builds a host serving the simulated backend. Diagnostics go to
// errOut; command output goes to out.
func NewHost(s Settings, out, errOut io.Writer) (*Host, error) {
	return newHost(s, newSimBackend(s.Sim), out, errOut)
}

func newHost(s Settings, backend transport.Backend, out, errOut io.Writer) (*Host, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", s.LogLevel, err)
	}
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

	// The register trace is echoed to the transport logger, whose level
	// follows the record's uhal_log_level.
	transportLevel := new(slog.LevelVar)
	transportLevel.Set(config.LogNotice.SlogLevel())
	transportLogger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: transportLevel})).
		With("component", "transport")

	h := &Host{out: out, logger: logger}
	traces := []log.Logger{log.NewSlogAdapter(transportLogger)}
	if s.Trace != "" {
		if err := os.MkdirAll(filepath.Dir(s.Trace), 0755); err != nil {
			return nil, fmt.Errorf("creating trace directory: %w", err)
		}
		fl, err := log.NewFileLogger(s.Trace)
		if err != nil {
			return nil, fmt.Errorf("opening trace file: %w", err)
		}
		h.trace = fl
		traces = append(traces, fl)
	}

	cfg := controller.DefaultConfig()
	cfg.Backend = backend
	cfg.Protocols = s.Protocols
	cfg.PatternLoader = patternLoader(s.PatternDir)
	cfg.SettleInterval = s.SettleInterval
	cfg.TransportLevel = transportLevel
	cfg.Trace = log.NewMultiLogger(traces...)
	cfg.Logger = logger.With("component", "controller")

	if s.Metrics.Addr != "" {
		mc := s.Metrics
		mc.Logger = logger.With("component", "metrics")
		exp, err := metrics.New(mc)
		if err != nil {
			h.closeTrace()
			return nil, err
		}
		cfg.Observer = exp
		h.exporter = exp
	}

	ctrl, err := controller.New(cfg)
	if err != nil {
		h.closeTrace()
		return nil, err
	}
	h.ctrl = ctrl

	if s.StateFile != "" {
		h.store = persistence.NewStateStore(s.StateFile)
		if prev, err := h.store.Load(); err != nil {
			logger.Warn("run-state journal unreadable", "path", s.StateFile, "error", err)
		} else if prev != nil && prev.Failure != nil {
			logger.Warn("previous run stopped on a failure; issue reset before retrying",
				"state", prev.State, "command", prev.Command, "step", prev.Failure.Step, "error", prev.Failure.Message)
		}
	}
	h.last = h.status("", nil)

	if h.exporter != nil {
		if err := h.exporter.Start(); err != nil {
			h.closeTrace()
			return nil, err
		}
		logger.Info("serving metrics", "addr", s.Metrics.Addr, "path", s.Metrics.Path)
	}
	return h, nil
}

// patternLoader resolves relative references against dir.
func patternLoader(dir string) pod.PatternLoader {
	return func(ref string) ([]uint32, error) {
		if dir != "" && !filepath.IsAbs(ref) {
			ref = filepath.Join(dir, ref)
		}
		return pod.LoadPatternFile(ref)
	}
}

// Controller returns the hosted controller.
func (h *Host) Controller() *controller.Controller { return h.ctrl }

// Exporter returns the metrics exporter, nil when metrics are disabled.
func (h *Host) Exporter() *metrics.Exporter { return h.exporter }

// Do runs one named command. conf takes a record file (JSON or YAML);
// info takes an optional verbosity level. Every controller command is
// journaled.
func (h *Host) Do(name, arg string) error {
	switch name {
	case cmdInfo:
		return h.info(arg)
	case cmdStatus:
		return h.printJSON(h.last)
	case controller.CmdConf, controller.CmdConfigure:
		err := h.conf(arg)
		h.journal(name, err)
		return err
	default:
		err := h.ctrl.Execute(name, nil)
		h.journal(name, err)
		return err
	}
}

// conf loads a record file. JSON payloads are handed to the controller
// as-is, so decode failures are traced and counted like any command.
func (h *Host) conf(path string) error {
	if path == "" {
		return issue.InvalidConfig("conf needs a record file", nil)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		rec, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		return h.ctrl.Configure(rec)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return issue.InvalidConfig("cannot read "+path, err)
		}
		return h.ctrl.Execute(controller.CmdConf, data)
	}
}

func (h *Host) info(arg string) error {
	level := 0
	if arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid info level %q", arg)
		}
		level = n
	}
	return h.printJSON(h.ctrl.GetInfo(level))
}

func (h *Host) printJSON(v any) error {
	enc := json.NewEncoder(h.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// status describes the controller after command.
func (h *Host) status(command string, err error) persistence.RunState {
	rs := persistence.RunState{
		State:   h.ctrl.State().String(),
		Command: command,
		Failure: persistence.FailureFrom(err),
	}
	if si, ok := h.ctrl.Session(); ok {
		rec := si.Record
		rs.Device = si.Device
		rs.Session = si.ID
		rs.Links = si.Topology.Links
		rs.Streams = si.Topology.Streams
		rs.Record = &rec
	}
	return rs
}

// Status returns the state recorded after the last command.
func (h *Host) Status() persistence.RunState { return h.last }

func (h *Host) journal(command string, err error) {
	h.last = h.status(command, err)
	switch {
	case err == nil:
		h.logger.Info("command done", "command", command, "state", h.last.State)
	case config.IsDecodeError(err):
		h.logger.Warn("record rejected", "command", command, "kind", issue.KindOf(err), "error", err)
	default:
		h.logger.Error("command failed", "command", command, "kind", issue.KindOf(err), "error", err)
	}
	if h.store == nil {
		return
	}
	rs := h.last
	if err := h.store.Save(&rs); err != nil {
		h.logger.Warn("saving run-state journal failed", "path", h.store.Path(), "error", err)
	}
}

// RunSequence runs steps in order, stopping at the first failure or when
// ctx is done. A step is "name" or "name=arg".
func (h *Host) RunSequence(ctx context.Context, steps []string) error {
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		name, arg, _ := strings.Cut(strings.TrimSpace(step), "=")
		if name == "" {
			continue
		}
		if err := h.Do(name, arg); err != nil {
			return fmt.Errorf("%s: %w", step, err)
		}
	}
	return nil
}

// Close releases the device, stops the metrics endpoint and closes the
// trace file.
func (h *Host) Close(ctx context.Context) error {
	if h.ctrl.State() != controller.StateUnconfigured {
		_ = h.Do(controller.CmdScrap, "")
	}
	var firstErr error
	if h.exporter != nil {
		if err := h.exporter.Stop(ctx); err != nil {
			firstErr = err
		}
	}
	if err := h.closeTrace(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (h *Host) closeTrace() error {
	if h.trace == nil {
		return nil
	}
	err := h.trace.Close()
	h.trace = nil
	return err
}
