package controller

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/DUNE-DAQ/dtpctrllibs/pkg/config"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/issue"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/log"
)

// ErrNoBackend is returned by New when Config.Backend is nil.
var ErrNoBackend = errors.New("controller: no transport backend")

// handler runs one named command with its raw payload.
type handler func(payload []byte) error

// Controller is the lifecycle state machine for one pod.
type Controller struct {
	cfg Config

	mu       sync.Mutex
	state    State
	session  *session
	lastErr  error
	commands map[string]handler

	// trace carries events that belong to no session.
	trace *log.Tracer
}

// New creates a Controller in StateUnconfigured.
func New(cfg Config) (*Controller, error) {
	if cfg.Backend == nil {
		return nil, ErrNoBackend
	}
	c := &Controller{
		cfg:   cfg.withDefaults(),
		state: StateUnconfigured,
	}
	c.trace = &log.Tracer{Logger: c.cfg.Trace, Now: c.cfg.Now}
	c.commands = map[string]handler{
		CmdConf:      c.confCommand,
		CmdConfigure: c.confCommand,
		CmdStart:     func([]byte) error { return c.Start() },
		CmdStop:      func([]byte) error { return c.Stop() },
		CmdReset:     func([]byte) error { return c.Reset() },
		CmdScrap:     func([]byte) error { return c.Scrap() },
	}
	return c, nil
}

// Commands lists the names Execute accepts, sorted.
func (c *Controller) Commands() []string {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs the named command. conf decodes payload as a JSON
// configuration record; the other commands ignore it.
func (c *Controller) Execute(name string, payload []byte) error {
	h, ok := c.commands[name]
	if !ok {
		return issue.UnknownCommand(name)
	}
	return h(payload)
}

func (c *Controller) confCommand(payload []byte) error {
	rec, err := config.Decode(payload)
	if err != nil {
		return c.run(CmdConf, func() error { return err })
	}
	return c.Configure(rec)
}

// State returns the lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session describes the open session, if any.
func (c *Controller) Session() (SessionInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return SessionInfo{}, false
	}
	return c.session.info(), true
}

// LastError returns the error of the most recent failed command, cleared by
// the next successful one.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// run executes fn under the command lock and records its outcome.
func (c *Controller) run(name string, fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	err := issue.WithOp(fn(), name)
	d := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = issue.KindOf(err).Code()
		c.lastErr = err
		c.debugLog("command failed", "command", name, "error", err)
	} else {
		c.lastErr = nil
		c.debugLog("command done", "command", name, "state", c.state, "duration", d)
	}
	c.tracer().Command(name, d, outcome)
	c.observe(name, d, err)
	return err
}

// tracer returns the session's tracer, or the controller's without one.
func (c *Controller) tracer() *log.Tracer {
	if c.session != nil {
		return c.session.trace
	}
	return c.trace
}

func (c *Controller) setState(to State, reason string) {
	from := c.state
	if from == to {
		return
	}
	c.state = to
	c.tracer().StateChange(from.String(), to.String(), reason)
	if c.cfg.Observer != nil {
		c.cfg.Observer.ObserveState(from, to)
	}
}

func (c *Controller) observe(name string, d time.Duration, err error) {
	if c.cfg.Observer != nil {
		c.cfg.Observer.ObserveCommand(name, d, err)
	}
}

// release closes the session, if any. Close errors are logged only.
func (c *Controller) release() {
	if c.session == nil {
		return
	}
	if err := c.session.pod.Close(); err != nil {
		c.debugLog("release: close failed", "device", c.session.record.Device, "error", err)
	}
	c.session = nil
}

// Configure validates rec, opens a session and applies the configuration.
// A validation error leaves the controller untouched. Any later failure
// leaves it UNCONFIGURED with no session. Reconfiguring an open controller
// closes the current session and runs the full sequence again.
func (c *Controller) Configure(rec config.ConfParams) error {
	return c.run(CmdConf, func() error {
		if err := rec.Validate(); err != nil {
			return err
		}

		var pattern []uint32
		if rec.Source == config.SourceInternal {
			words, err := c.cfg.PatternLoader(rec.Pattern)
			if err != nil {
				return issue.InvalidConfig("cannot load pattern "+rec.Pattern, err)
			}
			pattern = words
		}

		if c.session != nil {
			c.debugLog("conf: replacing open session", "device", c.session.record.Device)
			c.release()
			c.setState(StateUnconfigured, CmdConf)
		}

		if c.cfg.TransportLevel != nil {
			c.cfg.TransportLevel.Set(rec.LogLevel.SlogLevel())
		}

		s, err := c.open(rec)
		if err != nil {
			return err
		}
		c.session = s
		if err := s.configure(pattern); err != nil {
			c.release()
			return err
		}

		c.debugLog("conf: configured", "device", rec.Device, "session", s.id,
			"links", s.topology.Links, "streams", s.topology.Streams)
		c.setState(StateConfigured, CmdConf)
		return nil
	})
}

// Start calibrates the pedestals and enables output. Calling Start while
// RUNNING calibrates again.
func (c *Controller) Start() error {
	return c.run(CmdStart, func() error {
		if c.session == nil {
			return issue.NotConfigured(CmdStart)
		}
		if err := c.session.calibrate(c.cfg.SettleInterval, c.cfg.Sleep); err != nil {
			return err
		}
		c.setState(StateRunning, CmdStart)
		return nil
	})
}

// Stop closes every link's data-ready gate and returns to CONFIGURED.
func (c *Controller) Stop() error {
	return c.run(CmdStop, func() error {
		if c.session == nil {
			return issue.NotConfigured(CmdStop)
		}
		if err := c.session.setGates(StepStop, false); err != nil {
			return err
		}
		c.setState(StateConfigured, CmdStop)
		return nil
	})
}

// Reset re-pulses the device reset. Configuration is not reapplied and the
// state does not change.
func (c *Controller) Reset() error {
	return c.run(CmdReset, func() error {
		if c.session == nil {
			return issue.NotConfigured(CmdReset)
		}
		return c.session.step(StepReset, c.session.pod.Reset)
	})
}

// Scrap releases the session and returns to UNCONFIGURED. Scrapping an
// unconfigured controller does nothing.
func (c *Controller) Scrap() error {
	return c.run(CmdScrap, func() error {
		if c.session == nil {
			return nil
		}
		c.release()
		c.setState(StateUnconfigured, CmdScrap)
		return nil
	})
}

func (c *Controller) debugLog(msg string, args ...any) {
	if c.cfg.Logger != nil {
		c.cfg.Logger.Debug(msg, args...)
	}
}
