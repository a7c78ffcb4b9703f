package controller_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DUNE-DAQ/dtpctrllibs/pkg/config"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/controller"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/log"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/pod"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/transport"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/transport/sim"
)

const (
	testDevice  = "pod-a"
	testPattern = "P"
)

var testPatternWords = []uint32{0xA0A0, 0xB1B1, 0xC2C2}

const connectionsXML = `<connections>
  <connection id="pod-a" uri="ipbusflx-2.0:///dev/flx0" address_table="file://pod.xml"/>
  <connection id="udp-b" uri="ipbusudp-2.0://10.0.0.1:50001" address_table="file://pod.xml"/>
</connections>`

type fixture struct {
	t        *testing.T
	backend  *sim.Backend
	ctrl     *controller.Controller
	dir      string
	uri      string
	observer *recordingObserver
	trace    *captureTrace

	slept           []time.Duration
	dispatchAtSleep []int
}

func newFixture(t *testing.T, links, streams int, opts ...func(*controller.Config)) *fixture {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "connections.xml"), []byte(connectionsXML), 0o644))

	f := &fixture{
		t:        t,
		backend:  sim.NewBackend(sim.WithAddressTable(pod.AddressTable(links, streams))),
		dir:      dir,
		uri:      "file://" + filepath.Join(dir, "connections.xml"),
		observer: &recordingObserver{},
		trace:    &captureTrace{},
	}

	cfg := controller.DefaultConfig()
	cfg.Backend = f.backend
	cfg.Observer = f.observer
	cfg.Trace = f.trace
	cfg.PatternLoader = func(ref string) ([]uint32, error) {
		if ref != testPattern {
			return nil, os.ErrNotExist
		}
		return testPatternWords, nil
	}
	cfg.Sleep = func(d time.Duration) {
		f.slept = append(f.slept, d)
		f.dispatchAtSleep = append(f.dispatchAtSleep, f.pod().Dispatches())
	}
	for _, o := range opts {
		o(&cfg)
	}

	ctrl, err := controller.New(cfg)
	require.NoError(t, err)
	f.ctrl = ctrl
	return f
}

func (f *fixture) record() config.ConfParams {
	return config.ConfParams{
		Device:          testDevice,
		LogLevel:        config.LogNotice,
		ConnectionsFile: f.uri,
		Source:          config.SourceExternal,
		Threshold:       100,
	}
}

func (f *fixture) internalRecord() config.ConfParams {
	rec := f.record()
	rec.Source = config.SourceInternal
	rec.Pattern = testPattern
	return rec
}

func (f *fixture) pod() *sim.Pod {
	return f.backend.Pod(testDevice)
}

func (f *fixture) configure() {
	f.t.Helper()
	require.NoError(f.t, f.ctrl.Configure(f.record()))
}

// writes returns the dispatched writes whose path ends with suffix.
func writes(journal []sim.Record, suffix string) []sim.Record {
	var out []sim.Record
	for _, r := range journal {
		if r.Kind == transport.OpWrite && strings.HasSuffix(r.Path, suffix) {
			out = append(out, r)
		}
	}
	return out
}

// reads returns the dispatched reads whose path ends with suffix.
func reads(journal []sim.Record, suffix string) []sim.Record {
	var out []sim.Record
	for _, r := range journal {
		if r.Kind == transport.OpRead && strings.HasSuffix(r.Path, suffix) {
			out = append(out, r)
		}
	}
	return out
}

// indexOf returns the position of the first record matching kind, path and
// value, or -1.
func indexOf(journal []sim.Record, kind transport.OpKind, path string, value uint32) int {
	for i, r := range journal {
		if r.Kind == kind && r.Path == path && r.Value == value {
			return i
		}
	}
	return -1
}

func paths(records []sim.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Path
	}
	return out
}

type commandOutcome struct {
	name string
	err  error
}

type recordingObserver struct {
	mu          sync.Mutex
	commands    []commandOutcome
	transitions [][2]controller.State
	snapshots   []controller.Snapshot
}

func (o *recordingObserver) ObserveCommand(name string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.commands = append(o.commands, commandOutcome{name: name, err: err})
}

func (o *recordingObserver) ObserveState(from, to controller.State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, [2]controller.State{from, to})
}

func (o *recordingObserver) ObserveSnapshot(s controller.Snapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snapshots = append(o.snapshots, s)
}

type captureTrace struct {
	mu     sync.Mutex
	events []log.Event
}

func (c *captureTrace) Log(e log.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *captureTrace) byCategory(cat log.Category) []log.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []log.Event
	for _, e := range c.events {
		if e.Category == cat {
			out = append(out, e)
		}
	}
	return out
}
