package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DUNE-DAQ/dtpctrllibs/pkg/controller"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/issue"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/log"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/persistence"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/pod"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/transport"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/transport/sim"
)

const benchPod = "flx-0-p2-hf"

type hostFixture struct {
	host    *Host
	backend *sim.Backend
	out     *bytes.Buffer
	errOut  *bytes.Buffer
	dir     string
}

func newHostFixture(t *testing.T, modify ...func(*Settings)) *hostFixture {
	t.Helper()
	t.Setenv("DTPCONTROLS_SHARE", "testdata")

	dir := t.TempDir()
	s := DefaultSettings()
	s.LogLevel = "debug"
	s.Trace = filepath.Join(dir, "pod.dlog")
	s.StateFile = filepath.Join(dir, "state.json")
	s.PatternDir = "testdata"
	s.SettleInterval = time.Millisecond
	s.Sim = SimSettings{Links: 2, Streams: 2}
	for _, m := range modify {
		m(&s)
	}

	f := &hostFixture{
		backend: newSimBackend(s.Sim),
		out:     &bytes.Buffer{},
		errOut:  &bytes.Buffer{},
		dir:     dir,
	}
	h, err := newHost(s, f.backend, f.out, f.errOut)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close(context.Background()) })
	f.host = h
	return f
}

func (f *hostFixture) journal(t *testing.T) *persistence.RunState {
	t.Helper()
	rs, err := persistence.NewStateStore(filepath.Join(f.dir, "state.json")).Load()
	require.NoError(t, err)
	require.NotNil(t, rs)
	return rs
}

func (f *hostFixture) info(t *testing.T, level string) controller.Snapshot {
	t.Helper()
	f.out.Reset()
	require.NoError(t, f.host.Do("info", level))
	var snap controller.Snapshot
	require.NoError(t, json.Unmarshal(f.out.Bytes(), &snap))
	return snap
}

func TestHostRunsSequence(t *testing.T) {
	f := newHostFixture(t)

	require.NoError(t, f.host.RunSequence(context.Background(), []string{"conf=testdata/conf.yaml", " start "}))
	assert.Equal(t, controller.StateRunning, f.host.Controller().State())

	rs := f.journal(t)
	assert.Equal(t, "RUNNING", rs.State)
	assert.Equal(t, "start", rs.Command)
	assert.Equal(t, benchPod, rs.Device)
	assert.NotEmpty(t, rs.Session)
	assert.Equal(t, 2, rs.Links)
	assert.Equal(t, 2, rs.Streams)
	require.NotNil(t, rs.Record)
	assert.Equal(t, uint32(40), rs.Record.Threshold)
	assert.Nil(t, rs.Failure)

	snap := f.info(t, "1")
	assert.Equal(t, benchPod, snap.Device)
	require.Len(t, snap.Streams, 4)
	for _, st := range snap.Streams {
		assert.NotZero(t, st.PacketCounter, "link %d stream %d", st.Link, st.Stream)
		require.NotNil(t, st.Threshold)
		assert.Equal(t, uint32(40), *st.Threshold)
	}
}

func TestHostWritesTrace(t *testing.T) {
	f := newHostFixture(t)

	require.NoError(t, f.host.RunSequence(context.Background(), []string{"conf=testdata/conf.yaml", "start", "stop"}))
	require.NoError(t, f.host.Close(context.Background()))

	events, err := log.ReadAll(filepath.Join(f.dir, "pod.dlog"), log.Filter{})
	require.NoError(t, err)
	assert.NotEmpty(t, events)

	var commands []string
	for _, e := range events {
		if e.Command != nil {
			commands = append(commands, e.Command.Name+":"+e.Command.Outcome)
		}
	}
	assert.Equal(t, []string{"conf:ok", "start:ok", "stop:ok", "scrap:ok"}, commands)
	assert.Equal(t, "UNCONFIGURED", f.journal(t).State)
}

func TestHostCountersFollowGates(t *testing.T) {
	f := newHostFixture(t)

	require.NoError(t, f.host.Do("conf", "testdata/conf.yaml"))
	for _, st := range f.info(t, "").Streams {
		assert.Zero(t, st.PacketCounter)
		assert.Nil(t, st.Threshold)
	}

	require.NoError(t, f.host.Do("start", ""))
	require.NoError(t, f.host.Do("stop", ""))
	first := f.info(t, "")
	second := f.info(t, "")
	assert.Equal(t, first.Streams, second.Streams, "counters are frozen with the gates closed")
	assert.NotZero(t, first.Streams[0].PacketCounter)
}

func TestHostInternalPatternFromJSONC(t *testing.T) {
	f := newHostFixture(t)

	require.NoError(t, f.host.Do("conf", "testdata/conf_int.json"))
	assert.Equal(t, controller.StateConfigured, f.host.Controller().State())

	p := f.backend.Pod(benchPod)
	require.NotNil(t, p)
	var words []uint32
	for _, r := range p.Journal() {
		if r.Kind == transport.OpWrite && r.Path == pod.LinkPath(0, pod.LinkPatternBuffer) {
			words = append(words, r.Value)
		}
	}
	assert.Equal(t, []uint32{1, 2, 3, 4}, words)
	src, _ := p.Register(pod.PathSourceSelect)
	assert.Equal(t, pod.SourcePatternGenerator, src)
}

func TestHostJournalsFailure(t *testing.T) {
	f := newHostFixture(t)

	err := f.host.RunSequence(context.Background(), []string{"conf=testdata/conf_bad_device.yaml", "start"})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "conf=testdata/conf_bad_device.yaml: "))
	assert.ErrorIs(t, err, issue.ErrDeviceNotFound)

	rs := f.journal(t)
	assert.Equal(t, "UNCONFIGURED", rs.State)
	assert.Equal(t, "conf", rs.Command, "sequence stops at the first failure")
	require.NotNil(t, rs.Failure)
	assert.Equal(t, "device_not_found", rs.Failure.Code)
	assert.Equal(t, "udp-bench", rs.Failure.Device)
	assert.Empty(t, rs.Session)
	assert.Nil(t, rs.Record)
	assert.Contains(t, f.errOut.String(), "command failed")
}

func TestHostWarnsAboutPreviousFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	require.NoError(t, persistence.NewStateStore(path).Save(&persistence.RunState{
		State:   "UNCONFIGURED",
		Command: "conf",
		Failure: &persistence.Failure{Kind: "HardwareIOError", Code: "hardware_io", Step: "mask-apply", Message: "bus timeout"},
	}))

	f := newHostFixture(t, func(s *Settings) { s.StateFile = path })
	assert.Contains(t, f.errOut.String(), "previous run stopped on a failure")
	assert.Contains(t, f.errOut.String(), "step=mask-apply")
}

func TestHostRejectsIncompatibleJournal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"interface":"9.0","state":"RUNNING"}`), 0o644))

	f := newHostFixture(t, func(s *Settings) { s.StateFile = path })
	assert.Contains(t, f.errOut.String(), "run-state journal unreadable")
	assert.NotContains(t, f.errOut.String(), "previous run stopped")
}

func TestHostCommandErrors(t *testing.T) {
	f := newHostFixture(t)

	assert.ErrorIs(t, f.host.Do("launch", ""), issue.ErrUnknownCommand)
	assert.ErrorIs(t, f.host.Do("start", ""), issue.ErrNotConfigured)
	assert.Contains(t, f.errOut.String(), "command failed")
	assert.NotContains(t, f.errOut.String(), "record rejected")

	assert.ErrorIs(t, f.host.Do("conf", ""), issue.ErrInvalidConfig)
	assert.Contains(t, f.errOut.String(), "record rejected")
	assert.ErrorIs(t, f.host.Do("conf", "testdata/missing.json"), issue.ErrInvalidConfig)
	assert.Error(t, f.host.Do("info", "loud"))

	rs := f.journal(t)
	assert.Equal(t, "conf", rs.Command, "info is not journaled")
	assert.Equal(t, "invalid_config", rs.Failure.Code)
}

func TestHostStatus(t *testing.T) {
	f := newHostFixture(t)

	require.NoError(t, f.host.Do("conf", "testdata/conf.yaml"))
	f.out.Reset()
	require.NoError(t, f.host.Do("status", ""))

	var rs persistence.RunState
	require.NoError(t, json.Unmarshal(f.out.Bytes(), &rs))
	assert.Equal(t, "CONFIGURED", rs.State)
	assert.Equal(t, f.host.Status().Session, rs.Session)
}

func TestHostServesMetrics(t *testing.T) {
	f := newHostFixture(t, func(s *Settings) { s.Metrics.Addr = "127.0.0.1:0" })
	require.NotNil(t, f.host.Exporter())

	require.NoError(t, f.host.RunSequence(context.Background(), []string{"conf=testdata/conf.yaml", "start", "info"}))

	n, err := testutil.GatherAndCount(f.host.Exporter().Registry(), "dtpctrl_commands_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = testutil.GatherAndCount(f.host.Exporter().Registry(), "dtpctrl_stream_packets")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestRunSequenceStopsOnCancel(t *testing.T) {
	f := newHostFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, f.host.RunSequence(ctx, []string{"conf=testdata/conf.yaml"}), context.Canceled)
	assert.Equal(t, controller.StateUnconfigured, f.host.Controller().State())
}
