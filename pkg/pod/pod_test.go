package pod_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DUNE-DAQ/dtpctrllibs/pkg/log"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/pod"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/transport"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/transport/sim"
)

const connectionsXML = `<connections>
  <connection id="pod-a" uri="ipbusflx-2.0:///dev/flx0" address_table="file://pod.xml"/>
</connections>`

type traceCapture struct{ events []log.Event }

func (c *traceCapture) Log(e log.Event) { c.events = append(c.events, e) }

func openSim(t *testing.T, links, streams int) (*sim.Backend, transport.Device) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "connections.xml")
	require.NoError(t, os.WriteFile(path, []byte(connectionsXML), 0o644))

	b := sim.NewBackend(sim.WithAddressTable(pod.AddressTable(links, streams)))
	conns, err := b.Connect("file://"+path, "ipbusflx-2.0")
	require.NoError(t, err)
	dev, err := conns.Device("pod-a")
	require.NoError(t, err)
	return b, dev
}

func TestAddressTable(t *testing.T) {
	table := pod.AddressTable(2, 3)

	assert.Equal(t, uint32(2), table[pod.PathNLinks])
	assert.Equal(t, uint32(3), table[pod.PathNStreams])
	assert.Contains(t, table, "link1.processor.dr_en")
	assert.Contains(t, table, "link1.stream2.proc.threshold")
	assert.NotContains(t, table, "link2.processor.en")
	assert.NotContains(t, table, "link0.stream3.filter.en")
	assert.Len(t, table, 7+2*(4+3*7))
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "link3.patgen.fire", pod.LinkPath(3, pod.LinkPatternFire))
	assert.Equal(t, "link1.stream0.filter.packet_ctr", pod.StreamPath(1, 0, pod.StreamPacketCounter))
}

func TestTopology(t *testing.T) {
	topo := pod.Topology{Links: 2, Streams: 4}
	assert.Equal(t, 8, topo.Slots())
	assert.True(t, topo.Contains(1, 3))
	assert.False(t, topo.Contains(2, 0))
	assert.False(t, topo.Contains(0, 4))
	assert.False(t, topo.Contains(-1, 0))
}

func TestQueryTopologyIsOneDispatch(t *testing.T) {
	b, dev := openSim(t, 2, 4)
	p := pod.New(dev, nil)

	topo, err := p.QueryTopology()
	require.NoError(t, err)
	assert.Equal(t, pod.Topology{Links: 2, Streams: 4}, topo)

	sp := b.Pod("pod-a")
	assert.Equal(t, 1, sp.Dispatches())
	journal := sp.Journal()
	require.Len(t, journal, 2)
	assert.Equal(t, transport.OpRead, journal[0].Kind)
	assert.Equal(t, pod.PathNLinks, journal[0].Path)
	assert.Equal(t, pod.PathNStreams, journal[1].Path)
}

func TestQueryTopologyRejectsImplausibleCounts(t *testing.T) {
	b, dev := openSim(t, 1, 1)
	b.Pod("pod-a").SetRegister(pod.PathNLinks, 4096)

	_, err := pod.New(dev, nil).QueryTopology()
	assert.ErrorContains(t, err, "implausible topology")
}

func TestResetPulsesAndDispatches(t *testing.T) {
	b, dev := openSim(t, 1, 1)
	p := pod.New(dev, nil)

	require.NoError(t, p.Reset())

	journal := b.Pod("pod-a").Journal()
	require.Len(t, journal, 2)
	assert.Equal(t, uint32(1), journal[0].Value)
	assert.Equal(t, uint32(0), journal[1].Value)
	assert.Equal(t, 1, journal[1].Dispatch)
	assert.Empty(t, p.Batch().Pending())
}

func TestWritesQueueUntilFlush(t *testing.T) {
	b, dev := openSim(t, 1, 2)
	p := pod.New(dev, nil)
	sp := b.Pod("pod-a")

	require.NoError(t, p.EnableFilter(0, 1))
	require.NoError(t, p.SetThreshold(0, 1, 100))
	require.NoError(t, p.SetMask(0, 1, 0x0000_0003_FFFF_0001))
	assert.Len(t, p.Batch().Pending(), 5)

	v, _ := sp.Register("link0.stream1.proc.threshold")
	assert.Zero(t, v)
	assert.Zero(t, sp.Dispatches())

	require.NoError(t, p.Flush())
	assert.Empty(t, p.Batch().Pending())

	v, _ = sp.Register("link0.stream1.proc.threshold")
	assert.Equal(t, uint32(100), v)
	lo, _ := sp.Register("link0.stream1.proc.mask_lo")
	hi, _ := sp.Register("link0.stream1.proc.mask_hi")
	assert.Equal(t, uint32(0xFFFF_0001), lo)
	assert.Equal(t, uint32(0x3), hi)

	journal := sp.Journal()
	require.Len(t, journal, 5)
	assert.Equal(t, "link0.stream1.filter.drop_empty", journal[0].Path)
	assert.Equal(t, "link0.stream1.filter.en", journal[1].Path)
}

func TestGatesAndOutput(t *testing.T) {
	b, dev := openSim(t, 2, 1)
	p := pod.New(dev, nil)

	require.NoError(t, p.SetDataReady(1, true))
	require.NoError(t, p.SetCapture(1, 0, true))
	require.NoError(t, p.EnableProcessor(0))
	require.NoError(t, p.EnableOutput(pod.CounterPolicyDisabled))
	require.NoError(t, p.Flush())

	sp := b.Pod("pod-a")
	for path, want := range map[string]uint32{
		"link1.processor.dr_en":          1,
		"link1.stream0.proc.capture_ped": 1,
		"link0.processor.en":             1,
		pod.PathOutputPolicy:             0,
		pod.PathOutputEnable:             1,
	} {
		got, ok := sp.Register(path)
		require.True(t, ok, path)
		assert.Equal(t, want, got, path)
	}

	require.NoError(t, p.SetDataReady(1, false))
	require.NoError(t, p.Flush())
	got, _ := sp.Register("link1.processor.dr_en")
	assert.Zero(t, got)
}

func TestPatternWriteAndFire(t *testing.T) {
	b, dev := openSim(t, 1, 1)
	p := pod.New(dev, nil)

	require.NoError(t, p.WritePattern(0, []uint32{0xA, 0xB, 0xC}))
	require.NoError(t, p.Flush())
	require.NoError(t, p.FirePattern(0))
	require.NoError(t, p.Flush())

	journal := b.Pod("pod-a").Journal()
	require.Len(t, journal, 4)
	for i, want := range []uint32{0xA, 0xB, 0xC} {
		assert.Equal(t, "link0.patgen.buf", journal[i].Path)
		assert.Equal(t, want, journal[i].Value)
		assert.Equal(t, 1, journal[i].Dispatch)
	}
	assert.Equal(t, "link0.patgen.fire", journal[3].Path)
	assert.Equal(t, 2, journal[3].Dispatch)
}

func TestReadsDispatchIndividually(t *testing.T) {
	b, dev := openSim(t, 1, 2)
	sp := b.Pod("pod-a")
	p := pod.New(dev, nil)
	sp.SetRegister("link0.stream0.filter.packet_ctr", 11)
	sp.SetRegister("link0.stream1.filter.packet_ctr", 22)
	sp.SetRegister("link0.stream1.proc.threshold", 300)

	c0, err := p.ReadPacketCounter(0, 0)
	require.NoError(t, err)
	c1, err := p.ReadPacketCounter(0, 1)
	require.NoError(t, err)
	th, err := p.ReadThreshold(0, 1)
	require.NoError(t, err)

	assert.Equal(t, uint32(11), c0)
	assert.Equal(t, uint32(22), c1)
	assert.Equal(t, uint32(300), th)
	assert.Equal(t, 3, sp.Dispatches())
}

func TestUnknownNodeFailsAtQueueTime(t *testing.T) {
	b, dev := openSim(t, 1, 1)
	b.Pod("pod-a").RemoveNode("link0.stream0.proc.mask_hi")
	p := pod.New(dev, nil)

	err := p.SetMask(0, 0, 1)
	assert.ErrorIs(t, err, transport.ErrNodeNotFound)
	assert.Len(t, p.Batch().Pending(), 1, "low word stays queued")
	assert.Equal(t, 1, p.Discard())
	assert.Empty(t, p.Batch().Pending())
}

func TestQueuedOpsStayOffTheDevice(t *testing.T) {
	b, dev := openSim(t, 2, 1)
	b.Pod("pod-a").RemoveNode("link1.processor.dr_en")
	p := pod.New(dev, nil)
	sp := b.Pod("pod-a")

	require.NoError(t, p.SetDataReady(0, false))
	require.ErrorIs(t, p.SetDataReady(1, false), transport.ErrNodeNotFound)
	p.Discard()

	_, err := p.ReadPacketCounter(0, 0)
	require.NoError(t, err)

	journal := sp.Journal()
	require.Len(t, journal, 1)
	assert.Equal(t, transport.OpRead, journal[0].Kind)
	assert.Equal(t, "link0.stream0.filter.packet_ctr", journal[0].Path)
}

func TestReadFilledByItsFlush(t *testing.T) {
	b, dev := openSim(t, 1, 1)
	b.Pod("pod-a").SetRegister(pod.PathNStreams, 9)
	batch := pod.NewBatch(dev, nil)

	v, err := batch.Read(pod.PathNStreams)
	require.NoError(t, err)
	assert.False(t, v.Valid())
	_, err = v.Value()
	assert.ErrorIs(t, err, transport.ErrNotDispatched)

	require.NoError(t, batch.Flush())
	got, err := v.Value()
	require.NoError(t, err)
	assert.Equal(t, uint32(9), got)

	discarded, err := batch.Read(pod.PathNStreams)
	require.NoError(t, err)
	batch.Discard()
	require.NoError(t, batch.Flush())
	assert.False(t, discarded.Valid())
}

func TestIndexedOpsCheckTopology(t *testing.T) {
	b, dev := openSim(t, 2, 2)
	p := pod.New(dev, nil)

	// Before the topology is known nothing is checked.
	require.NoError(t, p.SetThreshold(1, 1, 10))
	p.Discard()

	_, err := p.QueryTopology()
	require.NoError(t, err)

	assert.ErrorIs(t, p.SetThreshold(2, 0, 10), pod.ErrOutOfRange)
	assert.ErrorIs(t, p.SetMask(0, 2, 1), pod.ErrOutOfRange)
	assert.ErrorIs(t, p.EnableFilter(-1, 0), pod.ErrOutOfRange)
	assert.ErrorIs(t, p.SetCapture(0, -1, true), pod.ErrOutOfRange)
	assert.ErrorIs(t, p.EnableProcessor(2), pod.ErrOutOfRange)
	assert.ErrorIs(t, p.SetDataReady(-1, true), pod.ErrOutOfRange)
	assert.ErrorIs(t, p.WritePattern(2, []uint32{1}), pod.ErrOutOfRange)
	assert.ErrorIs(t, p.FirePattern(5), pod.ErrOutOfRange)
	_, err = p.ReadPacketCounter(0, 2)
	assert.ErrorIs(t, err, pod.ErrOutOfRange)
	_, err = p.ReadThreshold(2, 1)
	assert.ErrorIs(t, err, pod.ErrOutOfRange)
	assert.Empty(t, p.Batch().Pending())

	require.NoError(t, p.SetThreshold(1, 1, 10))
	assert.Equal(t, 1, b.Pod("pod-a").Dispatches())
}

func TestFailedFlushEmptiesBatch(t *testing.T) {
	b, dev := openSim(t, 1, 1)
	fault := errors.New("bus error")
	b.Pod("pod-a").FailOn("link0.processor.en", fault)
	p := pod.New(dev, nil)

	require.NoError(t, p.EnableFilter(0, 0))
	require.NoError(t, p.EnableProcessor(0))

	err := p.Flush()
	assert.ErrorIs(t, err, fault)
	assert.Empty(t, p.Batch().Pending())
	assert.Equal(t, 1, b.Pod("pod-a").Dispatches())
}

func TestCloseReleasesDevice(t *testing.T) {
	_, dev := openSim(t, 1, 1)
	p := pod.New(dev, nil)
	require.NoError(t, p.EnableProcessor(0))

	require.NoError(t, p.Close())
	assert.Empty(t, p.Batch().Pending())
	assert.ErrorIs(t, p.Flush(), transport.ErrClosed)
}

func TestBatchTracesOperations(t *testing.T) {
	_, dev := openSim(t, 1, 1)
	capture := &traceCapture{}
	p := pod.New(dev, &log.Tracer{Logger: capture, SessionID: "s1", Device: "pod-a"})

	p.SetStep("reset")
	require.NoError(t, p.Reset())

	require.Len(t, capture.events, 3)
	assert.Equal(t, log.CategoryRegister, capture.events[0].Category)
	assert.Equal(t, "reset", capture.events[0].Step)
	assert.Equal(t, pod.PathReset, capture.events[0].Register.Path)
	assert.Equal(t, log.CategoryDispatch, capture.events[2].Category)
	assert.Equal(t, 2, capture.events[2].Dispatch.Ops)
	assert.Equal(t, "s1", capture.events[2].SessionID)
}

func TestPendingIsACopy(t *testing.T) {
	_, dev := openSim(t, 1, 1)
	b := pod.NewBatch(dev, nil)
	require.NoError(t, b.Write(pod.PathSinkSelect, pod.SinkHits))

	pending := b.Pending()
	require.Len(t, pending, 1)
	pending[0].Value = 99
	assert.Equal(t, pod.SinkHits, b.Pending()[0].Value)
	assert.Equal(t, "pod-a", b.Device().ID())
}
