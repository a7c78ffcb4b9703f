package pod

import (
	"errors"
	"fmt"

	"github.com/DUNE-DAQ/dtpctrllibs/pkg/log"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/transport"
)

// Topology is the link and stream count reported by the pod.
type Topology struct {
	Links   int `json:"links"`
	Streams int `json:"streams"`
}

// Slots returns Links*Streams.
func (t Topology) Slots() int { return t.Links * t.Streams }

// Contains reports whether (link, stream) addresses a real stream.
func (t Topology) Contains(link, stream int) bool {
	return link >= 0 && link < t.Links && stream >= 0 && stream < t.Streams
}

// ErrOutOfRange is returned by indexed methods for a link or stream outside
// the queried topology.
var ErrOutOfRange = errors.New("index outside pod topology")

// Pod issues typed register operations through a Batch.
// Write-side methods only queue; callers choose the flush points.
//
// Once QueryTopology has succeeded, indexed methods reject links and
// streams outside it without queuing anything.
type Pod struct {
	batch *Batch
	topo  *Topology
}

// New wraps dev. trace may be nil.
func New(dev transport.Device, trace *log.Tracer) *Pod {
	return &Pod{batch: NewBatch(dev, trace)}
}

// ID returns the device identifier.
func (p *Pod) ID() string { return p.batch.dev.ID() }

// Batch returns the pod's batch.
func (p *Pod) Batch() *Batch { return p.batch }

// SetStep labels subsequent operations.
func (p *Pod) SetStep(step string) { p.batch.SetStep(step) }

// Flush dispatches the pending batch.
func (p *Pod) Flush() error { return p.batch.Flush() }

// Discard drops the pending batch.
func (p *Pod) Discard() int { return p.batch.Discard() }

// Close releases the device. Pending operations are discarded.
func (p *Pod) Close() error {
	p.batch.Discard()
	return p.batch.dev.Close()
}

func (p *Pod) checkLink(link int) error {
	if p.topo != nil && (link < 0 || link >= p.topo.Links) {
		return fmt.Errorf("%w: link %d of %d", ErrOutOfRange, link, p.topo.Links)
	}
	return nil
}

func (p *Pod) checkStream(link, stream int) error {
	if p.topo != nil && !p.topo.Contains(link, stream) {
		return fmt.Errorf("%w: link %d stream %d of %dx%d", ErrOutOfRange, link, stream, p.topo.Links, p.topo.Streams)
	}
	return nil
}

// QueryTopology reads the link and stream counts in one dispatch.
func (p *Pod) QueryTopology() (Topology, error) {
	nl, err := p.batch.Read(PathNLinks)
	if err != nil {
		return Topology{}, err
	}
	ns, err := p.batch.Read(PathNStreams)
	if err != nil {
		return Topology{}, err
	}
	if err := p.batch.Flush(); err != nil {
		return Topology{}, err
	}

	links, err := nl.Value()
	if err != nil {
		return Topology{}, err
	}
	streams, err := ns.Value()
	if err != nil {
		return Topology{}, err
	}
	if links > MaxLinks || streams > MaxStreams {
		return Topology{}, fmt.Errorf("implausible topology %d links x %d streams", links, streams)
	}
	topo := Topology{Links: int(links), Streams: int(streams)}
	p.topo = &topo
	return topo, nil
}

// Reset pulses the pod reset and dispatches immediately.
func (p *Pod) Reset() error {
	if err := p.batch.Write(PathReset, 1); err != nil {
		return err
	}
	if err := p.batch.Write(PathReset, 0); err != nil {
		return err
	}
	return p.batch.Flush()
}

// EnableFilter sets the stream's filter to drop empty frames, then enables it.
func (p *Pod) EnableFilter(link, stream int) error {
	if err := p.checkStream(link, stream); err != nil {
		return err
	}
	if err := p.batch.Write(StreamPath(link, stream, StreamDropEmpty), 1); err != nil {
		return err
	}
	return p.batch.Write(StreamPath(link, stream, StreamFilterEnable), 1)
}

// SelectSource queues the input source selector.
func (p *Pod) SelectSource(sel uint32) error {
	return p.batch.Write(PathSourceSelect, sel)
}

// SelectSink queues the output sink selector.
func (p *Pod) SelectSink(sel uint32) error {
	return p.batch.Write(PathSinkSelect, sel)
}

// WritePattern queues words into the link's pattern generator buffer.
func (p *Pod) WritePattern(link int, words []uint32) error {
	if err := p.checkLink(link); err != nil {
		return err
	}
	path := LinkPath(link, LinkPatternBuffer)
	for _, w := range words {
		if err := p.batch.Write(path, w); err != nil {
			return err
		}
	}
	return nil
}

// FirePattern queues playback start on the link's pattern generator.
func (p *Pod) FirePattern(link int) error {
	if err := p.checkLink(link); err != nil {
		return err
	}
	return p.batch.Write(LinkPath(link, LinkPatternFire), 1)
}

// SetThreshold queues a threshold write.
func (p *Pod) SetThreshold(link, stream int, value uint32) error {
	if err := p.checkStream(link, stream); err != nil {
		return err
	}
	return p.batch.Write(StreamPath(link, stream, StreamThreshold), value)
}

// EnableProcessor queues the link's stream processor enable.
func (p *Pod) EnableProcessor(link int) error {
	if err := p.checkLink(link); err != nil {
		return err
	}
	return p.batch.Write(LinkPath(link, LinkProcessorEnable), 1)
}

// SetMask queues a 64-bit channel mask as low then high word.
func (p *Pod) SetMask(link, stream int, mask uint64) error {
	if err := p.checkStream(link, stream); err != nil {
		return err
	}
	if err := p.batch.Write(StreamPath(link, stream, StreamMaskLo), uint32(mask)); err != nil {
		return err
	}
	return p.batch.Write(StreamPath(link, stream, StreamMaskHi), uint32(mask>>32))
}

// SetDataReady queues the link's data-ready gate.
func (p *Pod) SetDataReady(link int, on bool) error {
	if err := p.checkLink(link); err != nil {
		return err
	}
	return p.batch.Write(LinkPath(link, LinkDataReady), boolWord(on))
}

// SetCapture queues the stream's pedestal capture mode.
func (p *Pod) SetCapture(link, stream int, on bool) error {
	if err := p.checkStream(link, stream); err != nil {
		return err
	}
	return p.batch.Write(StreamPath(link, stream, StreamCapture), boolWord(on))
}

// EnableOutput queues the counter policy and then the output enable.
func (p *Pod) EnableOutput(policy uint32) error {
	if err := p.batch.Write(PathOutputPolicy, policy); err != nil {
		return err
	}
	return p.batch.Write(PathOutputEnable, 1)
}

// ReadPacketCounter reads one stream's packet counter in its own dispatch.
func (p *Pod) ReadPacketCounter(link, stream int) (uint32, error) {
	if err := p.checkStream(link, stream); err != nil {
		return 0, err
	}
	return p.readNow(StreamPath(link, stream, StreamPacketCounter))
}

// ReadThreshold reads one stream's threshold in its own dispatch.
func (p *Pod) ReadThreshold(link, stream int) (uint32, error) {
	if err := p.checkStream(link, stream); err != nil {
		return 0, err
	}
	return p.readNow(StreamPath(link, stream, StreamThreshold))
}

func (p *Pod) readNow(path string) (uint32, error) {
	v, err := p.batch.Read(path)
	if err != nil {
		return 0, err
	}
	if err := p.batch.Flush(); err != nil {
		return 0, err
	}
	return v.Value()
}

func boolWord(on bool) uint32 {
	if on {
		return 1
	}
	return 0
}
