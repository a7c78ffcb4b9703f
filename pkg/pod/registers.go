package pod

import "fmt"

// ThresholdSafeHigh is the threshold every stream is primed to before
// calibration. No pedestal reaches it, so no hits are generated.
const ThresholdSafeHigh = 0x7FFF

// Limits on a plausible topology readback.
const (
	MaxLinks   = 64
	MaxStreams = 16
)

// Input source selector values (flowmaster.src_sel).
const (
	SourceGBT              uint32 = 0
	SourcePatternGenerator uint32 = 1
)

// Output sink selector values (flowmaster.sink_sel).
const (
	SinkHits uint32 = 1
)

// Output counter policy values (output.ctr_policy).
const (
	CounterPolicyDisabled uint32 = 0
)

// Pod-level registers.
const (
	PathReset        = "ctrl.reset"
	PathNLinks       = "info.n_links"
	PathNStreams     = "info.n_streams"
	PathSourceSelect = "flowmaster.src_sel"
	PathSinkSelect   = "flowmaster.sink_sel"
	PathOutputEnable = "output.en"
	PathOutputPolicy = "output.ctr_policy"
)

// Per-link registers, relative to link{l}.
const (
	LinkProcessorEnable = "processor.en"
	LinkDataReady       = "processor.dr_en"
	LinkPatternBuffer   = "patgen.buf"
	LinkPatternFire     = "patgen.fire"
)

// Per-stream registers, relative to link{l}.stream{s}.
const (
	StreamDropEmpty     = "filter.drop_empty"
	StreamFilterEnable  = "filter.en"
	StreamPacketCounter = "filter.packet_ctr"
	StreamThreshold     = "proc.threshold"
	StreamMaskLo        = "proc.mask_lo"
	StreamMaskHi        = "proc.mask_hi"
	StreamCapture       = "proc.capture_ped"
)

// LinkPath returns the path of a per-link register.
func LinkPath(link int, reg string) string {
	return fmt.Sprintf("link%d.%s", link, reg)
}

// StreamPath returns the path of a per-stream register.
func StreamPath(link, stream int, reg string) string {
	return fmt.Sprintf("link%d.stream%d.%s", link, stream, reg)
}

var (
	podRegs = []string{
		PathReset, PathNLinks, PathNStreams, PathSourceSelect,
		PathSinkSelect, PathOutputEnable, PathOutputPolicy,
	}
	linkRegs = []string{
		LinkProcessorEnable, LinkDataReady, LinkPatternBuffer, LinkPatternFire,
	}
	streamRegs = []string{
		StreamDropEmpty, StreamFilterEnable, StreamPacketCounter, StreamThreshold,
		StreamMaskLo, StreamMaskHi, StreamCapture,
	}
)

// AddressTable returns every register of a pod with the given topology,
// mapped to its reset value.
func AddressTable(links, streams int) map[string]uint32 {
	table := make(map[string]uint32, len(podRegs)+links*(len(linkRegs)+streams*len(streamRegs)))
	for _, r := range podRegs {
		table[r] = 0
	}
	table[PathNLinks] = uint32(links)
	table[PathNStreams] = uint32(streams)
	for l := 0; l < links; l++ {
		for _, r := range linkRegs {
			table[LinkPath(l, r)] = 0
		}
		for s := 0; s < streams; s++ {
			for _, r := range streamRegs {
				table[StreamPath(l, s, r)] = 0
			}
		}
	}
	return table
}
