package controller_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DUNE-DAQ/dtpctrllibs/pkg/controller"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/pod"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/transport"
)

func TestConfigureExternalSequence(t *testing.T) {
	const links, streams = 2, 3
	f := newFixture(t, links, streams)

	require.NoError(t, f.ctrl.Configure(f.record()))
	assert.Equal(t, controller.StateConfigured, f.ctrl.State())

	journal := f.pod().Journal()

	// one topology query, one dispatch
	require.Len(t, reads(journal, pod.PathNLinks), 1)
	require.Len(t, reads(journal, pod.PathNStreams), 1)
	assert.Equal(t, 1, reads(journal, pod.PathNLinks)[0].Dispatch)

	// one reset pulse, dispatched on its own
	resets := writes(journal, pod.PathReset)
	require.Len(t, resets, 2)
	assert.Equal(t, uint32(1), resets[0].Value)
	assert.Equal(t, uint32(0), resets[1].Value)
	assert.Equal(t, 2, resets[0].Dispatch)

	// N*M drop-empty/enable pairs, all before any threshold write
	firstThreshold := -1
	for i, r := range journal {
		if r.Kind == transport.OpWrite && r.Path == pod.StreamPath(0, 0, pod.StreamThreshold) {
			firstThreshold = i
			break
		}
	}
	require.NotEqual(t, -1, firstThreshold)
	for l := 0; l < links; l++ {
		for s := 0; s < streams; s++ {
			drop := indexOf(journal, transport.OpWrite, pod.StreamPath(l, s, pod.StreamDropEmpty), 1)
			en := indexOf(journal, transport.OpWrite, pod.StreamPath(l, s, pod.StreamFilterEnable), 1)
			require.NotEqual(t, -1, drop)
			require.Equal(t, drop+1, en, "enable follows drop-empty for link%d.stream%d", l, s)
			assert.Less(t, en, firstThreshold)
		}
	}
	assert.Len(t, writes(journal, pod.StreamDropEmpty), links*streams)
	assert.Len(t, writes(journal, pod.StreamFilterEnable), links*streams)

	// external source, no pattern traffic
	src := writes(journal, pod.PathSourceSelect)
	require.Len(t, src, 1)
	assert.Equal(t, pod.SourceGBT, src[0].Value)
	assert.Empty(t, writes(journal, pod.LinkPatternBuffer))
	assert.Empty(t, writes(journal, pod.LinkPatternFire))

	sink := writes(journal, pod.PathSinkSelect)
	require.Len(t, sink, 1)
	assert.Equal(t, pod.SinkHits, sink[0].Value)

	// primed high, processors enabled, then the configured threshold
	thresholds := writes(journal, pod.StreamThreshold)
	require.Len(t, thresholds, 2*links*streams)
	for i, r := range thresholds[:links*streams] {
		assert.Equal(t, uint32(pod.ThresholdSafeHigh), r.Value, "prime %d", i)
	}
	for i, r := range thresholds[links*streams:] {
		assert.Equal(t, uint32(100), r.Value, "apply %d", i)
	}
	enables := writes(journal, pod.LinkProcessorEnable)
	require.Len(t, enables, links)
	lastPrime := indexOf(journal, transport.OpWrite, pod.StreamPath(links-1, streams-1, pod.StreamThreshold), pod.ThresholdSafeHigh)
	firstEnable := indexOf(journal, transport.OpWrite, pod.LinkPath(0, pod.LinkProcessorEnable), 1)
	firstApply := indexOf(journal, transport.OpWrite, pod.StreamPath(0, 0, pod.StreamThreshold), 100)
	assert.Less(t, lastPrime, firstEnable)
	assert.Less(t, firstEnable, firstApply)

	assert.Empty(t, writes(journal, pod.StreamMaskLo))

	// everything after the reset goes out in a single dispatch
	for _, r := range journal[4:] {
		assert.Equal(t, 3, r.Dispatch, r.Path)
	}
	assert.Equal(t, 3, f.pod().Dispatches())
}

func TestConfigureInternalPatternScenario(t *testing.T) {
	f := newFixture(t, 2, 2)

	require.NoError(t, f.ctrl.Configure(f.internalRecord()))
	journal := f.pod().Journal()

	// pattern written for both links, inside the configuration dispatch
	buf := writes(journal, pod.LinkPatternBuffer)
	require.Len(t, buf, 2*len(testPatternWords))
	for l := 0; l < 2; l++ {
		for i, w := range testPatternWords {
			r := buf[l*len(testPatternWords)+i]
			assert.Equal(t, pod.LinkPath(l, pod.LinkPatternBuffer), r.Path)
			assert.Equal(t, w, r.Value)
			assert.Equal(t, 3, r.Dispatch)
		}
	}

	// no external-source selection
	for _, r := range writes(journal, pod.PathSourceSelect) {
		assert.Equal(t, pod.SourcePatternGenerator, r.Value)
	}

	// prime to max for all four, then 100
	thresholds := writes(journal, pod.StreamThreshold)
	require.Len(t, thresholds, 8)
	for _, r := range thresholds[:4] {
		assert.Equal(t, uint32(pod.ThresholdSafeHigh), r.Value)
	}
	for _, r := range thresholds[4:] {
		assert.Equal(t, uint32(100), r.Value)
	}

	assert.Empty(t, writes(journal, pod.StreamMaskLo))
	assert.Empty(t, writes(journal, pod.StreamMaskHi))

	// fire for both links after the configuration flush
	fire := writes(journal, pod.LinkPatternFire)
	assert.Equal(t, []string{"link0.patgen.fire", "link1.patgen.fire"}, paths(fire))
	for _, r := range fire {
		assert.Equal(t, 4, r.Dispatch)
	}
	assert.Equal(t, 4, f.pod().Dispatches())
}

func TestMaskApplication(t *testing.T) {
	full := []uint64{0x1, 0x2_0000_0003, 0xFFFF_FFFF_FFFF_FFFF, 0x4}

	tests := []struct {
		name  string
		masks []uint64
		apply bool
	}{
		{"absent", nil, false},
		{"too short", full[:3], false},
		{"too long", append(append([]uint64{}, full...), 0x5), false},
		{"exact", full, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 2, 2)
			rec := f.record()
			rec.Masks = tt.masks

			require.NoError(t, f.ctrl.Configure(rec))
			journal := f.pod().Journal()

			lo := writes(journal, pod.StreamMaskLo)
			hi := writes(journal, pod.StreamMaskHi)
			if !tt.apply {
				assert.Empty(t, lo)
				assert.Empty(t, hi)
				return
			}

			require.Len(t, lo, 4)
			require.Len(t, hi, 4)
			want := []string{
				"link0.stream0.proc.mask_lo", "link0.stream1.proc.mask_lo",
				"link1.stream0.proc.mask_lo", "link1.stream1.proc.mask_lo",
			}
			assert.Equal(t, want, paths(lo))
			for i, m := range full {
				assert.Equal(t, uint32(m), lo[i].Value, "slot %d low", i)
				assert.Equal(t, uint32(m>>32), hi[i].Value, "slot %d high", i)
			}

			lastEnable := indexOf(journal, transport.OpWrite, pod.LinkPath(1, pod.LinkProcessorEnable), 1)
			firstMask := indexOf(journal, transport.OpWrite, want[0], uint32(full[0]))
			assert.Less(t, lastEnable, firstMask)
		})
	}
}

func TestConfigureWithZeroLinks(t *testing.T) {
	f := newFixture(t, 0, 4)

	require.NoError(t, f.ctrl.Configure(f.record()))
	journal := f.pod().Journal()
	assert.Empty(t, writes(journal, pod.StreamThreshold))
	assert.Len(t, writes(journal, pod.PathSinkSelect), 1)
}

func TestConfigureStepFailures(t *testing.T) {
	tests := []struct {
		name   string
		remove string
		fail   string
		step   string
	}{
		{"topology read", pod.PathNStreams, "", controller.StepTopology},
		{"reset", "", pod.PathReset, controller.StepReset},
		{"filter node", pod.StreamPath(1, 0, pod.StreamFilterEnable), "", controller.StepFilterEnable},
		{"link enable node", pod.LinkPath(1, pod.LinkProcessorEnable), "", controller.StepLinkEnable},
		{"threshold node", pod.StreamPath(0, 1, pod.StreamThreshold), "", controller.StepThresholdPrime},
		{"configuration dispatch", "", pod.LinkPath(0, pod.LinkProcessorEnable), controller.StepConfDispatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 2, 2)
			f.configure()
			require.NoError(t, f.ctrl.Scrap())

			if tt.remove != "" {
				f.pod().RemoveNode(tt.remove)
			}
			if tt.fail != "" {
				f.pod().FailOn(tt.fail, fmt.Errorf("bus error"))
			}

			err := f.ctrl.Configure(f.record())
			assertHardwareIO(t, err, tt.step)
			assert.Equal(t, controller.StateUnconfigured, f.ctrl.State())
			_, open := f.ctrl.Session()
			assert.False(t, open, "failed conf must not keep a session")
		})
	}
}

func TestPatternFireFailure(t *testing.T) {
	f := newFixture(t, 2, 1)
	f.configure()
	require.NoError(t, f.ctrl.Scrap())
	f.pod().FailOn(pod.LinkPath(1, pod.LinkPatternFire), fmt.Errorf("bus error"))

	err := f.ctrl.Configure(f.internalRecord())
	assertHardwareIO(t, err, controller.StepPatternFire)
	assert.Equal(t, controller.StateUnconfigured, f.ctrl.State())
}
