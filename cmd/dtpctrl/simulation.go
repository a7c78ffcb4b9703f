package main

import (
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/pod"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/transport/sim"
)

// newSimBackend serves every catalogue entry with a simulated pod of the
// given topology.
func newSimBackend(s SimSettings) *sim.Backend {
	return sim.NewBackend(
		sim.WithAddressTable(pod.AddressTable(s.Links, s.Streams)),
		sim.WithDispatchHook(countPackets(s.Links, s.Streams)),
	)
}

// countPackets advances the packet counter of every stream whose path is
// open (output enabled, link gate open, filter enabled) once per dispatch.
func countPackets(links, streams int) func(p *sim.Pod) {
	return func(p *sim.Pod) {
		if p.Peek(pod.PathOutputEnable) == 0 {
			return
		}
		for l := 0; l < links; l++ {
			if p.Peek(pod.LinkPath(l, pod.LinkDataReady)) == 0 {
				continue
			}
			for s := 0; s < streams; s++ {
				if p.Peek(pod.StreamPath(l, s, pod.StreamFilterEnable)) == 0 {
					continue
				}
				ctr := pod.StreamPath(l, s, pod.StreamPacketCounter)
				p.Poke(ctr, p.Peek(ctr)+1)
			}
		}
	}
}
