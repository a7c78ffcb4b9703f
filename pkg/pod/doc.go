// Package pod drives the registers of a DTP firmware pod.
//
// A Batch accumulates register operations against one transport.Device and
// sends them at explicit flush points. The transport sees an operation only
// when the Flush that carries it runs, and Discard drops operations a failed
// step left behind. Pod layers typed operations (reset, filter enable,
// threshold, masks, pattern injection, calibration gates) over a Batch so
// that callers never handle register paths directly.
//
// The register map is described in registers.go. AddressTable builds the
// map for a given topology, which the simulated transport serves in tests
// and in the dtpctrl simulator.
package pod
