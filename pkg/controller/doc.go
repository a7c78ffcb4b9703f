// Package controller brings a DTP pod through its lifecycle.
//
// A Controller owns at most one device session and moves between three
// states:
//
//	UNCONFIGURED --conf--> CONFIGURED --start--> RUNNING
//	      ^                  |    ^                 |
//	      +------scrap-------+    +------stop-------+
//
// conf opens the session and runs the configuration sequence: topology
// query, reset, filter enable, source and sink selection, threshold
// priming, link enable, mask application, then a single flush (and pattern
// firing for the internal source). start runs pedestal calibration and
// enables the output path. reset re-pulses the device reset without
// changing state. scrap releases the session.
//
// Commands run one at a time. Each either completes or returns an
// *issue.Error; hardware failures carry the step that was executing.
// Nothing is rolled back after a mid-sequence failure, so operators should
// issue reset before retrying.
//
// No timeouts are applied and a running sequence cannot be cancelled. A
// device call that stalls blocks the Controller until the transport
// returns.
//
// Commands are reachable by name through Execute, which is what a hosting
// process wires its command channel to. GetInfo builds a Snapshot of the
// per-stream packet counters.
package controller
