// Package sim provides an in-memory transport backend.
//
// A Backend serves every catalogue entry that matches the requested
// protocols with a simulated Pod: a register file seeded from an address
// table. Queued operations are applied in order at dispatch and recorded
// in a journal, which tests use to check sequencing. Pods outlive the
// handles opened on them, the same way hardware outlives a connection.
//
// Faults can be injected per register path (dispatch failure) and per
// backend (connect failure).
package sim
