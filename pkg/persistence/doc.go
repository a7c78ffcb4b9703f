// Package persistence keeps the host's run-state journal.
//
// After every command the host records where the pod controller stands:
// lifecycle state, device, session, the applied configuration record and
// the last failure. The journal is a small JSON file that survives a crash
// of the host process, so an operator can see which step a bring-up
// stopped at before issuing a manual reset.
//
// Each journal carries the command interface version that wrote it. Load
// refuses a journal from a different major version.
package persistence
