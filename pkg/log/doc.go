// Package log provides the register trace for the pod controller.
//
// The trace is separate from operational logging (slog). It records every
// register operation the controller queues, every dispatch, each command and
// each lifecycle transition as a machine-readable Event, so a bring-up can be
// replayed step by step after the fact.
//
// # Basic Usage
//
// Components accept a Logger; nil disables tracing:
//
//	// For development: trace to the console via slog
//	cfg.Trace = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to a binary file
//	cfg.Trace, _ = log.NewFileLogger("/var/log/dtp/pod.dlog")
//
//	// Both
//	cfg.Trace = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
//   - Register: one queued read or write (RegisterEvent)
//   - Dispatch: one flush of the pending batch (DispatchEvent)
//   - Command: one lifecycle command and its outcome (CommandEvent)
//   - State: a lifecycle transition (StateChangeEvent)
//   - Error: a failure tagged with its step (ErrorEventData)
//
// # File Format
//
// Trace files are a stream of CBOR-encoded events with integer keys, with
// the .dlog extension. Maps are written in core deterministic order and
// timestamps as tagged RFC 3339 strings. The Reader rejects duplicate keys
// and indefinite-length items. The dtpctrl-log tool views, filters and
// exports trace files.
package log
