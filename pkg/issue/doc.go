// Package issue defines the error type surfaced by the pod controller.
//
// Every failure raised to a command caller is an *Error carrying a Kind
// and the context needed by an operator: the device name, the sequencer
// step that was executing and the underlying cause. The set of kinds is
// closed; callers branch on it with errors.Is against the exported
// sentinels or with KindOf.
//
//	if errors.Is(err, issue.ErrNotConfigured) {
//	    // issue conf first
//	}
//
// Errors are never retried inside the controller. After a HardwareIOError
// the pod may hold a partially applied configuration; operators are
// expected to issue a manual reset.
package issue
