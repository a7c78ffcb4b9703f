package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes trace events to an slog.Logger.
// Useful for development when you want to see register traffic in the console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event at Debug level; errors are logged at Warn.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("category", event.Category.String()),
	}
	if event.SessionID != "" {
		attrs = append(attrs, slog.String("session", event.SessionID))
	}
	if event.Device != "" {
		attrs = append(attrs, slog.String("device", event.Device))
	}
	if event.Step != "" {
		attrs = append(attrs, slog.String("step", event.Step))
	}

	level := slog.LevelDebug
	switch {
	case event.Register != nil:
		attrs = append(attrs,
			slog.String("access", event.Register.Access.String()),
			slog.String("path", event.Register.Path),
		)
		if event.Register.Access == AccessWrite {
			attrs = append(attrs, slog.Uint64("value", uint64(event.Register.Value)))
		}
	case event.Dispatch != nil:
		attrs = append(attrs,
			slog.Int("ops", event.Dispatch.Ops),
			slog.Duration("duration", event.Dispatch.Duration),
		)
		if event.Dispatch.Failed {
			attrs = append(attrs, slog.Bool("failed", true))
		}
	case event.Command != nil:
		attrs = append(attrs,
			slog.String("command", event.Command.Name),
			slog.Duration("duration", event.Command.Duration),
			slog.String("outcome", event.Command.Outcome),
		)
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("error_code", event.Error.Code),
			slog.String("error_msg", event.Error.Message),
		)
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
	}

	a.logger.LogAttrs(context.Background(), level, "trace", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
