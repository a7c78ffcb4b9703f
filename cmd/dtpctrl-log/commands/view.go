package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/DUNE-DAQ/dtpctrllibs/pkg/log"
)

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [session] device CATEGORY step
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [%s] %s %s", ts, shortenID(event.SessionID), orDash(event.Device), event.Category)
	if event.Step != "" {
		fmt.Fprintf(w, " %s", event.Step)
	}
	fmt.Fprintln(w)

	switch {
	case event.Register != nil:
		r := event.Register
		if r.Access == log.AccessWrite {
			fmt.Fprintf(w, "  WRITE %s = 0x%08x\n", r.Path, r.Value)
		} else {
			fmt.Fprintf(w, "  READ  %s\n", r.Path)
		}
	case event.Dispatch != nil:
		d := event.Dispatch
		status := "ok"
		if d.Failed {
			status = "FAILED"
		}
		fmt.Fprintf(w, "  Ops: %d  Duration: %s  Status: %s\n", d.Ops, formatDuration(d.Duration), status)
	case event.Command != nil:
		c := event.Command
		fmt.Fprintf(w, "  Command: %s  Duration: %s  Outcome: %s\n", c.Name, formatDuration(c.Duration), c.Outcome)
	case event.StateChange != nil:
		sc := event.StateChange
		if sc.OldState != "" {
			fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
		} else {
			fmt.Fprintf(w, "  -> %s\n", sc.NewState)
		}
		if sc.Reason != "" {
			fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
		}
	case event.Error != nil:
		e := event.Error
		fmt.Fprintf(w, "  Code: %s\n", e.Code)
		fmt.Fprintf(w, "  Message: %s\n", e.Message)
		if e.Context != "" {
			fmt.Fprintf(w, "  Context: %s\n", e.Context)
		}
	}

	fmt.Fprintln(w)
}

// shortenID returns the first 8 characters of a session ID.
func shortenID(id string) string {
	if id == "" {
		return "--------"
	}
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// RunView executes the view command.
func RunView(path string, opts FilterOptions, output io.Writer) error {
	filter, err := opts.Build()
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}

	return nil
}
