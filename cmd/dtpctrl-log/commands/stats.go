package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/DUNE-DAQ/dtpctrllibs/pkg/log"
)

// Stats holds aggregate statistics about a trace file.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[log.Category]int
	Sessions         map[string]*SessionStats
	Commands         map[string]map[string]int
	Writes           int
	Reads            int
	Dispatches       int
	FailedDispatches int
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// SessionStats holds statistics for a single device session.
type SessionStats struct {
	FirstSeen  time.Time
	LastSeen   time.Time
	Events     int
	Device     string
	Dispatches int
	LastState  string
}

// RunStats analyzes the trace file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory: make(map[log.Category]int),
		Sessions:         make(map[string]*SessionStats),
		Commands:         make(map[string]map[string]int),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}

	printStats(w, stats)
	return nil
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByCategory[event.Category]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	var sess *SessionStats
	if event.SessionID != "" {
		sess = s.Sessions[event.SessionID]
		if sess == nil {
			sess = &SessionStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
			s.Sessions[event.SessionID] = sess
		}
		sess.Events++
		if event.Timestamp.After(sess.LastSeen) {
			sess.LastSeen = event.Timestamp
		}
		if event.Device != "" && sess.Device == "" {
			sess.Device = event.Device
		}
	}

	switch {
	case event.Register != nil:
		if event.Register.Access == log.AccessWrite {
			s.Writes++
		} else {
			s.Reads++
		}
	case event.Dispatch != nil:
		s.Dispatches++
		if event.Dispatch.Failed {
			s.FailedDispatches++
		}
		if sess != nil {
			sess.Dispatches++
		}
	case event.Command != nil:
		byOutcome := s.Commands[event.Command.Name]
		if byOutcome == nil {
			byOutcome = make(map[string]int)
			s.Commands[event.Command.Name] = byOutcome
		}
		byOutcome[event.Command.Outcome]++
	case event.StateChange != nil:
		if sess != nil {
			sess.LastState = event.StateChange.NewState
		}
	case event.Error != nil:
		s.Errors++
	}
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== DTP Register Trace Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for c := log.CategoryRegister; c <= log.CategoryError; c++ {
		if count := stats.EventsByCategory[c]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", c.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Register Writes: %d\n", stats.Writes)
	fmt.Fprintf(w, "Register Reads:  %d\n", stats.Reads)
	fmt.Fprintf(w, "Dispatches:      %d (%d failed)\n", stats.Dispatches, stats.FailedDispatches)
	fmt.Fprintln(w)

	if len(stats.Commands) > 0 {
		fmt.Fprintln(w, "Commands:")
		names := make([]string, 0, len(stats.Commands))
		for name := range stats.Commands {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			outcomes := make([]string, 0, len(stats.Commands[name]))
			for o := range stats.Commands[name] {
				outcomes = append(outcomes, o)
			}
			sort.Strings(outcomes)
			fmt.Fprintf(w, "  %-10s", name)
			for _, o := range outcomes {
				fmt.Fprintf(w, " %s=%d", o, stats.Commands[name][o])
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Sessions: %d\n", len(stats.Sessions))
	if len(stats.Sessions) > 0 {
		type sessInfo struct {
			id    string
			stats *SessionStats
		}
		sessions := make([]sessInfo, 0, len(stats.Sessions))
		for id, ss := range stats.Sessions {
			sessions = append(sessions, sessInfo{id, ss})
		}
		sort.Slice(sessions, func(i, j int) bool {
			return sessions[i].stats.FirstSeen.Before(sessions[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, s := range sessions {
			duration := s.stats.LastSeen.Sub(s.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  %s  device=%s events=%d dispatches=%d duration=%s",
				shortenID(s.id), orDash(s.stats.Device), s.stats.Events, s.stats.Dispatches, duration)
			if s.stats.LastState != "" {
				fmt.Fprintf(w, " state=%s", s.stats.LastState)
			}
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
}
