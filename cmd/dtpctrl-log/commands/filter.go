// Package commands implements the dtpctrl-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/DUNE-DAQ/dtpctrllibs/pkg/log"
)

// FilterOptions are the filter flags shared by every command.
type FilterOptions struct {
	Session    string
	Device     string
	Category   string
	Step       string
	PathPrefix string
	TimeStart  string
	TimeEnd    string
}

// Build converts the options into a log.Filter.
func (o FilterOptions) Build() (log.Filter, error) {
	f := log.Filter{
		SessionID:  o.Session,
		Device:     o.Device,
		Step:       o.Step,
		PathPrefix: o.PathPrefix,
	}

	if o.Category != "" {
		c, err := ParseCategoryFlag(o.Category)
		if err != nil {
			return log.Filter{}, err
		}
		f.Category = &c
	}
	if o.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, o.TimeStart)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-start: %w", err)
		}
		f.TimeStart = &t
	}
	if o.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, o.TimeEnd)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-end: %w", err)
		}
		f.TimeEnd = &t
	}
	return f, nil
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	c, ok := log.ParseCategory(strings.ToUpper(s))
	if !ok {
		return 0, fmt.Errorf("invalid category: %s (must be register, dispatch, command, state, or error)", s)
	}
	return c, nil
}

// RunFilter copies the events matching opts from path to output.
func RunFilter(path, output string, opts FilterOptions) (int, error) {
	filter, err := opts.Build()
	if err != nil {
		return 0, err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	out, err := log.NewFileLogger(output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return out.Written(), fmt.Errorf("failed to read event: %w", err)
		}
		out.Log(event)
	}
	return out.Written(), nil
}
