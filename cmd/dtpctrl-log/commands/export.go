package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/DUNE-DAQ/dtpctrllibs/pkg/log"
)

// RunExport exports the trace file to the specified format.
func RunExport(path, format, output string, opts FilterOptions) error {
	filter, err := opts.Build()
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "session_id", "device", "category", "step", "access", "path", "value", "detail"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		var access, path, value, detail string
		switch {
		case event.Register != nil:
			access = event.Register.Access.String()
			path = event.Register.Path
			if event.Register.Access == log.AccessWrite {
				value = "0x" + strconv.FormatUint(uint64(event.Register.Value), 16)
			}
		case event.Dispatch != nil:
			detail = fmt.Sprintf("ops=%d failed=%t", event.Dispatch.Ops, event.Dispatch.Failed)
		case event.Command != nil:
			detail = event.Command.Name + " " + event.Command.Outcome
		case event.StateChange != nil:
			detail = event.StateChange.OldState + "->" + event.StateChange.NewState
		case event.Error != nil:
			detail = event.Error.Code + ": " + event.Error.Message
		}

		row := []string{
			event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			event.SessionID,
			event.Device,
			event.Category.String(),
			event.Step,
			access,
			path,
			value,
			detail,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}
