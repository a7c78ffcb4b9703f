// Command dtpctrl-log is a tool for viewing and analyzing DTP register
// trace files.
//
// Trace files are written by dtpctrl when run with --trace.
//
// Usage:
//
//	dtpctrl-log <command> [flags] <file.dlog>
//
// Commands:
//
//	view     View trace file in human-readable format
//	export   Export trace file to JSONL or CSV format
//	filter   Filter trace file and write to new file
//	stats    Show statistics about the trace file
//
// Examples:
//
//	# View only the dispatches of one bring-up
//	dtpctrl-log view --category dispatch pod.dlog
//
//	# View every write to link 3
//	dtpctrl-log view --path link3. pod.dlog
//
//	# Export one session to CSV
//	dtpctrl-log export --format csv --session 6f1c2a9e-... pod.dlog
//
//	# Show statistics
//	dtpctrl-log stats pod.dlog
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/DUNE-DAQ/dtpctrllibs/cmd/dtpctrl-log/commands"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/version"
)

const usage = `dtpctrl-log - DTP Register Trace Analyzer

Usage:
  dtpctrl-log <command> [flags] <file.dlog>

Commands:
  view     View trace file in human-readable format
  export   Export trace file to JSONL or CSV format
  filter   Filter trace file and write to new file
  stats    Show statistics about the trace file
  version  Print the version

Use "dtpctrl-log <command> --help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "version", "--version":
		fmt.Println(version.Banner("dtpctrl-log"))
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func newFlagSet(name, synopsis, args string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "dtpctrl-log %s - %s\n\nUsage:\n  dtpctrl-log %s %s\n\nFlags:\n", name, synopsis, name, args)
		fs.PrintDefaults()
	}
	return fs
}

func addFilterFlags(fs *pflag.FlagSet, opts *commands.FilterOptions) {
	fs.StringVar(&opts.Session, "session", "", "Filter by session ID")
	fs.StringVar(&opts.Device, "device", "", "Filter by device identifier")
	fs.StringVar(&opts.Category, "category", "", "Filter by category (register, dispatch, command, state, error)")
	fs.StringVar(&opts.Step, "step", "", "Filter by sequencer step (e.g. mask-apply, conf.dispatch)")
	fs.StringVar(&opts.PathPrefix, "path", "", "Filter register events by path prefix (e.g. link3.)")
	fs.StringVar(&opts.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	fs.StringVar(&opts.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
}

// tracePath returns the single positional argument or exits.
func tracePath(fs *pflag.FlagSet) string {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runView(args []string) {
	fs := newFlagSet("view", "View trace file in human-readable format", "[flags] <file.dlog>")
	var opts commands.FilterOptions
	addFilterFlags(fs, &opts)
	_ = fs.Parse(args)

	if err := commands.RunView(tracePath(fs), opts, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := newFlagSet("export", "Export trace file to JSONL or CSV format", "[flags] <file.dlog>")
	var opts commands.FilterOptions
	addFilterFlags(fs, &opts)
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.StringP("output", "o", "", "Output file (default: stdout)")
	_ = fs.Parse(args)

	if err := commands.RunExport(tracePath(fs), *format, *output, opts); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := newFlagSet("filter", "Filter trace file and write to new file", "[flags] -o <out.dlog> <file.dlog>")
	var opts commands.FilterOptions
	addFilterFlags(fs, &opts)
	output := fs.StringP("output", "o", "", "Output file (required)")
	_ = fs.Parse(args)

	path := tracePath(fs)
	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	n, err := commands.RunFilter(path, *output, opts)
	if err != nil {
		fail(err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %d events to %s\n", n, *output)
}

func runStats(args []string) {
	fs := newFlagSet("stats", "Show statistics about the trace file", "<file.dlog>")
	_ = fs.Parse(args)

	if err := commands.RunStats(tracePath(fs), os.Stdout); err != nil {
		fail(err)
	}
}
