// Command dtpctrl hosts a DTP pod controller.
//
// It drives a simulated pod through the controller's command set, either
// as a one-shot sequence or from an interactive console, with:
//   - YAML settings file plus command-line overrides
//   - Register trace file (view it with dtpctrl-log)
//   - Prometheus metrics endpoint
//   - Run-state journal
//
// Usage:
//
//	dtpctrl [flags]
//
// Examples:
//
//	# Configure, calibrate, read counters and release, tracing every register
//	DTPCONTROLS_SHARE=/opt/dtp dtpctrl --trace pod.dlog \
//	    --run conf=conf.yaml,start,info=1,stop,scrap
//
//	# Operator console with metrics on :9108
//	dtpctrl -i --metrics-addr :9108 --state-file /var/run/dtpctrl.json
//
//	# Settings from a file, overriding the topology
//	dtpctrl -c dtpctrl.yaml --links 4 --streams 8
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/DUNE-DAQ/dtpctrllibs/cmd/dtpctrl/interactive"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var fv flagValues
	fs := pflag.NewFlagSet("dtpctrl", pflag.ContinueOnError)
	registerFlags(fs, &fv)
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if fv.showVersion {
		fmt.Println(version.Banner("dtpctrl"))
		return nil
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	settings, err := LoadSettings(fv.configPath)
	if err != nil {
		return err
	}
	applyFlags(fs, fv, &settings)
	if len(settings.Run) == 0 && !settings.Interactive {
		return fmt.Errorf("nothing to do: pass --run or --interactive")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		console     *interactive.Console
		out, errOut io.Writer = os.Stdout, os.Stderr
	)
	if settings.Interactive {
		console, err = interactive.New(nil)
		if err != nil {
			return err
		}
		out, errOut = console.Stdout(), console.Stderr()
	}

	host, err := NewHost(settings, out, errOut)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := host.Close(shutdownCtx); err != nil {
			fmt.Fprintf(errOut, "shutdown: %v\n", err)
		}
	}()

	err = host.RunSequence(ctx, settings.Run)
	if console == nil {
		return err
	}
	if err != nil {
		fmt.Fprintf(out, "%v\n", err)
	}
	console.SetHost(host)
	console.Run(ctx, cancel)
	return nil
}
