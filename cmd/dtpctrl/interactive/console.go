// Package interactive provides the operator console of dtpctrl.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/DUNE-DAQ/dtpctrllibs/pkg/issue"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/persistence"
)

// Host runs commands on behalf of the console.
type Host interface {
	// Do runs a named command with an optional argument.
	Do(name, arg string) error

	// Status returns the state recorded after the last command.
	Status() persistence.RunState
}

// Console handles interactive mode for dtpctrl.
type Console struct {
	host Host
	rl   *readline.Instance
	out  io.Writer
}

// New creates a console reading from the terminal.
func New(host Host) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "dtp> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("conf"),
			readline.PcItem("start"),
			readline.PcItem("stop"),
			readline.PcItem("reset"),
			readline.PcItem("scrap"),
			readline.PcItem("info"),
			readline.PcItem("status"),
			readline.PcItem("help"),
			readline.PcItem("quit"),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{host: host, rl: rl, out: rl.Stdout()}, nil
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for command output to avoid interfering with the prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Stderr returns a writer that properly coordinates with the readline input.
func (c *Console) Stderr() io.Writer {
	return c.rl.Stderr()
}

// SetHost sets the host the console drives. The host is usually built
// after the console, so it can log through Stderr.
func (c *Console) SetHost(h Host) { c.host = h }

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		if quit := c.handle(line); quit {
			cancel()
			return
		}
	}
}

// handle executes one input line and reports whether the console should exit.
func (c *Console) handle(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	arg := ""
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "help", "?":
		c.printHelp()

	case "conf", "configure":
		if arg == "" {
			fmt.Fprintln(c.out, "Usage: conf <record.json|record.yaml>")
			return false
		}
		c.run(cmd, arg)

	case "start", "stop", "reset", "scrap":
		c.run(cmd, "")

	case "info", "i":
		c.run("info", arg)

	case "status", "s":
		c.printStatus()

	case "quit", "exit", "q":
		fmt.Fprintln(c.out, "Exiting...")
		return true

	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (c *Console) run(name, arg string) {
	if err := c.host.Do(name, arg); err != nil {
		fmt.Fprintf(c.out, "%s failed (%s): %v\n", name, issue.KindOf(err), err)
		if issue.KindOf(err) == issue.KindHardwareIO {
			fmt.Fprintln(c.out, "The pod may be partially configured; issue 'reset' before retrying.")
		}
		return
	}
	if name != "info" {
		fmt.Fprintf(c.out, "%s ok, state %s\n", name, c.host.Status().State)
	}
}

func (c *Console) printStatus() {
	st := c.host.Status()
	fmt.Fprintf(c.out, "State:   %s\n", st.State)
	if st.Device != "" {
		fmt.Fprintf(c.out, "Device:  %s\n", st.Device)
		fmt.Fprintf(c.out, "Session: %s\n", st.Session)
		fmt.Fprintf(c.out, "Links:   %d x %d streams\n", st.Links, st.Streams)
	}
	if st.Command != "" {
		fmt.Fprintf(c.out, "Last:    %s\n", st.Command)
	}
	if f := st.Failure; f != nil {
		fmt.Fprintf(c.out, "Failure: %s", f.Kind)
		if f.Step != "" {
			fmt.Fprintf(c.out, " at %s", f.Step)
		}
		fmt.Fprintf(c.out, ": %s\n", f.Message)
	}
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
DTP Pod Controller Commands:
  Lifecycle:
    conf <file>        - Apply a configuration record (JSON or YAML)
    start              - Calibrate pedestals and enable output
    stop               - Close the data-ready gates
    reset              - Re-pulse the device reset
    scrap              - Release the device

  Monitoring:
    info [level]       - Read every stream's packet counter (level 1 adds thresholds)
    status             - Show state, session and last failure

  General:
    help               - Show this help
    quit               - Exit`)
}
