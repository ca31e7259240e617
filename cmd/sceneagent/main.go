// sceneagent drives a 3D scene engine through a shared bridge folder.
//
// The default command runs the orchestration loop: it drains directive
// blocks from the queue document, compiles them into engine code and hands
// each envelope to the engine, pacing and confirming per the live behavior
// settings in the selection document. The other commands are operator
// tools that work on the same folder while the agent runs.
//
//	sceneagent [run]                      run the agent
//	sceneagent enqueue [file|-]           append a directive block
//	sceneagent control PAUSE|RESUME|STEP|STOP
//	sceneagent compile <line>             show the code a line compiles to
//	sceneagent summary                    describe the scene and recent tasks
//	sceneagent diff                       compare the last two task snapshots
//	sceneagent history [-n N]             list recent dispatches from the ledger
//	sceneagent next                       show the next generated edit
//	sceneagent version                    print build information
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var errUsage = errors.New("usage")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// run dispatches to a subcommand. A leading flag selects the default
// "run" command so `sceneagent -config x.yaml` works.
func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	name := "run"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		name, args = args[0], args[1:]
	}

	switch name {
	case "run":
		return runCmd(ctx, args, stdout)
	case "enqueue":
		return enqueueCmd(args, stdin, stdout)
	case "control":
		return controlCmd(args, stdout)
	case "compile":
		return compileCmd(args, stdout)
	case "summary":
		return summaryCmd(args, stdout)
	case "diff":
		return diffCmd(args, stdout)
	case "history":
		return historyCmd(ctx, args, stdout)
	case "next":
		return nextCmd(args, stdout)
	case "version":
		fmt.Fprintf(stdout, "sceneagent %s (%s, %s)\n", version, commit, date)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
}
