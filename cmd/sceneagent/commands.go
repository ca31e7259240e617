package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nerrad567/sceneagent/internal/bridge"
	"github.com/nerrad567/sceneagent/internal/directive"
	"github.com/nerrad567/sceneagent/internal/infrastructure/database"
	"github.com/nerrad567/sceneagent/internal/ledger"
	"github.com/nerrad567/sceneagent/internal/memory"
	"github.com/nerrad567/sceneagent/internal/queue"
	"github.com/nerrad567/sceneagent/internal/script"
	"github.com/nerrad567/sceneagent/internal/snapshot"
	"github.com/nerrad567/sceneagent/migrations"
)

// enqueueCmd appends one block read from a file, or stdin for "-" or no
// argument.
func enqueueCmd(args []string, stdin io.Reader, stdout io.Writer) error {
	cmd := newCommand("enqueue", stdout)
	if err := cmd.parse(args); err != nil {
		return err
	}
	cfg, _, err := cmd.load()
	if err != nil {
		return err
	}

	src := stdin
	if name := cmd.fs.Arg(0); name != "" && name != "-" {
		f, openErr := os.Open(name) //nolint:gosec // operator-supplied path
		if openErr != nil {
			return fmt.Errorf("opening block: %w", openErr)
		}
		defer f.Close()
		src = f
	}

	var lines []string
	sc := bufio.NewScanner(src)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading block: %w", err)
	}

	q := queue.New(bridge.PathsFrom(cfg.Bridge).Queue)
	if err := q.Append(lines); err != nil {
		return fmt.Errorf("enqueueing: %w", err)
	}
	depth, err := q.Len()
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "queued %d line(s), %d block(s) waiting\n", len(lines), depth)
	return nil
}

func controlCmd(args []string, stdout io.Writer) error {
	cmd := newCommand("control", stdout)
	if err := cmd.parse(args); err != nil {
		return err
	}
	if cmd.fs.NArg() != 1 {
		return fmt.Errorf("%w: control PAUSE|RESUME|STEP|STOP", errUsage)
	}
	cfg, _, err := cmd.load()
	if err != nil {
		return err
	}

	if err := bridge.New(cfg.Bridge).WriteSignal(cmd.fs.Arg(0)); err != nil {
		if errors.Is(err, bridge.ErrInvalidSignal) {
			return fmt.Errorf("%w: %w", errUsage, err)
		}
		return err
	}
	fmt.Fprintf(stdout, "signal %s written\n", strings.ToUpper(strings.TrimSpace(cmd.fs.Arg(0))))
	return nil
}

// compileCmd compiles one line against the current snapshots without
// queueing it.
func compileCmd(args []string, stdout io.Writer) error {
	cmd := newCommand("compile", stdout)
	if err := cmd.parse(args); err != nil {
		return err
	}
	line := strings.TrimSpace(strings.Join(cmd.fs.Args(), " "))
	if line == "" {
		return fmt.Errorf("%w: compile <line>", errUsage)
	}
	cfg, _, err := cmd.load()
	if err != nil {
		return err
	}

	reader := readerFor(bridge.PathsFrom(cfg.Bridge))
	res := directive.NewCompiler(nil).CompileBlock([]string{line}, reader.Scene(), reader.Selection())
	renderCompile(stdout, res)
	return nil
}

func summaryCmd(args []string, stdout io.Writer) error {
	cmd := newCommand("summary", stdout)
	asJSON := cmd.fs.Bool("json", false, "print JSON instead of text")
	if err := cmd.parse(args); err != nil {
		return err
	}
	cfg, _, err := cmd.load()
	if err != nil {
		return err
	}

	paths := bridge.PathsFrom(cfg.Bridge)
	tasks, err := memory.Load(paths.TaskMemory)
	if err != nil {
		return err
	}
	s := memory.Summarize(readerFor(paths).Scene(), tasks)
	if *asJSON {
		return writeIndented(stdout, s)
	}
	renderSummary(stdout, s)
	return nil
}

func diffCmd(args []string, stdout io.Writer) error {
	cmd := newCommand("diff", stdout)
	asJSON := cmd.fs.Bool("json", false, "print JSON instead of text")
	if err := cmd.parse(args); err != nil {
		return err
	}
	cfg, _, err := cmd.load()
	if err != nil {
		return err
	}

	tasks, err := memory.Load(bridge.PathsFrom(cfg.Bridge).TaskMemory)
	if err != nil {
		return err
	}
	changes, err := memory.Diff(tasks)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeIndented(stdout, changes)
	}
	renderChanges(stdout, changes)
	return nil
}

func historyCmd(ctx context.Context, args []string, stdout io.Writer) error {
	cmd := newCommand("history", stdout)
	n := cmd.fs.Int("n", 20, "number of dispatches to show")
	if err := cmd.parse(args); err != nil {
		return err
	}
	cfg, _, err := cmd.load()
	if err != nil {
		return err
	}
	if !cfg.Database.Enabled {
		return errors.New("history needs database.enabled: the dispatch ledger is off")
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	rows, err := ledger.NewSQLiteRepository(db.DB).RecentDispatches(ctx, *n)
	if err != nil {
		return err
	}
	renderHistory(stdout, rows)
	return nil
}

// nextCmd prints the edit the current behavior mode would generate next.
func nextCmd(args []string, stdout io.Writer) error {
	cmd := newCommand("next", stdout)
	if err := cmd.parse(args); err != nil {
		return err
	}
	cfg, _, err := cmd.load()
	if err != nil {
		return err
	}

	reader := readerFor(bridge.PathsFrom(cfg.Bridge))
	op := memory.NextStep(reader.Scene(), reader.Selection())
	fmt.Fprint(stdout, script.Serialize(op))
	return nil
}

func readerFor(paths bridge.Paths) *snapshot.Reader {
	return snapshot.NewReader(paths.Scene, paths.Selection)
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
