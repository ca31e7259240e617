package directive

import (
	"errors"

	"github.com/nerrad567/sceneagent/internal/resolve"
	"github.com/nerrad567/sceneagent/internal/script"
	"github.com/nerrad567/sceneagent/internal/snapshot"
)

// Logger defines the logging interface used by the Compiler.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Skip records a clause that produced no operations.
type Skip struct {
	Line   string
	Clause string
	Reason error
}

// Result is the output of compiling a line or block.
type Result struct {
	Ops     []script.Operation
	Skipped []Skip
}

// Empty reports whether nothing was compiled.
func (r Result) Empty() bool {
	return len(r.Ops) == 0
}

func (r *Result) merge(o Result) {
	r.Ops = append(r.Ops, o.Ops...)
	r.Skipped = append(r.Skipped, o.Skipped...)
}

// Compiler turns directive lines into operations.
//
// Thread Safety:
//   - Compiler is stateless apart from its logger and safe for concurrent use.
type Compiler struct {
	logger Logger
}

// NewCompiler creates a Compiler. A nil logger discards output.
func NewCompiler(logger Logger) *Compiler {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Compiler{logger: logger}
}

// CompileBlock compiles every line of a block in order.
func (c *Compiler) CompileBlock(block []string, scene snapshot.Scene, sel snapshot.Selection) Result {
	var res Result
	names := scene.Names()
	for _, line := range block {
		res.merge(c.compileLine(line, names, sel))
	}
	return res
}

// CompileLine compiles one line against the given snapshots.
//
// Parameters:
//   - line: Directive text or engine-native code
//   - scene: Scene snapshot used for name resolution
//   - sel: Selection snapshot used for "active" and "selected"
//
// Returns:
//   - Result: Operations in clause order, plus the clauses that were skipped
func (c *Compiler) CompileLine(line string, scene snapshot.Scene, sel snapshot.Selection) Result {
	return c.compileLine(line, scene.Names(), sel)
}

func (c *Compiler) compileLine(line string, names []string, sel snapshot.Selection) Result {
	var res Result
	for _, cl := range Parse(line) {
		if cl.Err != nil {
			c.skip(&res, line, cl.Text, cl.Err)
			continue
		}
		ops, err := lower(cl.Directive, names, sel)
		if err != nil {
			c.skip(&res, line, cl.Text, err)
			if errors.Is(err, ErrNoTargets) {
				if hint := targetOf(cl.Directive); hint != "" {
					if s := resolve.Suggest(hint, names, 3); len(s) > 0 {
						c.logger.Info("did you mean", "hint", hint, "candidates", s)
					}
				}
			}
			continue
		}
		res.Ops = append(res.Ops, ops...)
	}
	return res
}

func (c *Compiler) skip(res *Result, line, clause string, reason error) {
	c.logger.Warn("skipping clause", "clause", clause, "reason", reason)
	res.Skipped = append(res.Skipped, Skip{Line: line, Clause: clause, Reason: reason})
}

// lower resolves a directive's targets and expands it into one operation
// per target.
func lower(d Directive, names []string, sel snapshot.Selection) ([]script.Operation, error) {
	switch d := d.(type) {
	case *Passthrough:
		return []script.Operation{script.Passthrough{Code: d.Code}}, nil

	case *Move:
		targets := resolve.Except(resolve.Resolve(d.Target, names, sel), d.Except)
		if len(targets) == 0 {
			return nil, &ParseError{Clause: d.Target, Err: ErrNoTargets}
		}
		ops := make([]script.Operation, 0, len(targets))
		for _, n := range targets {
			if d.Space == script.Local {
				ops = append(ops, script.MoveLocal{Target: n, Axis: d.Axis, Meters: d.Meters})
			} else {
				ops = append(ops, script.MoveGlobal{Target: n, Axis: d.Axis, Meters: d.Meters})
			}
		}
		return ops, nil

	case *Rotate:
		targets := resolve.Resolve(d.Target, names, sel)
		if len(targets) == 0 {
			return nil, &ParseError{Clause: d.Target, Err: ErrNoTargets}
		}
		ops := make([]script.Operation, 0, len(targets))
		for _, n := range targets {
			ops = append(ops, script.Rotate{Target: n, Axis: d.Axis, Radians: d.Radians, Space: d.Space})
		}
		return ops, nil

	case *Scale:
		targets := resolve.Resolve(d.Target, names, sel)
		if len(targets) == 0 {
			return nil, &ParseError{Clause: d.Target, Err: ErrNoTargets}
		}
		ops := make([]script.Operation, 0, len(targets))
		for _, n := range targets {
			ops = append(ops, script.Scale{Target: n, Factor: d.Factor})
		}
		return ops, nil
	}
	return nil, ErrUnknownDirective
}

func targetOf(d Directive) string {
	switch d := d.(type) {
	case *Move:
		return d.Target
	case *Rotate:
		return d.Target
	case *Scale:
		return d.Target
	}
	return ""
}
