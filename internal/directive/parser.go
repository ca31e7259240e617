package directive

import (
	"strings"

	"github.com/nerrad567/sceneagent/internal/script"
)

var synonyms = map[string]string{
	"raise":     "move",
	"lower":     "move",
	"translate": "move",
	"nudge":     "move",
	"turn":      "rotate",
	"spin":      "rotate",
}

type direction struct {
	axis script.Axis
	sign float64
}

var directions = map[string]direction{
	"up":      {script.Z, 1},
	"+z":      {script.Z, 1},
	"z":       {script.Z, 1},
	"down":    {script.Z, -1},
	"-z":      {script.Z, -1},
	"right":   {script.X, 1},
	"+x":      {script.X, 1},
	"x":       {script.X, 1},
	"left":    {script.X, -1},
	"-x":      {script.X, -1},
	"forward": {script.Y, 1},
	"+y":      {script.Y, 1},
	"y":       {script.Y, 1},
	"back":    {script.Y, -1},
	"-y":      {script.Y, -1},
}

var codePrefixes = []string{"import ", "obj =", "for ", "if ", "while ", "class ", "def "}

// LooksLikeCode reports whether s is engine-native code rather than a
// directive: it calls the engine API or starts with a statement keyword.
func LooksLikeCode(s string) bool {
	if strings.Contains(s, "bpy.") {
		return true
	}
	t := strings.TrimSpace(s)
	for _, p := range codePrefixes {
		if strings.HasPrefix(t, p) {
			return true
		}
	}
	return false
}

// Parse splits a line into clauses and parses each. Engine-native code
// yields one Passthrough clause holding the whole line. A blank line
// yields nothing.
func Parse(line string) []Clause {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return nil
	}
	if LooksLikeCode(line) {
		return []Clause{{Text: line, Directive: &Passthrough{Code: line}}}
	}

	parts := splitClauses(lex(line))
	if len(parts) == 0 {
		// A bare "and" leaves no clause to parse.
		return []Clause{{Text: line, Err: &ParseError{Clause: line, Err: ErrUnknownDirective}}}
	}

	var clauses []Clause
	for _, toks := range parts {
		text := join(toks)
		d, err := parseClause(text, toks)
		if err != nil && LooksLikeCode(text) {
			d, err = &Passthrough{Code: text}, nil
		}
		clauses = append(clauses, Clause{Text: text, Directive: d, Err: err})
	}
	return clauses
}

// splitClauses splits on the first "and" only. Empty sides are dropped.
func splitClauses(toks []token) [][]token {
	for i, t := range toks {
		if t.lower != "and" {
			continue
		}
		var out [][]token
		if i > 0 {
			out = append(out, toks[:i])
		}
		if i+1 < len(toks) {
			out = append(out, toks[i+1:])
		}
		return out
	}
	if len(toks) == 0 {
		return nil
	}
	return [][]token{toks}
}

// parser walks one clause's tokens.
type parser struct {
	clause string
	toks   []token
	pos    int
}

func parseClause(text string, toks []token) (Directive, error) {
	p := &parser{clause: text, toks: toks}
	verb := p.next()
	v := verb.lower
	if s, ok := synonyms[v]; ok {
		v = s
	}
	switch v {
	case "move":
		return p.parseMove()
	case "rotate":
		return p.parseRotate()
	case "scale":
		return p.parseScale()
	default:
		return nil, p.fail(ErrUnknownDirective, verb.text)
	}
}

func (p *parser) parseMove() (Directive, error) {
	// The target is everything up to the first direction word after it.
	end := p.find(p.pos+1, func(t token) bool {
		_, ok := directions[t.lower]
		return ok
	})
	if p.pos >= len(p.toks) {
		return nil, p.fail(ErrMissingTarget, "")
	}
	if end < 0 {
		return nil, p.fail(ErrMissingDirection, "")
	}
	target := p.take(end)
	dir := directions[p.next().lower]

	meters, err := p.quantity(ErrBadDistance, isDistanceUnit, toMeters)
	if err != nil {
		return nil, err
	}

	m := &Move{
		Target: target,
		Axis:   dir.axis,
		Meters: dir.sign * meters,
		Space:  p.space(script.Global),
	}

	if p.peek().lower == "except" {
		p.next()
		for p.pos < len(p.toks) {
			m.Except = append(m.Except, p.next().text)
		}
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return m, nil
}

func (p *parser) parseRotate() (Directive, error) {
	return p.numericTail(ErrBadAngle, func(target string) (Directive, error) {
		radians, err := p.quantity(ErrBadAngle, isAngleUnit, toRadians)
		if err != nil {
			return nil, err
		}

		r := &Rotate{Target: target, Axis: script.Z, Radians: radians}
		if a, ok := script.ParseAxis(p.peek().lower); ok {
			p.next()
			r.Axis = a
		}
		r.Space = p.space(script.Local)
		if err := p.expectEnd(); err != nil {
			return nil, err
		}
		return r, nil
	})
}

func (p *parser) parseScale() (Directive, error) {
	return p.numericTail(ErrBadFactor, func(target string) (Directive, error) {
		factor, err := p.quantity(ErrBadFactor, isFactorUnit, toFactor)
		if err != nil {
			return nil, err
		}
		s := &Scale{Target: target, Factor: factor}
		if err := p.expectEnd(); err != nil {
			return nil, err
		}
		return s, nil
	})
}

// numericTail splits the remaining tokens into a target and a tail that
// starts with a number. The shortest target whose tail parses wins, so a
// name with a number in it ("lamp 2") still works. When no split parses,
// the error from the shortest target is returned.
func (p *parser) numericTail(sentinel error, tail func(target string) (Directive, error)) (Directive, error) {
	isNumber := func(t token) bool { return t.kind == tokNumber }
	start := p.pos
	end := p.find(start+1, isNumber)
	if start >= len(p.toks) {
		return nil, p.fail(ErrMissingTarget, "")
	}
	if end < 0 {
		return nil, p.fail(sentinel, "")
	}

	var first error
	for ; end >= 0; end = p.find(end+1, isNumber) {
		p.pos = start
		d, err := tail(p.take(end))
		if err == nil {
			return d, nil
		}
		if first == nil {
			first = err
		}
	}
	return nil, first
}

// quantity consumes a number with its unit, which may be glued to the
// number or be the following word.
func (p *parser) quantity(sentinel error, isUnit func(string) bool, convert func(float64, string) (float64, bool)) (float64, error) {
	t := p.next()
	if t.kind != tokNumber {
		return 0, p.fail(sentinel, t.text)
	}
	unit := t.unit
	raw := t.text
	if unit == "" && isUnit(p.peek().lower) {
		unit = p.peek().lower
		raw += p.next().text
	}
	v, ok := convert(t.value, unit)
	if !ok {
		return 0, p.fail(sentinel, raw)
	}
	return v, nil
}

func (p *parser) space(def script.Space) script.Space {
	switch p.peek().lower {
	case "local":
		p.next()
		return script.Local
	case "global":
		p.next()
		return script.Global
	}
	return def
}

// find returns the index of the first token at or after from matching pred.
// Callers start one past the verb's target start so the target has at least
// one token.
func (p *parser) find(from int, pred func(token) bool) int {
	for i := from; i < len(p.toks); i++ {
		if pred(p.toks[i]) {
			return i
		}
	}
	return -1
}

// take consumes tokens up to end and returns their original text.
func (p *parser) take(end int) string {
	s := join(p.toks[p.pos:end])
	p.pos = end
	return s
}

func (p *parser) next() token {
	if p.pos >= len(p.toks) {
		return token{}
	}
	t := p.toks[p.pos]
	p.pos++
	return t
}

func (p *parser) peek() token {
	if p.pos >= len(p.toks) {
		return token{}
	}
	return p.toks[p.pos]
}

func (p *parser) expectEnd() error {
	if p.pos < len(p.toks) {
		return p.fail(ErrUnexpectedToken, p.toks[p.pos].text)
	}
	return nil
}

func (p *parser) fail(err error, tok string) error {
	return &ParseError{Clause: p.clause, Token: tok, Err: err}
}
