package directive

import (
	"regexp"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokWord tokenKind = iota
	tokNumber
)

// token is one whitespace-delimited field. Number tokens carry the numeric
// prefix in value and any letters glued to it in unit.
type token struct {
	kind  tokenKind
	text  string
	lower string
	value float64
	unit  string
}

var numberRe = regexp.MustCompile(`^([+-]?(?:\d+(?:\.\d*)?|\.\d+))([a-z%]*)$`)

// lex splits a clause into tokens.
func lex(s string) []token {
	fields := strings.Fields(s)
	toks := make([]token, 0, len(fields))
	for _, f := range fields {
		toks = append(toks, classify(f))
	}
	return toks
}

func classify(field string) token {
	lower := strings.ToLower(field)
	t := token{kind: tokWord, text: field, lower: lower}
	if m := numberRe.FindStringSubmatch(lower); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			t.kind = tokNumber
			t.value = v
			t.unit = m[2]
		}
	}
	return t
}

func join(toks []token) string {
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = t.text
	}
	return strings.Join(parts, " ")
}
