// Package resolve turns a target hint from a directive into concrete scene
// object names.
//
// Hints are matched case-insensitively:
//   - "active" is the selection's active object
//   - "selected" or "selection" is the selection's selected list, in order
//   - a hint containing * or ? is an anchored glob over scene names
//   - anything else is an exact name, falling back to every name with the
//     hint as prefix
//
// Results never contain duplicates and keep first-seen order.
package resolve

import (
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/nerrad567/sceneagent/internal/snapshot"
)

// Resolve returns the scene names that hint designates.
//
// Parameters:
//   - hint: Target text from the directive
//   - names: Scene object names in document order
//   - sel: Current selection snapshot
//
// Returns:
//   - []string: Matching names, possibly empty
func Resolve(hint string, names []string, sel snapshot.Selection) []string {
	h := strings.ToLower(strings.TrimSpace(hint))
	if h == "" {
		return nil
	}

	switch h {
	case "active":
		if sel.Active == "" {
			return nil
		}
		return []string{sel.Active}
	case "selected", "selection":
		return dedupe(sel.Selected)
	}

	if IsGlob(h) {
		re := globRegexp(h)
		var out []string
		for _, n := range names {
			if re.MatchString(strings.ToLower(n)) {
				out = append(out, n)
			}
		}
		return dedupe(out)
	}

	for _, n := range names {
		if strings.ToLower(n) == h {
			return []string{n}
		}
	}

	var out []string
	for _, n := range names {
		if strings.HasPrefix(strings.ToLower(n), h) {
			out = append(out, n)
		}
	}
	return dedupe(out)
}

// Except removes every name matched by any exclusion token. Tokens are
// split on commas and whitespace; each is an exact name or a glob.
// Survivors keep their order.
func Except(names []string, tokens []string) []string {
	var patterns []string
	for _, tok := range tokens {
		for _, p := range strings.FieldsFunc(tok, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		}) {
			patterns = append(patterns, strings.ToLower(p))
		}
	}
	if len(patterns) == 0 {
		return names
	}

	matchers := make([]func(string) bool, 0, len(patterns))
	for _, p := range patterns {
		p := p
		if IsGlob(p) {
			re := globRegexp(p)
			matchers = append(matchers, re.MatchString)
			continue
		}
		matchers = append(matchers, func(s string) bool { return s == p })
	}

	out := make([]string, 0, len(names))
	for _, n := range names {
		lower := strings.ToLower(n)
		excluded := false
		for _, m := range matchers {
			if m(lower) {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, n)
		}
	}
	return out
}

// Suggest returns up to max scene names closest to hint by edit distance,
// for "did you mean" log lines. Names further than half the hint length
// away are not suggested.
func Suggest(hint string, names []string, max int) []string {
	h := strings.ToLower(strings.TrimSpace(hint))
	if h == "" || max <= 0 || IsGlob(h) {
		return nil
	}
	limit := len(h)/2 + 1

	type candidate struct {
		name string
		dist int
	}
	var cands []candidate
	for _, n := range dedupe(names) {
		d := levenshtein.ComputeDistance(h, strings.ToLower(n))
		if d <= limit {
			cands = append(cands, candidate{n, d})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].dist < cands[j].dist
	})

	if len(cands) > max {
		cands = cands[:max]
	}
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.name)
	}
	return out
}

// IsGlob reports whether s contains glob metacharacters.
func IsGlob(s string) bool {
	return strings.ContainsAny(s, "*?")
}

// globRegexp compiles a lower-case glob into an anchored regular expression.
func globRegexp(glob string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(glob)
	quoted = strings.ReplaceAll(quoted, `\*`, ".*")
	quoted = strings.ReplaceAll(quoted, `\?`, ".")
	return regexp.MustCompile("(?s)^" + quoted + "$")
}

func dedupe(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
