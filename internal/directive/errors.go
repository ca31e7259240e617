package directive

import (
	"errors"
	"fmt"
)

// Clause failures. A *ParseError wraps one of these; check with errors.Is.
var (
	// ErrUnknownDirective is returned when a clause starts with no known verb.
	ErrUnknownDirective = errors.New("directive: unknown directive")

	// ErrMissingTarget is returned when a clause names no target.
	ErrMissingTarget = errors.New("directive: missing target")

	// ErrMissingDirection is returned when a move has no direction word.
	ErrMissingDirection = errors.New("directive: missing direction")

	// ErrBadDistance is returned for an unparseable move distance.
	ErrBadDistance = errors.New("directive: bad distance")

	// ErrBadAngle is returned for an unparseable rotation angle.
	ErrBadAngle = errors.New("directive: bad angle")

	// ErrBadFactor is returned for an unparseable scale factor.
	ErrBadFactor = errors.New("directive: bad factor")

	// ErrUnexpectedToken is returned when a clause has trailing words.
	ErrUnexpectedToken = errors.New("directive: unexpected token")

	// ErrNoTargets is reported when a target resolves to no scene object.
	ErrNoTargets = errors.New("directive: no targets")
)

// ParseError describes why a clause did not parse.
type ParseError struct {
	Clause string
	Token  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("%v: %q in %q", e.Err, e.Token, e.Clause)
	}
	return fmt.Sprintf("%v in %q", e.Err, e.Clause)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
