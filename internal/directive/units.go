package directive

import (
	"fmt"
	"math"
	"strings"
)

// ParseDistance converts a distance such as "10cm", "150 mm" or "2" to
// meters. A bare number is meters.
func ParseDistance(s string) (float64, error) {
	t, ok := quantity(s)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrBadDistance, s)
	}
	m, ok := toMeters(t.value, t.unit)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrBadDistance, s)
	}
	return m, nil
}

// ParseAngle converts an angle such as "45deg", "90" or "1rad" to radians.
// A bare number is degrees.
func ParseAngle(s string) (float64, error) {
	t, ok := quantity(s)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrBadAngle, s)
	}
	r, ok := toRadians(t.value, t.unit)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrBadAngle, s)
	}
	return r, nil
}

// ParseFactor converts "1.2x" or "120%" to a multiplicative factor.
// The suffix is required.
func ParseFactor(s string) (float64, error) {
	t, ok := quantity(s)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrBadFactor, s)
	}
	f, ok := toFactor(t.value, t.unit)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrBadFactor, s)
	}
	return f, nil
}

// quantity lexes s with inner whitespace removed, so "10 cm" reads as "10cm".
func quantity(s string) (token, bool) {
	t := classify(strings.Join(strings.Fields(s), ""))
	return t, t.kind == tokNumber
}

func toMeters(v float64, unit string) (float64, bool) {
	switch unit {
	case "", "m":
		return v, true
	case "cm":
		return v / 100, true
	case "mm":
		return v / 1000, true
	default:
		return 0, false
	}
}

func toRadians(v float64, unit string) (float64, bool) {
	switch unit {
	case "", "deg", "degree", "degrees":
		return v * math.Pi / 180, true
	case "rad":
		return v, true
	default:
		return 0, false
	}
}

func toFactor(v float64, unit string) (float64, bool) {
	if v < 0 {
		return 0, false
	}
	switch unit {
	case "x":
		return v, true
	case "%":
		return v / 100, true
	default:
		return 0, false
	}
}

func isDistanceUnit(s string) bool {
	_, ok := toMeters(0, s)
	return ok && s != ""
}

func isAngleUnit(s string) bool {
	_, ok := toRadians(0, s)
	return ok && s != ""
}

func isFactorUnit(s string) bool {
	return s == "x" || s == "%"
}
