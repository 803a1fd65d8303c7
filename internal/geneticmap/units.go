// Package geneticmap converts genetic map coordinates between their stored
// and natural units.
package geneticmap

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ScaleFactor is the multiplier applied when centimorgan positions are
// stored as integers.
const ScaleFactor = 100

// Unit names a genetic map coordinate unit.
type Unit string

const (
	Centimorgan       Unit = "cM"
	ScaledCentimorgan Unit = "cMx100"
)

// ParseUnit resolves a configured unit name. Empty selects Centimorgan.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cm", "centimorgan":
		return Centimorgan, nil
	case "cmx100", "scaled":
		return ScaledCentimorgan, nil
	default:
		return "", fmt.Errorf("unknown genetic map unit %q", s)
	}
}

// FromScaled interprets a raw stored coordinate in cM×100 as centimorgans.
func FromScaled(raw int) float64 {
	return float64(raw) / ScaleFactor
}

// ToScaled rounds a centimorgan position to its cM×100 storage form.
func ToScaled(cm float64) int {
	return int(math.Round(cm * ScaleFactor))
}

// Position converts a stored value in unit u to centimorgans.
func Position(value float64, u Unit) float64 {
	if u == ScaledCentimorgan {
		return value / ScaleFactor
	}
	return value
}

// ParsePosition parses a textual position stored in unit u.
func ParsePosition(s string, u Unit) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("parse position %q: %w", s, err)
	}
	return Position(v, u), nil
}
