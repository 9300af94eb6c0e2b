package layout

import (
	"strconv"
	"strings"
)

// This file defines unit-safe lengths used by scene files.

// Unit represents the original unit of a length value.
type Unit int

const (
	UnitNone    Unit = iota // unit-less numbers like factors
	UnitPX                  // pixels
	UnitPT                  // points
	UnitMM                  // millimeters
	UnitEM                  // multiples of the current font size
	UnitPercent             // percent of a reference length
)

// Conversion constants between pt, mm and px (CSS reference pixel).
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
	PxToPt = 0.75
	PtToPx = 1.0 / PxToPt
)

// String returns a short suffix for a Unit value.
func (u Unit) String() string {
	switch u {
	case UnitPX:
		return "px"
	case UnitPT:
		return "pt"
	case UnitMM:
		return "mm"
	case UnitEM:
		return "em"
	case UnitPercent:
		return "%"
	default:
		return ""
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// Px resolves the length to pixels. em is relative to fontPx, % to ref.
func (l Length) Px(ref, fontPx float64) float64 {
	switch l.Unit {
	case UnitPT:
		return l.Value * PtToPx
	case UnitMM:
		return l.Value * MmToPt * PtToPx
	case UnitEM:
		return l.Value * fontPx
	case UnitPercent:
		return l.Value / 100 * ref
	default:
		return l.Value
	}
}

// Em returns the length as a multiple of fontPx (plain numbers are treated as em).
func (l Length) Em(fontPx float64) float64 {
	switch l.Unit {
	case UnitEM, UnitNone:
		return l.Value
	}
	if fontPx <= 0 {
		return 0
	}
	return l.Px(0, fontPx) / fontPx
}

// ParseLength parses "12px", "7.5em", "5%", "10mm", "12pt" or a bare number.
// ok is false when the number cannot be parsed.
func ParseLength(value string) (Length, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, false
	}
	unit := UnitNone
	num := v
	for _, suf := range []struct {
		s string
		u Unit
	}{{"px", UnitPX}, {"pt", UnitPT}, {"mm", UnitMM}, {"em", UnitEM}, {"%", UnitPercent}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, false
	}
	return Length{Value: f, Unit: unit}, true
}
