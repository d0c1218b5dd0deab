package ddc

import (
	"fmt"
	"strconv"
	"strings"
)

// Adjustment is a requested brightness change in percent: either an
// absolute level or a delta from the current level.
type Adjustment struct {
	relative bool
	value    int
}

// Absolute returns an adjustment to level percent.
func Absolute(level int) Adjustment {
	return Adjustment{value: level}
}

// Relative returns an adjustment by delta percentage points.
func Relative(delta int) Adjustment {
	return Adjustment{relative: true, value: delta}
}

// ParseAdjustment parses "50" as an absolute level and "+10" or "-5" as
// a delta. A trailing "%" is accepted.
func ParseAdjustment(s string) (Adjustment, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if s == "" {
		return Adjustment{}, fmt.Errorf("%w: empty", ErrInvalidAdjustment)
	}

	relative := s[0] == '+' || s[0] == '-'
	n, err := strconv.Atoi(s)
	if err != nil {
		return Adjustment{}, fmt.Errorf("%w: %q", ErrInvalidAdjustment, s)
	}

	if relative {
		return Relative(n), nil
	}
	return Absolute(n), nil
}

// IsRelative reports whether a is a delta.
func (a Adjustment) IsRelative() bool {
	return a.relative
}

// Apply returns the target level for a display currently at level,
// clamped to 0..100.
func (a Adjustment) Apply(level int) int {
	target := a.value
	if a.relative {
		// A delta beyond 100 points reaches a bound anyway
		target = level + min(max(a.value, -100), 100)
	}
	return clampPercent(target)
}

func (a Adjustment) String() string {
	if a.relative {
		return fmt.Sprintf("%+d%%", a.value)
	}
	return fmt.Sprintf("%d%%", a.value)
}

func clampPercent(v int) int {
	return min(max(v, 0), 100)
}

// toPercent maps a raw value in 0..max to a percentage, rounding half up.
func toPercent(current, maxValue uint16) int {
	return int((uint32(current)*100 + uint32(maxValue)/2) / uint32(maxValue))
}

// toRaw maps a percentage in 0..100 to a raw value in 0..max, rounding half up.
func toRaw(percent int, maxValue uint16) uint16 {
	return uint16((uint32(percent)*uint32(maxValue) + 50) / 100)
}
