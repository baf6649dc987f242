package can

import (
	"fmt"
	"math"
)

// boundsEpsilon absorbs rounding in scaled values sitting exactly on a bound.
const boundsEpsilon = 1e-9

// Bounds is the informational physical range of a signal. A nil *Bounds
// accepts every value; an open side is represented by an infinity.
type Bounds struct {
	Min float64
	Max float64
}

// Contains reports whether value lies within b. NaN is never contained.
func (b *Bounds) Contains(value float64) bool {
	if b == nil {
		return true
	}
	return value >= b.Min-boundsEpsilon && value <= b.Max+boundsEpsilon
}

// FormatSignalValue formats a physical value with its unit
func FormatSignalValue(value float64, unit string) string {
	var formatted string
	absValue := math.Abs(value)

	switch {
	case absValue == 0:
		formatted = "0"
	case math.IsNaN(value) || math.IsInf(value, 0):
		formatted = fmt.Sprintf("%v", value)
	case value == math.Trunc(value) && absValue < 1e15:
		formatted = fmt.Sprintf("%.0f", value)
	case absValue >= 1000 || absValue < 0.01:
		formatted = fmt.Sprintf("%.3e", value)
	case absValue >= 100:
		formatted = fmt.Sprintf("%.1f", value)
	case absValue >= 10:
		formatted = fmt.Sprintf("%.2f", value)
	default:
		formatted = fmt.Sprintf("%.3f", value)
	}

	if unit == "" {
		return formatted
	}
	return formatted + " " + unit
}
