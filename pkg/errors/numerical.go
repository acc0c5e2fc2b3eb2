package errors

import (
	"math"
)

// HasMissing reports whether values contain a NaN missing-value sentinel.
// Skip-missing reductions use this to decide whether a filtering pass
// is needed at all.
func HasMissing(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// DropMissing returns values with all NaN entries removed.
// The returned slice is freshly allocated only when at least one NaN
// is present; otherwise the input is returned as is.
func DropMissing(values []float64) []float64 {
	if !HasMissing(values) {
		return values
	}
	kept := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			kept = append(kept, v)
		}
	}
	return kept
}

// CountMissing returns the number of NaN entries in values.
func CountMissing(values []float64) int {
	n := 0
	for _, v := range values {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}
