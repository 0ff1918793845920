package mapping

import "math"

// Ratio returns location as a fraction of length in [0, 1].
// A non-positive length yields 0.
func Ratio(location, length int) float64 {
	if length <= 0 {
		return 0
	}
	location = clamp(location, 0, length)
	return float64(location) / float64(length)
}

// Location converts a ratio back to an offset in [0, length], rounding to
// the nearest unit. A non-positive length yields 0.
func Location(ratio float64, length int) int {
	if length <= 0 || math.IsNaN(ratio) {
		return 0
	}
	if ratio <= 0 {
		return 0
	}
	if ratio >= 1 {
		return length
	}
	return clamp(int(math.Round(ratio*float64(length))), 0, length)
}

// MapBetweenLengths scales location from a space of sourceLength units to
// one of targetLength units. An empty source space maps to 0.
func MapBetweenLengths(location, sourceLength, targetLength int) int {
	if sourceLength <= 0 || targetLength <= 0 {
		return 0
	}
	return Location(Ratio(location, sourceLength), targetLength)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
