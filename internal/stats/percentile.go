package stats

import "sort"

// Percentile returns the pct-th percentile of sorted values using linear
// interpolation between the two closest ranks. Values must be ascending.
func Percentile(sorted []float64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if pct <= 0 {
		return sorted[0]
	}
	if pct >= 100 {
		return sorted[len(sorted)-1]
	}

	index := (float64(len(sorted)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[lower]
	}
	weight := index - float64(lower)
	lo := sorted[lower]
	hi := sorted[upper]
	return lo + ((hi - lo) * weight)
}

// Sorted returns an ascending copy of values.
func Sorted(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	return out
}
