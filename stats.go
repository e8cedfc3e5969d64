package opensched

import "gonum.org/v1/gonum/stat"

// gonumMean wraps gonum/stat.Mean, returning 0 for an empty sample
// instead of NaN. The status line and the final summary both want a
// quiet 0 before any task has completed.
func gonumMean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	return stat.Mean(vals, nil)
}
