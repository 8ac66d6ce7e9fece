package stats

import "math"

// trendPercent computes the rounded percentage change from previous to
// current. Nil when there is no comparable previous period or when the
// previous count is zero, where the percentage change is undefined.
func trendPercent(current, previous int64, hasPrevious bool) *int {
	if !hasPrevious || previous == 0 {
		return nil
	}
	pct := int(math.Round(float64(current-previous) / float64(previous) * 100))
	return &pct
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
