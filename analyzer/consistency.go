package analyzer

// Window-consistency helpers for reservation analysis. Reservations require
// sustained demand: utilization at or above a floor for the whole lookback
// window, not merely on average.

// ConsistentThroughout reports whether every datapoint in the series stays
// at or above the floor. One low sub-period disqualifies the series.
func ConsistentThroughout(values []float64, floor float64) bool {
	return len(values) > 0 && FractionAtOrAbove(values, floor) == 1
}

// FractionAtOrAbove returns the share of datapoints at or above the floor
func FractionAtOrAbove(values []float64, floor float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var hits int
	for _, v := range values {
		if v >= floor {
			hits++
		}
	}
	return float64(hits) / float64(len(values))
}
