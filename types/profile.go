package types

// MetricStats collapses one metric's sample set over the lookback window
type MetricStats struct {
	Datapoints int     `json:"datapoints"`
	Mean       float64 `json:"mean"`
	Max        float64 `json:"max"`
	Min        float64 `json:"min"`
	P50        float64 `json:"p50"`
	P95        float64 `json:"p95"`
	P99        float64 `json:"p99"`
	// Percentile is the value at the configured rank (analysis.cpu_percentile)
	Percentile float64 `json:"percentile"`
}

// UtilizationProfile is the per-resource analysis result. Built once per
// run, immutable thereafter.
type UtilizationProfile struct {
	ResourceID     string                     `json:"resource_id"`
	Region         string                     `json:"region"`
	Window         Window                     `json:"window"`
	Metrics        map[MetricKind]MetricStats `json:"metrics"`
	SufficientData bool                       `json:"sufficient_data"`
	// CPUValues keeps the ordered CPU series for window-consistency checks
	// (reservation grouping needs the whole series, not just summaries)
	CPUValues []float64 `json:"-"`
}

// CPU returns the CPU stats, if collected
func (p *UtilizationProfile) CPU() (MetricStats, bool) {
	s, ok := p.Metrics[MetricCPU]
	return s, ok
}

// Actionable reports whether the profile can drive a recommendation
func (p *UtilizationProfile) Actionable() bool {
	if p == nil || !p.SufficientData {
		return false
	}
	_, ok := p.Metrics[MetricCPU]
	return ok
}
