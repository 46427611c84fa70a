package analyzer

import (
	"math"
	"sort"

	"github.com/cloudtrim/rightsizer/config"
	"github.com/cloudtrim/rightsizer/types"
)

// BuildProfile collapses raw samples into a per-resource utilization
// profile. Pure and deterministic: identical sample sets always produce
// identical profiles. A sparse sample set is not an error; the profile is
// flagged and callers must treat it as non-actionable.
func BuildProfile(resourceID, region string, window types.Window, samples []types.MetricSample, cfg config.AnalysisConfig) types.UtilizationProfile {
	byKind := groupByKind(samples)

	profile := types.UtilizationProfile{
		ResourceID: resourceID,
		Region:     region,
		Window:     window,
		Metrics:    make(map[types.MetricKind]types.MetricStats, len(byKind)),
	}

	for kind, kindSamples := range byKind {
		values := sortedValues(kindSamples)
		profile.Metrics[kind] = summarize(values, cfg.CPUPercentile)
		if kind == types.MetricCPU {
			profile.CPUValues = chronologicalValues(kindSamples)
		}
	}

	cpu, ok := profile.Metrics[types.MetricCPU]
	profile.SufficientData = ok && cpu.Datapoints >= cfg.MinDatapoints

	return profile
}

// groupByKind splits a mixed sample set per metric kind
func groupByKind(samples []types.MetricSample) map[types.MetricKind][]types.MetricSample {
	byKind := make(map[types.MetricKind][]types.MetricSample)
	for _, s := range samples {
		byKind[s.Kind] = append(byKind[s.Kind], s)
	}
	return byKind
}

func sortedValues(samples []types.MetricSample) []float64 {
	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.Value
	}
	sort.Float64s(values)
	return values
}

// chronologicalValues keeps the ordered series for window-consistency checks
func chronologicalValues(samples []types.MetricSample) []float64 {
	ordered := make([]types.MetricSample, len(samples))
	copy(ordered, samples)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})
	values := make([]float64, len(ordered))
	for i, s := range ordered {
		values[i] = s.Value
	}
	return values
}

func summarize(sorted []float64, configuredPercentile float64) types.MetricStats {
	if len(sorted) == 0 {
		return types.MetricStats{}
	}
	return types.MetricStats{
		Datapoints: len(sorted),
		Mean:       mean(sorted),
		Max:        sorted[len(sorted)-1],
		Min:        sorted[0],
		P50:        percentile(sorted, 50),
		P95:        percentile(sorted, 95),
		P99:        percentile(sorted, 99),
		Percentile: percentile(sorted, configuredPercentile),
	}
}

// percentile computes the rank-P value over pre-sorted values using linear
// interpolation between the two nearest ranks.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := (p / 100.0) * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))

	if lower == upper {
		return sorted[lower]
	}

	fraction := rank - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*fraction
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
