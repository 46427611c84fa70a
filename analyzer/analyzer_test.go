package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudtrim/rightsizer/config"
	"github.com/cloudtrim/rightsizer/types"
)

func analysisConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		LookbackDays:  30,
		CPUPercentile: 95,
		MinDatapoints: 20,
	}
}

func cpuSamples(resourceID string, values []float64) []types.MetricSample {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	samples := make([]types.MetricSample, len(values))
	for i, v := range values {
		samples[i] = types.MetricSample{
			Timestamp:  base.Add(time.Duration(i) * time.Hour),
			Kind:       types.MetricCPU,
			Value:      v,
			ResourceID: resourceID,
		}
	}
	return samples
}

func TestBuildProfile_Basic(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i + 1) // 1..100
	}

	window := types.LookbackWindow(30, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	profile := BuildProfile("i-abc", "us-east-1", window, cpuSamples("i-abc", values), analysisConfig())

	cpu, ok := profile.CPU()
	require.True(t, ok)
	assert.Equal(t, 100, cpu.Datapoints)
	assert.InDelta(t, 50.5, cpu.Mean, 0.001)
	assert.Equal(t, 100.0, cpu.Max)
	assert.Equal(t, 1.0, cpu.Min)
	assert.InDelta(t, 50.5, cpu.P50, 0.001)
	assert.InDelta(t, 95.05, cpu.P95, 0.001)
	assert.True(t, profile.SufficientData)
	assert.Len(t, profile.CPUValues, 100)
}

func TestBuildProfile_PercentileMonotonicity(t *testing.T) {
	// P50 <= P95 <= P99 must hold for any sample set
	sets := [][]float64{
		{1, 2, 3, 4, 5},
		{10, 10, 10, 10},
		{0.1, 99.9, 50, 3, 70, 12, 0.5, 88},
		{42},
	}

	for _, values := range sets {
		window := types.Window{}
		profile := BuildProfile("i-x", "us-east-1", window, cpuSamples("i-x", values), analysisConfig())
		cpu, ok := profile.CPU()
		require.True(t, ok)
		assert.LessOrEqual(t, cpu.P50, cpu.P95)
		assert.LessOrEqual(t, cpu.P95, cpu.P99)
		assert.LessOrEqual(t, cpu.P99, cpu.Max)
		assert.LessOrEqual(t, cpu.Min, cpu.P50)
	}
}

func TestBuildProfile_InsufficientData(t *testing.T) {
	profile := BuildProfile("i-sparse", "us-east-1", types.Window{},
		cpuSamples("i-sparse", []float64{5, 10, 7, 3, 8}), analysisConfig())

	cpu, ok := profile.CPU()
	require.True(t, ok)
	assert.Equal(t, 5, cpu.Datapoints)
	assert.False(t, profile.SufficientData)
	assert.False(t, profile.Actionable())
}

func TestBuildProfile_NoCPUMetric(t *testing.T) {
	samples := []types.MetricSample{
		{Kind: types.MetricNetworkIn, Value: 1000, ResourceID: "i-net"},
	}
	profile := BuildProfile("i-net", "us-east-1", types.Window{}, samples, analysisConfig())

	_, ok := profile.CPU()
	assert.False(t, ok)
	assert.False(t, profile.SufficientData)
}

func TestBuildProfile_Deterministic(t *testing.T) {
	values := []float64{33, 7, 91, 15, 62, 48, 5, 77, 21, 56, 33, 7, 91, 15, 62, 48, 5, 77, 21, 56}

	a := BuildProfile("i-d", "us-east-1", types.Window{}, cpuSamples("i-d", values), analysisConfig())
	b := BuildProfile("i-d", "us-east-1", types.Window{}, cpuSamples("i-d", values), analysisConfig())

	assert.Equal(t, a.Metrics, b.Metrics)
	assert.Equal(t, a.CPUValues, b.CPUValues)
}

func TestBuildProfile_ConfiguredPercentile(t *testing.T) {
	cfg := analysisConfig()
	cfg.CPUPercentile = 50

	values := make([]float64, 21)
	for i := range values {
		values[i] = float64(i * 5) // 0..100
	}

	profile := BuildProfile("i-p", "us-east-1", types.Window{}, cpuSamples("i-p", values), cfg)
	cpu, _ := profile.CPU()
	assert.InDelta(t, cpu.P50, cpu.Percentile, 0.0001)
}

func TestConsistentThroughout(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		floor  float64
		want   bool
	}{
		{name: "all above", values: []float64{81, 85, 92, 80}, floor: 80, want: true},
		{name: "one dip disqualifies", values: []float64{90, 95, 40, 91}, floor: 80, want: false},
		{name: "high average but bursty", values: []float64{100, 100, 10, 100}, floor: 80, want: false},
		{name: "exactly at floor", values: []float64{80, 80}, floor: 80, want: true},
		{name: "empty", values: nil, floor: 80, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConsistentThroughout(tt.values, tt.floor))
		})
	}
}

func TestFractionAtOrAbove(t *testing.T) {
	assert.Equal(t, 0.75, FractionAtOrAbove([]float64{90, 85, 70, 95}, 80))
	assert.Equal(t, 0.0, FractionAtOrAbove(nil, 80))
	assert.Equal(t, 1.0, FractionAtOrAbove([]float64{80}, 80))
}
