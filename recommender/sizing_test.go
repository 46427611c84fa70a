package recommender

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudtrim/rightsizer/config"
	"github.com/cloudtrim/rightsizer/cost"
	"github.com/cloudtrim/rightsizer/types"
)

// fixedBook serves a fixed on-demand price table
type fixedBook struct {
	rates map[string]float64
}

func (b *fixedBook) OnDemandHourly(_ context.Context, it types.InstanceType, _ string) (float64, error) {
	rate, ok := b.rates[it.Name()]
	if !ok {
		return 0, fmt.Errorf("no price for %s", it.Name())
	}
	return rate, nil
}

func (b *fixedBook) ReservedHourly(ctx context.Context, it types.InstanceType, region string, _ int, _ string) (float64, error) {
	rate, err := b.OnDemandHourly(ctx, it, region)
	if err != nil {
		return 0, err
	}
	return rate * 0.65, nil
}

func testBook() *fixedBook {
	return &fixedBook{rates: map[string]float64{
		"m5.large":   0.096,
		"m5.xlarge":  0.192,
		"m5.2xlarge": 0.384,
		"m5a.large":  0.086,
		"m5a.xlarge": 0.172,
		"t3.medium":  0.0416,
	}}
}

func testCatalog() []types.InstanceType {
	return []types.InstanceType{
		{Family: "m5", Size: "large", VCPU: 2, MemoryMiB: 8192},
		{Family: "m5", Size: "xlarge", VCPU: 4, MemoryMiB: 16384},
		{Family: "m5", Size: "2xlarge", VCPU: 8, MemoryMiB: 32768},
		{Family: "m5a", Size: "large", VCPU: 2, MemoryMiB: 8192},
		{Family: "m5a", Size: "xlarge", VCPU: 4, MemoryMiB: 16384},
		{Family: "t3", Size: "medium", VCPU: 2, MemoryMiB: 4096},
	}
}

func sizingConfig() config.SizingConfig {
	return config.SizingConfig{
		CPUUnderutilizedThreshold: 20.0,
		MinSavingsThreshold:       10.0,
		SafetyMargin:              1.2,
		AllowedFamilies:           []string{"m5a", "t3a"},
	}
}

func profileWithCPU(p95, max float64) *types.UtilizationProfile {
	return &types.UtilizationProfile{
		SufficientData: true,
		Metrics: map[types.MetricKind]types.MetricStats{
			types.MetricCPU: {Datapoints: 100, P95: p95, Max: max, Mean: p95 * 0.6},
		},
	}
}

func ec2Resource(id, typeName string) types.ResourceConfig {
	it, err := types.ParseInstanceType(typeName)
	if err != nil {
		panic(err)
	}
	for _, c := range testCatalog() {
		if c.Name() == typeName {
			it = c
		}
	}
	return types.ResourceConfig{
		ID:           id,
		Name:         id,
		Kind:         types.KindEC2,
		Region:       "us-east-1",
		InstanceType: it,
	}
}

func TestSizing_DownsizeScenario(t *testing.T) {
	// m5.xlarge at P95 18.5% with peak fitting m5.large expects a downsize
	// with positive monthly savings
	s := NewSizing(cost.NewCalculator(testBook()), sizingConfig())

	rec, err := s.Recommend(context.Background(), ec2Resource("i-1", "m5.xlarge"),
		profileWithCPU(18.5, 35.0), testCatalog())
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, types.RecommendDownsize, rec.Kind)
	assert.Equal(t, "m5.large", rec.Proposed.Name())
	assert.Greater(t, rec.MonthlySavings, 0.0)
	assert.InDelta(t, 70.08, rec.MonthlySavings, 0.001)
	assert.Equal(t, "p95", rec.Metric.Stat)
	assert.InDelta(t, 18.5, rec.Metric.Value, 0.001)
}

func TestSizing_ThresholdIsExclusive(t *testing.T) {
	s := NewSizing(cost.NewCalculator(testBook()), sizingConfig())
	res := ec2Resource("i-1", "m5.xlarge")

	// Exactly at the threshold: no downsize
	rec, err := s.Recommend(context.Background(), res, profileWithCPU(20.0, 35.0), testCatalog())
	require.NoError(t, err)
	assert.Nil(t, rec)

	// Just under: downsized
	rec, err = s.Recommend(context.Background(), res, profileWithCPU(19.99, 35.0), testCatalog())
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, types.RecommendDownsize, rec.Kind)
}

func TestSizing_InsufficientDataNeverRecommends(t *testing.T) {
	s := NewSizing(cost.NewCalculator(testBook()), sizingConfig())

	profile := profileWithCPU(5.0, 10.0)
	profile.SufficientData = false

	rec, err := s.Recommend(context.Background(), ec2Resource("i-1", "m5.xlarge"), profile, testCatalog())
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSizing_HeadroomRuleUsesPeak(t *testing.T) {
	s := NewSizing(cost.NewCalculator(testBook()), sizingConfig())

	// P95 is low but peak is high: 4 vCPU * 0.80 * 1.2 = 3.84 needed,
	// m5.large's 2 vCPU cannot cover it, so no downsize; the family
	// switch to m5a.xlarge still applies
	rec, err := s.Recommend(context.Background(), ec2Resource("i-1", "m5.xlarge"),
		profileWithCPU(15.0, 80.0), testCatalog())
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, types.RecommendFamilySwitch, rec.Kind)
	assert.Equal(t, "m5a.xlarge", rec.Proposed.Name())
}

func TestSizing_DownsizeWinsOverFamilySwitch(t *testing.T) {
	// Both qualify; downsize saves $70.08/mo vs $14.60/mo for the switch
	s := NewSizing(cost.NewCalculator(testBook()), sizingConfig())

	rec, err := s.Recommend(context.Background(), ec2Resource("i-1", "m5.xlarge"),
		profileWithCPU(18.0, 30.0), testCatalog())
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, types.RecommendDownsize, rec.Kind)
}

func TestSizing_SmallestInFamilyFallsThroughToFamilySwitch(t *testing.T) {
	cfg := sizingConfig()
	cfg.MinSavingsThreshold = 5.0 // m5.large -> m5a.large saves $7.30/mo
	s := NewSizing(cost.NewCalculator(testBook()), cfg)

	rec, err := s.Recommend(context.Background(), ec2Resource("i-1", "m5.large"),
		profileWithCPU(10.0, 20.0), testCatalog())
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, types.RecommendFamilySwitch, rec.Kind)
	assert.Equal(t, "m5a.large", rec.Proposed.Name())
}

func TestSizing_MinSavingsThresholdFiltersBoth(t *testing.T) {
	cfg := sizingConfig()
	cfg.MinSavingsThreshold = 500.0
	s := NewSizing(cost.NewCalculator(testBook()), cfg)

	rec, err := s.Recommend(context.Background(), ec2Resource("i-1", "m5.xlarge"),
		profileWithCPU(18.0, 30.0), testCatalog())
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSizing_DisallowedFamilyNotProposed(t *testing.T) {
	cfg := sizingConfig()
	cfg.AllowedFamilies = nil
	s := NewSizing(cost.NewCalculator(testBook()), cfg)

	rec, err := s.Recommend(context.Background(), ec2Resource("i-1", "m5.large"),
		profileWithCPU(10.0, 20.0), testCatalog())
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSizing_ASGManagedSkipped(t *testing.T) {
	s := NewSizing(cost.NewCalculator(testBook()), sizingConfig())

	res := ec2Resource("i-asg", "m5.xlarge")
	res.ASGManaged = true

	rec, err := s.Recommend(context.Background(), res, profileWithCPU(10.0, 20.0), testCatalog())
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSizing_PricingFailurePropagates(t *testing.T) {
	book := &fixedBook{rates: map[string]float64{}} // every lookup fails
	s := NewSizing(cost.NewCalculator(book), sizingConfig())

	_, err := s.Recommend(context.Background(), ec2Resource("i-1", "m5.xlarge"),
		profileWithCPU(18.5, 35.0), testCatalog())
	assert.Error(t, err)
}
