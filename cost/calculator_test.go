package cost

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudtrim/rightsizer/types"
)

// stubBook serves fixed hourly rates keyed by type name
type stubBook struct {
	onDemand map[string]float64
	discount float64 // reserved rate = onDemand * (1 - discount)
	err      error
}

func (b *stubBook) OnDemandHourly(_ context.Context, it types.InstanceType, _ string) (float64, error) {
	if b.err != nil {
		return 0, b.err
	}
	rate, ok := b.onDemand[it.Name()]
	if !ok {
		return 0, fmt.Errorf("no price for %s", it.Name())
	}
	return rate, nil
}

func (b *stubBook) ReservedHourly(ctx context.Context, it types.InstanceType, region string, _ int, _ string) (float64, error) {
	rate, err := b.OnDemandHourly(ctx, it, region)
	if err != nil {
		return 0, err
	}
	return rate * (1 - b.discount), nil
}

func TestPriceSizing_Downsize(t *testing.T) {
	book := &stubBook{onDemand: map[string]float64{
		"m5.xlarge": 0.192,
		"m5.large":  0.096,
	}}
	calc := NewCalculator(book)

	rec := types.Recommendation{
		ResourceID: "i-1",
		Region:     "us-east-1",
		Kind:       types.RecommendDownsize,
		Current:    types.InstanceType{Family: "m5", Size: "xlarge"},
		Proposed:   types.InstanceType{Family: "m5", Size: "large"},
		Reason:     "p95 cpu below threshold",
	}

	priced, ok, err := calc.PriceSizing(context.Background(), rec)
	require.NoError(t, err)
	require.True(t, ok)

	assert.InDelta(t, 70.08, priced.MonthlySavings, 0.001)
	assert.InDelta(t, 840.96, priced.AnnualSavings, 0.001)
	assert.InDelta(t, 140.16, priced.CurrentMonthlyCost, 0.001)
	assert.InDelta(t, 70.08, priced.ProposedMonthlyCost, 0.001)
}

func TestPriceSizing_NegativeSavingsSuppressed(t *testing.T) {
	book := &stubBook{onDemand: map[string]float64{
		"m5.large":   0.096,
		"m5a.large":  0.086,
		"m5.xlarge":  0.192,
		"c5.2xlarge": 0.34,
	}}
	calc := NewCalculator(book)

	tests := []struct {
		name     string
		current  string
		proposed string
	}{
		{name: "proposed more expensive", current: "m5.large", proposed: "m5.xlarge"},
		{name: "identical price", current: "m5.large", proposed: "m5.large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current, err := types.ParseInstanceType(tt.current)
			require.NoError(t, err)
			proposed, err := types.ParseInstanceType(tt.proposed)
			require.NoError(t, err)

			_, ok, err := calc.PriceSizing(context.Background(), types.Recommendation{
				Kind: types.RecommendDownsize, Region: "us-east-1",
				Current: current, Proposed: proposed,
			})
			require.NoError(t, err)
			assert.False(t, ok, "negative or zero savings must never surface")
		})
	}
}

func TestPriceSizing_PricingUnavailable(t *testing.T) {
	calc := NewCalculator(&stubBook{err: fmt.Errorf("rate limited")})

	_, ok, err := calc.PriceSizing(context.Background(), types.Recommendation{
		Current:  types.InstanceType{Family: "m5", Size: "large"},
		Proposed: types.InstanceType{Family: "m5", Size: "xlarge"},
	})
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestPriceReservation(t *testing.T) {
	book := &stubBook{
		onDemand: map[string]float64{"t3.medium": 0.0416},
		discount: 0.35,
	}
	calc := NewCalculator(book)

	rec := types.Recommendation{
		Region:        "us-east-1",
		Kind:          types.RecommendReservation,
		Current:       types.InstanceType{Family: "t3", Size: "medium"},
		Count:         3,
		TermYears:     1,
		PaymentOption: types.PaymentPartialUpfront,
		Reason:        "sustained utilization",
	}

	priced, ok, err := calc.PriceReservation(context.Background(), rec)
	require.NoError(t, err)
	require.True(t, ok)

	// on-demand: 0.0416 * 8760 * 3 = 1093.248/yr
	// reserved:  0.02704 * 8760 * 3 = 710.6112/yr
	assert.InDelta(t, 382.64, priced.AnnualSavings, 0.001)
	assert.InDelta(t, 31.89, priced.MonthlySavings, 0.001)
	// partial upfront pays half the reserved term cost at purchase
	assert.InDelta(t, 355.31, priced.UpfrontCost, 0.001)
	assert.Equal(t, 6, priced.BreakEvenMonths)
	assert.Equal(t, 3, priced.Count)
}

func TestPriceReservation_NoUpfront(t *testing.T) {
	book := &stubBook{
		onDemand: map[string]float64{"t3.medium": 0.0416},
		discount: 0.30,
	}
	calc := NewCalculator(book)

	priced, ok, err := calc.PriceReservation(context.Background(), types.Recommendation{
		Region:        "us-east-1",
		Kind:          types.RecommendReservation,
		Current:       types.InstanceType{Family: "t3", Size: "medium"},
		Count:         2,
		TermYears:     1,
		PaymentOption: types.PaymentNoUpfront,
	})
	require.NoError(t, err)
	require.True(t, ok)

	assert.Zero(t, priced.UpfrontCost)
	// With nothing upfront the reservation pays off from the first month
	assert.Equal(t, 1, priced.BreakEvenMonths)
}

func TestPriceReservation_NoDiscountSuppressed(t *testing.T) {
	book := &stubBook{
		onDemand: map[string]float64{"t3.medium": 0.0416},
		discount: 0, // reserved price equals on-demand
	}
	calc := NewCalculator(book)

	_, ok, err := calc.PriceReservation(context.Background(), types.Recommendation{
		Region:        "us-east-1",
		Kind:          types.RecommendReservation,
		Current:       types.InstanceType{Family: "t3", Size: "medium"},
		Count:         3,
		TermYears:     1,
		PaymentOption: types.PaymentAllUpfront,
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSummarize(t *testing.T) {
	recs := []types.Recommendation{
		{Kind: types.RecommendDownsize, Region: "us-east-1", MonthlySavings: 70.08, AnnualSavings: 840.96},
		{Kind: types.RecommendFamilySwitch, Region: "us-east-1", MonthlySavings: 10, AnnualSavings: 120},
		{Kind: types.RecommendReservation, Region: "eu-west-1", MonthlySavings: 31.89, AnnualSavings: 382.64},
	}

	s := Summarize(recs)

	assert.Equal(t, 2, s.RightsizingCount)
	assert.Equal(t, 1, s.ReservationCount)
	assert.InDelta(t, 80.08, s.RightsizingMonthly, 0.001)
	assert.InDelta(t, 111.97, s.TotalMonthlySavings, 0.001)
	assert.InDelta(t, 1343.60, s.TotalAnnualSavings, 0.001)
	assert.Equal(t, 1, s.ByStrategy[types.RecommendReservation])
	assert.Equal(t, 2, s.ByRegion["us-east-1"])
}

func TestRoundCents(t *testing.T) {
	assert.Equal(t, 70.08, roundCents(70.080000001))
	assert.Equal(t, 0.01, roundCents(0.005))
	assert.Equal(t, -1.23, roundCents(-1.234))
}
