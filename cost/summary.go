package cost

import "github.com/cloudtrim/rightsizer/types"

// Summary aggregates savings across a whole run
type Summary struct {
	RightsizingCount    int     `json:"rightsizing_count"`
	RightsizingMonthly  float64 `json:"rightsizing_monthly_savings"`
	RightsizingAnnual   float64 `json:"rightsizing_annual_savings"`
	ReservationCount    int     `json:"reservation_count"`
	ReservationMonthly  float64 `json:"reservation_monthly_savings"`
	ReservationAnnual   float64 `json:"reservation_annual_savings"`
	TotalMonthlySavings float64 `json:"total_monthly_savings"`
	TotalAnnualSavings  float64 `json:"total_annual_savings"`

	ByStrategy map[types.RecommendationKind]int `json:"by_strategy"`
	ByRegion   map[string]int                   `json:"by_region"`
}

// Summarize totals up a priced recommendation set
func Summarize(recommendations []types.Recommendation) Summary {
	s := Summary{
		ByStrategy: make(map[types.RecommendationKind]int),
		ByRegion:   make(map[string]int),
	}

	for _, rec := range recommendations {
		s.ByStrategy[rec.Kind]++
		s.ByRegion[rec.Region]++

		switch rec.Kind {
		case types.RecommendReservation:
			s.ReservationCount++
			s.ReservationMonthly += rec.MonthlySavings
			s.ReservationAnnual += rec.AnnualSavings
		case types.RecommendDownsize, types.RecommendFamilySwitch:
			s.RightsizingCount++
			s.RightsizingMonthly += rec.MonthlySavings
			s.RightsizingAnnual += rec.AnnualSavings
		}
	}

	s.TotalMonthlySavings = roundCents(s.RightsizingMonthly + s.ReservationMonthly)
	s.TotalAnnualSavings = roundCents(s.RightsizingAnnual + s.ReservationAnnual)
	s.RightsizingMonthly = roundCents(s.RightsizingMonthly)
	s.RightsizingAnnual = roundCents(s.RightsizingAnnual)
	s.ReservationMonthly = roundCents(s.ReservationMonthly)
	s.ReservationAnnual = roundCents(s.ReservationAnnual)
	return s
}
