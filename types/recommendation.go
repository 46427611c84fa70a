package types

import "fmt"

// RecommendationKind tags the decision variants. One decision function per
// variant lives in the recommender package.
type RecommendationKind string

const (
	RecommendDownsize     RecommendationKind = "downsize"
	RecommendFamilySwitch RecommendationKind = "family_switch"
	RecommendReservation  RecommendationKind = "reservation_purchase"
	RecommendNoAction     RecommendationKind = "no_action"
)

// Reservation term and payment options, passed through from configuration
const (
	PaymentNoUpfront      = "no-upfront"
	PaymentPartialUpfront = "partial-upfront"
	PaymentAllUpfront     = "all-upfront"
)

// SupportingMetric records which statistic justified a recommendation
type SupportingMetric struct {
	Kind  MetricKind `json:"kind"`
	Stat  string     `json:"stat"` // e.g. "p95"
	Value float64    `json:"value"`
}

// Recommendation is one priced sizing or purchase suggestion. Created by a
// recommender, enriched by the savings calculator, immutable once assembled.
type Recommendation struct {
	ResourceID string             `json:"resource_id,omitempty"`
	Name       string             `json:"name,omitempty"`
	Region     string             `json:"region"`
	Kind       RecommendationKind `json:"kind"`

	Current  InstanceType `json:"current"`
	Proposed InstanceType `json:"proposed"`

	// Reservation fields
	Count         int      `json:"count,omitempty"`
	TermYears     int      `json:"term_years,omitempty"`
	PaymentOption string   `json:"payment_option,omitempty"`
	MemberIDs     []string `json:"member_ids,omitempty"`

	Metric SupportingMetric `json:"metric"`
	Reason string           `json:"reason"`

	// Money values, rounded to cents exactly once by the calculator
	CurrentMonthlyCost  float64 `json:"current_monthly_cost"`
	ProposedMonthlyCost float64 `json:"proposed_monthly_cost"`
	MonthlySavings      float64 `json:"monthly_savings"`
	AnnualSavings       float64 `json:"annual_savings"`
	UpfrontCost         float64 `json:"upfront_cost,omitempty"`
	BreakEvenMonths     int     `json:"break_even_months,omitempty"`
}

// Validate ensures the recommendation is internally coherent
func (r *Recommendation) Validate() error {
	if r.Kind == "" {
		return fmt.Errorf("recommendation kind cannot be empty")
	}
	if r.Kind != RecommendReservation && r.ResourceID == "" {
		return fmt.Errorf("recommendation resource ID cannot be empty")
	}
	if r.Kind == RecommendReservation && r.Count <= 0 {
		return fmt.Errorf("reservation count must be positive, got %d", r.Count)
	}
	if r.Reason == "" {
		return fmt.Errorf("recommendation reason cannot be empty")
	}
	return nil
}

// ReservationGroup is a set of resources sharing (region, instance type),
// aggregated for reservation purchase analysis.
type ReservationGroup struct {
	Region       string        `json:"region"`
	InstanceType InstanceType  `json:"instance_type"`
	Members      []GroupMember `json:"members"`
}

// GroupMember pairs a member resource with its utilization profile
type GroupMember struct {
	ResourceID string
	Name       string
	Profile    *UtilizationProfile
}

// GroupKey identifies a reservation group
func (g *ReservationGroup) GroupKey() string {
	return g.Region + "/" + g.InstanceType.Name()
}
