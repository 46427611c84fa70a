package cost

import (
	"context"
	"fmt"
	"math"

	"github.com/cloudtrim/rightsizer/types"
)

// Billing constants
const (
	HoursPerMonth = 730.0
	HoursPerYear  = HoursPerMonth * 12
)

// PriceBook is the pricing collaborator contract. Implementations look up
// rates per configuration and region.
type PriceBook interface {
	// OnDemandHourly returns the on-demand hourly USD rate
	OnDemandHourly(ctx context.Context, instanceType types.InstanceType, region string) (float64, error)

	// ReservedHourly returns the effective hourly USD rate under a
	// reservation with the given term and payment option
	ReservedHourly(ctx context.Context, instanceType types.InstanceType, region string, termYears int, paymentOption string) (float64, error)
}

// upfrontFraction maps a payment option to the share of the reserved term
// cost paid at purchase time
func upfrontFraction(paymentOption string) float64 {
	switch paymentOption {
	case types.PaymentAllUpfront:
		return 1.0
	case types.PaymentPartialUpfront:
		return 0.5
	default: // no-upfront
		return 0
	}
}

// Calculator prices recommendations. All internal math runs at full float
// precision; rounding to cents happens exactly once, at the boundary.
type Calculator struct {
	book PriceBook
}

// NewCalculator creates a savings calculator over a price book
func NewCalculator(book PriceBook) *Calculator {
	return &Calculator{book: book}
}

// PriceSizing enriches a downsize or family-switch recommendation with
// monthly and annual savings. The second return is false when the savings
// are zero or negative; such recommendations are never surfaced.
func (c *Calculator) PriceSizing(ctx context.Context, rec types.Recommendation) (types.Recommendation, bool, error) {
	currentHourly, err := c.book.OnDemandHourly(ctx, rec.Current, rec.Region)
	if err != nil {
		return rec, false, fmt.Errorf("pricing current type %s: %w", rec.Current.Name(), err)
	}
	proposedHourly, err := c.book.OnDemandHourly(ctx, rec.Proposed, rec.Region)
	if err != nil {
		return rec, false, fmt.Errorf("pricing proposed type %s: %w", rec.Proposed.Name(), err)
	}

	monthly := (currentHourly - proposedHourly) * HoursPerMonth
	if monthly <= 0 {
		return rec, false, nil
	}

	rec.CurrentMonthlyCost = roundCents(currentHourly * HoursPerMonth)
	rec.ProposedMonthlyCost = roundCents(proposedHourly * HoursPerMonth)
	rec.MonthlySavings = roundCents(monthly)
	rec.AnnualSavings = roundCents(monthly * 12)
	return rec, true, nil
}

// PriceReservation enriches a reservation-purchase recommendation with
// savings, upfront payment and break-even month. The second return is false
// when the reservation would not save money.
func (c *Calculator) PriceReservation(ctx context.Context, rec types.Recommendation) (types.Recommendation, bool, error) {
	onDemandHourly, err := c.book.OnDemandHourly(ctx, rec.Current, rec.Region)
	if err != nil {
		return rec, false, fmt.Errorf("pricing on-demand %s: %w", rec.Current.Name(), err)
	}
	reservedHourly, err := c.book.ReservedHourly(ctx, rec.Current, rec.Region, rec.TermYears, rec.PaymentOption)
	if err != nil {
		return rec, false, fmt.Errorf("pricing reserved %s: %w", rec.Current.Name(), err)
	}

	count := float64(rec.Count)
	onDemandAnnual := onDemandHourly * HoursPerYear * count
	reservedAnnual := reservedHourly * HoursPerYear * count

	annualSavings := onDemandAnnual - reservedAnnual
	if annualSavings <= 0 {
		return rec, false, nil
	}

	termMonths := rec.TermYears * 12
	reservedTermCost := reservedAnnual * float64(rec.TermYears)
	upfront := reservedTermCost * upfrontFraction(rec.PaymentOption)

	rec.CurrentMonthlyCost = roundCents(onDemandAnnual / 12)
	rec.ProposedMonthlyCost = roundCents(reservedAnnual / 12)
	rec.MonthlySavings = roundCents(annualSavings / 12)
	rec.AnnualSavings = roundCents(annualSavings)
	rec.UpfrontCost = roundCents(upfront)
	rec.BreakEvenMonths = breakEvenMonth(onDemandAnnual/12, upfront, (reservedTermCost-upfront)/float64(termMonths), termMonths)
	return rec, true, nil
}

// breakEvenMonth finds the smallest month at which cumulative on-demand
// spend would have exceeded upfront plus amortized reserved cost
func breakEvenMonth(onDemandMonthly, upfront, amortizedMonthly float64, termMonths int) int {
	for month := 1; month <= termMonths; month++ {
		onDemand := onDemandMonthly * float64(month)
		reserved := upfront + amortizedMonthly*float64(month)
		if onDemand > reserved {
			return month
		}
	}
	return termMonths
}

// roundCents rounds a money value to two decimal places. Applied once per
// output field to avoid compounding rounding error.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
