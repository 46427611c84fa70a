package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/cloudtrim/rightsizer/orchestrator"
	"github.com/cloudtrim/rightsizer/types"
)

// CSVRenderer writes recommendations as rows with summary trailers
type CSVRenderer struct{}

// Render writes the recommendation table followed by summary rows
func (r *CSVRenderer) Render(w io.Writer, result *orchestrator.RunResult) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"Resource ID",
		"Name",
		"Region",
		"Action",
		"Current Type",
		"Proposed Type",
		"Count",
		"Monthly Savings ($)",
		"Annual Savings ($)",
		"Upfront Cost ($)",
		"Break Even (months)",
		"Reason",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, rec := range result.Recommendations {
		count := ""
		if rec.Kind == types.RecommendReservation {
			count = fmt.Sprintf("%d", rec.Count)
		}
		row := []string{
			recResourceID(rec),
			rec.Name,
			rec.Region,
			string(rec.Kind),
			rec.Current.Name(),
			rec.Proposed.Name(),
			count,
			fmt.Sprintf("%.2f", rec.MonthlySavings),
			fmt.Sprintf("%.2f", rec.AnnualSavings),
			fmt.Sprintf("%.2f", rec.UpfrontCost),
			fmt.Sprintf("%d", rec.BreakEvenMonths),
			rec.Reason,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	s := result.Summary
	summaryRows := [][]string{
		{},
		{"SUMMARY"},
		{"Resources Analyzed", fmt.Sprintf("%d", result.ResourcesAnalyzed)},
		{"Rightsizing Recommendations", fmt.Sprintf("%d", s.RightsizingCount)},
		{"Reservation Recommendations", fmt.Sprintf("%d", s.ReservationCount)},
		{"Skipped Resources", fmt.Sprintf("%d", len(result.Skips))},
		{"Total Monthly Savings", fmt.Sprintf("$%.2f", s.TotalMonthlySavings)},
		{"Total Annual Savings", fmt.Sprintf("$%.2f", s.TotalAnnualSavings)},
	}
	for _, row := range summaryRows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}
	return nil
}

func recResourceID(rec types.Recommendation) string {
	if rec.Kind == types.RecommendReservation {
		return strings.Join(rec.MemberIDs, " ")
	}
	return rec.ResourceID
}
