package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/cloudtrim/rightsizer/orchestrator"
	"github.com/cloudtrim/rightsizer/types"
)

// ConsoleRenderer writes a terminal-friendly summary
type ConsoleRenderer struct{}

// Render writes the executive summary followed by the recommendation table
func (r *ConsoleRenderer) Render(w io.Writer, result *orchestrator.RunResult) error {
	fmt.Fprintf(w, "Cost Optimization Report\n")
	fmt.Fprintf(w, "Generated: %s\n", result.GeneratedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(w, "Window:    %s to %s (%d days)\n\n",
		result.Window.Start.Format("2006-01-02"),
		result.Window.End.Format("2006-01-02"),
		int(result.Window.Duration().Hours()/24))

	s := result.Summary
	fmt.Fprintf(w, "Resources analyzed:  %d\n", result.ResourcesAnalyzed)
	fmt.Fprintf(w, "Recommendations:     %d (%d rightsizing, %d reservations)\n",
		len(result.Recommendations), s.RightsizingCount, s.ReservationCount)
	fmt.Fprintf(w, "Skipped:             %d\n", len(result.Skips))
	fmt.Fprintf(w, "Projected savings:   $%.2f/month ($%.2f/year)\n\n",
		s.TotalMonthlySavings, s.TotalAnnualSavings)

	if len(result.Recommendations) == 0 {
		fmt.Fprintln(w, "No savings opportunities found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RESOURCE\tREGION\tACTION\tCURRENT\tPROPOSED\tMONTHLY\tANNUAL")
	for _, rec := range result.Recommendations {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t$%.2f\t$%.2f\n",
			resourceLabel(rec),
			rec.Region,
			actionLabel(rec),
			rec.Current.Name(),
			rec.Proposed.Name(),
			rec.MonthlySavings,
			rec.AnnualSavings)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(result.Skips) > 0 {
		fmt.Fprintf(w, "\nSkipped resources:\n")
		for _, skip := range result.Skips {
			detail := ""
			if skip.Detail != "" {
				detail = " (" + skip.Detail + ")"
			}
			fmt.Fprintf(w, "  %s [%s]: %s%s\n", skip.ResourceID, skip.Region, skip.Reason, detail)
		}
	}
	return nil
}

func resourceLabel(rec types.Recommendation) string {
	if rec.Kind == types.RecommendReservation {
		return fmt.Sprintf("%d instances", rec.Count)
	}
	if rec.Name != "" {
		return rec.Name
	}
	return rec.ResourceID
}

func actionLabel(rec types.Recommendation) string {
	switch rec.Kind {
	case types.RecommendDownsize:
		return "downsize"
	case types.RecommendFamilySwitch:
		return "switch family"
	case types.RecommendReservation:
		return fmt.Sprintf("reserve %dyr %s", rec.TermYears, rec.PaymentOption)
	default:
		return string(rec.Kind)
	}
}
