package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cloudtrim/rightsizer/config"
	"github.com/cloudtrim/rightsizer/orchestrator"
	"github.com/cloudtrim/rightsizer/report"
	"github.com/cloudtrim/rightsizer/storage"
)

var (
	historyLimit    int
	historySequence int64
	historyFormat   string
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived analysis runs",
	Long: `List past analysis runs from the run archive, or re-render one
stored run in any report format.

Requires reporting.history_path to be set; the daemon archives each
pass there.`,
	Example: `  rightsizer history                   # List recent runs
  rightsizer history --limit 5         # Last five runs
  rightsizer history --run 12          # Re-render run 12
  rightsizer history --run 12 -f json  # ...as JSON`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of runs to list")
	historyCmd.Flags().Int64Var(&historySequence, "run", 0, "Re-render one archived run by sequence number")
	historyCmd.Flags().StringVarP(&historyFormat, "format", "f", "console", "Output format when re-rendering: console, json, csv, html")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Reporting.HistoryPath == "" {
		return fmt.Errorf("reporting.history_path is not configured")
	}

	history, err := storage.OpenRunLog(cfg.Reporting.HistoryPath)
	if err != nil {
		return err
	}
	defer func() { _ = history.Close() }()

	if historySequence > 0 {
		return renderArchivedRun(history, historySequence)
	}
	return listRuns(history)
}

func listRuns(history *storage.RunLog) error {
	records, err := history.Recent(historyLimit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No archived runs.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tGENERATED\tANALYZED\tRECOMMENDATIONS\tSKIPPED\tMONTHLY SAVINGS")
	for _, record := range records {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t$%.2f\n",
			record.Sequence,
			record.GeneratedAt.Format("2006-01-02 15:04"),
			record.Analyzed,
			record.Recommendations,
			record.Skipped,
			record.MonthlySavings)
	}
	return tw.Flush()
}

func renderArchivedRun(history *storage.RunLog, sequence int64) error {
	record, err := history.Get(sequence)
	if err != nil {
		return err
	}

	var result orchestrator.RunResult
	if err := json.Unmarshal(record.Result, &result); err != nil {
		return fmt.Errorf("failed to decode archived run: %w", err)
	}

	renderer, err := report.New(report.Format(historyFormat))
	if err != nil {
		return err
	}
	return renderer.Render(os.Stdout, &result)
}
