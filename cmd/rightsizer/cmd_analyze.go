package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloudtrim/rightsizer/config"
	"github.com/cloudtrim/rightsizer/orchestrator"
	awsprovider "github.com/cloudtrim/rightsizer/providers/aws"
	"github.com/cloudtrim/rightsizer/report"
	"github.com/cloudtrim/rightsizer/types"
)

var (
	analyzeResources string
	analyzeFormat    string
	analyzeLookback  int
	analyzeSave      bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one analysis pass and report savings opportunities",
	Long: `Analyze utilization across the configured regions and print
recommendations: downsizing, family switches and reservation purchases.

A resource with too little metric history is skipped, never guessed at.
Failures against a single resource or region degrade the run instead of
aborting it.`,
	Example: `  rightsizer analyze                          # Analyze everything
  rightsizer analyze --resources ec2          # EC2 instances only
  rightsizer analyze --lookback-days 14       # Shorter window
  rightsizer analyze --format json            # Machine-readable output
  rightsizer analyze --format html --save     # Write report to output dir`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeResources, "resources", "r", "", "Comma-separated resource kinds to analyze (ec2,rds); empty means all")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "", "Output format: console, json, csv, html (overrides config)")
	analyzeCmd.Flags().IntVar(&analyzeLookback, "lookback-days", 0, "Lookback window in days (overrides config)")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "Also write the report to the configured output directory")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	kinds, err := parseKinds(analyzeResources)
	if err != nil {
		return err
	}

	engine, book, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = book.Close() }()

	result, err := engine.Run(ctx, orchestrator.RunOptions{
		Kinds:        kinds,
		LookbackDays: analyzeLookback,
	})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	format := report.Format(cfg.Reporting.Format)
	if analyzeFormat != "" {
		format = report.Format(analyzeFormat)
	}

	if analyzeSave {
		outputDir := cfg.Reporting.OutputDir
		if outputDir == "" {
			outputDir = "."
		}
		path, err := report.Save(result, outputDir, format)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", path)
	}

	renderer, err := report.New(format)
	if err != nil {
		return err
	}
	return renderer.Render(os.Stdout, result)
}

// parseKinds converts the --resources flag into resource kinds
func parseKinds(flag string) ([]types.ResourceKind, error) {
	if flag == "" {
		return nil, nil
	}

	var kinds []types.ResourceKind
	for _, part := range strings.Split(flag, ",") {
		switch strings.TrimSpace(strings.ToLower(part)) {
		case "ec2":
			kinds = append(kinds, types.KindEC2)
		case "rds":
			kinds = append(kinds, types.KindRDS)
		default:
			return nil, fmt.Errorf("unknown resource kind %q (supported: ec2, rds)", part)
		}
	}
	return kinds, nil
}

// buildEngine wires the AWS collaborators into an orchestrator
func buildEngine(ctx context.Context, cfg *config.Config) (*orchestrator.Orchestrator, *awsprovider.PriceBook, error) {
	provider, err := awsprovider.NewProvider(ctx, cfg.AWS.Regions)
	if err != nil {
		return nil, nil, err
	}

	pricingClient, err := awsprovider.NewPricingClient(ctx)
	if err != nil {
		return nil, nil, err
	}

	book, err := awsprovider.NewPriceBook(pricingClient, cfg.Pricing)
	if err != nil {
		return nil, nil, err
	}

	return orchestrator.New(cfg, provider, provider, provider, book), book, nil
}
