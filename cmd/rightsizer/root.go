package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloudtrim/rightsizer/telemetry"
)

var (
	version    = "0.1.0"
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "rightsizer",
		Short: "Cloud cost optimization recommendation engine",
		Long: `Rightsizer - Cloud Cost Optimization Engine

Rightsizer analyzes the utilization of your running EC2 and RDS
instances over a lookback window and recommends cheaper configurations:
downsizing oversized instances, switching to cheaper families, and
purchasing reserved capacity for sustained workloads.

It only recommends. Nothing is ever changed in your account.`,
		Version: version,
		// Logs go to stderr; stdout carries the rendered report
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			telemetry.SetupCLI(debug)
		},
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(`Rightsizer {{.Version}} - Cloud Cost Optimization Engine
`)
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "rightsizer.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}
