package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/cloudtrim/rightsizer/config"
	"github.com/cloudtrim/rightsizer/orchestrator"
	awsprovider "github.com/cloudtrim/rightsizer/providers/aws"
	"github.com/cloudtrim/rightsizer/report"
	"github.com/cloudtrim/rightsizer/storage"
	"github.com/cloudtrim/rightsizer/telemetry"
)

var (
	daemonInterval    time.Duration
	daemonMetricsAddr string
)

// daemonCmd represents the daemon command
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run periodic analysis with a metrics endpoint",
	Long: `Run Rightsizer continuously, re-analyzing utilization at the
configured interval and exporting Prometheus metrics.

Reports are written to the configured output directory after each pass.
Shuts down gracefully on SIGTERM/SIGINT.`,
	Example: `  rightsizer daemon                      # Analyze every 6 hours
  rightsizer daemon --interval 1h        # Custom interval
  rightsizer daemon --metrics :2112      # Custom metrics address`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)

	daemonCmd.Flags().DurationVar(&daemonInterval, "interval", 6*time.Hour, "Analysis interval")
	daemonCmd.Flags().StringVar(&daemonMetricsAddr, "metrics", ":2112", "Metrics HTTP server address")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	shutdown, err := telemetry.InitOTEL(ctx, telemetry.Config{
		ServiceName:    "rightsizer",
		ServiceVersion: version,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	engine, book, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = book.Close() }()

	var history *storage.RunLog
	if cfg.Reporting.HistoryPath != "" {
		history, err = storage.OpenRunLog(cfg.Reporting.HistoryPath)
		if err != nil {
			return err
		}
		defer func() { _ = history.Close() }()
	}

	logger := telemetry.NewLogger("daemon")
	logger.Info().
		Dur("interval", daemonInterval).
		Str("metrics_addr", daemonMetricsAddr).
		Msg("starting daemon")

	var g run.Group
	g.Add(run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM))

	server := metricsServer(daemonMetricsAddr)
	g.Add(server.ListenAndServe, func(error) {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		_ = server.Shutdown(shutdownCtx)
	})

	loopCtx, loopCancel := context.WithCancel(ctx)
	g.Add(func() error {
		return analysisLoop(loopCtx, engine, cfg, history, book, logger)
	}, func(error) {
		loopCancel()
	})

	err = g.Run()

	var sig run.SignalError
	if errors.As(err, &sig) {
		logger.Info().Str("signal", sig.Signal.String()).Msg("daemon stopped")
		return nil
	}
	return err
}

// metricsServer serves Prometheus metrics and health endpoints
func metricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(telemetry.PrometheusRegistry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// analysisLoop runs one pass immediately, then on every tick
func analysisLoop(ctx context.Context, engine *orchestrator.Orchestrator, cfg *config.Config, history *storage.RunLog, book *awsprovider.PriceBook, logger *telemetry.Logger) error {
	ticker := time.NewTicker(daemonInterval)
	defer ticker.Stop()

	runOnce := func() {
		result, err := engine.Run(ctx, orchestrator.RunOptions{})
		if err != nil {
			logger.Error().Err(err).Msg("analysis pass failed")
			return
		}

		if err := book.PurgeExpired(); err != nil {
			logger.Warn().Err(err).Msg("price cache purge failed")
		}

		if history != nil {
			if err := archiveRun(history, result); err != nil {
				logger.Error().Err(err).Msg("failed to archive run")
			}
		}

		if cfg.Reporting.OutputDir != "" {
			path, err := report.Save(result, cfg.Reporting.OutputDir, report.Format(cfg.Reporting.Format))
			if err != nil {
				logger.Error().Err(err).Msg("failed to write report")
				return
			}
			logger.Info().Str("path", path).Msg("report written")
		}

		logger.Info().
			Int("recommendations", len(result.Recommendations)).
			Float64("monthly_savings", result.Summary.TotalMonthlySavings).
			Msg("analysis pass complete")
	}

	runOnce()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			runOnce()
		}
	}
}

// archiveRun stores one pass in the run archive
func archiveRun(history *storage.RunLog, result *orchestrator.RunResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	_, err = history.Append(storage.RunRecord{
		GeneratedAt:     result.GeneratedAt,
		Analyzed:        result.ResourcesAnalyzed,
		Recommendations: len(result.Recommendations),
		Skipped:         len(result.Skips),
		MonthlySavings:  result.Summary.TotalMonthlySavings,
		Result:          raw,
	})
	return err
}
