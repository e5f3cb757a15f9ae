// Command processor runs the PLR batch pipeline: it discovers recording
// exports in the data directory, analyzes each one, and writes the
// summary, biomarker, and per-recording series reports.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"plrcli/internal/config"
	apperrors "plrcli/internal/errors"
	"plrcli/internal/infrastructure"
	"plrcli/internal/operations"
)

func main() {
	os.Exit(run())
}

func run() int {
	dataDir := flag.String("data", "", "input directory with recording exports (overrides config)")
	outDir := flag.String("out", "", "output directory for reports (overrides config)")
	configFile := flag.String("config", "", "path to YAML config file")
	workers := flag.Int("workers", 0, "number of concurrent recording workers (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		return 2
	}

	if *dataDir != "" {
		cfg.Paths.DataDir = *dataDir
	}
	if *outDir != "" {
		cfg.Paths.OutputDir = *outDir
	}
	if *workers > 0 {
		cfg.Processing.Workers = *workers
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	runID := uuid.NewString()
	ctx := infrastructure.WithRunID(context.Background(), runID)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.InfoContext(ctx, "Starting PLR batch run",
		slog.String("data_dir", cfg.GetDataDir()),
		slog.String("output_dir", cfg.GetOutputDir()),
		slog.Int("workers", cfg.Processing.Workers))

	state := operations.NewRunState(
		runID,
		cfg.GetDataDir(),
		cfg.GetOutputDir(),
		cfg.Processing.Workers,
		cfg.ToEngine(),
	)

	runner := operations.NewBatchRunner(logger)
	if err := runner.Run(ctx, state); err != nil {
		logger.ErrorContext(ctx, "Batch run failed", slog.String("error", err.Error()))
		return 1
	}

	analyzed := len(state.Results())
	rejected := state.Rejected()
	failures := state.Failures()

	logger.InfoContext(ctx, "Batch run finished",
		slog.Int("analyzed", analyzed),
		slog.Int("rejected", len(rejected)),
		slog.Int("failed", len(failures)))

	for _, err := range failures {
		logger.WarnContext(ctx, "Recording not analyzed",
			slog.String("recording_id", apperrors.RecordingID(err)),
			slog.String("code", apperrors.Code(err)))
	}

	fmt.Printf("Analyzed %d recordings (%d rejected, %d failed)\n",
		analyzed, len(rejected), len(failures))

	if analyzed == 0 && (len(rejected) > 0 || len(failures) > 0) {
		return 1
	}
	return 0
}
