// Command pipeline runs the full manufacturing quality analysis:
// load raw data, validate, preprocess, compute KPIs, write reports and
// render figures. When DATABASE_URL is set the run is also recorded in the
// run-history store.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/sensorlab/mfgqc/internal/config"
	"github.com/sensorlab/mfgqc/internal/dataset"
	"github.com/sensorlab/mfgqc/internal/feature"
	"github.com/sensorlab/mfgqc/internal/kpi"
	"github.com/sensorlab/mfgqc/internal/logging"
	"github.com/sensorlab/mfgqc/internal/schema"
	"github.com/sensorlab/mfgqc/internal/store"
	"github.com/sensorlab/mfgqc/internal/validator"
	"github.com/sensorlab/mfgqc/internal/viz"
)

func main() {
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if err := run(cfg); err != nil {
		slog.Error("pipeline failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()
	sch := schema.Default()
	sch.QuantileLow = cfg.Analysis.QuantileLow
	sch.QuantileHigh = cfg.Analysis.QuantileHigh

	runID := uuid.New()
	startedAt := time.Now()
	logger := logging.WithFields(ctx, "run_id", runID.String())
	logger.Info("pipeline starting", "source", cfg.Data.RawCSV)

	// Step 1: load
	raw, err := dataset.Load(cfg.Data.RawCSV)
	if err != nil {
		return err
	}
	logger.Info("data loaded", "records", raw.NumRows(), "columns", raw.NumColumns())

	// Step 2: validate. FAIL checks are a strong signal but the run
	// continues; the complete battery always executes.
	v := validator.New(raw, sch)
	results := v.RunAllChecks()

	var passCount, warnCount, failCount int
	for _, r := range results {
		switch r.Status {
		case validator.StatusPass:
			passCount++
		case validator.StatusWarn:
			warnCount++
		default:
			failCount++
		}
	}
	logger.Info("validation complete", "pass", passCount, "warn", warnCount, "fail", failCount)

	sourceName := filepath.Base(cfg.Data.RawCSV)
	validationPath := filepath.Join(cfg.Reports.Dir, "validation_report.md")
	if err := dataset.SaveMarkdown(v.Report(sourceName), validationPath); err != nil {
		return err
	}
	logger.Info("validation report written", "path", validationPath)

	// Step 3: preprocess
	processed, err := feature.Preprocess(raw, sch)
	if err != nil {
		return err
	}
	if err := dataset.SaveCSV(processed, cfg.Data.ProcessedCSV); err != nil {
		return err
	}
	logger.Info("derived features added", "columns", processed.NumColumns(), "path", cfg.Data.ProcessedCSV)

	// Step 4: KPIs
	summary, err := kpi.Summary(processed, sch)
	if err != nil {
		return err
	}
	summaryPath := filepath.Join(cfg.Reports.Dir, "summary.md")
	if err := dataset.SaveMarkdown(summary, summaryPath); err != nil {
		return err
	}

	overall, err := kpi.OverallFailureRate(processed, sch)
	if err != nil {
		return err
	}
	logger.Info("kpi summary written",
		"path", summaryPath,
		"total_records", overall.TotalRecords,
		"total_failures", overall.FailureCount,
		"failure_rate_pct", overall.FailureRatePct,
	)

	// Step 5: figures
	if err := viz.GenerateAll(processed, sch, cfg.Reports.FiguresDir); err != nil {
		return err
	}
	logger.Info("figures rendered", "dir", cfg.Reports.FiguresDir)

	// Optional: record the run
	if cfg.Database.URL != "" {
		if err := recordRun(ctx, cfg, store.RunRecord{
			ID:           runID,
			SourceFile:   sourceName,
			StartedAt:    startedAt,
			FinishedAt:   time.Now(),
			TotalRecords: overall.TotalRecords,
			FailureCount: overall.FailureCount,
			FailureRate:  overall.FailureRate,
			PassCount:    passCount,
			WarnCount:    warnCount,
			FailCount:    failCount,
		}, results); err != nil {
			// Persistence is best effort; the reports already exist.
			logger.Warn("failed to record run history", "error", err)
		} else {
			logger.Info("run recorded")
		}
	}

	logger.Info("pipeline complete", "duration", time.Since(startedAt))
	return nil
}

func recordRun(ctx context.Context, cfg *config.Config, run store.RunRecord, results []validator.Result) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
	defer cancel()

	st, err := store.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer st.Close()

	return st.SaveRun(ctx, run, results)
}
