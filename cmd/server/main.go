// Command server exposes the validation report, KPI aggregations and
// rendered figures over HTTP. The dataset is loaded and preprocessed once
// at startup; all endpoints are read-only over the in-memory table.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/sensorlab/mfgqc/internal/config"
	"github.com/sensorlab/mfgqc/internal/dataset"
	"github.com/sensorlab/mfgqc/internal/feature"
	"github.com/sensorlab/mfgqc/internal/logging"
	"github.com/sensorlab/mfgqc/internal/schema"
	"github.com/sensorlab/mfgqc/internal/store"
	"github.com/sensorlab/mfgqc/internal/web"
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

	sch := schema.Default()
	sch.QuantileLow = cfg.Analysis.QuantileLow
	sch.QuantileHigh = cfg.Analysis.QuantileHigh

	raw, err := dataset.Load(cfg.Data.RawCSV)
	if err != nil {
		slog.Error("failed to load dataset", "error", err)
		os.Exit(1)
	}

	processed, err := feature.Preprocess(raw, sch)
	if err != nil {
		slog.Error("failed to preprocess dataset", "error", err)
		os.Exit(1)
	}
	slog.Info("dataset ready", "records", processed.NumRows(), "columns", processed.NumColumns())

	// Run history is optional; the server works without it.
	var runs *store.Store
	if cfg.Database.URL != "" {
		connectCtx, cancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
		st, err := store.New(connectCtx, cfg.Database.URL)
		cancel()
		if err != nil {
			slog.Warn("run-history store unavailable", "error", err)
		} else {
			runs = st
			defer st.Close()
		}
	}

	server := web.NewServer(processed, sch, cfg, filepath.Base(cfg.Data.RawCSV), runs)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
