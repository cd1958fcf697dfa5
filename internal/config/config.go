// Package config provides centralized configuration for the analysis
// pipeline and report server. Settings load from environment variables with
// sensible defaults and are validated on startup to fail fast on
// misconfiguration.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Data     DataConfig
	Reports  ReportConfig
	Analysis AnalysisConfig
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
}

// DataConfig holds dataset file locations.
type DataConfig struct {
	// RawCSV is the path to the raw sensor dataset (default: data/raw/ai4i2020.csv)
	RawCSV string `env:"DATA_RAW_CSV" default:"data/raw/ai4i2020.csv"`

	// ProcessedCSV is where the derived dataset is written (default: data/processed/ai4i2020_processed.csv)
	ProcessedCSV string `env:"DATA_PROCESSED_CSV" default:"data/processed/ai4i2020_processed.csv"`
}

// ReportConfig holds report and figure output locations.
type ReportConfig struct {
	// Dir is the directory for markdown reports (default: reports)
	Dir string `env:"REPORTS_DIR" default:"reports"`

	// FiguresDir is the directory for rendered charts (default: reports/figures)
	FiguresDir string `env:"FIGURES_DIR" default:"reports/figures"`
}

// AnalysisConfig holds statistical analysis parameters.
type AnalysisConfig struct {
	// QuantileLow is the lower quantile for segmentation (default: 0.10)
	QuantileLow float64 `env:"ANALYSIS_QUANTILE_LOW" default:"0.10"`

	// QuantileHigh is the upper quantile for segmentation (default: 0.90)
	QuantileHigh float64 `env:"ANALYSIS_QUANTILE_HIGH" default:"0.90"`
}

// ServerConfig holds report server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds the optional run-history store settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. When empty, run history is
	// not persisted.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// ConnectTimeout is the maximum duration for the initial connection (default: 10s)
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" default:"10s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	if c.Data.RawCSV == "" {
		errs = append(errs, "DATA_RAW_CSV must not be empty")
	}
	if c.Reports.Dir == "" {
		errs = append(errs, "REPORTS_DIR must not be empty")
	}

	if c.Analysis.QuantileLow <= 0 || c.Analysis.QuantileLow >= 1 {
		errs = append(errs, fmt.Sprintf("ANALYSIS_QUANTILE_LOW (%g) must be in (0, 1)", c.Analysis.QuantileLow))
	}
	if c.Analysis.QuantileHigh <= 0 || c.Analysis.QuantileHigh >= 1 {
		errs = append(errs, fmt.Sprintf("ANALYSIS_QUANTILE_HIGH (%g) must be in (0, 1)", c.Analysis.QuantileHigh))
	}
	if c.Analysis.QuantileLow >= c.Analysis.QuantileHigh {
		errs = append(errs, fmt.Sprintf("ANALYSIS_QUANTILE_LOW (%g) must be less than ANALYSIS_QUANTILE_HIGH (%g)",
			c.Analysis.QuantileLow, c.Analysis.QuantileHigh))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	if c.Database.ConnectTimeout <= 0 {
		errs = append(errs, "DB_CONNECT_TIMEOUT must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// The database URL is masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Data: {RawCSV: %q}, ", c.Data.RawCSV))
	b.WriteString(fmt.Sprintf("Reports: {Dir: %q, FiguresDir: %q}, ", c.Reports.Dir, c.Reports.FiguresDir))
	b.WriteString(fmt.Sprintf("Analysis: {QuantileLow: %g, QuantileHigh: %g}, ",
		c.Analysis.QuantileLow, c.Analysis.QuantileHigh))
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	if c.Database.URL != "" {
		b.WriteString("Database: {URL: [MASKED]}, ")
	} else {
		b.WriteString("Database: {URL: \"\"}, ")
	}
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
