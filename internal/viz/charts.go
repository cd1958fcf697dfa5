// Package viz renders the analysis charts as standalone HTML files using
// go-echarts. Chart content mirrors the KPI aggregations; no statistics are
// computed here beyond what the kpi package exposes.
package viz

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/sensorlab/mfgqc/internal/dataset"
	"github.com/sensorlab/mfgqc/internal/kpi"
	"github.com/sensorlab/mfgqc/internal/schema"
)

// Figure file names, referenced by the report server.
const (
	FigFailureRateByType = "failure_rate_by_type.html"
	FigFailureModeCounts = "failure_mode_counts.html"
	FigTempDelta         = "temp_delta_vs_failure.html"
)

// GenerateAll renders every figure into dir, creating it if needed.
func GenerateAll(t *dataset.Table, s *schema.Schema, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create figures dir: %w", err)
	}

	if err := FailureRateByType(t, s, filepath.Join(dir, FigFailureRateByType)); err != nil {
		return err
	}
	if err := FailureModeCounts(t, s, filepath.Join(dir, FigFailureModeCounts)); err != nil {
		return err
	}
	return TempDeltaByFailure(t, s, filepath.Join(dir, FigTempDelta))
}

// FailureRateByType renders a bar chart of failure rate per product type.
func FailureRateByType(t *dataset.Table, s *schema.Schema, path string) error {
	byType, err := kpi.FailureRateByType(t, s)
	if err != nil {
		return fmt.Errorf("failure rate by type chart: %w", err)
	}

	var labels []string
	var values []opts.BarData
	for _, row := range byType {
		labels = append(labels, fmt.Sprintf("%s (n=%d)", row.Type, row.Count))
		values = append(values, opts.BarData{Value: row.FailureRatePct})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Failure Rate by Product Type",
			Subtitle: "L=Low, M=Medium, H=High quality tier",
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Failure rate (%)"}),
	)
	bar.SetXAxis(labels).AddSeries("Failure rate", values)

	return render(bar, path)
}

// FailureModeCounts renders a bar chart of occurrences per failure mode.
// Modes are multi-label, so counts can sum past the total failure count.
func FailureModeCounts(t *dataset.Table, s *schema.Schema, path string) error {
	modes, err := kpi.FailureModeCounts(t, s)
	if err != nil {
		return fmt.Errorf("failure mode chart: %w", err)
	}

	var labels []string
	var values []opts.BarData
	for _, row := range modes {
		labels = append(labels, row.Mode)
		values = append(values, opts.BarData{Value: row.Count})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Failure Mode Counts",
			Subtitle: "Multi-label: a record can carry several modes",
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Count"}),
	)
	bar.SetXAxis(labels).AddSeries("Occurrences", values)

	return render(bar, path)
}

// TempDeltaByFailure renders grouped bars comparing temperature delta
// statistics for failed vs non-failed records.
func TempDeltaByFailure(t *dataset.Table, s *schema.Schema, path string) error {
	stats := kpi.TempDeltaStats(t, s)
	if stats.Err != "" {
		return fmt.Errorf("temp delta chart: %s", stats.Err)
	}

	metrics := []string{"Mean", "Median", "Std Dev"}
	failed := []opts.BarData{
		{Value: float64(stats.Failed.Mean)},
		{Value: float64(stats.Failed.Median)},
		{Value: float64(stats.Failed.Std)},
	}
	notFailed := []opts.BarData{
		{Value: float64(stats.NotFailed.Mean)},
		{Value: float64(stats.NotFailed.Median)},
		{Value: float64(stats.NotFailed.Std)},
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Temperature Delta by Failure Status",
			Subtitle: "Process temperature - Air temperature (K)",
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Kelvin"}),
	)
	bar.SetXAxis(metrics).
		AddSeries("Failed", failed).
		AddSeries("Non-failed", notFailed)

	return render(bar, path)
}

type renderer interface {
	Render(w io.Writer) error
}

func render(c renderer, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := c.Render(f); err != nil {
		return fmt.Errorf("render %s: %w", filepath.Base(path), err)
	}
	return nil
}
