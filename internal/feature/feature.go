// Package feature derives columns from the raw sensor data. Derivations are
// pure: they clone the input table and return a new one, leaving the
// original untouched.
package feature

import (
	"fmt"

	"github.com/sensorlab/mfgqc/internal/dataset"
	"github.com/sensorlab/mfgqc/internal/schema"
	"github.com/sensorlab/mfgqc/internal/stats"
)

// AddTempDelta returns a copy of the table with the temperature delta
// column added (process temperature minus air temperature).
func AddTempDelta(t *dataset.Table, s *schema.Schema) (*dataset.Table, error) {
	process, ok := t.Floats(schema.ColProcessTemp)
	if !ok {
		return nil, fmt.Errorf("column %q not found or not numeric", schema.ColProcessTemp)
	}
	air, ok := t.Floats(schema.ColAirTemp)
	if !ok {
		return nil, fmt.Errorf("column %q not found or not numeric", schema.ColAirTemp)
	}

	delta := make([]float64, len(process))
	for i := range process {
		delta[i] = process[i] - air[i]
	}

	out := t.Clone()
	if err := out.AddColumn(&dataset.Series{
		Name:   schema.ColTempDelta,
		Kind:   dataset.KindNumeric,
		Floats: delta,
	}); err != nil {
		return nil, err
	}
	return out, nil
}

// Preprocess applies all derivation steps to the raw table.
func Preprocess(t *dataset.Table, s *schema.Schema) (*dataset.Table, error) {
	return AddTempDelta(t, s)
}

// CategorizeByQuantiles buckets values into "Low", "Medium" and "High"
// using quantile thresholds: value <= low threshold is Low, value >= high
// threshold is High, everything else Medium. A value equal to both
// thresholds (degenerate distributions) categorizes as Low, since the Low
// predicate is tested first.
func CategorizeByQuantiles(values []float64, qLow, qHigh float64) []string {
	lowVal := stats.Quantile(values, qLow)
	highVal := stats.Quantile(values, qHigh)

	out := make([]string, len(values))
	for i, v := range values {
		switch {
		case v <= lowVal:
			out[i] = "Low"
		case v >= highVal:
			out[i] = "High"
		default:
			out[i] = "Medium"
		}
	}
	return out
}

// QuantileStats summarizes a numeric column: quantile thresholds plus
// min, max, mean and median.
type QuantileStats struct {
	Column     string  `json:"column"`
	QLow       float64 `json:"q_low"`
	QLowValue  float64 `json:"q_low_value"`
	QHigh      float64 `json:"q_high"`
	QHighValue float64 `json:"q_high_value"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Mean       float64 `json:"mean"`
	Median     float64 `json:"median"`
}

// ComputeQuantileStats computes quantile thresholds and summary statistics
// for one numeric column.
func ComputeQuantileStats(t *dataset.Table, column string, qLow, qHigh float64) (QuantileStats, error) {
	values, ok := t.Floats(column)
	if !ok {
		return QuantileStats{}, fmt.Errorf("column %q not found or not numeric", column)
	}

	min, max := stats.MinMax(values)
	return QuantileStats{
		Column:     column,
		QLow:       qLow,
		QLowValue:  stats.Quantile(values, qLow),
		QHigh:      qHigh,
		QHighValue: stats.Quantile(values, qHigh),
		Min:        min,
		Max:        max,
		Mean:       stats.Mean(values),
		Median:     stats.Median(values),
	}, nil
}
