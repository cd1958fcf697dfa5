// Package kpi computes quality KPIs over the derived dataset: overall and
// segmented failure rates, multi-label failure mode distributions, quantile
// segmentation and temperature delta statistics.
//
// All functions are stateless and read-only over the table; each call is
// independent and re-entrant.
package kpi

import (
	"fmt"
	"math"
	"sort"

	"github.com/sensorlab/mfgqc/internal/dataset"
	"github.com/sensorlab/mfgqc/internal/schema"
	"github.com/sensorlab/mfgqc/internal/stats"
)

// Float is a float64 that marshals NaN as JSON null instead of erroring.
// Standard deviation on fewer than two samples is NaN by definition.
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%g", float64(f))), nil
}

// Overall is the dataset-wide failure rate.
type Overall struct {
	TotalRecords   int     `json:"total_records"`
	FailureCount   int     `json:"failure_count"`
	FailureRate    float64 `json:"failure_rate"`
	FailureRatePct float64 `json:"failure_rate_pct"`
}

// OverallFailureRate computes the dataset-wide failure rate. The rate is
// 0.0 for an empty table.
func OverallFailureRate(t *dataset.Table, s *schema.Schema) (Overall, error) {
	target, ok := t.Floats(s.TargetCol)
	if !ok {
		return Overall{}, fmt.Errorf("column %q not found or not numeric", s.TargetCol)
	}

	total := t.NumRows()
	failures := 0
	for _, v := range target {
		if v == 1 {
			failures++
		}
	}

	rate := 0.0
	if total > 0 {
		rate = float64(failures) / float64(total)
	}
	return Overall{
		TotalRecords:   total,
		FailureCount:   failures,
		FailureRate:    rate,
		FailureRatePct: rate * 100,
	}, nil
}

// TypeRate is the failure rate for one product type group.
type TypeRate struct {
	Type           string  `json:"type"`
	Count          int     `json:"count"`
	FailureCount   int     `json:"failure_count"`
	FailureRate    float64 `json:"failure_rate"`
	FailureRatePct float64 `json:"failure_rate_pct"`
}

// FailureRateByType groups rows by product type and computes per-group
// failure rates. Groups appear in the fixed domain order L, M, H; values
// outside the domain are not dropped but collected into trailing groups
// sorted lexicographically. Rows with a missing type are skipped.
func FailureRateByType(t *dataset.Table, s *schema.Schema) ([]TypeRate, error) {
	typeCol, ok := t.Column(s.TypeCol)
	if !ok || typeCol.Kind != dataset.KindText {
		return nil, fmt.Errorf("column %q not found or not categorical", s.TypeCol)
	}
	target, ok := t.Floats(s.TargetCol)
	if !ok {
		return nil, fmt.Errorf("column %q not found or not numeric", s.TargetCol)
	}

	counts := make(map[string]int)
	failures := make(map[string]int)
	for i, typ := range typeCol.Text {
		if typeCol.Absent != nil && typeCol.Absent[i] {
			continue
		}
		counts[typ]++
		if i < len(target) && target[i] == 1 {
			failures[typ]++
		}
	}

	var order []string
	for _, typ := range s.ValidTypes {
		if counts[typ] > 0 {
			order = append(order, typ)
		}
	}
	var unknown []string
	for typ := range counts {
		if _, valid := s.TypeOrder(typ); !valid {
			unknown = append(unknown, typ)
		}
	}
	sort.Strings(unknown)
	order = append(order, unknown...)

	out := make([]TypeRate, 0, len(order))
	for _, typ := range order {
		n := counts[typ]
		f := failures[typ]
		rate := 0.0
		if n > 0 {
			rate = float64(f) / float64(n)
		}
		out = append(out, TypeRate{
			Type:           typ,
			Count:          n,
			FailureCount:   f,
			FailureRate:    rate,
			FailureRatePct: rate * 100,
		})
	}
	return out, nil
}

// ModeCount is the distribution entry for one failure mode. Because modes
// are multi-label, PctOfFailures values need not sum to 100%.
type ModeCount struct {
	Mode          string  `json:"failure_mode"`
	Count         int     `json:"count"`
	PctOfFailures float64 `json:"pct_of_failures"`
	PctOfTotal    float64 `json:"pct_of_total"`
}

// FailureModeCounts sums each failure mode flag independently, in the
// schema's declared mode order. Exclusive grouping is never assumed: a row
// with several modes set counts once per mode.
func FailureModeCounts(t *dataset.Table, s *schema.Schema) ([]ModeCount, error) {
	overall, err := OverallFailureRate(t, s)
	if err != nil {
		return nil, err
	}
	totalFailures := overall.FailureCount
	totalRecords := overall.TotalRecords

	out := make([]ModeCount, 0, len(s.FailureModeCols))
	for _, mode := range s.FailureModeCols {
		flags, ok := t.Floats(mode)
		if !ok {
			return nil, fmt.Errorf("column %q not found or not numeric", mode)
		}
		count := 0
		for _, v := range flags {
			if v == 1 {
				count++
			}
		}

		pctOfFailures := 0.0
		if totalFailures > 0 {
			pctOfFailures = float64(count) / float64(totalFailures) * 100
		}
		pctOfTotal := 0.0
		if totalRecords > 0 {
			pctOfTotal = float64(count) / float64(totalRecords) * 100
		}

		out = append(out, ModeCount{
			Mode:          mode,
			Count:         count,
			PctOfFailures: pctOfFailures,
			PctOfTotal:    pctOfTotal,
		})
	}
	return out, nil
}

// Segment is one quantile-defined row partition with its failure rate.
type Segment struct {
	Segment        string  `json:"segment"`
	Count          int     `json:"count"`
	FailureCount   int     `json:"failure_count"`
	FailureRate    float64 `json:"failure_rate"`
	FailureRatePct float64 `json:"failure_rate_pct"`
}

// QuantileRates is the quantile-segmented failure rate analysis for one
// numeric column.
type QuantileRates struct {
	Column     string    `json:"column"`
	QLow       float64   `json:"q_low"`
	QLowValue  float64   `json:"q_low_value"`
	QHigh      float64   `json:"q_high"`
	QHighValue float64   `json:"q_high_value"`
	Segments   []Segment `json:"segments"`
}

// QuantileFailureRates partitions rows by the column's quantile thresholds
// (linear interpolation) and computes per-segment failure rates. Low uses
// value <= low threshold and High uses value >= high threshold, both
// inclusive; in degenerate distributions where the thresholds coincide a
// row can land in both Low and High, so segment counts may overlap.
// Thresholds are computed over non-NaN values, and rows with a missing
// value belong to no segment.
func QuantileFailureRates(t *dataset.Table, s *schema.Schema, column string, qLow, qHigh float64) (QuantileRates, error) {
	values, ok := t.Floats(column)
	if !ok {
		return QuantileRates{}, fmt.Errorf("column %q not found or not numeric", column)
	}
	target, ok := t.Floats(s.TargetCol)
	if !ok {
		return QuantileRates{}, fmt.Errorf("column %q not found or not numeric", s.TargetCol)
	}

	lowThr := stats.Quantile(values, qLow)
	highThr := stats.Quantile(values, qHigh)

	segmentStats := func(mask func(float64) bool, label string) Segment {
		n, failures := 0, 0
		for i, v := range values {
			if !mask(v) {
				continue
			}
			n++
			if i < len(target) && target[i] == 1 {
				failures++
			}
		}
		rate := 0.0
		if n > 0 {
			rate = float64(failures) / float64(n)
		}
		return Segment{
			Segment:        label,
			Count:          n,
			FailureCount:   failures,
			FailureRate:    rate,
			FailureRatePct: rate * 100,
		}
	}

	// NaN cells fail every comparison, so rows with a missing value fall
	// outside all three segments.
	low := func(v float64) bool { return v <= lowThr }
	high := func(v float64) bool { return v >= highThr }
	mid := func(v float64) bool { return v > lowThr && v < highThr }

	return QuantileRates{
		Column:     column,
		QLow:       qLow,
		QLowValue:  lowThr,
		QHigh:      qHigh,
		QHighValue: highThr,
		Segments: []Segment{
			segmentStats(low, fmt.Sprintf("Low (≤%.2f)", lowThr)),
			segmentStats(mid, "Medium"),
			segmentStats(high, fmt.Sprintf("High (≥%.2f)", highThr)),
		},
	}, nil
}

// DeltaSummary holds overall temperature delta statistics.
type DeltaSummary struct {
	Mean   Float `json:"mean"`
	Median Float `json:"median"`
	Std    Float `json:"std"`
	Min    Float `json:"min"`
	Max    Float `json:"max"`
}

// DeltaSplit holds temperature delta statistics for one failure status.
type DeltaSplit struct {
	Count  int   `json:"count"`
	Mean   Float `json:"mean"`
	Median Float `json:"median"`
	Std    Float `json:"std"`
}

// DeltaStats is the temperature delta analysis. Err is set when the derived
// column is absent; callers must check it before reading the statistics.
type DeltaStats struct {
	Err       string       `json:"error,omitempty"`
	Overall   DeltaSummary `json:"overall"`
	Failed    DeltaSplit   `json:"failed"`
	NotFailed DeltaSplit   `json:"not_failed"`
}

// TempDeltaStats computes temperature delta statistics overall and split by
// failure status. If the derived column is missing a descriptive error
// payload is returned instead of failing the aggregation. Standard
// deviation uses the sample (n-1) definition and is NaN for splits with
// fewer than two rows.
func TempDeltaStats(t *dataset.Table, s *schema.Schema) DeltaStats {
	delta, ok := t.Floats(schema.ColTempDelta)
	if !ok {
		return DeltaStats{
			Err: fmt.Sprintf("Column '%s' not found. Run preprocessing first.", schema.ColTempDelta),
		}
	}
	target, ok := t.Floats(s.TargetCol)
	if !ok {
		return DeltaStats{
			Err: fmt.Sprintf("Column '%s' not found or not numeric.", s.TargetCol),
		}
	}

	var failed, notFailed []float64
	for i, v := range delta {
		if i >= len(target) {
			break
		}
		if target[i] == 1 {
			failed = append(failed, v)
		} else {
			notFailed = append(notFailed, v)
		}
	}

	min, max := stats.MinMax(delta)
	split := func(x []float64) DeltaSplit {
		return DeltaSplit{
			Count:  len(x),
			Mean:   Float(stats.Mean(x)),
			Median: Float(stats.Median(x)),
			Std:    Float(stats.SampleStd(x)),
		}
	}

	return DeltaStats{
		Overall: DeltaSummary{
			Mean:   Float(stats.Mean(delta)),
			Median: Float(stats.Median(delta)),
			Std:    Float(stats.SampleStd(delta)),
			Min:    Float(min),
			Max:    Float(max),
		},
		Failed:    split(failed),
		NotFailed: split(notFailed),
	}
}
