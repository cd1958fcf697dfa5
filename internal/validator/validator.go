// Package validator runs the fixed battery of data-quality checks over a
// dataset and classifies each outcome as PASS, WARN or FAIL.
//
// Checks run in a fixed declared order so reports are reproducible:
// required columns, type domain, one range check per configured numeric
// column, binary flags, failure consistency, null values. No check raises
// or stops the battery; structural problems FAIL, soft inconsistencies WARN.
package validator

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/sensorlab/mfgqc/internal/dataset"
	"github.com/sensorlab/mfgqc/internal/schema"
	"github.com/sensorlab/mfgqc/internal/stats"
)

// Status classifies a check outcome.
type Status string

const (
	StatusPass Status = "PASS"
	StatusWarn Status = "WARN"
	StatusFail Status = "FAIL"
)

// Detail is one diagnostic key/value pair. Details are rendered in the
// order they were recorded.
type Detail struct {
	Key   string
	Value any
}

// Result is the immutable outcome of a single check.
type Result struct {
	CheckName string
	Status    Status
	Message   string
	Details   []Detail
}

// Validator accumulates check results over one dataset. The dataset is
// read-only; the validator never mutates it.
type Validator struct {
	table   *dataset.Table
	schema  *schema.Schema
	results []Result
}

// New creates a validator for the given table and schema.
func New(t *dataset.Table, s *schema.Schema) *Validator {
	return &Validator{table: t, schema: s}
}

// Results returns the accumulated results in run order.
func (v *Validator) Results() []Result {
	return v.results
}

// RunAllChecks resets the result list and executes every check in the fixed
// declared order, returning the complete ordered result list.
func (v *Validator) RunAllChecks() []Result {
	v.results = nil
	v.CheckRequiredColumns()
	v.CheckTypeDomain()
	v.CheckNumericRanges()
	v.CheckBinaryFlags()
	v.CheckFailureConsistency()
	v.CheckNullValues()
	return v.results
}

func (v *Validator) record(r Result) Result {
	v.results = append(v.results, r)
	return r
}

// CheckRequiredColumns verifies that every required column is present.
// Missing columns are reported in the schema's declared order.
func (v *Validator) CheckRequiredColumns() Result {
	var missing []string
	for _, col := range v.schema.RequiredColumns {
		if !v.table.HasColumn(col) {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		return v.record(Result{
			CheckName: "Required Columns",
			Status:    StatusFail,
			Message:   fmt.Sprintf("Missing %d required column(s).", len(missing)),
			Details:   []Detail{{Key: "missing_columns", Value: missing}},
		})
	}
	return v.record(Result{
		CheckName: "Required Columns",
		Status:    StatusPass,
		Message:   fmt.Sprintf("All %d required columns present.", len(v.schema.RequiredColumns)),
		Details:   []Detail{{Key: "column_count", Value: len(v.schema.RequiredColumns)}},
	})
}

// CheckTypeDomain verifies that the product type column contains only the
// valid categorical values.
func (v *Validator) CheckTypeDomain() Result {
	col, ok := v.table.Column(v.schema.TypeCol)
	if !ok {
		return v.record(Result{
			CheckName: "Type Domain",
			Status:    StatusFail,
			Message:   fmt.Sprintf("'%s' column not found.", v.schema.TypeCol),
		})
	}

	observed := observedValues(col)
	var invalid []string
	for _, val := range observed {
		if _, valid := v.schema.TypeOrder(val); !valid {
			invalid = append(invalid, val)
		}
	}

	if len(invalid) > 0 {
		return v.record(Result{
			CheckName: "Type Domain",
			Status:    StatusFail,
			Message:   fmt.Sprintf("Invalid Type values found: %v", invalid),
			Details: []Detail{
				{Key: "invalid_values", Value: invalid},
				{Key: "valid_values", Value: v.schema.ValidTypes},
			},
		})
	}
	return v.record(Result{
		CheckName: "Type Domain",
		Status:    StatusPass,
		Message:   fmt.Sprintf("All Type values are valid: %v", observed),
		Details:   []Detail{{Key: "found_types", Value: observed}},
	})
}

// CheckNumericRanges checks each configured numeric column against its
// physical constraints. Each column yields its own result; a missing column
// is a WARN, not a failure of the whole run.
func (v *Validator) CheckNumericRanges() []Result {
	results := make([]Result, 0, len(v.schema.RangeRules))

	for _, rule := range v.schema.RangeRules {
		name := fmt.Sprintf("Range Check: %s", rule.Column)

		values, ok := v.table.Floats(rule.Column)
		if !ok {
			results = append(results, v.record(Result{
				CheckName: name,
				Status:    StatusWarn,
				Message:   fmt.Sprintf("Column '%s' not found, skipping range check.", rule.Column),
			}))
			continue
		}

		present := dropNaN(values)
		var violations []string

		if rule.Min != nil {
			bad := 0
			for _, val := range present {
				if rule.StrictPositive {
					if val <= *rule.Min {
						bad++
					}
				} else if val < *rule.Min {
					bad++
				}
			}
			if bad > 0 {
				op := "<"
				if rule.StrictPositive {
					op = "<="
				}
				violations = append(violations, fmt.Sprintf("%d values %s %s", bad, op, formatNum(*rule.Min)))
			}
		}
		if rule.Max != nil {
			bad := 0
			for _, val := range present {
				if val > *rule.Max {
					bad++
				}
			}
			if bad > 0 {
				violations = append(violations, fmt.Sprintf("%d values > %s", bad, formatNum(*rule.Max)))
			}
		}

		min, max := stats.MinMax(present)
		if len(violations) > 0 {
			results = append(results, v.record(Result{
				CheckName: name,
				Status:    StatusFail,
				Message:   joinViolations(violations),
				Details: []Detail{
					{Key: "min", Value: min},
					{Key: "max", Value: max},
				},
			}))
		} else {
			results = append(results, v.record(Result{
				CheckName: name,
				Status:    StatusPass,
				Message:   fmt.Sprintf("All values within valid range. Min=%.2f, Max=%.2f", min, max),
				Details: []Detail{
					{Key: "min", Value: min},
					{Key: "max", Value: max},
				},
			}))
		}
	}

	return results
}

// CheckBinaryFlags verifies that the target and failure mode columns hold
// only 0/1 values. Absent columns are skipped; missing cells are covered by
// the null check.
func (v *Validator) CheckBinaryFlags() Result {
	flagCols := v.schema.FlagColumns()

	var offending []Detail
	for _, name := range flagCols {
		col, ok := v.table.Column(name)
		if !ok {
			continue
		}
		observed := observedValues(col)
		binary := true
		for _, val := range observed {
			if val != "0" && val != "1" {
				binary = false
				break
			}
		}
		if !binary {
			offending = append(offending, Detail{Key: name, Value: observed})
		}
	}

	if len(offending) > 0 {
		details := append([]Detail{}, offending...)
		return v.record(Result{
			CheckName: "Binary Flags",
			Status:    StatusFail,
			Message:   fmt.Sprintf("%d column(s) have non-binary values.", len(offending)),
			Details:   details,
		})
	}
	return v.record(Result{
		CheckName: "Binary Flags",
		Status:    StatusPass,
		Message:   fmt.Sprintf("All %d flag columns are binary (0/1).", len(flagCols)),
		Details:   []Detail{{Key: "columns_checked", Value: flagCols}},
	})
}

// CheckFailureConsistency flags rows where the target is 0 but a failure
// mode is 1. This is a soft signal, so violations WARN rather than FAIL.
// Offending row indices are deduplicated across modes and reported in
// ascending row order (first 10), keeping the sample deterministic.
func (v *Validator) CheckFailureConsistency() Result {
	target, ok := v.table.Floats(v.schema.TargetCol)
	if !ok {
		return v.record(Result{
			CheckName: "Failure Consistency",
			Status:    StatusWarn,
			Message:   fmt.Sprintf("'%s' column not found.", v.schema.TargetCol),
		})
	}

	seen := make(map[int]bool)
	for _, mode := range v.schema.FailureModeCols {
		flags, ok := v.table.Floats(mode)
		if !ok {
			continue
		}
		for i := range flags {
			if i < len(target) && target[i] == 0 && flags[i] == 1 {
				seen[i] = true
			}
		}
	}

	if len(seen) > 0 {
		rows := make([]int, 0, len(seen))
		for i := range seen {
			rows = append(rows, i)
		}
		sort.Ints(rows)
		sample := rows
		if len(sample) > 10 {
			sample = sample[:10]
		}
		return v.record(Result{
			CheckName: "Failure Consistency",
			Status:    StatusWarn,
			Message:   fmt.Sprintf("%d row(s) have %s=0 but a failure mode=1.", len(rows), v.schema.TargetCol),
			Details: []Detail{
				{Key: "violation_count", Value: len(rows)},
				{Key: "sample_indices", Value: sample},
			},
		})
	}
	return v.record(Result{
		CheckName: "Failure Consistency",
		Status:    StatusPass,
		Message:   "All records are consistent (failure=0 implies all modes=0).",
	})
}

// CheckNullValues counts missing cells per column. Any column with missing
// values is a WARN; the data remains usable.
func (v *Validator) CheckNullValues() Result {
	var withNulls []Detail
	for _, name := range v.table.Columns() {
		col, _ := v.table.Column(name)
		if n := col.MissingCount(); n > 0 {
			withNulls = append(withNulls, Detail{Key: name, Value: n})
		}
	}

	if len(withNulls) > 0 {
		return v.record(Result{
			CheckName: "Null Values",
			Status:    StatusWarn,
			Message:   fmt.Sprintf("%d column(s) have null values.", len(withNulls)),
			Details:   withNulls,
		})
	}
	return v.record(Result{
		CheckName: "Null Values",
		Status:    StatusPass,
		Message:   "No null values found in any column.",
		Details:   []Detail{{Key: "total_rows", Value: v.table.NumRows()}},
	})
}

// observedValues returns the distinct non-missing values of a series in
// first-appearance order, formatted as strings.
func observedValues(s *dataset.Series) []string {
	seen := make(map[string]bool)
	var out []string

	add := func(val string) {
		if !seen[val] {
			seen[val] = true
			out = append(out, val)
		}
	}

	if s.Kind == dataset.KindNumeric {
		for _, v := range s.Floats {
			if math.IsNaN(v) {
				continue
			}
			add(formatNum(v))
		}
		return out
	}
	for i, v := range s.Text {
		if s.Absent != nil && s.Absent[i] {
			continue
		}
		add(v)
	}
	return out
}

func dropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func joinViolations(violations []string) string {
	msg := violations[0]
	for _, v := range violations[1:] {
		msg += "; " + v
	}
	return msg
}
