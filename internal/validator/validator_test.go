package validator

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/sensorlab/mfgqc/internal/dataset"
	"github.com/sensorlab/mfgqc/internal/schema"
)

// buildTable constructs a test table from ordered column definitions.
func buildTable(t *testing.T, cols []*dataset.Series) *dataset.Table {
	t.Helper()
	tbl := dataset.New()
	for _, c := range cols {
		if err := tbl.AddColumn(c); err != nil {
			t.Fatalf("AddColumn(%s): %v", c.Name, err)
		}
	}
	return tbl
}

func numeric(name string, values ...float64) *dataset.Series {
	return &dataset.Series{Name: name, Kind: dataset.KindNumeric, Floats: values}
}

func text(name string, values ...string) *dataset.Series {
	return &dataset.Series{Name: name, Kind: dataset.KindText, Text: values}
}

// fullTable returns a small dataset with every required column and clean
// values for n rows.
func fullTable(t *testing.T) *dataset.Table {
	return buildTable(t, []*dataset.Series{
		numeric(schema.ColUDI, 1, 2, 3),
		text(schema.ColProductID, "L1", "M2", "H3"),
		text(schema.ColType, "L", "M", "H"),
		numeric(schema.ColAirTemp, 298.1, 298.2, 298.3),
		numeric(schema.ColProcessTemp, 308.6, 308.7, 308.8),
		numeric(schema.ColRotSpeed, 1551, 1408, 1498),
		numeric(schema.ColTorque, 42.8, 46.3, 49.4),
		numeric(schema.ColToolWear, 0, 3, 5),
		numeric(schema.ColTarget, 0, 1, 0),
		numeric("TWF", 0, 0, 0),
		numeric("HDF", 0, 1, 0),
		numeric("PWF", 0, 0, 0),
		numeric("OSF", 0, 0, 0),
		numeric("RNF", 0, 0, 0),
	})
}

// ----------------------------------------------------------------------------
// RunAllChecks Tests
// ----------------------------------------------------------------------------

func TestRunAllChecksResultCount(t *testing.T) {
	sch := schema.Default()
	v := New(fullTable(t), sch)
	results := v.RunAllChecks()

	// Five fixed checks plus one per configured range rule.
	want := 5 + len(sch.RangeRules)
	if len(results) != want {
		t.Fatalf("RunAllChecks returned %d results, want %d", len(results), want)
	}
}

func TestRunAllChecksOrder(t *testing.T) {
	sch := schema.Default()
	v := New(fullTable(t), sch)
	results := v.RunAllChecks()

	wantOrder := []string{
		"Required Columns",
		"Type Domain",
		"Range Check: " + schema.ColTorque,
		"Range Check: " + schema.ColToolWear,
		"Range Check: " + schema.ColRotSpeed,
		"Range Check: " + schema.ColAirTemp,
		"Range Check: " + schema.ColProcessTemp,
		"Binary Flags",
		"Failure Consistency",
		"Null Values",
	}
	for i, name := range wantOrder {
		if results[i].CheckName != name {
			t.Errorf("results[%d].CheckName = %q, want %q", i, results[i].CheckName, name)
		}
	}
}

func TestRunAllChecksResets(t *testing.T) {
	v := New(fullTable(t), schema.Default())
	first := v.RunAllChecks()
	second := v.RunAllChecks()

	if len(first) != len(second) {
		t.Errorf("second run returned %d results, want %d", len(second), len(first))
	}
}

func TestRunAllChecksAllPassOnCleanData(t *testing.T) {
	v := New(fullTable(t), schema.Default())
	for _, r := range v.RunAllChecks() {
		if r.Status != StatusPass {
			t.Errorf("check %q = %s (%s), want PASS", r.CheckName, r.Status, r.Message)
		}
	}
}

// ----------------------------------------------------------------------------
// Required Columns Tests
// ----------------------------------------------------------------------------

func TestCheckRequiredColumns(t *testing.T) {
	sch := schema.Default()

	t.Run("all present", func(t *testing.T) {
		v := New(fullTable(t), sch)
		r := v.CheckRequiredColumns()
		if r.Status != StatusPass {
			t.Fatalf("status = %s, want PASS", r.Status)
		}
	})

	t.Run("extra column never fails", func(t *testing.T) {
		tbl := fullTable(t)
		if err := tbl.AddColumn(numeric("Extra [x]", 1, 2, 3)); err != nil {
			t.Fatal(err)
		}
		v := New(tbl, sch)
		if r := v.CheckRequiredColumns(); r.Status != StatusPass {
			t.Errorf("status = %s, want PASS", r.Status)
		}
	})

	t.Run("missing column fails and is named", func(t *testing.T) {
		tbl := dataset.New()
		full := fullTable(t)
		for _, name := range full.Columns() {
			if name == schema.ColType {
				continue
			}
			col, _ := full.Column(name)
			tbl.AddColumn(col)
		}

		v := New(tbl, sch)
		r := v.CheckRequiredColumns()
		if r.Status != StatusFail {
			t.Fatalf("status = %s, want FAIL", r.Status)
		}
		if r.Message != "Missing 1 required column(s)." {
			t.Errorf("message = %q", r.Message)
		}
		missing, ok := r.Details[0].Value.([]string)
		if !ok || !reflect.DeepEqual(missing, []string{schema.ColType}) {
			t.Errorf("missing_columns = %v, want [%s]", r.Details[0].Value, schema.ColType)
		}
	})
}

// ----------------------------------------------------------------------------
// Type Domain Tests
// ----------------------------------------------------------------------------

func TestCheckTypeDomain(t *testing.T) {
	sch := schema.Default()

	t.Run("valid values pass", func(t *testing.T) {
		v := New(fullTable(t), sch)
		if r := v.CheckTypeDomain(); r.Status != StatusPass {
			t.Errorf("status = %s, want PASS", r.Status)
		}
	})

	t.Run("column missing fails", func(t *testing.T) {
		tbl := buildTable(t, []*dataset.Series{numeric(schema.ColUDI, 1)})
		v := New(tbl, sch)
		r := v.CheckTypeDomain()
		if r.Status != StatusFail {
			t.Fatalf("status = %s, want FAIL", r.Status)
		}
		if !strings.Contains(r.Message, "not found") {
			t.Errorf("message = %q, want not-found message", r.Message)
		}
	})

	t.Run("invalid value fails", func(t *testing.T) {
		tbl := buildTable(t, []*dataset.Series{
			text(schema.ColType, "L", "X", "M"),
		})
		v := New(tbl, sch)
		r := v.CheckTypeDomain()
		if r.Status != StatusFail {
			t.Fatalf("status = %s, want FAIL", r.Status)
		}
		invalid, _ := r.Details[0].Value.([]string)
		if !reflect.DeepEqual(invalid, []string{"X"}) {
			t.Errorf("invalid_values = %v, want [X]", invalid)
		}
	})
}

// ----------------------------------------------------------------------------
// Numeric Range Tests
// ----------------------------------------------------------------------------

func TestCheckNumericRanges(t *testing.T) {
	sch := schema.Default()

	t.Run("one result per configured column", func(t *testing.T) {
		v := New(fullTable(t), sch)
		results := v.CheckNumericRanges()
		if len(results) != len(sch.RangeRules) {
			t.Fatalf("got %d results, want %d", len(results), len(sch.RangeRules))
		}
	})

	t.Run("missing column warns", func(t *testing.T) {
		tbl := buildTable(t, []*dataset.Series{numeric(schema.ColUDI, 1)})
		v := New(tbl, sch)
		for _, r := range v.CheckNumericRanges() {
			if r.Status != StatusWarn {
				t.Errorf("check %q = %s, want WARN", r.CheckName, r.Status)
			}
		}
	})

	t.Run("strict positive rejects boundary value", func(t *testing.T) {
		tbl := fullTable(t)
		v := New(tbl, sch)
		results := v.CheckNumericRanges()

		// Tool wear allows zero (min inclusive), rotational speed does not.
		for _, r := range results {
			switch r.CheckName {
			case "Range Check: " + schema.ColToolWear:
				if r.Status != StatusPass {
					t.Errorf("tool wear with zero = %s, want PASS", r.Status)
				}
			}
		}

		tbl2 := buildTable(t, []*dataset.Series{
			numeric(schema.ColRotSpeed, 0, 1500, 1600),
		})
		v2 := New(tbl2, sch)
		for _, r := range v2.CheckNumericRanges() {
			if r.CheckName != "Range Check: "+schema.ColRotSpeed {
				continue
			}
			if r.Status != StatusFail {
				t.Fatalf("rot speed with zero = %s, want FAIL", r.Status)
			}
			if r.Message != "1 values <= 0" {
				t.Errorf("message = %q, want %q", r.Message, "1 values <= 0")
			}
		}
	})

	t.Run("violation counts joined in message", func(t *testing.T) {
		max := 100.0
		min := 0.0
		custom := &schema.Schema{
			RangeRules: []schema.RangeRule{
				{Column: "X", Min: &min, Max: &max},
			},
		}
		tbl := buildTable(t, []*dataset.Series{
			numeric("X", -1, -2, 50, 150),
		})
		v := New(tbl, custom)
		results := v.CheckNumericRanges()
		if results[0].Status != StatusFail {
			t.Fatalf("status = %s, want FAIL", results[0].Status)
		}
		if results[0].Message != "2 values < 0; 1 values > 100" {
			t.Errorf("message = %q", results[0].Message)
		}
	})

	t.Run("NaN cells are not range violations", func(t *testing.T) {
		tbl := buildTable(t, []*dataset.Series{
			numeric(schema.ColTorque, 40, math.NaN(), 45),
		})
		v := New(tbl, sch)
		for _, r := range v.CheckNumericRanges() {
			if r.CheckName == "Range Check: "+schema.ColTorque && r.Status != StatusPass {
				t.Errorf("torque with NaN = %s, want PASS", r.Status)
			}
		}
	})
}

// ----------------------------------------------------------------------------
// Binary Flags Tests
// ----------------------------------------------------------------------------

func TestCheckBinaryFlags(t *testing.T) {
	sch := schema.Default()

	tests := []struct {
		name       string
		flagValues []float64
		wantStatus Status
	}{
		{name: "zeros and ones pass", flagValues: []float64{0, 1, 0}, wantStatus: StatusPass},
		{name: "all zeros pass", flagValues: []float64{0, 0, 0}, wantStatus: StatusPass},
		{name: "all ones pass", flagValues: []float64{1, 1, 1}, wantStatus: StatusPass},
		{name: "two fails", flagValues: []float64{0, 1, 2}, wantStatus: StatusFail},
		{name: "fraction fails", flagValues: []float64{0, 0.5, 1}, wantStatus: StatusFail},
		{name: "negative fails", flagValues: []float64{0, -1, 1}, wantStatus: StatusFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := buildTable(t, []*dataset.Series{
				numeric(sch.TargetCol, tt.flagValues...),
			})
			v := New(tbl, sch)
			r := v.CheckBinaryFlags()
			if r.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", r.Status, tt.wantStatus)
			}
			if tt.wantStatus == StatusFail {
				if len(r.Details) != 1 || r.Details[0].Key != sch.TargetCol {
					t.Errorf("offending column not named in details: %v", r.Details)
				}
			}
		})
	}

	t.Run("text flag column fails", func(t *testing.T) {
		tbl := buildTable(t, []*dataset.Series{
			text("TWF", "yes", "no", "yes"),
		})
		v := New(tbl, sch)
		if r := v.CheckBinaryFlags(); r.Status != StatusFail {
			t.Errorf("status = %s, want FAIL", r.Status)
		}
	})
}

// ----------------------------------------------------------------------------
// Failure Consistency Tests
// ----------------------------------------------------------------------------

func TestCheckFailureConsistency(t *testing.T) {
	sch := schema.Default()

	t.Run("consistent data passes", func(t *testing.T) {
		v := New(fullTable(t), sch)
		if r := v.CheckFailureConsistency(); r.Status != StatusPass {
			t.Errorf("status = %s, want PASS", r.Status)
		}
	})

	t.Run("target missing warns", func(t *testing.T) {
		tbl := buildTable(t, []*dataset.Series{numeric("TWF", 0, 1)})
		v := New(tbl, sch)
		r := v.CheckFailureConsistency()
		if r.Status != StatusWarn {
			t.Fatalf("status = %s, want WARN", r.Status)
		}
		if !strings.Contains(r.Message, "not found") {
			t.Errorf("message = %q", r.Message)
		}
	})

	t.Run("violations warn with deduplicated sorted sample", func(t *testing.T) {
		// Rows 1 and 3 violate; row 3 via two modes at once, so it must
		// appear only once in the sample.
		tbl := buildTable(t, []*dataset.Series{
			numeric(sch.TargetCol, 0, 0, 1, 0),
			numeric("TWF", 0, 1, 0, 1),
			numeric("HDF", 0, 0, 0, 1),
		})
		v := New(tbl, sch)
		r := v.CheckFailureConsistency()
		if r.Status != StatusWarn {
			t.Fatalf("status = %s, want WARN", r.Status)
		}
		if got := r.Details[0].Value.(int); got != 2 {
			t.Errorf("violation_count = %d, want 2", got)
		}
		sample := r.Details[1].Value.([]int)
		if !reflect.DeepEqual(sample, []int{1, 3}) {
			t.Errorf("sample_indices = %v, want [1 3]", sample)
		}
	})

	t.Run("sample capped at ten", func(t *testing.T) {
		n := 25
		target := make([]float64, n)
		twf := make([]float64, n)
		for i := range twf {
			twf[i] = 1
		}
		tbl := buildTable(t, []*dataset.Series{
			numeric(sch.TargetCol, target...),
			numeric("TWF", twf...),
		})
		v := New(tbl, sch)
		r := v.CheckFailureConsistency()
		if got := r.Details[0].Value.(int); got != n {
			t.Errorf("violation_count = %d, want %d", got, n)
		}
		sample := r.Details[1].Value.([]int)
		if len(sample) != 10 {
			t.Fatalf("sample length = %d, want 10", len(sample))
		}
		if !reflect.DeepEqual(sample, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}) {
			t.Errorf("sample = %v, want first ten ascending indices", sample)
		}
	})

	t.Run("mode one with failure one is consistent", func(t *testing.T) {
		tbl := buildTable(t, []*dataset.Series{
			numeric(sch.TargetCol, 1, 1),
			numeric("PWF", 1, 1),
		})
		v := New(tbl, sch)
		if r := v.CheckFailureConsistency(); r.Status != StatusPass {
			t.Errorf("status = %s, want PASS", r.Status)
		}
	})
}

// ----------------------------------------------------------------------------
// Null Values Tests
// ----------------------------------------------------------------------------

func TestCheckNullValues(t *testing.T) {
	sch := schema.Default()

	t.Run("no nulls passes", func(t *testing.T) {
		v := New(fullTable(t), sch)
		r := v.CheckNullValues()
		if r.Status != StatusPass {
			t.Fatalf("status = %s, want PASS", r.Status)
		}
		if got := r.Details[0].Value.(int); got != 3 {
			t.Errorf("total_rows = %d, want 3", got)
		}
	})

	t.Run("numeric and text nulls counted per column", func(t *testing.T) {
		tbl := buildTable(t, []*dataset.Series{
			numeric(schema.ColTorque, 40, math.NaN(), math.NaN()),
			{Name: schema.ColProductID, Kind: dataset.KindText,
				Text: []string{"L1", "", "H3"}, Absent: []bool{false, true, false}},
			numeric(schema.ColUDI, 1, 2, 3),
		})
		v := New(tbl, sch)
		r := v.CheckNullValues()
		if r.Status != StatusWarn {
			t.Fatalf("status = %s, want WARN", r.Status)
		}
		if r.Message != "2 column(s) have null values." {
			t.Errorf("message = %q", r.Message)
		}
		if r.Details[0].Key != schema.ColTorque || r.Details[0].Value.(int) != 2 {
			t.Errorf("details[0] = %v", r.Details[0])
		}
		if r.Details[1].Key != schema.ColProductID || r.Details[1].Value.(int) != 1 {
			t.Errorf("details[1] = %v", r.Details[1])
		}
	})
}

// ----------------------------------------------------------------------------
// End-to-end scenario: missing Type column
// ----------------------------------------------------------------------------

func TestMissingTypeColumnScenario(t *testing.T) {
	sch := schema.Default()
	full := fullTable(t)
	tbl := dataset.New()
	for _, name := range full.Columns() {
		if name == schema.ColType {
			continue
		}
		col, _ := full.Column(name)
		tbl.AddColumn(col)
	}

	v := New(tbl, sch)
	results := v.RunAllChecks()

	byName := make(map[string]Result)
	for _, r := range results {
		byName[r.CheckName] = r
	}

	req := byName["Required Columns"]
	if req.Status != StatusFail {
		t.Errorf("Required Columns = %s, want FAIL", req.Status)
	}
	missing := req.Details[0].Value.([]string)
	found := false
	for _, m := range missing {
		if m == schema.ColType {
			found = true
		}
	}
	if !found {
		t.Errorf("missing_columns %v does not include %q", missing, schema.ColType)
	}

	td := byName["Type Domain"]
	if td.Status != StatusFail {
		t.Errorf("Type Domain = %s, want FAIL", td.Status)
	}
	if !strings.Contains(td.Message, "not found") {
		t.Errorf("Type Domain message = %q", td.Message)
	}
}
