package dataset

import (
	"math"
	"testing"
)

func TestTableAddColumn(t *testing.T) {
	t.Run("preserves insertion order", func(t *testing.T) {
		tbl := New()
		for _, name := range []string{"c", "a", "b"} {
			if err := tbl.AddColumn(&Series{Name: name, Kind: KindNumeric, Floats: []float64{1}}); err != nil {
				t.Fatal(err)
			}
		}
		cols := tbl.Columns()
		if cols[0] != "c" || cols[1] != "a" || cols[2] != "b" {
			t.Errorf("Columns() = %v, want [c a b]", cols)
		}
	})

	t.Run("rejects duplicate name", func(t *testing.T) {
		tbl := New()
		tbl.AddColumn(&Series{Name: "x", Kind: KindNumeric, Floats: []float64{1}})
		if err := tbl.AddColumn(&Series{Name: "x", Kind: KindNumeric, Floats: []float64{2}}); err == nil {
			t.Error("expected error for duplicate column")
		}
	})

	t.Run("rejects length mismatch", func(t *testing.T) {
		tbl := New()
		tbl.AddColumn(&Series{Name: "x", Kind: KindNumeric, Floats: []float64{1, 2}})
		if err := tbl.AddColumn(&Series{Name: "y", Kind: KindNumeric, Floats: []float64{1}}); err == nil {
			t.Error("expected error for row count mismatch")
		}
	})
}

func TestTableAccessors(t *testing.T) {
	tbl := New()
	tbl.AddColumn(&Series{Name: "n", Kind: KindNumeric, Floats: []float64{1, 2}})
	tbl.AddColumn(&Series{Name: "s", Kind: KindText, Text: []string{"a", "b"}})

	if tbl.NumRows() != 2 {
		t.Errorf("NumRows = %d, want 2", tbl.NumRows())
	}
	if tbl.NumColumns() != 2 {
		t.Errorf("NumColumns = %d, want 2", tbl.NumColumns())
	}

	if _, ok := tbl.Floats("n"); !ok {
		t.Error("Floats(n) not found")
	}
	if _, ok := tbl.Floats("s"); ok {
		t.Error("Floats(s) should fail for text column")
	}
	if _, ok := tbl.Strings("s"); !ok {
		t.Error("Strings(s) not found")
	}
	if _, ok := tbl.Strings("missing"); ok {
		t.Error("Strings(missing) should fail")
	}
	if !tbl.HasColumn("n") || tbl.HasColumn("missing") {
		t.Error("HasColumn mismatch")
	}
}

func TestTableClone(t *testing.T) {
	tbl := New()
	tbl.AddColumn(&Series{Name: "n", Kind: KindNumeric, Floats: []float64{1, 2}})

	cp := tbl.Clone()
	floats, _ := cp.Floats("n")
	floats[0] = 99

	orig, _ := tbl.Floats("n")
	if orig[0] != 1 {
		t.Errorf("clone shares storage with original: %v", orig)
	}

	cp.AddColumn(&Series{Name: "extra", Kind: KindNumeric, Floats: []float64{0, 0}})
	if tbl.HasColumn("extra") {
		t.Error("adding to clone modified original")
	}
}

func TestSeriesMissingCount(t *testing.T) {
	tests := []struct {
		name   string
		series Series
		want   int
	}{
		{
			name:   "numeric NaN counted",
			series: Series{Kind: KindNumeric, Floats: []float64{1, math.NaN(), math.NaN()}},
			want:   2,
		},
		{
			name:   "numeric clean",
			series: Series{Kind: KindNumeric, Floats: []float64{1, 2}},
			want:   0,
		},
		{
			name:   "text absent markers",
			series: Series{Kind: KindText, Text: []string{"a", "", "c"}, Absent: []bool{false, true, false}},
			want:   1,
		},
		{
			name:   "text without markers",
			series: Series{Kind: KindText, Text: []string{"a", "b"}},
			want:   0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.series.MissingCount(); got != tt.want {
				t.Errorf("MissingCount = %d, want %d", got, tt.want)
			}
		})
	}
}
