package viz

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sensorlab/mfgqc/internal/dataset"
	"github.com/sensorlab/mfgqc/internal/feature"
	"github.com/sensorlab/mfgqc/internal/schema"
)

func fixtureTable(t *testing.T) *dataset.Table {
	t.Helper()
	tbl := dataset.New()
	cols := []*dataset.Series{
		{Name: schema.ColType, Kind: dataset.KindText, Text: []string{"L", "M", "H"}},
		{Name: schema.ColAirTemp, Kind: dataset.KindNumeric, Floats: []float64{298.1, 298.5, 299.0}},
		{Name: schema.ColProcessTemp, Kind: dataset.KindNumeric, Floats: []float64{308.6, 309.5, 310.0}},
		{Name: schema.ColTarget, Kind: dataset.KindNumeric, Floats: []float64{0, 1, 0}},
		{Name: "TWF", Kind: dataset.KindNumeric, Floats: []float64{0, 1, 0}},
		{Name: "HDF", Kind: dataset.KindNumeric, Floats: []float64{0, 0, 0}},
		{Name: "PWF", Kind: dataset.KindNumeric, Floats: []float64{0, 0, 0}},
		{Name: "OSF", Kind: dataset.KindNumeric, Floats: []float64{0, 0, 0}},
		{Name: "RNF", Kind: dataset.KindNumeric, Floats: []float64{0, 0, 0}},
	}
	for _, c := range cols {
		if err := tbl.AddColumn(c); err != nil {
			t.Fatal(err)
		}
	}
	return tbl
}

func TestGenerateAll(t *testing.T) {
	sch := schema.Default()
	derived, err := feature.Preprocess(fixtureTable(t), sch)
	if err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(t.TempDir(), "figures")
	if err := GenerateAll(derived, sch, dir); err != nil {
		t.Fatalf("GenerateAll() error = %v", err)
	}

	for _, name := range []string{FigFailureRateByType, FigFailureModeCounts, FigTempDelta} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("figure %s not written: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("figure %s is empty", name)
		}
	}
}

func TestTempDeltaByFailure_RequiresPreprocessing(t *testing.T) {
	sch := schema.Default()
	path := filepath.Join(t.TempDir(), "chart.html")

	err := TempDeltaByFailure(fixtureTable(t), sch, path)
	if err == nil {
		t.Fatal("expected error when the derived column is missing")
	}
}
