package kpi

import (
	"fmt"
	"strings"

	"github.com/sensorlab/mfgqc/internal/dataset"
	"github.com/sensorlab/mfgqc/internal/schema"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Summary renders all KPIs into one markdown document with a fixed section
// order: dataset overview, failure rate by type, failure mode distribution,
// temperature delta analysis, then quantile analysis for torque, tool wear
// and rotational speed at the schema's default quantile pair.
func Summary(t *dataset.Table, s *schema.Schema) (string, error) {
	overall, err := OverallFailureRate(t, s)
	if err != nil {
		return "", fmt.Errorf("overall failure rate: %w", err)
	}
	byType, err := FailureRateByType(t, s)
	if err != nil {
		return "", fmt.Errorf("failure rate by type: %w", err)
	}
	modes, err := FailureModeCounts(t, s)
	if err != nil {
		return "", fmt.Errorf("failure mode counts: %w", err)
	}
	deltaStats := TempDeltaStats(t, s)

	p := message.NewPrinter(language.English)
	var b strings.Builder

	b.WriteString("# Manufacturing Quality Analysis Summary\n\n")
	b.WriteString("## Dataset Overview\n\n")
	b.WriteString(p.Sprintf("- **Total Records:** %d\n", overall.TotalRecords))
	b.WriteString(p.Sprintf("- **Total Failures:** %d\n", overall.FailureCount))
	fmt.Fprintf(&b, "- **Overall Failure Rate:** %.2f%%\n\n", overall.FailureRatePct)

	b.WriteString("## Failure Rate by Product Type\n\n")
	b.WriteString("Product types represent quality tiers (L=Low, M=Medium, H=High quality).\n\n")
	b.WriteString("| Type | Count | Failures | Failure Rate |\n")
	b.WriteString("|------|-------|----------|--------------|\n")
	for _, row := range byType {
		b.WriteString(p.Sprintf("| %s | %d | %d | ", row.Type, row.Count, row.FailureCount))
		fmt.Fprintf(&b, "%.2f%% |\n", row.FailureRatePct)
	}

	b.WriteString("\n## Failure Mode Distribution\n\n")
	b.WriteString("Note: Records can have multiple failure modes (multi-label). Percentages may exceed 100% when summed.\n\n")
	b.WriteString("| Mode | Full Name | Count | % of Failures |\n")
	b.WriteString("|------|-----------|-------|---------------|\n")
	for _, row := range modes {
		fullName := s.ModeNames[row.Mode]
		if fullName == "" {
			fullName = row.Mode
		}
		b.WriteString(p.Sprintf("| %s | %s | %d | ", row.Mode, fullName, row.Count))
		fmt.Fprintf(&b, "%.1f%% |\n", row.PctOfFailures)
	}

	b.WriteString("\n## Temperature Delta Analysis\n\n")
	b.WriteString("Temperature delta = Process temperature - Air temperature (in Kelvin).\n\n")
	if deltaStats.Err != "" {
		fmt.Fprintf(&b, "*%s*\n", deltaStats.Err)
	} else {
		b.WriteString("| Metric | Failed Records | Non-Failed Records |\n")
		b.WriteString("|--------|----------------|---------------------|\n")
		b.WriteString(p.Sprintf("| Count | %d | %d |\n", deltaStats.Failed.Count, deltaStats.NotFailed.Count))
		fmt.Fprintf(&b, "| Mean | %.2f K | %.2f K |\n", float64(deltaStats.Failed.Mean), float64(deltaStats.NotFailed.Mean))
		fmt.Fprintf(&b, "| Median | %.2f K | %.2f K |\n", float64(deltaStats.Failed.Median), float64(deltaStats.NotFailed.Median))
		fmt.Fprintf(&b, "| Std Dev | %.2f K | %.2f K |\n", float64(deltaStats.Failed.Std), float64(deltaStats.NotFailed.Std))
	}

	b.WriteString("\n## Quantile Threshold Analysis\n\n")
	b.WriteString("Failure rates at parameter extremes (10th and 90th percentiles):\n\n")
	for _, col := range []string{schema.ColTorque, schema.ColToolWear, schema.ColRotSpeed} {
		qs, err := QuantileFailureRates(t, s, col, s.QuantileLow, s.QuantileHigh)
		if err != nil {
			return "", fmt.Errorf("quantile analysis for %s: %w", col, err)
		}
		fmt.Fprintf(&b, "### %s\n\n", col)
		fmt.Fprintf(&b, "- Q10 threshold: %.2f\n", qs.QLowValue)
		fmt.Fprintf(&b, "- Q90 threshold: %.2f\n\n", qs.QHighValue)
		b.WriteString("| Segment | Count | Failures | Rate |\n")
		b.WriteString("|---------|-------|----------|------|\n")
		for _, seg := range qs.Segments {
			b.WriteString(p.Sprintf("| %s | %d | %d | ", seg.Segment, seg.Count, seg.FailureCount))
			fmt.Fprintf(&b, "%.2f%% |\n", seg.FailureRatePct)
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n\n")
	b.WriteString("*Report auto-generated by the manufacturing quality analysis pipeline.*\n")

	return b.String(), nil
}
