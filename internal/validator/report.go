package validator

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var statusIcons = map[Status]string{
	StatusPass: "✅",
	StatusWarn: "⚠️",
	StatusFail: "❌",
}

// Report renders the accumulated results as a markdown validation report:
// a table of all checks in run order, summary counts per status, and a
// details section for every WARN or FAIL result.
func (v *Validator) Report(source string) string {
	p := message.NewPrinter(language.English)

	var b strings.Builder
	b.WriteString("# Data Validation Report\n\n")
	fmt.Fprintf(&b, "**Dataset:** %s\n", source)
	b.WriteString(p.Sprintf("**Total Records:** %d\n", v.table.NumRows()))
	fmt.Fprintf(&b, "**Total Columns:** %d\n\n", v.table.NumColumns())

	b.WriteString("## Validation Results\n\n")
	b.WriteString("| Check | Status | Message |\n")
	b.WriteString("|-------|--------|---------|\n")

	var passCount, warnCount, failCount int
	for _, r := range v.results {
		icon, ok := statusIcons[r.Status]
		if !ok {
			icon = "❓"
		}
		fmt.Fprintf(&b, "| %s | %s %s | %s |\n", r.CheckName, icon, r.Status, r.Message)

		switch r.Status {
		case StatusPass:
			passCount++
		case StatusWarn:
			warnCount++
		default:
			failCount++
		}
	}

	b.WriteString("\n## Summary\n\n")
	fmt.Fprintf(&b, "- **PASS:** %d\n", passCount)
	fmt.Fprintf(&b, "- **WARN:** %d\n", warnCount)
	fmt.Fprintf(&b, "- **FAIL:** %d\n\n", failCount)

	var issues []Result
	for _, r := range v.results {
		if r.Status == StatusWarn || r.Status == StatusFail {
			issues = append(issues, r)
		}
	}

	if len(issues) > 0 {
		b.WriteString("## Details\n\n")
		for _, r := range issues {
			fmt.Fprintf(&b, "### %s (%s)\n\n", r.CheckName, r.Status)
			b.WriteString(r.Message)
			b.WriteString("\n")
			if len(r.Details) > 0 {
				b.WriteString("\n```\n")
				for _, d := range r.Details {
					fmt.Fprintf(&b, "%s: %v\n", d.Key, d.Value)
				}
				b.WriteString("```\n")
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
