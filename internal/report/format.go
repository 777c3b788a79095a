package report

import (
	"fmt"
	"html/template"
)

var templateFuncs = template.FuncMap{
	"fixed1":     fixed1,
	"fixed2":     fixed2,
	"efficiency": formatEfficiency,
	"percent":    formatPercent,
}

func fixed1(v float64) string { return fmt.Sprintf("%.1f", v) }
func fixed2(v float64) string { return fmt.Sprintf("%.2f", v) }

// formatEfficiency shows a ratio as a percentage. Values above 1 are taken
// to be percentages already.
func formatEfficiency(v float64) string {
	if v <= 1 {
		return fmt.Sprintf("%.1f%%", v*100)
	}
	return formatPercent(v)
}

func formatPercent(v float64) string { return fmt.Sprintf("%.1f%%", v) }
