package validate

import (
	"sort"
	"strconv"
	"strings"
)

// Report aggregates per-sheet validation results plus errors not
// attributable to a single sheet.
type Report struct {
	Overall      Status
	Sheets       map[string]*Result
	GlobalErrors []string
}

// Generate renders the report as human-readable text. The output is
// byte-identical for identical input: sheets and metrics are emitted in
// sorted order, floats in shortest round-trip form. That stability is what
// makes snapshot testing of reports possible.
func (r *Report) Generate() string {
	var lines []string
	lines = append(lines, "Validation Report", "================\n")
	lines = append(lines, "Overall Status: "+string(r.Overall)+"\n")

	if len(r.Sheets) > 0 {
		lines = append(lines, "Sheet Details:")

		names := make([]string, 0, len(r.Sheets))
		for name := range r.Sheets {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			sheet := r.Sheets[name]
			lines = append(lines, "\n"+name+":")
			lines = append(lines, "  Status: "+string(sheet.Status))

			if len(sheet.Metrics) > 0 {
				lines = append(lines, "  Metrics:")
				metricNames := make([]string, 0, len(sheet.Metrics))
				for metric := range sheet.Metrics {
					metricNames = append(metricNames, metric)
				}
				sort.Strings(metricNames)
				for _, metric := range metricNames {
					lines = append(lines, "    "+metric+": "+formatFloat(sheet.Metrics[metric]))
				}
			}

			if len(sheet.Errors) > 0 {
				lines = append(lines, "  Errors:")
				for _, e := range sheet.Errors {
					lines = append(lines, "    - "+e)
				}
			}
		}
	}

	if len(r.GlobalErrors) > 0 {
		lines = append(lines, "\nGlobal Errors:")
		for _, e := range r.GlobalErrors {
			lines = append(lines, "  - "+e)
		}
	}

	return strings.Join(lines, "\n")
}

// formatFloat renders a float in its shortest exact decimal form.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
