package validate

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/specialistvlad/cellflow/internal/table"
)

// Compare runs the full pipeline for one sheet: structure, then types,
// then per-column values. A structural mismatch fails the run immediately
// and skips the later stages, since column-level comparison of differently
// shaped tables is meaningless.
func (v *Validator) Compare(original, processed *table.Table) *Result {
	result := &Result{Status: StatusPassed, Metrics: map[string]float64{}}

	if processed == nil {
		result.Status = StatusFailed
		result.Errors = append(result.Errors, "missing processed data")
		return result
	}

	if ok, errs := v.ValidateStructure(original, processed); !ok {
		result.Status = StatusFailed
		result.Errors = append(result.Errors, errs...)
		return result
	}

	if ok, errs := v.ValidateTypes(original, processed); !ok {
		result.Status = StatusFailed
		result.Errors = append(result.Errors, errs...)
	}

	v.compareValues(original, processed, result)
	return result
}

// compareValues checks every shared column: numeric columns go through the
// tolerance comparison, everything else through exact cell equality.
// Column metrics are folded into sheet-level aggregates.
func (v *Validator) compareValues(original, processed *table.Table, result *Result) {
	var (
		maxErr     float64
		meanSum    float64
		withinSum  float64
		numericCnt int
	)

	for _, origCol := range original.Columns() {
		procCol, ok := processed.Column(origCol.Name())
		if !ok {
			continue
		}

		if origCol.IsNumeric() && procCol.IsNumeric() {
			valid, metrics, errs := v.ValidateNumeric(origCol, procCol)
			result.Errors = append(result.Errors, errs...)
			if len(errs) > 0 || !valid {
				result.Status = StatusFailed
			}
			if !valid {
				result.Errors = append(result.Errors, fmt.Sprintf(
					"value mismatch in column %q: max difference %s",
					origCol.Name(), formatFloat(metrics[MetricMaxAbsoluteError])))
			}

			numericCnt++
			if metrics[MetricMaxAbsoluteError] > maxErr {
				maxErr = metrics[MetricMaxAbsoluteError]
			}
			meanSum += metrics[MetricMeanAbsoluteError]
			withinSum += metrics[MetricWithinTolerance]
			continue
		}

		if n := exactMismatches(origCol, procCol); n > 0 {
			result.Status = StatusFailed
			result.Errors = append(result.Errors, fmt.Sprintf(
				"value mismatch in column %q: %d differing cell(s)", origCol.Name(), n))
		}
	}

	if numericCnt > 0 {
		result.Metrics[MetricMaxAbsoluteError] = maxErr
		result.Metrics[MetricMeanAbsoluteError] = meanSum / float64(numericCnt)
		result.Metrics[MetricWithinTolerance] = withinSum / float64(numericCnt)
	}
}

// exactMismatches counts cells that differ between two non-numeric
// columns. Cells missing on both sides are equal; missing on one side is a
// mismatch. DeepEqual handles open-kind cells holding uncomparable values
// like slices, which == would panic on.
func exactMismatches(original, processed *table.Column) int {
	n := original.Len()
	if processed.Len() < n {
		n = processed.Len()
	}
	count := 0
	for i := 0; i < n; i++ {
		origMissing, procMissing := original.Missing(i), processed.Missing(i)
		if origMissing && procMissing {
			continue
		}
		if origMissing != procMissing || !reflect.DeepEqual(original.Cell(i), processed.Cell(i)) {
			count++
		}
	}
	return count
}

// CompareWorkbook validates every sheet of the original against its
// processed counterpart and aggregates the per-sheet results into a
// Report. Sheets present only in the processed set are reported as global
// errors; sheets missing from it fail individually.
func (v *Validator) CompareWorkbook(original, processed map[string]*table.Table) *Report {
	report := &Report{
		Overall: StatusPassed,
		Sheets:  make(map[string]*Result, len(original)),
	}

	for _, name := range sortedKeys(original) {
		result := v.Compare(original[name], processed[name])
		report.Sheets[name] = result
		if result.Status != StatusPassed {
			report.Overall = StatusFailed
			for _, e := range result.Errors {
				report.GlobalErrors = append(report.GlobalErrors, name+": "+e)
			}
		}
	}

	for _, name := range sortedKeys(processed) {
		if _, ok := original[name]; !ok {
			report.Overall = StatusFailed
			report.GlobalErrors = append(report.GlobalErrors,
				fmt.Sprintf("unexpected sheet in processed data: %s", name))
		}
	}

	return report
}

func sortedKeys(m map[string]*table.Table) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
