package validate

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/specialistvlad/cellflow/internal/table"
)

// DefaultTolerance is the maximum absolute numeric difference treated as
// equal when the caller does not configure one.
const DefaultTolerance = 1e-10

// Status classifies the outcome of one comparison unit.
type Status string

const (
	// StatusPassed means every check succeeded.
	StatusPassed Status = "passed"
	// StatusFailed means at least one discrepancy was found.
	StatusFailed Status = "failed"
	// StatusError means the comparison itself could not be carried out.
	StatusError Status = "error"
)

// Result is the outcome of validating one comparison unit (a sheet or a
// whole dataset). It is an output value: built fresh per call, never
// mutated after being returned, and holds no reference to its inputs.
type Result struct {
	Status  Status
	Errors  []string
	Metrics map[string]float64
}

// Metric names reported by the numeric checks.
const (
	MetricMaxAbsoluteError  = "max_absolute_error"
	MetricMeanAbsoluteError = "mean_absolute_error"
	MetricWithinTolerance   = "within_tolerance"
)

// Validator compares tabular datasets under a configured numeric
// tolerance. The zero value is not useful; use New.
type Validator struct {
	// Tolerance is the inclusive upper bound on the absolute difference
	// for two numeric values to count as equal.
	Tolerance float64
	// Strict controls pass/fail semantics for numeric checks. When false,
	// metrics are still computed but per-column validity is reported as
	// true-by-default; callers needing a hard verdict must enable it.
	Strict bool
}

// New creates a Validator. A tolerance of zero or less selects
// DefaultTolerance.
func New(tolerance float64, strict bool) *Validator {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Validator{Tolerance: tolerance, Strict: strict}
}

// ValidateStructure checks that two tables have the same shape and the
// same column set. A shape mismatch fails immediately without column-level
// checks, since they would be meaningless. Column-set comparison is
// order-independent and reports each missing or extra column individually.
func (v *Validator) ValidateStructure(original, processed *table.Table) (bool, []string) {
	var errs []string

	origRows, origCols := original.Rows(), original.Cols()
	procRows, procCols := processed.Rows(), processed.Cols()
	if origRows != procRows || origCols != procCols {
		errs = append(errs, fmt.Sprintf(
			"shape mismatch: original (%d, %d) vs processed (%d, %d)",
			origRows, origCols, procRows, procCols))
		return false, errs
	}

	procSeen := make(map[string]bool, procCols)
	for _, name := range processed.ColumnNames() {
		procSeen[name] = true
	}
	for _, name := range original.ColumnNames() {
		if !procSeen[name] {
			errs = append(errs, fmt.Sprintf("column %q missing in processed data", name))
		}
	}
	origSeen := make(map[string]bool, origCols)
	for _, name := range original.ColumnNames() {
		origSeen[name] = true
	}
	for _, name := range processed.ColumnNames() {
		if !origSeen[name] {
			errs = append(errs, fmt.Sprintf("column %q extra in processed data", name))
		}
	}

	return len(errs) == 0, errs
}

// ValidateTypes checks kind compatibility for every column the two tables
// share. Compatibility is permissive rather than exact: matching kinds are
// compatible, and an open column is compatible with anything, so benign
// representation differences do not fail while genuine type drift does.
func (v *Validator) ValidateTypes(original, processed *table.Table) (bool, []string) {
	var errs []string

	for _, origCol := range original.Columns() {
		procCol, ok := processed.Column(origCol.Name())
		if !ok {
			continue // structure check owns missing columns
		}
		if !table.CompatibleKinds(origCol.Kind(), procCol.Kind()) {
			errs = append(errs, fmt.Sprintf(
				"type mismatch in column %q: original %s vs processed %s",
				origCol.Name(), origCol.Kind(), procCol.Kind()))
		}
	}

	return len(errs) == 0, errs
}

// ValidateNumeric compares two numeric columns element-wise within the
// tolerance. Positions missing on both sides are excluded from the diff
// entirely; a position missing on exactly one side is a NaN-alignment
// error, reported as a message and never coerced into a numeric
// difference.
//
// When both columns are numeric the returned metrics always hold
// max_absolute_error, mean_absolute_error, and within_tolerance (the
// percentage of compared positions whose difference is within the
// inclusive tolerance). If either column is not numeric the check is not
// applicable: it returns false with empty metrics and the caller must
// route the pair through exact comparison instead.
func (v *Validator) ValidateNumeric(original, processed *table.Column) (bool, map[string]float64, []string) {
	if !original.IsNumeric() || !processed.IsNumeric() {
		return false, map[string]float64{}, nil
	}

	n := original.Len()
	if processed.Len() < n {
		n = processed.Len()
	}

	var (
		errs       []string
		nanSkew    int
		maxDiff    float64
		sumDiff    float64
		withinTol  int
		comparable int
	)

	for i := 0; i < n; i++ {
		origMissing, procMissing := original.Missing(i), processed.Missing(i)
		switch {
		case origMissing && procMissing:
			continue
		case origMissing != procMissing:
			nanSkew++
			continue
		}

		diff := original.Float(i) - processed.Float(i)
		if diff < 0 {
			diff = -diff
		}
		comparable++
		sumDiff += diff
		if diff > maxDiff {
			maxDiff = diff
		}
		if diff <= v.Tolerance {
			withinTol++
		}
	}

	if nanSkew > 0 {
		errs = append(errs, fmt.Sprintf(
			"NaN alignment mismatch in column %q: %d position(s) missing on one side only",
			original.Name(), nanSkew))
	}

	metrics := map[string]float64{
		MetricMaxAbsoluteError:  0,
		MetricMeanAbsoluteError: 0,
		MetricWithinTolerance:   100,
	}
	if comparable > 0 {
		metrics[MetricMaxAbsoluteError] = maxDiff
		metrics[MetricMeanAbsoluteError] = sumDiff / float64(comparable)
		metrics[MetricWithinTolerance] = float64(withinTol) / float64(comparable) * 100
	}

	valid := true
	if v.Strict {
		valid = nanSkew == 0 && withinTol == comparable
	}
	return valid, metrics, errs
}

// ValidateFormulaResult compares the original and recomputed series of one
// formula. NaN masks are aligned first; any skew is reported against the
// formula's identity. The surviving positions go through the numeric check
// and a failure is summarized with the metrics rather than dumped per
// position. Any panic during comparison is converted into a single
// descriptive error so one broken formula never aborts the rest of the
// sheet.
func (v *Validator) ValidateFormulaResult(formulaID string, original, processed *table.Column) (valid bool, errs []string) {
	defer func() {
		if r := recover(); r != nil {
			valid = false
			errs = append(errs, fmt.Sprintf("error validating formula %s: %v", formulaID, r))
		}
	}()

	if original.Len() != processed.Len() {
		return false, []string{fmt.Sprintf(
			"formula %s series length mismatch: %d vs %d",
			formulaID, original.Len(), processed.Len())}
	}

	nanSkew := 0
	for i := 0; i < original.Len(); i++ {
		if original.Missing(i) != processed.Missing(i) {
			nanSkew++
		}
	}
	if nanSkew > 0 {
		errs = append(errs, fmt.Sprintf(
			"mismatch in NaN values for formula %s: %d position(s)", formulaID, nanSkew))
	}

	if !original.IsNumeric() || !processed.IsNumeric() {
		errs = append(errs, fmt.Sprintf(
			"cannot compare non-numeric series for formula %s", formulaID))
		return false, errs
	}

	numValid, metrics, _ := v.ValidateNumeric(original, processed)
	if !numValid {
		errs = append(errs, fmt.Sprintf(
			"formula %s results differ: %s", formulaID, formatMetrics(metrics)))
	}

	return len(errs) == 0, errs
}

// formatMetrics renders metrics deterministically, sorted by name.
func formatMetrics(metrics map[string]float64) string {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	out := ""
	for i, name := range names {
		if i > 0 {
			out += ", "
		}
		out += name + "=" + strconv.FormatFloat(metrics[name], 'g', -1, 64)
	}
	return out
}
