package validate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/cellflow/internal/table"
)

func mustTable(t *testing.T, cols ...*table.Column) *table.Table {
	t.Helper()
	tbl, err := table.New(cols...)
	require.NoError(t, err)
	return tbl
}

func TestValidateStructure(t *testing.T) {
	v := New(0, false)

	t.Run("equal shape and columns passes regardless of order", func(t *testing.T) {
		original := mustTable(t,
			table.NewNumeric("a", []float64{1, 2}),
			table.NewText("b", []string{"x", "y"}),
		)
		processed := mustTable(t,
			table.NewText("b", []string{"x", "y"}),
			table.NewNumeric("a", []float64{1, 2}),
		)

		ok, errs := v.ValidateStructure(original, processed)
		assert.True(t, ok)
		assert.Empty(t, errs)
	})

	t.Run("row count mismatch fails immediately", func(t *testing.T) {
		original := mustTable(t, table.NewNumeric("a", []float64{1, 2}))
		processed := mustTable(t, table.NewNumeric("a", []float64{1}))

		ok, errs := v.ValidateStructure(original, processed)
		assert.False(t, ok)
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0], "shape mismatch")
	})

	t.Run("column differences reported individually", func(t *testing.T) {
		original := mustTable(t,
			table.NewNumeric("a", []float64{1}),
			table.NewNumeric("b", []float64{2}),
		)
		processed := mustTable(t,
			table.NewNumeric("a", []float64{1}),
			table.NewNumeric("c", []float64{3}),
		)

		ok, errs := v.ValidateStructure(original, processed)
		assert.False(t, ok)
		require.Len(t, errs, 2)
		assert.Contains(t, errs[0], `column "b" missing in processed`)
		assert.Contains(t, errs[1], `column "c" extra in processed`)
	})
}

func TestValidateTypes(t *testing.T) {
	v := New(0, false)

	t.Run("matching and open kinds are compatible", func(t *testing.T) {
		original := mustTable(t,
			table.NewNumeric("a", []float64{1}),
			table.NewOpen("b", []any{"x"}),
		)
		processed := mustTable(t,
			table.NewNumeric("a", []float64{1}),
			table.NewText("b", []string{"x"}),
		)

		ok, errs := v.ValidateTypes(original, processed)
		assert.True(t, ok)
		assert.Empty(t, errs)
	})

	t.Run("numeric vs text is type drift", func(t *testing.T) {
		original := mustTable(t, table.NewNumeric("a", []float64{1}))
		processed := mustTable(t, table.NewText("a", []string{"1"}))

		ok, errs := v.ValidateTypes(original, processed)
		assert.False(t, ok)
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0], `type mismatch in column "a": original numeric vs processed text`)
	})
}

func TestValidateNumeric(t *testing.T) {
	t.Run("tolerance boundary is inclusive", func(t *testing.T) {
		v := New(0.5, true)
		original := table.NewNumeric("a", []float64{1, 2, 3})
		processed := table.NewNumeric("a", []float64{1.5, 2, 3})

		valid, metrics, errs := v.ValidateNumeric(original, processed)
		assert.True(t, valid)
		assert.Empty(t, errs)
		assert.Equal(t, 0.5, metrics[MetricMaxAbsoluteError])
		assert.Equal(t, 100.0, metrics[MetricWithinTolerance])
	})

	t.Run("one position beyond tolerance", func(t *testing.T) {
		v := New(0.5, true)
		original := table.NewNumeric("a", []float64{1, 2, 3, 4, 5})
		processed := table.NewNumeric("a", []float64{1.6, 2, 3, 4, 5})

		valid, metrics, errs := v.ValidateNumeric(original, processed)
		assert.False(t, valid)
		assert.Empty(t, errs)
		assert.InDelta(t, 0.6, metrics[MetricMaxAbsoluteError], 1e-12)
		// 4 of 5 positions within tolerance.
		assert.Equal(t, 80.0, metrics[MetricWithinTolerance])
	})

	t.Run("permissive mode reports metrics but stays valid", func(t *testing.T) {
		v := New(0.5, false)
		original := table.NewNumeric("a", []float64{1})
		processed := table.NewNumeric("a", []float64{100})

		valid, metrics, _ := v.ValidateNumeric(original, processed)
		assert.True(t, valid)
		assert.Equal(t, 99.0, metrics[MetricMaxAbsoluteError])
	})

	t.Run("NaN on both sides is excluded from the diff", func(t *testing.T) {
		v := New(0.5, true)
		original := table.NewNumeric("a", []float64{1, math.NaN(), 3})
		processed := table.NewNumeric("a", []float64{1, math.NaN(), 3})

		valid, metrics, errs := v.ValidateNumeric(original, processed)
		assert.True(t, valid)
		assert.Empty(t, errs)
		assert.Equal(t, 0.0, metrics[MetricMaxAbsoluteError])
		assert.Equal(t, 100.0, metrics[MetricWithinTolerance])
	})

	t.Run("one sided NaN is an alignment error, not a numeric diff", func(t *testing.T) {
		v := New(0.5, true)
		original := table.NewNumeric("a", []float64{1, math.NaN()})
		processed := table.NewNumeric("a", []float64{1, 2})

		valid, metrics, errs := v.ValidateNumeric(original, processed)
		assert.False(t, valid)
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0], "NaN alignment mismatch")
		// The skewed position never contributes to the numeric metrics.
		assert.Equal(t, 0.0, metrics[MetricMaxAbsoluteError])
	})

	t.Run("non numeric input is not applicable", func(t *testing.T) {
		v := New(0.5, true)
		original := table.NewText("a", []string{"x"})
		processed := table.NewNumeric("a", []float64{1})

		valid, metrics, errs := v.ValidateNumeric(original, processed)
		assert.False(t, valid)
		assert.Empty(t, metrics)
		assert.Empty(t, errs)
	})
}

func TestValidateFormulaResult(t *testing.T) {
	t.Run("aligned series within tolerance passes", func(t *testing.T) {
		v := New(0.5, true)
		original := table.NewNumeric("a", []float64{1, math.NaN(), 3})
		processed := table.NewNumeric("a", []float64{1.2, math.NaN(), 3})

		valid, errs := v.ValidateFormulaResult("Sheet1.Total", original, processed)
		assert.True(t, valid)
		assert.Empty(t, errs)
	})

	t.Run("NaN skew named by formula identity", func(t *testing.T) {
		v := New(0.5, true)
		original := table.NewNumeric("a", []float64{1, math.NaN()})
		processed := table.NewNumeric("a", []float64{1, 2})

		valid, errs := v.ValidateFormulaResult("Sheet1.Total", original, processed)
		assert.False(t, valid)
		require.NotEmpty(t, errs)
		assert.Contains(t, errs[0], "mismatch in NaN values for formula Sheet1.Total")
	})

	t.Run("failure reports a metric summary", func(t *testing.T) {
		v := New(0.5, true)
		original := table.NewNumeric("a", []float64{1, 2})
		processed := table.NewNumeric("a", []float64{5, 2})

		valid, errs := v.ValidateFormulaResult("Sheet1.Total", original, processed)
		assert.False(t, valid)
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0], "formula Sheet1.Total results differ")
		assert.Contains(t, errs[0], MetricMaxAbsoluteError)
	})

	t.Run("non numeric series becomes one descriptive error", func(t *testing.T) {
		v := New(0.5, true)
		original := table.NewText("a", []string{"x", "y"})
		processed := table.NewNumeric("a", []float64{1, 2})

		valid, errs := v.ValidateFormulaResult("Sheet1.Total", original, processed)
		assert.False(t, valid)
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0], "cannot compare non-numeric series for formula Sheet1.Total")
	})
}
