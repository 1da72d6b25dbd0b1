package table

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("equal length columns", func(t *testing.T) {
		tbl, err := New(
			NewNumeric("a", []float64{1, 2}),
			NewText("b", []string{"x", "y"}),
		)
		require.NoError(t, err)
		assert.Equal(t, 2, tbl.Rows())
		assert.Equal(t, 2, tbl.Cols())
		assert.Equal(t, []string{"a", "b"}, tbl.ColumnNames())
	})

	t.Run("mismatched lengths rejected", func(t *testing.T) {
		_, err := New(
			NewNumeric("a", []float64{1, 2}),
			NewNumeric("b", []float64{1}),
		)
		require.Error(t, err)
	})

	t.Run("duplicate names rejected", func(t *testing.T) {
		_, err := New(
			NewNumeric("a", []float64{1}),
			NewText("a", []string{"x"}),
		)
		require.Error(t, err)
	})
}

func TestColumnKinds(t *testing.T) {
	assert.Equal(t, "numeric", KindNumeric.String())
	assert.Equal(t, "datetime", KindDatetime.String())
	assert.Equal(t, "text", KindText.String())
	assert.Equal(t, "open", KindOpen.String())
}

func TestCompatibleKinds(t *testing.T) {
	assert.True(t, CompatibleKinds(KindNumeric, KindNumeric))
	assert.True(t, CompatibleKinds(KindText, KindText))
	assert.True(t, CompatibleKinds(KindDatetime, KindDatetime))

	// Open is compatible with everything.
	assert.True(t, CompatibleKinds(KindOpen, KindNumeric))
	assert.True(t, CompatibleKinds(KindText, KindOpen))

	assert.False(t, CompatibleKinds(KindNumeric, KindText))
	assert.False(t, CompatibleKinds(KindDatetime, KindNumeric))
}

func TestMissingCells(t *testing.T) {
	col := NewNumeric("a", []float64{1, math.NaN()})
	assert.False(t, col.Missing(0))
	assert.True(t, col.Missing(1))
	assert.True(t, math.IsNaN(col.Float(1)))

	open := NewOpen("b", []any{nil, "x", math.NaN()})
	assert.True(t, open.Missing(0))
	assert.False(t, open.Missing(1))
	assert.True(t, open.Missing(2))
}

func TestIsNumeric(t *testing.T) {
	assert.True(t, NewNumeric("a", []float64{1}).IsNumeric())
	assert.False(t, NewText("b", []string{"x"}).IsNumeric())
	assert.False(t, NewDatetime("c", []time.Time{time.Now()}).IsNumeric())

	// Open columns count as numeric only when every present cell is a float.
	assert.True(t, NewOpen("d", []any{1.0, nil, 2.5}).IsNumeric())
	assert.False(t, NewOpen("e", []any{1.0, "x"}).IsNumeric())
}

func TestSetColumn(t *testing.T) {
	tbl, err := New(NewNumeric("a", []float64{1, 2}))
	require.NoError(t, err)

	// Replace an existing column.
	require.NoError(t, tbl.SetColumn(NewNumeric("a", []float64{3, 4})))
	col, ok := tbl.Column("a")
	require.True(t, ok)
	assert.Equal(t, 3.0, col.Float(0))

	// Append a new one.
	require.NoError(t, tbl.SetColumn(NewText("b", []string{"x", "y"})))
	assert.Equal(t, 2, tbl.Cols())

	// Row-count mismatch is rejected.
	require.Error(t, tbl.SetColumn(NewNumeric("a", []float64{1})))
}

func TestClone(t *testing.T) {
	tbl, err := New(NewNumeric("a", []float64{1, 2}))
	require.NoError(t, err)

	cloned := tbl.Clone()
	require.NoError(t, cloned.SetColumn(NewNumeric("b", []float64{9, 9})))

	assert.Equal(t, 1, tbl.Cols())
	assert.Equal(t, 2, cloned.Cols())
}
