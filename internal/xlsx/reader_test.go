package xlsx

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, build func(f *excelize.File)) string {
	t.Helper()

	f := excelize.NewFile()
	build(f)

	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestReadBasicWorkbook(t *testing.T) {
	path := writeWorkbook(t, func(f *excelize.File) {
		require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"price", "qty", "total"}))
		require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{10.0, 2.0}))
		require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{20.0, 3.0}))
		require.NoError(t, f.SetCellFormula("Sheet1", "C2", "A2*B2"))
		require.NoError(t, f.SetCellFormula("Sheet1", "C3", "A2*B2"))
	})

	wb, err := Read(path)
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)

	sheet, ok := wb.Sheet("Sheet1")
	require.True(t, ok)
	assert.Equal(t, []string{"Sheet1"}, wb.SheetNames())

	assert.Equal(t, 2, sheet.Data.Rows())
	assert.Equal(t, []string{"price", "qty", "total"}, sheet.Data.ColumnNames())

	price, ok := sheet.Data.Column("price")
	require.True(t, ok)
	assert.True(t, price.IsNumeric())
	assert.Equal(t, 10.0, price.Float(0))
	assert.Equal(t, 20.0, price.Float(1))

	assert.Equal(t, map[string]string{"total": "=A2*B2"}, sheet.Formulas)
	assert.Equal(t, []string{"price", "qty"}, sheet.InputColumns)
}

func TestReadTextAndMissingCells(t *testing.T) {
	path := writeWorkbook(t, func(f *excelize.File) {
		require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"label", "amount"}))
		require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"alpha", 1.5}))
		require.NoError(t, f.SetCellValue("Sheet1", "A3", "beta"))
	})

	wb, err := Read(path)
	require.NoError(t, err)

	sheet, _ := wb.Sheet("Sheet1")
	label, ok := sheet.Data.Column("label")
	require.True(t, ok)
	assert.False(t, label.IsNumeric())
	assert.Equal(t, "alpha", label.Cell(0))

	amount, ok := sheet.Data.Column("amount")
	require.True(t, ok)
	assert.True(t, amount.IsNumeric())
	assert.Equal(t, 1.5, amount.Float(0))
	assert.True(t, math.IsNaN(amount.Float(1)), "empty numeric cell reads as NaN")
}

func TestReadMultipleSheetsAndResolver(t *testing.T) {
	path := writeWorkbook(t, func(f *excelize.File) {
		require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"base"}))
		require.NoError(t, f.SetCellValue("Sheet1", "A2", 100.0))

		_, err := f.NewSheet("Sheet2")
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet2", "A1", &[]any{"rate", "scaled"}))
		require.NoError(t, f.SetCellValue("Sheet2", "A2", 0.25))
		require.NoError(t, f.SetCellFormula("Sheet2", "B2", "Sheet1!A2*A2"))
	})

	wb, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sheet1", "Sheet2"}, wb.SheetNames())

	resolver := wb.Resolver()
	name, ok := resolver.ColumnName("Sheet2", "B")
	require.True(t, ok)
	assert.Equal(t, "scaled", name)

	name, ok = resolver.ColumnName("Sheet1", "A")
	require.True(t, ok)
	assert.Equal(t, "base", name)

	_, ok = resolver.ColumnName("Sheet1", "Z")
	assert.False(t, ok)
	_, ok = resolver.ColumnName("NoSuchSheet", "A")
	assert.False(t, ok)
}

func TestReadBlankHeaderGetsPlaceholder(t *testing.T) {
	path := writeWorkbook(t, func(f *excelize.File) {
		require.NoError(t, f.SetCellValue("Sheet1", "A1", "named"))
		require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{1.0, 2.0}))
	})

	wb, err := Read(path)
	require.NoError(t, err)

	sheet, _ := wb.Sheet("Sheet1")
	assert.Equal(t, []string{"named", "Column2"}, sheet.Data.ColumnNames())
}

func TestReadInconsistentColumnFormula(t *testing.T) {
	path := writeWorkbook(t, func(f *excelize.File) {
		require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"x", "y"}))
		require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{1.0}))
		require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{2.0}))
		require.NoError(t, f.SetCellFormula("Sheet1", "B2", "A2*2"))
		require.NoError(t, f.SetCellFormula("Sheet1", "B3", "A3+7"))
	})

	_, err := Read(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inconsistent formulas in column y")
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open workbook")
}
