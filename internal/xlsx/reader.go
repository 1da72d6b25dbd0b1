package xlsx

import (
	"fmt"
	"math"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/specialistvlad/cellflow/internal/formula"
	"github.com/specialistvlad/cellflow/internal/table"
)

// Sheet holds everything the engine needs to know about one worksheet.
type Sheet struct {
	Name         string
	Data         *table.Table
	Formulas     map[string]string
	InputColumns []string

	headers []string
}

// Workbook is a fully read workbook with sheets in workbook order.
type Workbook struct {
	Sheets []*Sheet

	byName map[string]*Sheet
}

// Sheet returns the worksheet with the given name.
func (w *Workbook) Sheet(name string) (*Sheet, bool) {
	s, ok := w.byName[name]
	return s, ok
}

// SheetNames returns the sheet names in workbook order.
func (w *Workbook) SheetNames() []string {
	names := make([]string, 0, len(w.Sheets))
	for _, s := range w.Sheets {
		names = append(names, s.Name)
	}
	return names
}

// Resolver maps cell coordinates from formulas onto column header names.
func (w *Workbook) Resolver() formula.Resolver {
	return formula.ResolverFunc(func(sheet, columnLetter string) (string, bool) {
		s, ok := w.byName[sheet]
		if !ok {
			return "", false
		}
		n, err := excelize.ColumnNameToNumber(columnLetter)
		if err != nil || n > len(s.headers) {
			return "", false
		}
		return s.headers[n-1], true
	})
}

// Read opens a workbook file and reads every sheet.
func Read(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	wb := &Workbook{byName: make(map[string]*Sheet)}
	for _, name := range f.GetSheetList() {
		sheet, err := readSheet(f, name)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", name, err)
		}
		wb.Sheets = append(wb.Sheets, sheet)
		wb.byName[name] = sheet
	}
	return wb, nil
}

func readSheet(f *excelize.File, name string) (*Sheet, error) {
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	headers := sheetHeaders(rows)
	dataRows := 0
	if len(rows) > 1 {
		dataRows = len(rows) - 1
	}

	columns := make([]*table.Column, 0, len(headers))
	for j, header := range headers {
		columns = append(columns, readColumn(rows, j, header, dataRows))
	}
	data, err := table.New(columns...)
	if err != nil {
		return nil, err
	}

	sheet := &Sheet{
		Name:     name,
		Data:     data,
		Formulas: make(map[string]string),
		headers:  headers,
	}
	if err := readFormulas(f, sheet, len(rows)); err != nil {
		return nil, err
	}
	return sheet, nil
}

// sheetHeaders derives column names from row 1. Blank headers get a
// positional placeholder name, so every column stays addressable.
func sheetHeaders(rows [][]string) []string {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	headers := make([]string, width)
	for j := range headers {
		if len(rows) > 0 && j < len(rows[0]) && rows[0][j] != "" {
			headers[j] = rows[0][j]
		} else {
			headers[j] = fmt.Sprintf("Column%d", j+1)
		}
	}
	return headers
}

// readColumn builds one table column from the raw cell strings. A column
// where every non-empty cell parses as a number becomes numeric with NaN
// for the gaps; anything else is kept as text.
func readColumn(rows [][]string, j int, header string, dataRows int) *table.Column {
	raw := make([]string, dataRows)
	for i := 0; i < dataRows; i++ {
		row := rows[i+1]
		if j < len(row) {
			raw[i] = row[j]
		}
	}

	numeric := true
	for _, cell := range raw {
		if cell == "" {
			continue
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			numeric = false
			break
		}
	}

	if numeric {
		values := make([]float64, dataRows)
		for i, cell := range raw {
			if cell == "" {
				values[i] = math.NaN()
				continue
			}
			values[i], _ = strconv.ParseFloat(cell, 64)
		}
		return table.NewNumeric(header, values)
	}
	return table.NewText(header, raw)
}

// readFormulas records each column's formula from its first data row and
// rejects columns whose later rows carry a different formula.
func readFormulas(f *excelize.File, sheet *Sheet, rowCount int) error {
	for j, header := range sheet.headers {
		first, err := columnFormula(f, sheet.Name, j+1, 2)
		if err != nil {
			return err
		}
		if first == "" {
			sheet.InputColumns = append(sheet.InputColumns, header)
			continue
		}
		sheet.Formulas[header] = first

		for row := 3; row <= rowCount; row++ {
			got, err := columnFormula(f, sheet.Name, j+1, row)
			if err != nil {
				return err
			}
			if got != "" && got != first {
				return fmt.Errorf("inconsistent formulas in column %s: %q vs %q", header, first, got)
			}
		}
	}
	return nil
}

func columnFormula(f *excelize.File, sheet string, col, row int) (string, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", err
	}
	formulaStr, err := f.GetCellFormula(sheet, cell)
	if err != nil {
		return "", fmt.Errorf("failed to read formula at %s: %w", cell, err)
	}
	if formulaStr == "" {
		return "", nil
	}
	return "=" + formulaStr, nil
}
