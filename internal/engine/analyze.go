package engine

import (
	"fmt"
	"sort"

	"github.com/specialistvlad/cellflow/internal/formula"
	"github.com/specialistvlad/cellflow/internal/xlsx"
)

// SheetAnalysis summarizes the structure of one worksheet.
type SheetAnalysis struct {
	Name           string   `json:"name"`
	RowCount       int      `json:"row_count"`
	ColumnCount    int      `json:"column_count"`
	InputColumns   []string `json:"input_columns"`
	FormulaColumns []string `json:"formula_columns"`
}

// CrossReference records one formula column and the columns it reads.
type CrossReference struct {
	FromSheet  string   `json:"from_sheet"`
	FromColumn string   `json:"from_column"`
	References []string `json:"references"`
}

// Analysis is the structural report produced without evaluating anything.
type Analysis struct {
	Sheets          []SheetAnalysis  `json:"sheets"`
	CrossReferences []CrossReference `json:"cross_references"`
}

// Analyze inspects a workbook's structure and dependencies without
// running any formulas.
func (e *Engine) Analyze(wb *xlsx.Workbook) (*Analysis, error) {
	resolver := wb.Resolver()
	analysis := &Analysis{}

	for _, sheet := range wb.Sheets {
		formulaColumns := make([]string, 0, len(sheet.Formulas))
		for name := range sheet.Formulas {
			formulaColumns = append(formulaColumns, name)
		}
		sort.Strings(formulaColumns)

		analysis.Sheets = append(analysis.Sheets, SheetAnalysis{
			Name:           sheet.Name,
			RowCount:       sheet.Data.Rows(),
			ColumnCount:    sheet.Data.Cols(),
			InputColumns:   sheet.InputColumns,
			FormulaColumns: formulaColumns,
		})

		for _, colName := range formulaColumns {
			refs, err := formula.ExtractRefs(sheet.Formulas[colName], sheet.Name, resolver)
			if err != nil {
				return nil, fmt.Errorf("column %s.%s: %w", sheet.Name, colName, err)
			}
			if len(refs) == 0 {
				continue
			}
			references := make([]string, 0, len(refs))
			for _, r := range refs {
				references = append(references, r.String())
			}
			analysis.CrossReferences = append(analysis.CrossReferences, CrossReference{
				FromSheet:  sheet.Name,
				FromColumn: colName,
				References: references,
			})
		}
	}
	return analysis, nil
}
