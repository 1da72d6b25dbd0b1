// Package output writes processed sheets to disk, one CSV file per sheet.
package output

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/specialistvlad/cellflow/internal/table"
)

// WriteCSV writes one table as <dir>/<name>.csv, creating the directory if
// needed. Missing numeric values become empty cells.
func WriteCSV(dir, name string, data *table.Table) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(data.ColumnNames()); err != nil {
		return "", fmt.Errorf("failed to write header of %s: %w", path, err)
	}

	columns := data.Columns()
	record := make([]string, len(columns))
	for i := 0; i < data.Rows(); i++ {
		for j, col := range columns {
			record[j] = formatCell(col, i)
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("failed to write row %d of %s: %w", i, path, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}

func formatCell(col *table.Column, i int) string {
	if col.Missing(i) {
		return ""
	}
	switch v := col.Cell(i).(type) {
	case float64:
		if math.IsNaN(v) {
			return ""
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
