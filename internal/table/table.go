package table

import "fmt"

// Table is an ordered collection of equal-length, uniquely named columns.
type Table struct {
	columns []*Column
	index   map[string]int
}

// New builds a table from the given columns. All columns must have the
// same length and distinct names.
func New(columns ...*Column) (*Table, error) {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, col := range columns {
		if err := t.append(col); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) append(col *Column) error {
	if _, exists := t.index[col.name]; exists {
		return fmt.Errorf("duplicate column name: %q", col.name)
	}
	if len(t.columns) > 0 && col.Len() != t.Rows() {
		return fmt.Errorf("column %q has %d rows, table has %d", col.name, col.Len(), t.Rows())
	}
	t.index[col.name] = len(t.columns)
	t.columns = append(t.columns, col)
	return nil
}

// Rows returns the number of rows. An empty table has zero rows.
func (t *Table) Rows() int {
	if len(t.columns) == 0 {
		return 0
	}
	return t.columns[0].Len()
}

// Cols returns the number of columns.
func (t *Table) Cols() int { return len(t.columns) }

// Columns returns the columns in their declared order.
func (t *Table) Columns() []*Column { return t.columns }

// ColumnNames returns the column names in their declared order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, col := range t.columns {
		names[i] = col.name
	}
	return names
}

// Column looks a column up by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// SetColumn replaces the column with the same name, or appends it if the
// table has no column by that name. The replacement must match the table's
// row count.
func (t *Table) SetColumn(col *Column) error {
	if i, ok := t.index[col.name]; ok {
		if col.Len() != t.Rows() {
			return fmt.Errorf("column %q has %d rows, table has %d", col.name, col.Len(), t.Rows())
		}
		t.columns[i] = col
		return nil
	}
	return t.append(col)
}

// Clone returns a table sharing the same column values. Columns are
// immutable once built, so a shallow copy of the column list is safe.
func (t *Table) Clone() *Table {
	cloned := &Table{
		columns: make([]*Column, len(t.columns)),
		index:   make(map[string]int, len(t.index)),
	}
	copy(cloned.columns, t.columns)
	for name, i := range t.index {
		cloned.index[name] = i
	}
	return cloned
}
