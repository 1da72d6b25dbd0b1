package table

import (
	"math"
	"time"
)

// Kind is the declared semantic type of a column.
type Kind int

const (
	// KindNumeric holds float64 cells; NaN marks a missing value.
	KindNumeric Kind = iota
	// KindDatetime holds time.Time cells; nil marks a missing value.
	KindDatetime
	// KindText holds string cells; nil marks a missing value.
	KindText
	// KindOpen holds cells of any type, for lazily-typed or mixed data.
	KindOpen
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindDatetime:
		return "datetime"
	case KindText:
		return "text"
	case KindOpen:
		return "open"
	default:
		return "unknown"
	}
}

// CompatibleKinds reports whether two column kinds may be compared.
// Equal kinds are compatible, and an open column is compatible with
// anything since it may hold mixed or lazily-typed values.
func CompatibleKinds(a, b Kind) bool {
	if a == KindOpen || b == KindOpen {
		return true
	}
	return a == b
}

// Column is a named, typed sequence of cells. The kind is fixed at
// construction; cells are stored as `any` but every constructor guarantees
// they match the declared kind.
type Column struct {
	name  string
	kind  Kind
	cells []any
}

// NewNumeric builds a numeric column. NaN values are legal and mark
// missing cells.
func NewNumeric(name string, values []float64) *Column {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return &Column{name: name, kind: KindNumeric, cells: cells}
}

// NewText builds a text column.
func NewText(name string, values []string) *Column {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return &Column{name: name, kind: KindText, cells: cells}
}

// NewDatetime builds a datetime column.
func NewDatetime(name string, values []time.Time) *Column {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return &Column{name: name, kind: KindDatetime, cells: cells}
}

// NewOpen builds an open column whose cells may be of any type. A nil
// cell marks a missing value.
func NewOpen(name string, values []any) *Column {
	cells := make([]any, len(values))
	copy(cells, values)
	return &Column{name: name, kind: KindOpen, cells: cells}
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Kind returns the declared kind of the column.
func (c *Column) Kind() Kind { return c.kind }

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.cells) }

// Cell returns the raw cell at index i.
func (c *Column) Cell(i int) any { return c.cells[i] }

// Float returns the numeric cell at index i. It returns NaN for missing
// cells and for cells of non-numeric columns that do not hold a float64.
func (c *Column) Float(i int) float64 {
	if v, ok := c.cells[i].(float64); ok {
		return v
	}
	return math.NaN()
}

// Missing reports whether the cell at index i is a missing value: NaN for
// numeric columns, nil otherwise. Open columns treat both as missing.
func (c *Column) Missing(i int) bool {
	cell := c.cells[i]
	if cell == nil {
		return true
	}
	if v, ok := cell.(float64); ok {
		return math.IsNaN(v)
	}
	return false
}

// IsNumeric reports whether the column is numeric-typed, or an open
// column whose every present cell holds a float64.
func (c *Column) IsNumeric() bool {
	switch c.kind {
	case KindNumeric:
		return true
	case KindOpen:
		for i, cell := range c.cells {
			if c.Missing(i) {
				continue
			}
			if _, ok := cell.(float64); !ok {
				return false
			}
		}
		return true
	default:
		return false
	}
}
