// Package ref provides the canonical, type-safe identifier for a
// sheet-qualified data unit (a column or a cell) within a workbook.
//
// The canonical string format is `sheet.address`, e.g. `Sheet1.Revenue`
// or `Sheet2.A1`. This package centralizes all parsing and formatting of
// these identifiers; the rest of the system treats a Reference as an
// opaque, comparable value.
package ref
