// Package table provides the typed tabular value model shared by the
// workbook reader, the evaluation engine, and the validator.
//
// A Column declares exactly one semantic kind (numeric, datetime, text, or
// open) at construction time; the kind is never re-inferred per comparison.
// A Table is an ordered collection of equal-length named columns. Missing
// numeric cells are NaN; missing cells of any other kind are nil.
package table
