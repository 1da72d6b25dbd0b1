// Package formula turns raw Excel formula strings into the two things the
// engine needs: the set of sheet-qualified column references a formula
// consumes, and its recomputed column values for the supported subset.
//
// Tokenization is delegated to github.com/xuri/efp, the same parser the
// excelize calculation engine uses. Cell coordinates are mapped onto the
// column-oriented reference model: a reference like Sheet2!B2 resolves to
// the header name of column B on Sheet2, because every formula column
// applies row-wise to its whole column.
//
// The evaluator covers arithmetic, comparisons, and a small set of
// functions (SUM, AVERAGE, MIN, MAX, COUNT, IF). Anything else is an
// explicit error; full Excel semantics are out of scope.
package formula
