// Package xlsx reads Excel workbooks into the column-oriented model the
// engine works on. Each sheet is treated as a table: row 1 holds column
// headers, data starts at row 2, and a column either carries input values
// or one formula applied row-wise. The formula of a column is taken from
// its first data row; any differing formula further down the column is a
// read error.
package xlsx
