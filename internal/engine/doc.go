// Package engine ties the pipeline together: it builds the dependency
// graph from a workbook's formula columns, schedules evaluation in
// dependency order, assembles the processed sheets, validates them against
// the workbook's cached values, and writes the outputs.
package engine
