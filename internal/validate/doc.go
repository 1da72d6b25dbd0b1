// Package validate compares a processed dataset against the original
// workbook's computed values and produces a structured, deterministic
// report.
//
// Discrepancies are data, not errors: every check accumulates
// human-readable messages into a Result instead of failing fast, so a full
// report can always be generated no matter how many checks fail. Only the
// numeric comparison is tolerance-based; structure and type checks are
// exact. A Result is created fresh per call and never mutated after being
// returned.
package validate
