// Package scheduler drives evaluation over a validated processing order.
//
// The scheduler owns no formula semantics. For each reference in the order
// it either pulls an input value from the caller's ValueProvider or hands
// the already-computed dependency values to the caller's EvaluateFunc.
// Topological ordering guarantees every dependency is resolved before its
// dependents are visited.
//
// A node failure is fatal only to that node's direct and transitive
// dependents, which are skipped rather than silently defaulted; unrelated
// branches keep evaluating. The per-run value cache belongs to a single
// Run invocation and is never shared across runs.
package scheduler
