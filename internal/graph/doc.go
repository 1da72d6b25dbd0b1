// Package graph models the dependency structure of a workbook as a
// directed acyclic graph over sheet-qualified references.
//
// Nodes are registered once, with their full dependency set, and the graph
// is then validated as a whole: every referenced node must exist, no cycle
// may be present, and no dependency chain may exceed the configured depth
// limit. After a successful Validate the graph is read-only and safe to
// share across goroutines.
//
// ProcessingOrder yields a dependency-first topological order. Ties among
// independent nodes are broken by insertion order, never by map iteration,
// so identical input always produces an identical order.
package graph
