package graph

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/cellflow/internal/ref"
)

// DuplicateNodeError is returned when a reference is registered twice.
// Nodes are never implicitly overwritten.
type DuplicateNodeError struct {
	Ref ref.Reference
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("duplicate node: %s", e.Ref)
}

// UnresolvedReferenceError is returned when a formula references a node
// that was never registered. It names both ends so the caller can report
// exactly which formula is broken.
type UnresolvedReferenceError struct {
	Missing  ref.Reference
	Referrer ref.Reference
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference: %s (referenced by %s)", e.Missing, e.Referrer)
}

// CircularDependencyError is returned when the graph contains a cycle.
// Path holds the full cycle, from the first revisited node back to itself,
// so the caller can report the exact chain rather than "a cycle exists".
type CircularDependencyError struct {
	Path []ref.Reference
}

func (e *CircularDependencyError) Error() string {
	parts := make([]string, len(e.Path))
	for i, r := range e.Path {
		parts[i] = r.String()
	}
	return fmt.Sprintf("circular dependency: %s", strings.Join(parts, " -> "))
}

// DependencyDepthExceededError is returned when a dependency chain is
// deeper than the configured limit. Deep chains usually indicate a
// pathological workbook.
type DependencyDepthExceededError struct {
	Ref   ref.Reference
	Depth int
	Limit int
}

func (e *DependencyDepthExceededError) Error() string {
	return fmt.Sprintf("dependency depth %d at %s exceeds limit %d", e.Depth, e.Ref, e.Limit)
}
