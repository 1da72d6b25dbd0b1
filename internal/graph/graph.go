package graph

import (
	"fmt"
	"sync"

	"github.com/specialistvlad/cellflow/internal/ref"
)

// DefaultMaxDepth is the dependency depth limit applied when the caller
// does not configure one.
const DefaultMaxDepth = 1000

// node is a single vertex: a reference plus its classification and
// dependency set. It is un-exported to enforce interaction through the
// graph's public API.
type node struct {
	ref     ref.Reference
	isInput bool
	// formulaRefs preserves the order dependencies were declared in, used
	// for deterministic traversal. Empty for input nodes.
	formulaRefs []ref.Reference
	deps        map[ref.Reference]*node
	dependents  map[ref.Reference]*node
}

// Graph owns the node set and the induced edges. It is safe for concurrent
// use; after a successful Validate it is effectively read-only.
type Graph struct {
	mutex sync.RWMutex
	nodes map[ref.Reference]*node
	// insertion records registration order for deterministic iteration.
	insertion []ref.Reference
	maxDepth  int
	validated bool
}

// New creates an empty graph. A maxDepth of zero or less selects
// DefaultMaxDepth.
func New(maxDepth int) *Graph {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Graph{
		nodes:    make(map[ref.Reference]*node),
		maxDepth: maxDepth,
	}
}

// AddNode registers a node. Input nodes must have no formula references;
// formula nodes must declare theirs up front. Registering the same
// reference twice fails with a DuplicateNodeError.
func (g *Graph) AddNode(r ref.Reference, isInput bool, formulaRefs []ref.Reference) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, exists := g.nodes[r]; exists {
		return &DuplicateNodeError{Ref: r}
	}
	if isInput && len(formulaRefs) > 0 {
		return fmt.Errorf("input node %s must not declare dependencies", r)
	}
	if !isInput && len(formulaRefs) == 0 {
		return fmt.Errorf("formula node %s must declare its dependencies", r)
	}
	for _, fr := range formulaRefs {
		if fr == r {
			return fmt.Errorf("self-referential dependency not allowed: %s", r)
		}
	}

	refs := make([]ref.Reference, len(formulaRefs))
	copy(refs, formulaRefs)
	g.nodes[r] = &node{
		ref:         r,
		isInput:     isInput,
		formulaRefs: refs,
		deps:        make(map[ref.Reference]*node),
		dependents:  make(map[ref.Reference]*node),
	}
	g.insertion = append(g.insertion, r)
	g.validated = false
	return nil
}

// Len returns the number of registered nodes.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.nodes)
}

// IsInput reports whether the given reference is a registered input node.
func (g *Graph) IsInput(r ref.Reference) (bool, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[r]
	if !ok {
		return false, fmt.Errorf("node not found: %s", r)
	}
	return n.isInput, nil
}

// Dependencies returns the declared dependencies of a node, in declaration
// order.
func (g *Graph) Dependencies(r ref.Reference) ([]ref.Reference, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[r]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", r)
	}
	out := make([]ref.Reference, len(n.formulaRefs))
	copy(out, n.formulaRefs)
	return out, nil
}

// Dependents returns the nodes that directly depend on the given node, in
// insertion order. The edge set only exists after Validate has linked it.
func (g *Graph) Dependents(r ref.Reference) ([]ref.Reference, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[r]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", r)
	}
	var out []ref.Reference
	for _, candidate := range g.insertion {
		if _, ok := n.dependents[candidate]; ok {
			out = append(out, candidate)
		}
	}
	return out, nil
}

// Validate links the edge set and verifies the graph: every declared
// dependency must resolve to a registered node, the graph must be acyclic,
// and no dependency chain may exceed the depth limit. On success the graph
// is ready for ordering and safe to share read-only.
func (g *Graph) Validate() error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.validated {
		return nil
	}
	if err := g.linkEdges(); err != nil {
		return err
	}
	if err := g.detectCycles(); err != nil {
		return err
	}
	if err := g.checkDepth(); err != nil {
		return err
	}
	g.validated = true
	return nil
}

// linkEdges resolves every declared reference into a concrete edge.
// Unresolved references are an error, never silently dropped.
func (g *Graph) linkEdges() error {
	for _, r := range g.insertion {
		n := g.nodes[r]
		for _, fr := range n.formulaRefs {
			dep, ok := g.nodes[fr]
			if !ok {
				return &UnresolvedReferenceError{Missing: fr, Referrer: r}
			}
			n.deps[fr] = dep
			dep.dependents[r] = n
		}
	}
	return nil
}

// detectCycles runs a depth-first traversal with three node colors:
// unvisited, in-progress, and done. Reaching an in-progress node means the
// current path loops back on itself; the full cycle is reported.
func (g *Graph) detectCycles() error {
	inProgress := make(map[ref.Reference]bool)
	done := make(map[ref.Reference]bool)
	var stack []ref.Reference

	var visit func(n *node) error
	visit = func(n *node) error {
		inProgress[n.ref] = true
		stack = append(stack, n.ref)

		for _, fr := range n.formulaRefs {
			dep := n.deps[fr]
			if inProgress[dep.ref] {
				return &CircularDependencyError{Path: cyclePath(stack, dep.ref)}
			}
			if !done[dep.ref] {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		stack = stack[:len(stack)-1]
		delete(inProgress, n.ref)
		done[n.ref] = true
		return nil
	}

	for _, r := range g.insertion {
		if !done[r] {
			if err := visit(g.nodes[r]); err != nil {
				return err
			}
		}
	}
	return nil
}

// cyclePath slices the traversal stack from the first occurrence of the
// revisited node and closes the loop.
func cyclePath(stack []ref.Reference, revisited ref.Reference) []ref.Reference {
	start := 0
	for i, r := range stack {
		if r == revisited {
			start = i
			break
		}
	}
	path := make([]ref.Reference, 0, len(stack)-start+1)
	path = append(path, stack[start:]...)
	path = append(path, revisited)
	return path
}

// checkDepth computes each node's dependency chain depth and fails when
// the configured limit is exceeded. Inputs have depth zero; a formula node
// is one deeper than its deepest dependency. The graph is already known to
// be acyclic here, so memoized recursion terminates.
func (g *Graph) checkDepth() error {
	depths := make(map[ref.Reference]int, len(g.nodes))

	var depth func(n *node) int
	depth = func(n *node) int {
		if d, ok := depths[n.ref]; ok {
			return d
		}
		max := 0
		for _, fr := range n.formulaRefs {
			if d := depth(n.deps[fr]) + 1; d > max {
				max = d
			}
		}
		depths[n.ref] = max
		return max
	}

	for _, r := range g.insertion {
		if d := depth(g.nodes[r]); d > g.maxDepth {
			return &DependencyDepthExceededError{Ref: r, Depth: d, Limit: g.maxDepth}
		}
	}
	return nil
}

// ProcessingOrder returns the references in dependency-first order: for
// every edge A depends on B, B precedes A. It validates first and fails
// with the same errors on an invalid graph. The result is deterministic
// for identical input.
func (g *Graph) ProcessingOrder() ([]ref.Reference, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	g.mutex.RLock()
	defer g.mutex.RUnlock()

	ordered := make([]ref.Reference, 0, len(g.nodes))
	done := make(map[ref.Reference]bool, len(g.nodes))

	// DFS post-order: dependencies are appended before their dependents.
	var visit func(n *node)
	visit = func(n *node) {
		if done[n.ref] {
			return
		}
		done[n.ref] = true
		for _, fr := range n.formulaRefs {
			visit(n.deps[fr])
		}
		ordered = append(ordered, n.ref)
	}

	for _, r := range g.insertion {
		visit(g.nodes[r])
	}
	return ordered, nil
}
