package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/cellflow/internal/ref"
)

func mustAdd(t *testing.T, g *Graph, id string, isInput bool, deps ...string) {
	t.Helper()
	r, err := ref.Parse(id)
	require.NoError(t, err)
	var refs []ref.Reference
	for _, d := range deps {
		dr, err := ref.Parse(d)
		require.NoError(t, err)
		refs = append(refs, dr)
	}
	require.NoError(t, g.AddNode(r, isInput, refs))
}

func refOf(t *testing.T, id string) ref.Reference {
	t.Helper()
	r, err := ref.Parse(id)
	require.NoError(t, err)
	return r
}

func TestAddNode(t *testing.T) {
	t.Run("duplicate registration fails", func(t *testing.T) {
		g := New(0)
		mustAdd(t, g, "Sheet1.A", true)

		err := g.AddNode(refOf(t, "Sheet1.A"), true, nil)
		var dup *DuplicateNodeError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, refOf(t, "Sheet1.A"), dup.Ref)
		assert.Equal(t, 1, g.Len())
	})

	t.Run("input node with dependencies fails", func(t *testing.T) {
		g := New(0)
		err := g.AddNode(refOf(t, "Sheet1.A"), true, []ref.Reference{refOf(t, "Sheet1.B")})
		assert.ErrorContains(t, err, "must not declare dependencies")
	})

	t.Run("formula node without dependencies fails", func(t *testing.T) {
		g := New(0)
		err := g.AddNode(refOf(t, "Sheet1.A"), false, nil)
		assert.ErrorContains(t, err, "must declare its dependencies")
	})

	t.Run("self-referential dependency fails", func(t *testing.T) {
		g := New(0)
		err := g.AddNode(refOf(t, "Sheet1.A"), false, []ref.Reference{refOf(t, "Sheet1.A")})
		assert.ErrorContains(t, err, "self-referential")
	})
}

func TestValidate(t *testing.T) {
	t.Run("empty graph is valid", func(t *testing.T) {
		g := New(0)
		assert.NoError(t, g.Validate())
	})

	t.Run("valid dag passes", func(t *testing.T) {
		g := New(0)
		mustAdd(t, g, "Sheet1.A", true)
		mustAdd(t, g, "Sheet1.B", true)
		mustAdd(t, g, "Sheet1.C", false, "Sheet1.A", "Sheet1.B")
		mustAdd(t, g, "Sheet1.D", false, "Sheet1.C", "Sheet1.A")
		assert.NoError(t, g.Validate())
	})

	t.Run("unresolved reference names both ends", func(t *testing.T) {
		g := New(0)
		mustAdd(t, g, "Sheet1.A", false, "Sheet1.Missing")

		err := g.Validate()
		var unresolved *UnresolvedReferenceError
		require.ErrorAs(t, err, &unresolved)
		assert.Equal(t, refOf(t, "Sheet1.Missing"), unresolved.Missing)
		assert.Equal(t, refOf(t, "Sheet1.A"), unresolved.Referrer)

		// Ordering must fail the same way, before producing any order.
		order, err := g.ProcessingOrder()
		assert.Nil(t, order)
		assert.ErrorAs(t, err, &unresolved)
	})

	t.Run("two node cycle reports full path", func(t *testing.T) {
		g := New(0)
		mustAdd(t, g, "Sheet1.X", false, "Sheet1.Y")
		mustAdd(t, g, "Sheet1.Y", false, "Sheet1.X")

		err := g.Validate()
		var cycle *CircularDependencyError
		require.ErrorAs(t, err, &cycle)
		assert.Equal(t, []ref.Reference{
			refOf(t, "Sheet1.X"),
			refOf(t, "Sheet1.Y"),
			refOf(t, "Sheet1.X"),
		}, cycle.Path)
		assert.ErrorContains(t, err, "Sheet1.X -> Sheet1.Y -> Sheet1.X")
	})

	t.Run("longer cycle is detected", func(t *testing.T) {
		g := New(0)
		mustAdd(t, g, "Sheet1.A", false, "Sheet1.B")
		mustAdd(t, g, "Sheet1.B", false, "Sheet1.C")
		mustAdd(t, g, "Sheet1.C", false, "Sheet1.A")

		err := g.Validate()
		var cycle *CircularDependencyError
		require.ErrorAs(t, err, &cycle)
		require.Len(t, cycle.Path, 4)
		assert.Equal(t, cycle.Path[0], cycle.Path[len(cycle.Path)-1])
	})

	t.Run("cycle in a disjoint component is detected", func(t *testing.T) {
		g := New(0)
		mustAdd(t, g, "Sheet1.A", true)
		mustAdd(t, g, "Sheet1.B", false, "Sheet1.A")
		mustAdd(t, g, "Sheet2.X", false, "Sheet2.Y")
		mustAdd(t, g, "Sheet2.Y", false, "Sheet2.X")

		var cycle *CircularDependencyError
		require.ErrorAs(t, g.Validate(), &cycle)
	})

	t.Run("depth limit exceeded", func(t *testing.T) {
		g := New(2)
		mustAdd(t, g, "Sheet1.A", true)
		mustAdd(t, g, "Sheet1.B", false, "Sheet1.A")
		mustAdd(t, g, "Sheet1.C", false, "Sheet1.B")
		mustAdd(t, g, "Sheet1.D", false, "Sheet1.C")

		err := g.Validate()
		var depth *DependencyDepthExceededError
		require.ErrorAs(t, err, &depth)
		assert.Equal(t, refOf(t, "Sheet1.D"), depth.Ref)
		assert.Equal(t, 3, depth.Depth)
		assert.Equal(t, 2, depth.Limit)
	})

	t.Run("depth exactly at limit passes", func(t *testing.T) {
		g := New(2)
		mustAdd(t, g, "Sheet1.A", true)
		mustAdd(t, g, "Sheet1.B", false, "Sheet1.A")
		mustAdd(t, g, "Sheet1.C", false, "Sheet1.B")
		assert.NoError(t, g.Validate())
	})
}

func TestProcessingOrder(t *testing.T) {
	t.Run("dependencies precede dependents", func(t *testing.T) {
		g := New(0)
		mustAdd(t, g, "Sheet1.D", false, "Sheet1.C", "Sheet1.A")
		mustAdd(t, g, "Sheet1.C", false, "Sheet1.A", "Sheet1.B")
		mustAdd(t, g, "Sheet1.A", true)
		mustAdd(t, g, "Sheet1.B", true)

		order, err := g.ProcessingOrder()
		require.NoError(t, err)
		require.Len(t, order, 4)

		pos := make(map[ref.Reference]int, len(order))
		for i, r := range order {
			pos[r] = i
		}
		for _, r := range order {
			deps, err := g.Dependencies(r)
			require.NoError(t, err)
			for _, d := range deps {
				assert.Less(t, pos[d], pos[r], "%s must precede %s", d, r)
			}
		}
	})

	t.Run("cross sheet chain orders end to end", func(t *testing.T) {
		g := New(0)
		mustAdd(t, g, "Sheet1.A1", true)
		mustAdd(t, g, "Sheet2.A1", false, "Sheet1.A1")
		mustAdd(t, g, "Sheet1.B1", false, "Sheet2.A1")

		order, err := g.ProcessingOrder()
		require.NoError(t, err)
		assert.Equal(t, []ref.Reference{
			refOf(t, "Sheet1.A1"),
			refOf(t, "Sheet2.A1"),
			refOf(t, "Sheet1.B1"),
		}, order)
	})

	t.Run("repeated runs are identical", func(t *testing.T) {
		build := func() *Graph {
			g := New(0)
			mustAdd(t, g, "Sheet1.E", true)
			mustAdd(t, g, "Sheet1.A", true)
			mustAdd(t, g, "Sheet1.C", false, "Sheet1.A", "Sheet1.E")
			mustAdd(t, g, "Sheet1.B", true)
			mustAdd(t, g, "Sheet1.D", false, "Sheet1.B", "Sheet1.C")
			return g
		}

		first, err := build().ProcessingOrder()
		require.NoError(t, err)
		for i := 0; i < 10; i++ {
			again, err := build().ProcessingOrder()
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	})
}

func TestDependents(t *testing.T) {
	g := New(0)
	mustAdd(t, g, "Sheet1.A", true)
	mustAdd(t, g, "Sheet1.B", false, "Sheet1.A")
	mustAdd(t, g, "Sheet1.C", false, "Sheet1.A")
	require.NoError(t, g.Validate())

	dependents, err := g.Dependents(refOf(t, "Sheet1.A"))
	require.NoError(t, err)
	assert.Equal(t, []ref.Reference{refOf(t, "Sheet1.B"), refOf(t, "Sheet1.C")}, dependents)

	_, err = g.Dependents(refOf(t, "Sheet1.Missing"))
	assert.ErrorContains(t, err, "node not found")
}
