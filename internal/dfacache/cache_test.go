package dfacache_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coregx/rmatch/internal/dfacache"
	"github.com/coregx/rmatch/internal/nfa"
)

// buildLiteral compiles s as a literal pattern rooted under a fresh
// global-start composite node, mirroring how registry.New wires patterns.
func buildLiteral(t *testing.T, g *nfa.Graph, globalStart nfa.NodeID, id nfa.PatternID, s string) (head nfa.NodeID, terms []nfa.NodeID) {
	t.Helper()
	b := nfa.NewBuilder(g, id)
	require.NoError(t, b.AddLiteralString(s))
	head, terms, err := b.Finish()
	require.NoError(t, err)
	g.AddEpsilon(globalStart, head)
	return head, terms
}

func TestCacheInternsCanonicalStates(t *testing.T) {
	g := nfa.NewGraph()
	start := g.NewComposite(nfa.SystemPattern, nil)
	buildLiteral(t, g, start, 0, "ab")

	cache := dfacache.New(g, start)

	s0 := cache.Start()
	s0Again := cache.Start()
	require.Same(t, s0, s0Again, "Start must return the same interned state across calls")

	s1 := cache.Next(s0, 'a')
	require.NotNil(t, s1)
	s1Again := cache.Next(s0, 'a')
	require.Same(t, s1, s1Again, "Next must reuse the memoized transition")

	require.Equal(t, 2, cache.Size())
}

func TestCacheNextReturnsNilWhenNoCoreNodeTransitions(t *testing.T) {
	g := nfa.NewGraph()
	start := g.NewComposite(nfa.SystemPattern, nil)
	buildLiteral(t, g, start, 0, "a")

	cache := dfacache.New(g, start)
	s0 := cache.Start()
	require.Nil(t, cache.Next(s0, 'z'))
}

func TestCacheStateFlagsReflectTerminalAndActive(t *testing.T) {
	g := nfa.NewGraph()
	start := g.NewComposite(nfa.SystemPattern, nil)
	_, terms := buildLiteral(t, g, start, 3, "a")
	require.Len(t, terms, 1)

	cache := dfacache.New(g, start)
	s0 := cache.Start()
	require.True(t, s0.IsActiveFor(3))
	require.False(t, s0.IsTerminalFor(3))

	s1 := cache.Next(s0, 'a')
	require.NotNil(t, s1)
	require.True(t, s1.IsActiveFor(3))
	require.True(t, s1.IsTerminalFor(3))
}

func TestCacheDistinctCoresAreDistinctStates(t *testing.T) {
	g := nfa.NewGraph()
	start := g.NewComposite(nfa.SystemPattern, nil)
	buildLiteral(t, g, start, 0, "ab")
	buildLiteral(t, g, start, 1, "ac")

	cache := dfacache.New(g, start)
	s0 := cache.Start()
	sA := cache.Next(s0, 'a')
	require.NotNil(t, sA)

	sB := cache.Next(sA, 'b')
	sC := cache.Next(sA, 'c')
	require.NotNil(t, sB)
	require.NotNil(t, sC)
	require.NotEqual(t, sB.ID(), sC.ID())
}
