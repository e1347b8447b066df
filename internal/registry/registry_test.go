package registry_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coregx/rmatch/internal/inputbuf"
	"github.com/coregx/rmatch/internal/nfa"
	"github.com/coregx/rmatch/internal/registry"
)

// recordingAction is a comparable Action implementation (pointer
// identity), used instead of a bare func literal since inputbuf.Action is
// compared by == in DetachAction.
type recordingAction struct{ calls int }

func (a *recordingAction) Perform(buf inputbuf.Buffer, start, end int) { a.calls++ }

func newGraphCompiler(g *nfa.Graph, s string) func(id nfa.PatternID) (nfa.NodeID, []nfa.NodeID, error) {
	return func(id nfa.PatternID) (nfa.NodeID, []nfa.NodeID, error) {
		b := nfa.NewBuilder(g, id)
		for _, r := range s {
			if err := b.AddLiteralString(string(r)); err != nil {
				return nfa.InvalidNode, nil, err
			}
		}
		return b.Finish()
	}
}

func TestGetOrCompileCachesByRegexAndOptions(t *testing.T) {
	g := nfa.NewGraph()
	r := registry.New(g)

	calls := 0
	compile := func(id nfa.PatternID) (nfa.NodeID, []nfa.NodeID, error) {
		calls++
		return newGraphCompiler(g, "abc")(id)
	}

	p1, err := r.GetOrCompile("abc", registry.Options{}, compile)
	require.NoError(t, err)
	p2, err := r.GetOrCompile("abc", registry.Options{}, compile)
	require.NoError(t, err)

	require.Same(t, p1, p2)
	require.Equal(t, 1, calls)

	// Same regex text, different options: distinct pattern, distinct id.
	p3, err := r.GetOrCompile("abc", registry.Options{CaseInsensitive: true}, compile)
	require.NoError(t, err)
	require.NotSame(t, p1, p3)
	require.NotEqual(t, p1.ID, p3.ID)
}

func TestGetOrCompileWiresGlobalStart(t *testing.T) {
	g := nfa.NewGraph()
	r := registry.New(g)

	p, err := r.GetOrCompile("a", registry.Options{}, newGraphCompiler(g, "a"))
	require.NoError(t, err)

	closure := g.EpsilonClosure([]nfa.NodeID{r.GlobalStart()})
	require.Contains(t, closure, p.Head)
}

func TestAttachDetachActionTogglesDormant(t *testing.T) {
	g := nfa.NewGraph()
	r := registry.New(g)

	p, err := r.GetOrCompile("a", registry.Options{}, newGraphCompiler(g, "a"))
	require.NoError(t, err)
	require.True(t, p.Dormant())

	act := &recordingAction{}
	p.AttachAction(act)
	require.False(t, p.Dormant())
	require.Len(t, p.Actions(), 1)

	ok := p.DetachAction(act)
	require.True(t, ok)
	require.True(t, p.Dormant())
	require.Empty(t, p.Actions())
}

func TestActiveOnlyListsNonDormantPatterns(t *testing.T) {
	g := nfa.NewGraph()
	r := registry.New(g)

	p1, err := r.GetOrCompile("a", registry.Options{}, newGraphCompiler(g, "a"))
	require.NoError(t, err)
	_, err = r.GetOrCompile("b", registry.Options{}, newGraphCompiler(g, "b"))
	require.NoError(t, err)

	require.Empty(t, r.Active())

	p1.AttachAction(&recordingAction{})
	active := r.Active()
	require.Len(t, active, 1)
	require.Equal(t, p1.ID, active[0].ID)
}

func TestPossibleStartingCharRecording(t *testing.T) {
	g := nfa.NewGraph()
	r := registry.New(g)
	p, err := r.GetOrCompile("a", registry.Options{}, newGraphCompiler(g, "a"))
	require.NoError(t, err)

	require.True(t, p.PossibleStartingChar('z'))
	p.RecordNonStartingChar('z')
	require.False(t, p.PossibleStartingChar('z'))
	require.True(t, p.PossibleStartingChar('a'))
}
