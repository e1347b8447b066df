package scheduler_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coregx/rmatch/internal/dfacache"
	"github.com/coregx/rmatch/internal/inputbuf"
	"github.com/coregx/rmatch/internal/nfa"
	"github.com/coregx/rmatch/internal/parser"
	"github.com/coregx/rmatch/internal/registry"
	"github.com/coregx/rmatch/internal/scheduler"
)

type recorded struct {
	pattern            nfa.PatternID
	start, endInclusive int
}

type recorder struct {
	id  nfa.PatternID
	out *[]recorded
}

func (r *recorder) Perform(buf inputbuf.Buffer, start, end int) {
	*r.out = append(*r.out, recorded{pattern: r.id, start: start, endInclusive: end})
}

// runPatterns compiles every pattern in order, attaches a recorder to
// each, scans text once and returns every dispatched match sorted by
// (start, pattern) the way Scheduler.Run itself dispatches.
func runPatterns(t *testing.T, patterns []string, text string) []recorded {
	t.Helper()
	g := nfa.NewGraph()
	reg := registry.New(g)
	cache := dfacache.New(g, reg.GlobalStart())

	var out []recorded
	for i, regex := range patterns {
		id := nfa.PatternID(i)
		p, err := reg.GetOrCompile(regex, registry.Options{}, func(id nfa.PatternID) (nfa.NodeID, []nfa.NodeID, error) {
			b := nfa.NewBuilder(g, id)
			if err := parser.Parse(regex, b); err != nil {
				return nfa.InvalidNode, nil, err
			}
			return b.Finish()
		})
		require.NoError(t, err)
		require.Equal(t, id, p.ID)
		p.AttachAction(&recorder{id: id, out: &out})
	}

	sched := scheduler.New(reg, cache)
	buf := inputbuf.NewRuneBuffer(text)
	require.NoError(t, sched.Run(buf, nil))

	sort.Slice(out, func(i, j int) bool {
		if out[i].start != out[j].start {
			return out[i].start < out[j].start
		}
		return out[i].pattern < out[j].pattern
	})
	return out
}

func TestScenarioAlternationOverlappingPatterns(t *testing.T) {
	// S4: {1: "a|b"} over "cac" matches 'a' at offset 1.
	out := runPatterns(t, []string{"a|b"}, "cac")
	require.Equal(t, []recorded{{pattern: 0, start: 1, endInclusive: 1}}, out)
}

func TestScenarioInvertedClassRejectsMember(t *testing.T) {
	// S5: {1: "[^ab]"} over "c" matches at (0,0); over "a" matches nothing.
	out := runPatterns(t, []string{"[^ab]"}, "c")
	require.Equal(t, []recorded{{pattern: 0, start: 0, endInclusive: 0}}, out)

	out = runPatterns(t, []string{"[^ab]"}, "a")
	require.Empty(t, out)
}

func TestScenarioLongestMatchDominatesPrefix(t *testing.T) {
	// Over "aaab", "a+" seeds matches at offsets 0, 1 and 2 that all end
	// at offset 2; the span (0,2) dominates the later-starting ones, so
	// only the maximal span is emitted.
	out := runPatterns(t, []string{"a+"}, "aaab")
	require.Equal(t, []recorded{{pattern: 0, start: 0, endInclusive: 2}}, out)
}

func TestScenarioMultiplePatternsIndependentMatches(t *testing.T) {
	out := runPatterns(t, []string{"cat", "dog"}, "a cat and a dog")
	require.Len(t, out, 2)
	require.Equal(t, nfa.PatternID(0), out[0].pattern)
	require.Equal(t, nfa.PatternID(1), out[1].pattern)
}

func TestScenarioNoMatchEmitsNothing(t *testing.T) {
	out := runPatterns(t, []string{"xyz"}, "abcdef")
	require.Empty(t, out)
}

func TestScenarioOverlappingStartsAcrossPatterns(t *testing.T) {
	// "a" and "ab" both can start at offset 0 over "ab"; they are
	// different patterns so domination (which is per-pattern) does not
	// suppress either.
	out := runPatterns(t, []string{"a", "ab"}, "ab")
	require.Equal(t, []recorded{
		{pattern: 0, start: 0, endInclusive: 0},
		{pattern: 1, start: 0, endInclusive: 1},
	}, out)
}
