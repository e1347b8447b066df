package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coregx/rmatch/internal/nfa"
	"github.com/coregx/rmatch/internal/parser"
	"github.com/coregx/rmatch/internal/rmerrors"
)

// compilePattern parses regex into a fresh graph and reports whether s is
// accepted, by walking NextSet from head the way the scheduler does.
func compilePattern(t *testing.T, regex string) (g *nfa.Graph, head nfa.NodeID, terms []nfa.NodeID) {
	t.Helper()
	g = nfa.NewGraph()
	b := nfa.NewBuilder(g, 0)
	require.NoError(t, parser.Parse(regex, b))
	head, terms, err := b.Finish()
	require.NoError(t, err)
	return g, head, terms
}

func accepts(g *nfa.Graph, head nfa.NodeID, terms []nfa.NodeID, s string) bool {
	core := g.EpsilonClosure([]nfa.NodeID{head})
	for _, r := range s {
		union := make(map[nfa.NodeID]struct{})
		for _, id := range core {
			for _, succ := range g.NextSet(id, r) {
				union[succ] = struct{}{}
			}
		}
		core = core[:0]
		for id := range union {
			core = append(core, id)
		}
	}
	want := make(map[nfa.NodeID]struct{}, len(terms))
	for _, t := range terms {
		want[t] = struct{}{}
	}
	for _, id := range core {
		if _, ok := want[id]; ok {
			return true
		}
	}
	return false
}

func TestParseAccepts(t *testing.T) {
	cases := []struct {
		regex string
		yes   []string
		no    []string
	}{
		{regex: "abc", yes: []string{"abc"}, no: []string{"ab", "abcd", ""}},
		{regex: "a|b", yes: []string{"a", "b"}, no: []string{"c", "ab"}},
		{regex: "ab|cd", yes: []string{"ab", "cd"}, no: []string{"ac", "bd"}},
		{regex: "a(b|c)d", yes: []string{"abd", "acd"}, no: []string{"ad", "abcd"}},
		{regex: "a*", yes: []string{"", "a", "aaaa"}, no: []string{"b", "ab"}},
		{regex: "a+", yes: []string{"a", "aaa"}, no: []string{""}},
		{regex: "colou?r", yes: []string{"color", "colour"}, no: []string{"colouur"}},
		{regex: "[abc]", yes: []string{"a", "b", "c"}, no: []string{"d", ""}},
		{regex: "[^abc]", yes: []string{"d", "z"}, no: []string{"a"}},
		{regex: "[a-z]+", yes: []string{"a", "hello"}, no: []string{"Hello", ""}},
		{regex: "a.c", yes: []string{"abc", "azc"}, no: []string{"ac", "abbc"}},
		{regex: `a\.b`, yes: []string{"a.b"}, no: []string{"axb"}},
	}

	for _, tc := range cases {
		t.Run(tc.regex, func(t *testing.T) {
			g, head, terms := compilePattern(t, tc.regex)
			for _, s := range tc.yes {
				require.True(t, accepts(g, head, terms, s), "expected %q to match %q", tc.regex, s)
			}
			for _, s := range tc.no {
				require.False(t, accepts(g, head, terms, s), "expected %q not to match %q", tc.regex, s)
			}
		})
	}
}

func TestParseRejectsUnsupportedConstructs(t *testing.T) {
	g := nfa.NewGraph()
	b := nfa.NewBuilder(g, 0)
	err := parser.Parse("^abc$", b)
	require.Error(t, err)

	var ce *rmerrors.CompileError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, rmerrors.KindUnsupportedConstruct, ce.Kind)
}

func TestParseRejectsMalformed(t *testing.T) {
	malformed := []string{
		"(abc",
		"abc)",
		"[abc",
		"a**",
		"*abc",
		`a\`,
	}
	for _, regex := range malformed {
		t.Run(regex, func(t *testing.T) {
			g := nfa.NewGraph()
			b := nfa.NewBuilder(g, 0)
			err := parser.Parse(regex, b)
			require.Error(t, err)

			var pe *rmerrors.CompileError
			require.ErrorAs(t, err, &pe)
		})
	}
}
