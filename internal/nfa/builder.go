package nfa

import (
	"fmt"
	"sort"
)

// fragment is a Thompson fragment: exactly one entry and one exit node,
// each reachable only through epsilon edges from outside the fragment
// (spec §4.2's invariant). Operators splice fragments by wiring epsilon
// edges between entry/exit nodes, never by mutating char/charset nodes.
type fragment struct {
	entry, exit NodeID
}

// scope accumulates the terms of one parenthesized group (or the whole
// pattern at the outermost level) across possibly several alternatives
// separated by '|'. It is not part of the abstract builder protocol
// named in spec §4.1 — grouping necessarily needs a push/pop stack
// somewhere, and the NFA builder is where this implementation keeps it
// (see DESIGN.md's note on this Open Question).
type scope struct {
	alternatives [][]fragment
	terms        []fragment
}

// Builder drives Thompson construction from the abstract builder
// protocol calls the parser makes (spec §4.1/§4.2). One Builder compiles
// exactly one pattern; the Graph it writes into is shared across all
// patterns registered with the matcher.
type Builder struct {
	graph   *Graph
	pattern PatternID
	scopes  []*scope

	inCharSet  bool
	csIntervals []Interval
	csInverted  bool
}

// NewBuilder returns a Builder that compiles pattern id into graph.
func NewBuilder(graph *Graph, pattern PatternID) *Builder {
	b := &Builder{graph: graph, pattern: pattern}
	b.scopes = []*scope{{}}
	return b
}

func (b *Builder) top() *scope { return b.scopes[len(b.scopes)-1] }

func (b *Builder) pushTerm(f fragment) {
	s := b.top()
	s.terms = append(s.terms, f)
}

func (b *Builder) popTerm() (fragment, bool) {
	s := b.top()
	if len(s.terms) == 0 {
		return fragment{}, false
	}
	f := s.terms[len(s.terms)-1]
	s.terms = s.terms[:len(s.terms)-1]
	return f, true
}

// AddLiteralString compiles s as a sequence of char nodes, pushing one
// term per rune; the terms are chained when the scope is combined, and
// a following quantifier applies only to the last rune (spec §4.2: "a
// literal string of length n becomes n chained char nodes").
func (b *Builder) AddLiteralString(s string) error {
	for _, r := range s {
		b.pushTerm(b.compileChar(r))
	}
	return nil
}

// AddAnyChar pushes a KindAnyChar term ('.').
func (b *Builder) AddAnyChar() error {
	b.pushTerm(b.compileAnyChar())
	return nil
}

// StartCharSet begins accumulating a character class ('[').
func (b *Builder) StartCharSet() error {
	if b.inCharSet {
		return fmt.Errorf("nfa: nested character class")
	}
	b.inCharSet = true
	b.csIntervals = nil
	b.csInverted = false
	return nil
}

// InvertCharSet marks the in-progress character class as negated ('[^').
func (b *Builder) InvertCharSet() error {
	if !b.inCharSet {
		return fmt.Errorf("nfa: InvertCharSet outside character class")
	}
	b.csInverted = true
	return nil
}

// AddCharsToSet adds each rune of cs as a singleton interval.
func (b *Builder) AddCharsToSet(cs string) error {
	if !b.inCharSet {
		return fmt.Errorf("nfa: AddCharsToSet outside character class")
	}
	for _, r := range cs {
		b.csIntervals = append(b.csIntervals, Interval{Lo: r, Hi: r})
	}
	return nil
}

// AddRangeToSet adds the inclusive range [lo, hi].
func (b *Builder) AddRangeToSet(lo, hi rune) error {
	if !b.inCharSet {
		return fmt.Errorf("nfa: AddRangeToSet outside character class")
	}
	if hi < lo {
		return fmt.Errorf("nfa: invalid range %q-%q", lo, hi)
	}
	b.csIntervals = append(b.csIntervals, Interval{Lo: lo, Hi: hi})
	return nil
}

// EndCharSet closes the character class, normalizes its intervals
// (sorted, merged, non-overlapping) and pushes the resulting term.
func (b *Builder) EndCharSet() error {
	if !b.inCharSet {
		return fmt.Errorf("nfa: EndCharSet without StartCharSet")
	}
	intervals := normalizeIntervals(b.csIntervals)
	inverted := b.csInverted
	b.inCharSet = false
	b.csIntervals = nil
	b.csInverted = false

	// An empty, non-inverted class (e.g. stray "[]") needs no special
	// case: compileCharSet already produces a node whose nextOn never
	// succeeds for an empty, non-inverted interval table.
	b.pushTerm(b.compileCharSet(intervals, inverted))
	return nil
}

// normalizeIntervals sorts and merges overlapping/adjacent intervals so
// matchesSet's binary search sees a canonical, non-overlapping table.
func normalizeIntervals(in []Interval) []Interval {
	if len(in) == 0 {
		return nil
	}
	sorted := append([]Interval(nil), in...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Lo < sorted[j].Lo })
	out := sorted[:1]
	for _, iv := range sorted[1:] {
		last := &out[len(out)-1]
		if iv.Lo <= last.Hi+1 {
			if iv.Hi > last.Hi {
				last.Hi = iv.Hi
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

// SeparateAlternatives marks an alternation boundary ('|'): the terms
// accumulated so far in the current scope become one complete
// alternative, and a fresh (possibly empty) alternative begins.
func (b *Builder) SeparateAlternatives() error {
	s := b.top()
	s.alternatives = append(s.alternatives, s.terms)
	s.terms = nil
	return nil
}

// BeginGroup pushes a new scope for a parenthesized group ('(').
func (b *Builder) BeginGroup() error {
	b.scopes = append(b.scopes, &scope{})
	return nil
}

// EndGroup pops the current scope (')'), combines its alternatives/terms
// into a single fragment, and pushes that fragment as one term in the
// parent scope.
func (b *Builder) EndGroup() error {
	if len(b.scopes) == 1 {
		return fmt.Errorf("nfa: unmatched ')'")
	}
	s := b.scopes[len(b.scopes)-1]
	b.scopes = b.scopes[:len(b.scopes)-1]
	b.pushTerm(b.combineScope(s))
	return nil
}

// AddOptionalSingular wraps the last pushed term in a '?' quantifier.
func (b *Builder) AddOptionalSingular() error {
	return b.wrapLast(b.compileQuestion)
}

// AddOptionalZeroOrMore wraps the last pushed term in a '*' quantifier.
func (b *Builder) AddOptionalZeroOrMore() error {
	return b.wrapLast(b.compileStar)
}

// AddOptionalOneOrMore wraps the last pushed term in a '+' quantifier.
func (b *Builder) AddOptionalOneOrMore() error {
	return b.wrapLast(b.compilePlus)
}

func (b *Builder) wrapLast(wrap func(fragment) fragment) error {
	f, ok := b.popTerm()
	if !ok {
		return fmt.Errorf("nfa: quantifier has nothing to apply to")
	}
	b.pushTerm(wrap(f))
	return nil
}

// Finish completes compilation: it combines the outermost scope,
// attaches a terminal sink, and returns the pattern's head node together
// with the set of terminal node ids (normally one, but kept as a slice
// for symmetry with the registry's "terminal NFA nodes" field).
func (b *Builder) Finish() (head NodeID, terminals []NodeID, err error) {
	if len(b.scopes) != 1 {
		return InvalidNode, nil, fmt.Errorf("nfa: %d unclosed group(s)", len(b.scopes)-1)
	}
	if b.inCharSet {
		return InvalidNode, nil, fmt.Errorf("nfa: unclosed character class")
	}
	whole := b.combineScope(b.top())
	terminal := b.graph.NewTerminal(b.pattern)
	b.graph.AddEpsilon(whole.exit, terminal)
	return whole.entry, []NodeID{terminal}, nil
}

func (b *Builder) combineScope(s *scope) fragment {
	alts := append(s.alternatives, s.terms)
	frags := make([]fragment, len(alts))
	for i, terms := range alts {
		frags[i] = b.concatAll(terms)
	}
	out := frags[0]
	for _, f := range frags[1:] {
		out = b.compileAlt(out, f)
	}
	return out
}

func (b *Builder) concatAll(terms []fragment) fragment {
	if len(terms) == 0 {
		n := b.graph.NewComposite(b.pattern, nil)
		return fragment{entry: n, exit: n}
	}
	out := terms[0]
	for _, f := range terms[1:] {
		out = b.compileConcat(out, f)
	}
	return out
}

func (b *Builder) compileConcat(a, c fragment) fragment {
	b.graph.AddEpsilon(a.exit, c.entry)
	return fragment{entry: a.entry, exit: c.exit}
}

func (b *Builder) compileAlt(a, c fragment) fragment {
	entry := b.graph.NewComposite(b.pattern, []NodeID{a.entry, c.entry})
	exit := b.graph.NewComposite(b.pattern, nil)
	b.graph.AddEpsilon(a.exit, exit)
	b.graph.AddEpsilon(c.exit, exit)
	return fragment{entry: entry, exit: exit}
}

func (b *Builder) compileQuestion(a fragment) fragment {
	exit := b.graph.NewComposite(b.pattern, nil)
	entry := b.graph.NewComposite(b.pattern, []NodeID{a.entry, exit})
	b.graph.AddEpsilon(a.exit, exit)
	return fragment{entry: entry, exit: exit}
}

func (b *Builder) compileStar(a fragment) fragment {
	exit := b.graph.NewComposite(b.pattern, nil)
	split := b.graph.NewComposite(b.pattern, []NodeID{a.entry, exit})
	b.graph.AddEpsilon(a.exit, split)
	return fragment{entry: split, exit: exit}
}

func (b *Builder) compilePlus(a fragment) fragment {
	exit := b.graph.NewComposite(b.pattern, nil)
	split := b.graph.NewComposite(b.pattern, []NodeID{a.entry, exit})
	b.graph.AddEpsilon(a.exit, split)
	return fragment{entry: a.entry, exit: exit}
}

func (b *Builder) compileChar(r rune) fragment {
	exit := b.graph.NewComposite(b.pattern, nil)
	char := b.graph.NewChar(b.pattern, r, exit)
	entry := b.graph.NewComposite(b.pattern, []NodeID{char})
	return fragment{entry: entry, exit: exit}
}

func (b *Builder) compileCharSet(intervals []Interval, inverted bool) fragment {
	exit := b.graph.NewComposite(b.pattern, nil)
	var cs NodeID
	if inverted {
		fail := b.graph.NewFailure(b.pattern)
		cs = b.graph.NewCharSetWithFail(b.pattern, intervals, exit, fail)
	} else {
		cs = b.graph.NewCharSet(b.pattern, intervals, false, exit)
	}
	entry := b.graph.NewComposite(b.pattern, []NodeID{cs})
	return fragment{entry: entry, exit: exit}
}

func (b *Builder) compileAnyChar() fragment {
	exit := b.graph.NewComposite(b.pattern, nil)
	any := b.graph.NewAnyChar(b.pattern, exit)
	entry := b.graph.NewComposite(b.pattern, []NodeID{any})
	return fragment{entry: entry, exit: exit}
}
