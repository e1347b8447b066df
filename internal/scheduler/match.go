package scheduler

import (
	"github.com/coregx/rmatch/internal/dfacache"
	"github.com/coregx/rmatch/internal/nfa"
)

// match is a single candidate occurrence of a pattern, live from the
// offset it was seeded at until it is abandoned or committed (spec §3's
// Match entity).
type match struct {
	id      uint64
	pattern nfa.PatternID
	start   int
	end     int
	active  bool
	final   bool
}

// dominates reports whether m dominates other: same pattern (checked by
// the caller), m.start <= other.start, m.end >= other.end, with strict
// inequality on at least one side (spec §3).
func (m *match) dominates(other *match) bool {
	if m.start > other.start || m.end < other.end {
		return false
	}
	return m.start < other.start || m.end > other.end
}

// matchSet holds every live match that shares one start offset, plus the
// DFA state they are all currently sitting at (spec §3's MatchSet
// entity). At most one match per pattern lives in a MatchSet, since a
// DFA state already aggregates every NFA node active for that pattern.
type matchSet struct {
	start   int
	state   *dfacache.State
	matches map[nfa.PatternID]*match
}

func newMatchSet(start int, state *dfacache.State) *matchSet {
	return &matchSet{start: start, state: state, matches: make(map[nfa.PatternID]*match, 4)}
}

// dominationTracker is the per-scan "runnable matches holder" of spec
// §4.4/§4.6: it both decides, at commit time, whether a match survives
// the domination rule, and accumulates the final emitted set.
type dominationTracker struct {
	byPattern map[nfa.PatternID][]*match
}

func newDominationTracker() *dominationTracker {
	return &dominationTracker{byPattern: make(map[nfa.PatternID][]*match, 16)}
}

// commit applies spec §4.4's domination rule: m is kept iff no surviving
// match of the same pattern dominates it; every surviving match that m
// strictly dominates is retracted. Arrival order does not matter — any
// order converges to the same surviving set, since domination is
// re-checked symmetrically on every insert.
func (t *dominationTracker) commit(m *match) {
	winners := t.byPattern[m.pattern]
	for _, w := range winners {
		if w.dominates(m) {
			return
		}
	}
	kept := winners[:0]
	for _, w := range winners {
		if !m.dominates(w) {
			kept = append(kept, w)
		}
	}
	t.byPattern[m.pattern] = append(kept, m)
}

// drain returns every surviving match sorted in ascending (start,
// patternId) order (spec §5's ordering guarantee).
func (t *dominationTracker) drain() []*match {
	var all []*match
	for _, ms := range t.byPattern {
		all = append(all, ms...)
	}
	sortMatches(all)
	return all
}

func sortMatches(ms []*match) {
	// Insertion sort: the surviving-match count is small relative to
	// input length in the workloads this engine targets.
	for i := 1; i < len(ms); i++ {
		v := ms[i]
		j := i - 1
		for j >= 0 && less(v, ms[j]) {
			ms[j+1] = ms[j]
			j--
		}
		ms[j+1] = v
	}
}

func less(a, b *match) bool {
	if a.start != b.start {
		return a.start < b.start
	}
	return a.pattern < b.pattern
}
