// Package dfacache implements the lazy subset-construction DFA cache
// (spec §4.3): it owns the start state and, on demand, every other DFA
// state reachable from it, identifying each state by the canonical
// sorted set of NFA node ids it represents.
package dfacache

import (
	"strconv"
	"strings"
	"sync"

	"github.com/coregx/rmatch/internal/nfa"
)

// StateID uniquely identifies a DFA state within one Cache.
type StateID uint32

// State is a single DFA state: its core (the sorted NFA node id set that
// defines it), a lazily populated per-character transition cache, and
// per-pattern active/terminal/failing flags derived once from the core
// at creation time (spec §3's DFA state invariants).
type State struct {
	id   StateID
	core []nfa.NodeID

	activeFor   map[nfa.PatternID]bool
	terminalFor map[nfa.PatternID]bool
	failingFor  map[nfa.PatternID]bool

	mu          sync.RWMutex
	transitions map[rune]*State // nil value means "no transition" (a cached dead end)
}

// ID returns the state's id, stable for the lifetime of the Cache that
// created it.
func (s *State) ID() StateID { return s.id }

// Core returns the sorted NFA node ids this state represents.
func (s *State) Core() []nfa.NodeID { return s.core }

// IsActiveFor reports whether some core node belongs to pattern and is
// not a failure sink.
func (s *State) IsActiveFor(p nfa.PatternID) bool { return s.activeFor[p] }

// IsTerminalFor reports whether some core node is a terminal sink for
// pattern.
func (s *State) IsTerminalFor(p nfa.PatternID) bool { return s.terminalFor[p] }

// HasFailingFor reports whether some core node is a failure sink for
// pattern (spec §4.4 Step B: such a state forces abandonment even though
// the pattern may also be "active" at another node in the same core,
// e.g. an alternation branch that failed alongside one that didn't).
func (s *State) HasFailingFor(p nfa.PatternID) bool { return s.failingFor[p] }

func newState(id StateID, core []nfa.NodeID, g *nfa.Graph) *State {
	s := &State{
		id:          id,
		core:        core,
		transitions: make(map[rune]*State, 8),
		activeFor:   make(map[nfa.PatternID]bool, len(core)),
		terminalFor: make(map[nfa.PatternID]bool),
		failingFor:  make(map[nfa.PatternID]bool),
	}
	for _, id := range core {
		n := g.Node(id)
		pat := n.Pattern()
		switch {
		case n.IsFailing():
			s.failingFor[pat] = true
		case n.IsTerminal():
			s.activeFor[pat] = true
			s.terminalFor[pat] = true
		default:
			s.activeFor[pat] = true
		}
	}
	return s
}

// coreKey renders core (already sorted) into a key exact enough to rule
// out hash-collision misinterning: canonicalization must be exact, not
// probabilistic (spec §8 property 5).
func coreKey(core []nfa.NodeID) string {
	var b strings.Builder
	b.Grow(len(core) * 6)
	for i, id := range core {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(uint64(id), 36))
	}
	return b.String()
}
