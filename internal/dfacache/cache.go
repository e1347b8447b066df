package dfacache

import (
	"sync"

	"github.com/coregx/rmatch/internal/metrics"
	"github.com/coregx/rmatch/internal/nfa"
)

// Cache owns the canonical set of DFA states for one matcher instance.
// Lookups are wait-free once warm; insertion happens under a single
// write lock per the teacher's cache design, but scans against a fully
// warmed cache never take it (spec §4.3's concurrency note).
type Cache struct {
	mu     sync.RWMutex
	states map[string]*State
	byID   []*State
	nextID StateID

	graph       *nfa.Graph
	globalStart nfa.NodeID
	counters    metrics.Counters
}

// New returns a Cache over graph, rooted at globalStart — the persistent
// composite NFA node that every pattern's head is epsilon-linked to as
// it is registered (spec §4.2: "The head node of every pattern is
// registered with the DFA cache's start node").
func New(graph *nfa.Graph, globalStart nfa.NodeID) *Cache {
	return &Cache{
		states:      make(map[string]*State, 64),
		graph:       graph,
		globalStart: globalStart,
		counters:    metrics.Noop(),
	}
}

// SetCounters installs the telemetry sink new states are reported to.
// Not part of the correctness path (spec §9).
func (c *Cache) SetCounters(counters metrics.Counters) {
	if counters == nil {
		counters = metrics.Noop()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters = counters
}

// Start returns the canonical start state: the epsilon-closure of the
// global start node, recomputed on every call (the graph does not
// memoize closures; only the resulting state is interned) so that
// patterns added after earlier scans are visible without any separate
// invalidation step.
func (c *Cache) Start() *State {
	core := c.graph.EpsilonClosure([]nfa.NodeID{c.globalStart})
	return c.intern(core)
}

// Next computes next(state, ch), populating state's transition cache on
// first use (spec §4.3). A nil result means no core node has a
// transition on ch — the caller abandons every match at this state.
func (c *Cache) Next(state *State, ch rune) *State {
	state.mu.RLock()
	if next, ok := state.transitions[ch]; ok {
		state.mu.RUnlock()
		return next
	}
	state.mu.RUnlock()

	union := make(map[nfa.NodeID]struct{}, 8)
	for _, id := range state.core {
		for _, succ := range c.graph.NextSet(id, ch) {
			union[succ] = struct{}{}
		}
	}

	var next *State
	if len(union) > 0 {
		core := make([]nfa.NodeID, 0, len(union))
		for id := range union {
			core = append(core, id)
		}
		sortNodeIDsLocal(core)
		next = c.intern(core)
	}

	state.mu.Lock()
	state.transitions[ch] = next
	state.mu.Unlock()

	return next
}

// intern returns the canonical State for core, creating it if this core
// has never been seen before (spec §3: "for a given core, at most one
// DFA state exists").
func (c *Cache) intern(core []nfa.NodeID) *State {
	k := coreKey(core)

	c.mu.RLock()
	if st, ok := c.states[k]; ok {
		c.mu.RUnlock()
		return st
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.states[k]; ok {
		return st
	}
	st := newState(c.nextID, core, c.graph)
	c.nextID++
	c.states[k] = st
	c.byID = append(c.byID, st)
	c.counters.DFAStateCreated()
	return st
}

// Size returns the number of interned DFA states, useful for tests and
// diagnostics.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.states)
}

func sortNodeIDsLocal(ids []nfa.NodeID) {
	// Small, duplicate-free after map collection; insertion sort avoids
	// pulling in sort.Slice's closure overhead for the common case of a
	// handful of node ids per DFA core.
	for i := 1; i < len(ids); i++ {
		v := ids[i]
		j := i - 1
		for j >= 0 && ids[j] > v {
			ids[j+1] = ids[j]
			j--
		}
		ids[j+1] = v
	}
}
