// Package registry implements the Regexp registry (spec §3, §4.4): it
// maps a pattern string (plus options) to its compiled NFA head node, its
// terminal NFA nodes, its attached actions, and the per-pattern
// bookkeeping the scheduler consults on every scan.
package registry

import (
	"fmt"
	"sync"

	"github.com/coregx/rmatch/internal/inputbuf"
	"github.com/coregx/rmatch/internal/nfa"
)

// Options are recognized at Add time (spec §6).
type Options struct {
	// CaseInsensitive makes the literal prefilter insert lower- and
	// upper-case variants of the pattern's hint. The NFA's char and
	// char-set predicates are not case-folded: the pattern itself still
	// matches case-sensitively.
	CaseInsensitive bool
}

// key identifies a pattern by its regex string and options; two Add
// calls with the same regex string but different options compile and
// register distinct patterns.
type key struct {
	regex string
	opts  Options
}

// Pattern is the "Regexp" entity of spec §3: the original pattern string,
// its compiled NFA head, its terminal set, its attached actions, and a
// non-starting-char fast-reject set.
type Pattern struct {
	ID      nfa.PatternID
	Regex   string
	Opts    Options
	Head    nfa.NodeID
	Terminals map[nfa.NodeID]struct{}

	mu      sync.Mutex
	actions []inputbuf.Action
	dormant bool

	// nonStarting is a derived fast-reject cache, not part of the
	// pattern's identity: it only records characters empirically seen to
	// fail from the DFA start state for this pattern. Spec §4.4 Step A
	// mutates it during scanning even though §5 calls the registry
	// "immutable during a scan" — the two statements are reconciled by
	// treating this one field as a read-mostly, write-rarely cache (like
	// the NFA/DFA transition caches), guarded by its own lock, while the
	// pattern's identity (Head/Terminals/actions/dormant) never changes
	// mid-scan. See DESIGN.md.
	nonStartingMu sync.RWMutex
	nonStarting   map[rune]struct{}
}

// IsTerminalNode reports whether id is one of this pattern's terminal
// NFA nodes.
func (p *Pattern) IsTerminalNode(id nfa.NodeID) bool {
	_, ok := p.Terminals[id]
	return ok
}

// Actions returns a snapshot of the actions currently attached, in the
// order they were added (spec §5: "actions are fired in the order they
// were added").
func (p *Pattern) Actions() []inputbuf.Action {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]inputbuf.Action(nil), p.actions...)
}

// Dormant reports whether the pattern currently has zero actions. A
// dormant pattern's NFA stays interned (spec §4.6) but the scheduler
// never seeds matches for it.
func (p *Pattern) Dormant() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dormant
}

// PossibleStartingChar reports whether ch may begin a viable match for
// this pattern: it returns false once ch has been recorded as never
// starting one (the fast reject of spec §3/§4.4).
func (p *Pattern) PossibleStartingChar(ch rune) bool {
	p.nonStartingMu.RLock()
	defer p.nonStartingMu.RUnlock()
	_, known := p.nonStarting[ch]
	return !known
}

// RecordNonStartingChar remembers that ch never starts a match for this
// pattern from the DFA start state, so future positions can skip the
// seed check entirely.
func (p *Pattern) RecordNonStartingChar(ch rune) {
	p.nonStartingMu.Lock()
	defer p.nonStartingMu.Unlock()
	if p.nonStarting == nil {
		p.nonStarting = make(map[rune]struct{}, 8)
	}
	p.nonStarting[ch] = struct{}{}
}

// Registry owns every pattern ever added to a matcher instance.
type Registry struct {
	mu       sync.Mutex
	byKey    map[key]*Pattern
	byID     map[nfa.PatternID]*Pattern
	graph       *nfa.Graph
	globalStart nfa.NodeID
	nextID      nfa.PatternID
}

// New returns an empty registry backed by graph. It allocates the
// persistent global start node that every compiled pattern's head gets
// epsilon-linked into as it is added (spec §4.2).
func New(graph *nfa.Graph) *Registry {
	start := graph.NewComposite(nfa.SystemPattern, nil)
	return &Registry{
		byKey:       make(map[key]*Pattern),
		byID:        make(map[nfa.PatternID]*Pattern),
		graph:       graph,
		globalStart: start,
	}
}

// Graph returns the shared NFA arena.
func (r *Registry) Graph() *nfa.Graph { return r.graph }

// GlobalStart returns the persistent composite node whose epsilon
// closure the DFA cache's start state is derived from.
func (r *Registry) GlobalStart() nfa.NodeID { return r.globalStart }

// GetOrCompile returns the pattern for (regex, opts), compiling it with
// compileFn if this is the first time the (regex, opts) pair is seen.
// compileFn is called with the newly reserved pattern id and must return
// the compiled head node and terminal set.
func (r *Registry) GetOrCompile(
	regex string,
	opts Options,
	compileFn func(id nfa.PatternID) (head nfa.NodeID, terminals []nfa.NodeID, err error),
) (*Pattern, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{regex: regex, opts: opts}
	if p, ok := r.byKey[k]; ok {
		return p, nil
	}

	id := r.nextID
	head, terminals, err := compileFn(id)
	if err != nil {
		return nil, err
	}
	r.nextID++
	r.graph.AddEpsilon(r.globalStart, head)

	termSet := make(map[nfa.NodeID]struct{}, len(terminals))
	for _, t := range terminals {
		termSet[t] = struct{}{}
	}

	p := &Pattern{
		ID:        id,
		Regex:     regex,
		Opts:      opts,
		Head:      head,
		Terminals: termSet,
		dormant:   true,
	}
	r.byKey[k] = p
	r.byID[id] = p
	return p, nil
}

// AttachAction adds action to the pattern, marking it non-dormant.
func (p *Pattern) AttachAction(action inputbuf.Action) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, action)
	p.dormant = false
}

// DetachAction removes the first action equal (by identity) to action.
// If no actions remain, the pattern becomes dormant. Returns true if an
// action was found and removed.
//
// Identity is interface equality. An action whose dynamic type is not
// comparable (a bare ActionFunc closure is not; a pointer to a struct
// implementing Action is) never compares equal, so DetachAction returns
// false for it and leaves it attached.
func (p *Pattern) DetachAction(action inputbuf.Action) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, a := range p.actions {
		if actionsEqual(a, action) {
			p.actions = append(p.actions[:i], p.actions[i+1:]...)
			p.dormant = len(p.actions) == 0
			return true
		}
	}
	return false
}

// actionsEqual compares two Actions by identity, recovering from the
// runtime panic that a direct == would raise when either side's dynamic
// type is incomparable (e.g. a plain func value captured by ActionFunc).
func actionsEqual(a, b inputbuf.Action) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

// ByID returns the pattern registered under id, or nil.
func (r *Registry) ByID(id nfa.PatternID) *Pattern {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id]
}

// Active returns every non-dormant pattern, in ascending id order —
// scanning uses this to decide which patterns can seed matches.
func (r *Registry) Active() []*Pattern {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Pattern, 0, len(r.byID))
	for id := nfa.PatternID(0); id < r.nextID; id++ {
		if p, ok := r.byID[id]; ok && !p.Dormant() {
			out = append(out, p)
		}
	}
	return out
}

// String implements fmt.Stringer for debugging/logging.
func (p *Pattern) String() string {
	return fmt.Sprintf("Pattern{id=%d, regex=%q, dormant=%v}", p.ID, p.Regex, p.Dormant())
}
