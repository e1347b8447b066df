// Package nfa builds and represents the shared nondeterministic finite
// automaton that every registered pattern compiles into (spec §4.2, §3).
//
// Node ids are assigned monotonically across the whole graph (not reset
// per pattern) so that a DFA state's core — a sorted set of node ids — is
// globally canonical, matching spec §3's DFA state invariant.
package nfa

import "sort"

// NodeID uniquely and monotonically identifies a node in the graph. It is
// the primary ordering key used everywhere a set of nodes must be
// canonicalized (DFA state cores, epsilon-closures).
type NodeID uint32

// InvalidNode marks the absence of a successor.
const InvalidNode NodeID = ^NodeID(0)

// PatternID identifies the pattern (Regexp) that owns a node.
type PatternID uint32

// SystemPattern owns nodes that belong to no registered pattern — today,
// only the graph's persistent global start node (spec §4.2). Real
// pattern ids are assigned from 0 upward by the registry and never
// collide with this sentinel.
const SystemPattern PatternID = ^PatternID(0)

// Kind tags the six node variants from spec §3/§9. Dispatch on nextOn is a
// small switch over Kind, never a virtual call — the graph is built once
// and walked very often.
type Kind uint8

const (
	// KindChar matches exactly one rune.
	KindChar Kind = iota
	// KindCharSet matches a rune against a sorted, non-overlapping interval
	// table, optionally inverted.
	KindCharSet
	// KindAnyChar matches any single rune ('.').
	KindAnyChar
	// KindTerminal is an accepting sink for the owning pattern.
	KindTerminal
	// KindFailure is a dead sink: reaching it abandons any in-progress
	// match for its pattern (used for inverted classes reached on an
	// excluded rune).
	KindFailure
	// KindComposite has only epsilon successors (concatenation splices,
	// alternation, and quantifier wiring all produce composite nodes).
	KindComposite
)

func (k Kind) String() string {
	switch k {
	case KindChar:
		return "Char"
	case KindCharSet:
		return "CharSet"
	case KindAnyChar:
		return "AnyChar"
	case KindTerminal:
		return "Terminal"
	case KindFailure:
		return "Failure"
	case KindComposite:
		return "Composite"
	default:
		return "Unknown"
	}
}

// Interval is an inclusive, sorted, non-overlapping rune range used by
// KindCharSet nodes.
type Interval struct {
	Lo, Hi rune
}

func (iv Interval) contains(ch rune) bool { return ch >= iv.Lo && ch <= iv.Hi }

// Node is a single NFA node. Fields beyond Kind are variant-specific; see
// the Kind constants above for which apply. Nodes do not change once
// their pattern is compiled, except for the registry's global start
// node (Graph.AddEpsilon links each newly added pattern's head into it)
// and the nextSet memoization cache (spec §4.3.1), which is guarded by
// its own mutex so concurrent scans can share it without a global lock
// (spec §5).
type Node struct {
	id      NodeID
	kind    Kind
	pattern PatternID

	ch        rune       // KindChar
	intervals []Interval // KindCharSet, sorted by Lo
	inverted  bool       // KindCharSet

	next NodeID // KindChar/KindCharSet/KindAnyChar: successor after consuming one rune

	// failNext is the successor reached when an inverted KindCharSet
	// consumes one of the runes it excludes. It is InvalidNode for
	// every other node (including non-inverted classes, where a
	// non-member rune simply has no successor at all — the distinction
	// matters because a failNext target is a KindFailure node, which
	// forces abandonment of the pattern even if another alternation
	// branch in the same DFA state core is still alive; see
	// State.HasFailingFor).
	failNext NodeID

	eps []NodeID // KindComposite: epsilon successors, sorted by id

	cache nextSetCache
}

// ID returns the node's stable id.
func (n *Node) ID() NodeID { return n.id }

// Kind returns the node's variant tag.
func (n *Node) Kind() Kind { return n.kind }

// Pattern returns the id of the pattern that owns this node.
func (n *Node) Pattern() PatternID { return n.pattern }

// IsTerminal reports whether this node accepts for its pattern.
func (n *Node) IsTerminal() bool { return n.kind == KindTerminal }

// IsFailing reports whether reaching this node must abandon the match.
func (n *Node) IsFailing() bool { return n.kind == KindFailure }

// EpsilonSuccessors returns the node's epsilon successors (empty for
// non-composite nodes).
func (n *Node) EpsilonSuccessors() []NodeID { return n.eps }

// nextOn returns the deterministic successor reached by consuming ch, if
// any. Only Char/CharSet/AnyChar nodes ever return ok==true.
func (n *Node) nextOn(ch rune) (NodeID, bool) {
	switch n.kind {
	case KindChar:
		if n.ch == ch {
			return n.next, true
		}
	case KindCharSet:
		if matchesSet(n.intervals, ch) != n.inverted {
			return n.next, true
		}
		if n.inverted && n.failNext != InvalidNode {
			return n.failNext, true
		}
	case KindAnyChar:
		return n.next, true
	}
	return InvalidNode, false
}

func matchesSet(intervals []Interval, ch rune) bool {
	// intervals is small and sorted; binary search keeps worst-case
	// character-class lookups logarithmic for large classes.
	lo, hi := 0, len(intervals)
	for lo < hi {
		mid := (lo + hi) / 2
		iv := intervals[mid]
		switch {
		case ch < iv.Lo:
			hi = mid
		case ch > iv.Hi:
			lo = mid + 1
		default:
			return true
		}
	}
	return false
}

// sortNodeIDs sorts ids in place, ascending. Node id sets are typically
// small (a handful of states per DFA core), so a plain insertion-adjacent
// sort.Slice is clear and fast enough; no need for the teacher's manual
// insertion sort at this call volume.
func sortNodeIDs(ids []NodeID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

// dedupSorted removes adjacent duplicates from an already-sorted slice.
func dedupSorted(ids []NodeID) []NodeID {
	if len(ids) < 2 {
		return ids
	}
	out := ids[:1]
	for _, id := range ids[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}
