package nfa

import (
	"sync"

	"github.com/coregx/rmatch/internal/conv"
	"github.com/coregx/rmatch/internal/sparse"
)

// nextSetCache memoizes Node.nextSet(ch) results (spec §4.3.1). It is
// guarded by its own lock rather than a lock on Graph, so that concurrent
// scans against a prepared (read-mostly) graph never contend on anything
// wider than a single node (spec §5's "fine-grained monitor per node").
type nextSetCache struct {
	mu      sync.Mutex
	entries map[rune][]NodeID
}

// Graph is the arena owning every node across every registered pattern.
// Nodes are referenced by id, never by pointer, so back-edges from '*'
// and '+' produce ordinary cyclic id references rather than pointer
// cycles (spec §9).
type Graph struct {
	mu    sync.RWMutex
	nodes []*Node
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{nodes: make([]*Node, 0, 256)}
}

// addNode appends a node to the arena, assigning it the next id.
func (g *Graph) addNode(n *Node) NodeID {
	g.mu.Lock()
	defer g.mu.Unlock()
	n.id = NodeID(conv.IntToUint32(len(g.nodes)))
	n.cache.entries = make(map[rune][]NodeID, 4)
	g.nodes = append(g.nodes, n)
	return n.id
}

// Node returns the node with the given id. Callers never mutate the
// returned pointer's variant fields; only the nextSet cache changes after
// construction.
func (g *Graph) Node(id NodeID) *Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[id]
}

// Len returns the number of nodes allocated so far.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// NewChar allocates a KindChar node.
func (g *Graph) NewChar(pattern PatternID, ch rune, next NodeID) NodeID {
	return g.addNode(&Node{kind: KindChar, pattern: pattern, ch: ch, next: next})
}

// NewCharSet allocates a KindCharSet node. intervals must already be
// sorted and non-overlapping (the builder is responsible for that).
func (g *Graph) NewCharSet(pattern PatternID, intervals []Interval, inverted bool, next NodeID) NodeID {
	return g.addNode(&Node{kind: KindCharSet, pattern: pattern, intervals: intervals, inverted: inverted, next: next, failNext: InvalidNode})
}

// NewCharSetWithFail allocates an inverted KindCharSet node whose
// excluded runes route to failNext instead of having no successor at
// all (spec §9: "Failing node ... used for inverted classes").
func (g *Graph) NewCharSetWithFail(pattern PatternID, intervals []Interval, next, failNext NodeID) NodeID {
	return g.addNode(&Node{kind: KindCharSet, pattern: pattern, intervals: intervals, inverted: true, next: next, failNext: failNext})
}

// NewAnyChar allocates a KindAnyChar node.
func (g *Graph) NewAnyChar(pattern PatternID, next NodeID) NodeID {
	return g.addNode(&Node{kind: KindAnyChar, pattern: pattern, next: next})
}

// NewTerminal allocates a KindTerminal sink for pattern.
func (g *Graph) NewTerminal(pattern PatternID) NodeID {
	return g.addNode(&Node{kind: KindTerminal, pattern: pattern})
}

// NewFailure allocates a KindFailure sink for pattern.
func (g *Graph) NewFailure(pattern PatternID) NodeID {
	return g.addNode(&Node{kind: KindFailure, pattern: pattern})
}

// NewComposite allocates a KindComposite node with the given (already
// sorted) epsilon successors.
func (g *Graph) NewComposite(pattern PatternID, eps []NodeID) NodeID {
	sorted := append([]NodeID(nil), eps...)
	sortNodeIDs(sorted)
	return g.addNode(&Node{kind: KindComposite, pattern: pattern, eps: dedupSorted(sorted)})
}

// AddEpsilon appends one more epsilon successor to a composite node. Used
// when wiring the global start node as new patterns are added.
func (g *Graph) AddEpsilon(id NodeID, target NodeID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.nodes[id]
	if n.kind != KindComposite {
		panic("nfa: AddEpsilon on non-composite node kind " + n.kind.String())
	}
	n.eps = append(n.eps, target)
	sortNodeIDs(n.eps)
	n.eps = dedupSorted(n.eps)
}

// EpsilonClosure returns the reflexive, transitive closure of seeds over
// composite epsilon edges, sorted and deduplicated. Visited tracking uses
// a sparse.SparseSet over the graph's current node-id universe rather
// than a map, since node ids are small dense integers (the teacher's
// justification for sparse.SparseSet applies equally to this closure).
func (g *Graph) EpsilonClosure(seeds []NodeID) []NodeID {
	visited := sparse.NewSparseSet(conv.IntToUint32(g.Len()))
	stack := append([]NodeID(nil), seeds...)
	out := make([]NodeID, 0, len(seeds)*2)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited.Contains(uint32(id)) {
			continue
		}
		visited.Insert(uint32(id))
		out = append(out, id)
		if n := g.Node(id); n.kind == KindComposite {
			for _, e := range n.eps {
				if !visited.Contains(uint32(e)) {
					stack = append(stack, e)
				}
			}
		}
	}
	sortNodeIDs(out)
	return out
}

// NextSet computes node.nextSet(ch): the ε-closure-expanded set of
// deterministic successors reachable from id by consuming ch (spec
// §4.3.1). Results are memoized per (node, ch) and never evicted during a
// scan.
func (g *Graph) NextSet(id NodeID, ch rune) []NodeID {
	n := g.Node(id)

	n.cache.mu.Lock()
	if cached, ok := n.cache.entries[ch]; ok {
		n.cache.mu.Unlock()
		return cached
	}
	n.cache.mu.Unlock()

	// Step 1-2: seed an explore stack with n; pop, take nextOn(ch), push
	// unvisited epsilon successors.
	visited := sparse.NewSparseSet(conv.IntToUint32(g.Len()))
	stack := []NodeID{id}
	direct := make([]NodeID, 0, 4)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited.Contains(uint32(cur)) {
			continue
		}
		visited.Insert(uint32(cur))

		node := g.Node(cur)
		if next, ok := node.nextOn(ch); ok {
			direct = append(direct, next)
		}
		if node.kind == KindComposite {
			for _, e := range node.eps {
				if !visited.Contains(uint32(e)) {
					stack = append(stack, e)
				}
			}
		}
	}

	// Step 3: transitive epsilon-closure (including reflexive) of the
	// direct successors.
	result := g.EpsilonClosure(direct)

	n.cache.mu.Lock()
	n.cache.entries[ch] = result
	n.cache.mu.Unlock()

	return result
}
