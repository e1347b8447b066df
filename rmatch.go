// Package rmatch implements a single-pass, multi-pattern regular
// expression match engine: hundreds to tens of thousands of patterns
// are registered once, then every input buffer is scanned exactly once
// while every pattern's matches are tracked concurrently.
//
// Each live candidate match advances through a lazily constructed DFA
// layered over a shared NFA; overlapping matches of the same pattern
// are resolved by a domination rule (the widest survives); an optional
// literal prefilter built with Aho-Corasick skips positions that cannot
// possibly begin a match.
//
// Basic usage:
//
//	m := rmatch.New(rmatch.DefaultConfig())
//	err := m.Add(`ab+c`, rmatch.Options{}, rmatch.ActionFunc(func(buf rmatch.Buffer, start, end int) {
//	    fmt.Println(buf.Slice(start, end+1))
//	}))
//	m.Match(rmatch.NewBuffer("xxabbbcxx"))
//	m.Shutdown()
package rmatch

import (
	"sync"

	"github.com/coregx/rmatch/internal/dfacache"
	"github.com/coregx/rmatch/internal/inputbuf"
	"github.com/coregx/rmatch/internal/literal"
	"github.com/coregx/rmatch/internal/metrics"
	"github.com/coregx/rmatch/internal/nfa"
	"github.com/coregx/rmatch/internal/parser"
	"github.com/coregx/rmatch/internal/prefilter"
	"github.com/coregx/rmatch/internal/registry"
	"github.com/coregx/rmatch/internal/rmerrors"
	"github.com/coregx/rmatch/internal/rmlog"
	"github.com/coregx/rmatch/internal/scheduler"
)

// Buffer is the input cursor consumed by Match. See inputbuf.Buffer.
type Buffer = inputbuf.Buffer

// NewBuffer returns a Buffer over s.
func NewBuffer(s string) Buffer { return inputbuf.NewRuneBuffer(s) }

// Action is invoked once per committed, undominated match. See
// inputbuf.Action.
type Action = inputbuf.Action

// ActionFunc adapts a plain function to Action.
type ActionFunc = inputbuf.ActionFunc

// Options are recognized at Add time.
type Options = registry.Options

// Matcher binds the parser, NFA/DFA machinery, scheduler and literal
// prefilter behind the operations of spec §4.6. A Matcher may be
// scanned (Match) concurrently from multiple goroutines provided each
// caller supplies its own Buffer; Add/Remove must not race with Match
// or with each other (spec §4.6's thread-safety contract).
type Matcher struct {
	cfg      Config
	graph    *nfa.Graph
	reg      *registry.Registry
	cache    *dfacache.Cache
	log      rmlog.Logger
	counters metrics.Counters

	prefilterMu    sync.Mutex // guards the lazy rebuild in ensurePrefilter
	prefilterDirty bool
	prefilterIdx   *prefilter.Index
	hints          []literal.Hint
}

// New returns a ready-to-use Matcher configured by cfg.
func New(cfg Config) *Matcher {
	graph := nfa.NewGraph()
	reg := registry.New(graph)
	return &Matcher{
		cfg:            cfg,
		graph:          graph,
		reg:            reg,
		cache:          dfacache.New(graph, reg.GlobalStart()),
		log:            rmlog.Noop(),
		counters:       metrics.Noop(),
		prefilterDirty: true,
	}
}

// SetLogger installs a logger for diagnostic output. It is not part of
// the correctness path (spec §9).
func (m *Matcher) SetLogger(l rmlog.Logger) { m.log = l }

// SetCounters installs a telemetry sink. It is not part of the
// correctness path (spec §9).
func (m *Matcher) SetCounters(c metrics.Counters) {
	if c == nil {
		c = metrics.Noop()
	}
	m.counters = c
	m.cache.SetCounters(c)
}

// Add compiles regex (if not already compiled under opts) and attaches
// action to it (spec §4.6). Fails with a parse-error or
// unsupported-construct error on malformed input.
func (m *Matcher) Add(regex string, opts Options, action Action) error {
	if action == nil {
		return rmerrors.NewInvalidArgument("action must not be nil")
	}

	p, err := m.reg.GetOrCompile(regex, opts, func(id nfa.PatternID) (nfa.NodeID, []nfa.NodeID, error) {
		b := nfa.NewBuilder(m.graph, id)
		if err := parser.Parse(regex, b); err != nil {
			return nfa.InvalidNode, nil, err
		}
		return b.Finish()
	})
	if err != nil {
		return err
	}

	p.AttachAction(action)
	m.invalidatePrefilter(p.ID, regex, opts)
	m.log.Infof("rmatch: added pattern %d %q", p.ID, regex)
	return nil
}

// Remove detaches action from regex's pattern. Once a pattern has no
// remaining actions it goes dormant — the scheduler never seeds matches
// for it — but its NFA stays interned until Shutdown (spec §4.6).
func (m *Matcher) Remove(regex string, opts Options, action Action) error {
	p, err := m.reg.GetOrCompile(regex, opts, func(id nfa.PatternID) (nfa.NodeID, []nfa.NodeID, error) {
		return nfa.InvalidNode, nil, rmerrors.NewInvalidArgument("remove of unregistered pattern")
	})
	if err != nil {
		return err
	}
	p.DetachAction(action)
	return nil
}

// Match runs the scheduler once over buf, dispatching actions on every
// surviving match (spec §4.4). It blocks until buf is exhausted.
func (m *Matcher) Match(buf Buffer) error {
	m.counters.ScanStarted()

	var candidates *prefilter.Candidates
	if m.cfg.EnablePrefilter {
		idx, ok := m.ensurePrefilter()
		if ok && idx != nil {
			text, runeOffsets := drain(buf.Clone())
			candidates = idx.Scan(text, runeOffsets)
		}
	}

	sched := scheduler.New(m.reg, m.cache)
	sched.SetCounters(m.counters)
	return sched.Run(buf, candidates)
}

// Shutdown releases background resources. Idempotent.
func (m *Matcher) Shutdown() {}

func (m *Matcher) invalidatePrefilter(id nfa.PatternID, regex string, opts Options) {
	if hint, ok := literal.Extract(id, regex, opts.CaseInsensitive); ok && len(hint.Literal) >= m.cfg.MinLiteralLen {
		m.hints = append(m.hints, hint)
	}
	m.prefilterDirty = true
}

// ensurePrefilter (re)builds the Aho-Corasick index lazily, the first
// time it is needed after Add has changed the hint set.
func (m *Matcher) ensurePrefilter() (*prefilter.Index, bool) {
	m.prefilterMu.Lock()
	defer m.prefilterMu.Unlock()
	if !m.prefilterDirty {
		return m.prefilterIdx, true
	}
	idx, err := prefilter.Build(m.hints)
	if err != nil {
		m.log.Warnf("rmatch: prefilter build failed, falling back to unfiltered scan: %v", err)
		m.prefilterIdx = nil
		m.prefilterDirty = false
		return nil, false
	}
	m.prefilterIdx = idx
	m.prefilterDirty = false
	return idx, true
}

// drain reads buf to exhaustion and returns its UTF-8 bytes alongside
// the byte offset each rune starts at (with a trailing sentinel at the
// total length), so prefilter byte offsets can be translated back to
// the rune offsets the scheduler addresses. The prefilter needs the
// whole text up front, so Match hands drain a clone of the caller's
// buffer; the scheduler then walks the original buffer one rune at a
// time from its untouched position.
func drain(buf Buffer) ([]byte, []int) {
	var out []byte
	offsets := []int{0}
	for buf.HasNext() {
		ch, err := buf.Next()
		if err != nil {
			break
		}
		out = append(out, []byte(string(ch))...)
		offsets = append(offsets, len(out))
	}
	return out, offsets
}
