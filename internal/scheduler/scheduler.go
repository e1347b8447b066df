// Package scheduler implements the Match/MatchSet scan loop of spec
// §4.4: the single-pass, single-threaded algorithm that seeds, advances,
// commits and dominates every live candidate match across one input
// buffer, then dispatches the surviving matches' actions.
package scheduler

import (
	"github.com/coregx/rmatch/internal/dfacache"
	"github.com/coregx/rmatch/internal/inputbuf"
	"github.com/coregx/rmatch/internal/metrics"
	"github.com/coregx/rmatch/internal/prefilter"
	"github.com/coregx/rmatch/internal/registry"
)

// Scheduler drives one scan. It is constructed fresh per Run call — all
// of its state (live MatchSets, the domination tracker) is per-scan,
// never shared across concurrent scans (spec §5).
type Scheduler struct {
	reg      *registry.Registry
	cache    *dfacache.Cache
	counters metrics.Counters
}

// New returns a Scheduler over reg and cache. Both are shared,
// read-mostly across concurrent scans; the Scheduler itself owns no
// shared state and is safe to construct fresh per call to Run.
func New(reg *registry.Registry, cache *dfacache.Cache) *Scheduler {
	return &Scheduler{reg: reg, cache: cache, counters: metrics.Noop()}
}

// SetCounters installs the telemetry sink dispatched matches and
// prefilter skips are reported to. Not part of the correctness path
// (spec §9).
func (s *Scheduler) SetCounters(counters metrics.Counters) {
	if counters == nil {
		counters = metrics.Noop()
	}
	s.counters = counters
}

// Run scans buf once, seeding/progressing/committing matches per spec
// §4.4, then dispatches actions on every surviving, undominated match in
// ascending (start, patternId) order (spec §5). candidates may be nil,
// meaning the literal prefilter is disabled or produced no hints —
// every position is then a seeding candidate for every pattern.
func (s *Scheduler) Run(buf inputbuf.Buffer, candidates *prefilter.Candidates) error {
	live := make([]*matchSet, 0, 16)
	tracker := newDominationTracker()
	var nextID uint64
	var pos int

	for buf.HasNext() {
		ch, err := buf.Next()
		if err != nil {
			return err
		}
		i := pos
		pos++

		// Progress matches seeded at earlier offsets first, then seed
		// at i: a freshly seeded MatchSet has already consumed ch (it
		// starts from dfaCache.next(start, ch)), so it must not be
		// progressed again against the same character this round.
		live = s.progress(ch, i, live, tracker)
		live = s.seed(ch, i, candidates, live, tracker, &nextID)
	}

	// Step C: commit every still-live match that is final.
	for _, ms := range live {
		for _, m := range ms.matches {
			if m.active && m.final {
				tracker.commit(m)
			}
		}
	}

	s.dispatch(buf, tracker.drain())
	return nil
}

// seed implements spec §4.4 Step A.
func (s *Scheduler) seed(
	ch rune,
	i int,
	candidates *prefilter.Candidates,
	live []*matchSet,
	tracker *dominationTracker,
	nextID *uint64,
) []*matchSet {
	start := s.cache.Start()
	s0 := s.cache.Next(start, ch)
	if s0 == nil {
		for _, p := range s.reg.Active() {
			p.RecordNonStartingChar(ch)
		}
		return live
	}

	ms := newMatchSet(i, s0)
	for _, p := range s.reg.Active() {
		if !s0.IsActiveFor(p.ID) {
			p.RecordNonStartingChar(ch)
			continue
		}
		if candidates != nil && !candidates.Allows(p.ID, i) {
			s.counters.PrefilterSkip()
			continue
		}
		if !p.PossibleStartingChar(ch) {
			continue
		}
		ms.matches[p.ID] = &match{
			id:      *nextID,
			pattern: p.ID,
			start:   i,
			end:     i,
			active:  true,
			final:   s0.IsTerminalFor(p.ID),
		}
		*nextID++
	}

	if len(ms.matches) > 0 {
		live = append(live, ms)
	}
	return live
}

// progress implements spec §4.4 Step B over every live MatchSet,
// returning the surviving (non-empty) subset.
func (s *Scheduler) progress(ch rune, i int, live []*matchSet, tracker *dominationTracker) []*matchSet {
	kept := live[:0]
	for _, ms := range live {
		sNext := s.cache.Next(ms.state, ch)
		if sNext == nil {
			for _, m := range ms.matches {
				if m.final {
					tracker.commit(m)
				}
				m.active = false
			}
			continue
		}

		ms.state = sNext
		for pid, m := range ms.matches {
			if !sNext.IsActiveFor(pid) || sNext.HasFailingFor(pid) {
				if m.final {
					tracker.commit(m)
				}
				m.active = false
				delete(ms.matches, pid)
				continue
			}
			m.end = i
			m.final = sNext.IsTerminalFor(pid)
		}

		if len(ms.matches) > 0 {
			kept = append(kept, ms)
		}
	}
	return kept
}

// dispatch drains matches (already sorted) and fires every action
// attached to each match's pattern, in attachment order (spec §5).
func (s *Scheduler) dispatch(buf inputbuf.Buffer, matches []*match) {
	for _, m := range matches {
		p := s.reg.ByID(m.pattern)
		if p == nil {
			continue
		}
		for _, action := range p.Actions() {
			action.Perform(buf, m.start, m.end)
			s.counters.MatchEmitted(uint32(m.pattern))
		}
	}
}
