// Package prefilter builds and queries the optional Aho-Corasick literal
// prefilter (spec §4.5): given the literal hints extracted at add time,
// it can scan a full input once and report, per pattern, the set of
// offsets that are viable match starts — letting the scheduler skip
// seeding work at every other offset without changing which matches are
// ultimately emitted (spec §8 property 6).
package prefilter

import (
	"sort"
	"strings"

	"github.com/coregx/ahocorasick"

	"github.com/coregx/rmatch/internal/literal"
	"github.com/coregx/rmatch/internal/nfa"
)

// Index is an immutable, rebuildable Aho-Corasick index over every
// pattern's literal hint.
type Index struct {
	auto *ahocorasick.Automaton
	// byLiteral maps a literal string (as inserted into the automaton,
	// including case variants) back to the hints it satisfies — an
	// automaton match only reports a byte span, so the originating
	// hints are recovered by the matched text itself.
	byLiteral map[string][]literal.Hint
}

// Build compiles hints into an Index. It returns (nil, nil) if hints is
// empty — an absent prefilter is not an error, it simply disables
// filtering (every pattern is always a seeding candidate).
func Build(hints []literal.Hint) (*Index, error) {
	if len(hints) == 0 {
		return nil, nil
	}

	byLiteral := make(map[string][]literal.Hint, len(hints))
	seen := make(map[string]struct{}, len(hints))
	builder := ahocorasick.NewBuilder()

	add := func(s string, h literal.Hint) {
		byLiteral[s] = append(byLiteral[s], h)
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			builder.AddPattern([]byte(s))
		}
	}

	for _, h := range hints {
		add(h.Literal, h)
		if h.Fold {
			// Case-insensitive hints are realized by inserting both
			// case variants of equal length, per spec §4.5 — true
			// Unicode folding is out of scope (spec §1 non-goals).
			if lo := strings.ToLower(h.Literal); len(lo) == len(h.Literal) {
				add(lo, h)
			}
			if up := strings.ToUpper(h.Literal); len(up) == len(h.Literal) {
				add(up, h)
			}
		}
	}

	auto, err := builder.Build()
	if err != nil {
		return nil, err
	}
	return &Index{auto: auto, byLiteral: byLiteral}, nil
}

// Candidates is the per-pattern set of viable match-start offsets
// discovered in one Scan.
type Candidates struct {
	starts map[nfa.PatternID]map[int]struct{}
}

// Allows reports whether offset is a viable start for pattern. Patterns
// with no literal hint (absent from starts) are never filtered.
func (c *Candidates) Allows(pattern nfa.PatternID, offset int) bool {
	if c == nil {
		return true
	}
	set, ok := c.starts[pattern]
	if !ok {
		return true
	}
	_, candidate := set[offset]
	return candidate
}

// Scan runs the automaton once over text and derives, for every hinted
// pattern, the set of candidate start offsets (spec §4.5): for each
// automaton match ending (exclusive) at e, the regex scan start is
// `e - literalLength - literalOffsetInMatch`.
//
// text is addressed by byte offset (the automaton's native unit);
// runeOffsets[r] gives the byte offset where rune r begins, with a
// final sentinel entry at len(text) — the matcher's scheduler instead
// addresses positions by rune, so every byte offset the automaton
// reports is translated through runeOffsets before being recorded.
func (idx *Index) Scan(text []byte, runeOffsets []int) *Candidates {
	out := &Candidates{starts: make(map[nfa.PatternID]map[int]struct{})}
	if idx == nil || idx.auto == nil {
		return out
	}

	at := 0
	for at <= len(text) {
		m := idx.auto.Find(text, at)
		if m == nil {
			break
		}
		matched := string(text[m.Start:m.End])
		for _, h := range idx.byLiteral[matched] {
			byteStart := m.End - len(h.Literal) - h.OffsetInMatch
			if byteStart < 0 {
				continue
			}
			start := byteToRune(runeOffsets, byteStart)
			set, ok := out.starts[h.Pattern]
			if !ok {
				set = make(map[int]struct{}, 8)
				out.starts[h.Pattern] = set
			}
			set[start] = struct{}{}
		}
		at = m.Start + 1
	}
	return out
}

// byteToRune returns the rune index whose byte offset is the largest
// entry of runeOffsets not exceeding b — i.e. the rune that contains or
// immediately precedes byte b.
func byteToRune(runeOffsets []int, b int) int {
	i := sort.SearchInts(runeOffsets, b+1)
	return i - 1
}
