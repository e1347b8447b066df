// Package literal extracts a single scoring literal hint per pattern
// from its source regex text (spec §4.5), for use by the Aho-Corasick
// prefilter.
package literal

import (
	"strings"

	"github.com/coregx/rmatch/internal/nfa"
)

// Hint is the (pattern id, literal, anchoring, case-insensitivity,
// offset-in-match) tuple of spec §3's "Literal hint" entity.
type Hint struct {
	Pattern  nfa.PatternID
	Literal  string
	Anchored bool
	Fold     bool
	// OffsetInMatch is the literal's offset within the regex's own
	// match span. Always 0: Extract only ever returns anchored-prefix
	// literals (see Extract's doc comment), per spec §4.5.
	OffsetInMatch int
}

// stopwords are short, extremely common runs that make poor prefilter
// anchors despite passing the length-2 floor.
var stopwords = map[string]struct{}{
	"th": {}, "he": {}, "in": {}, "er": {}, "an": {}, "re": {}, "on": {},
	"at": {}, "en": {}, "nd": {}, "ti": {}, "es": {}, "or": {}, "te": {},
}

// Extract walks regex's surface text and returns the single
// highest-scoring literal run of length ≥ 2 that anchors the start of
// the match, if any (spec §4.5). Unsupported by design: it never looks
// at the compiled NFA — only the source text, exactly as the
// scored-candidate algorithm describes.
//
// Only a run starting at regex's own position 0 qualifies: the
// prefilter (see internal/prefilter) derives a match's candidate start
// offset as `literalStart - OffsetInMatch`, which is only exact when
// the literal is a true prefix of the pattern (OffsetInMatch is always
// 0). A literal that appears deeper in the pattern — e.g. "bc" in
// "a+bc" — can be preceded by a variable amount of input, so its
// distance from the true match start is unknown and it cannot be used
// to prune candidate offsets without risking a missed match (spec §8
// property 1/6).
//
// A regex containing '|' anywhere gets no hint at all: a top-level
// alternative can begin a match without the leading run.
func Extract(pattern nfa.PatternID, regex string, fold bool) (Hint, bool) {
	if strings.ContainsRune(regex, '|') {
		return Hint{}, false
	}
	runs := literalRuns(regex)
	if len(runs) == 0 {
		return Hint{}, false
	}

	var best run
	bestScore := -1.0
	for _, r := range runs {
		if len(r.text) < 2 || r.start != 0 {
			continue
		}
		s := score(r, regex)
		if s > bestScore {
			bestScore = s
			best = r
		}
	}
	if bestScore < 0 {
		return Hint{}, false
	}

	return Hint{
		Pattern:       pattern,
		Literal:       best.text,
		Anchored:      true,
		Fold:          fold,
		OffsetInMatch: 0,
	}, true
}

type run struct {
	text  string
	start int // offset of this run within regex's source text
}

// literalRuns walks regex with a small state machine tracking
// char-class and escape state, accumulating maximal literal runs
// between metacharacters (spec §4.5).
func literalRuns(regex string) []run {
	var runs []run
	var cur strings.Builder
	curStart := -1
	inClass := false
	escaped := false

	flush := func(endPos int) {
		if cur.Len() > 0 {
			runs = append(runs, run{text: cur.String(), start: curStart})
			cur.Reset()
		}
		curStart = -1
	}

	for i := 0; i < len(regex); i++ {
		c := regex[i]

		if escaped {
			if curStart < 0 {
				curStart = i - 1
			}
			cur.WriteByte(c)
			escaped = false
			continue
		}

		switch {
		case c == '\\':
			escaped = true
			// A following quantifier makes the preceding char the
			// subject of repetition; that uncertainty is handled at
			// the parser level, not here — a prefilter hint only
			// needs a substring that must appear, not a precise span.
			continue
		case inClass:
			if c == ']' {
				inClass = false
			}
			flush(i)
			continue
		case c == '[':
			inClass = true
			flush(i)
			continue
		case c == '(' || c == ')' || c == '|' || c == '.':
			flush(i)
			continue
		case c == '?' || c == '*' || c == '+':
			// The quantifier applies to the single char it follows;
			// that char cannot be trusted to "always appear" so it is
			// dropped from the run in progress.
			s := cur.String()
			sStart := curStart
			cur.Reset()
			curStart = -1
			if len(s) > 1 {
				runs = append(runs, run{text: s[:len(s)-1], start: sStart})
			}
			continue
		default:
			if curStart < 0 {
				curStart = i
			}
			cur.WriteByte(c)
		}
	}
	flush(len(regex))
	return runs
}

// score implements spec §4.5's scoring: length, anchoring bonus,
// character-rarity bonus, stopword penalty.
func score(r run, regex string) float64 {
	s := float64(len(r.text))
	if r.start == 0 {
		s += 3
	}
	for i := 0; i < len(r.text); i++ {
		c := r.text[i]
		switch {
		case c >= '0' && c <= '9':
			s += 0.5
		case !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')):
			s += 0.5 // punctuation or other symbol: rare
		case c == 'a' || c == 'e' || c == 'i' || c == 'o' || c == 'u':
			s -= 0.1 // common vowel: less selective
		}
	}
	if _, stop := stopwords[strings.ToLower(r.text)]; stop {
		s -= 5
	}
	return s
}
