// Package metrics defines an optional telemetry sink for the matcher.
// It is never consulted for correctness (spec §9: "counters ... are
// telemetry only; they must not be part of the core's correctness
// path") — callers that don't pass one get a Counters that discards
// everything.
package metrics

// Counters receives point-in-time observations from a running matcher.
// Implementations must be safe for concurrent use: a Matcher may be
// scanned by multiple goroutines at once (spec §5).
type Counters interface {
	// ScanStarted is called once per Matcher.Match invocation.
	ScanStarted()
	// MatchEmitted is called once per action dispatched.
	MatchEmitted(pattern uint32)
	// DFAStateCreated is called once per new interned DFA state.
	DFAStateCreated()
	// PrefilterSkip is called once per offset the literal prefilter
	// ruled out for a pattern.
	PrefilterSkip()
}

type noop struct{}

func (noop) ScanStarted()        {}
func (noop) MatchEmitted(uint32) {}
func (noop) DFAStateCreated()    {}
func (noop) PrefilterSkip()      {}

// Noop returns a Counters that discards every observation.
func Noop() Counters { return noop{} }
