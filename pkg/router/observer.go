package router

import "time"

// Outcome classifies a Resolve call.
type Outcome string

const (
	OutcomeMatched  Outcome = "matched"
	OutcomeNotFound Outcome = "not_found"
	OutcomeError    Outcome = "error"
)

// Observer receives resolution and load events. Implementations must be
// safe for concurrent use.
type Observer interface {
	// Resolved is called once per Resolve. routeID is empty unless a route
	// was selected or a matcher on a specific route failed.
	Resolved(routeID string, outcome Outcome, d time.Duration)

	// MatcherRejected is called when a matcher returns false.
	MatcherRejected(routeID, matcher string)

	// MatcherFailed is called when a matcher errors or panics.
	MatcherFailed(routeID, matcher string)

	// ModuleLoaded is called after each producer call, with kind "node",
	// "endpoint" or "matchers".
	ModuleLoaded(kind string, d time.Duration, err error)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) Resolved(string, Outcome, time.Duration)   {}
func (NopObserver) MatcherRejected(string, string)            {}
func (NopObserver) MatcherFailed(string, string)              {}
func (NopObserver) ModuleLoaded(string, time.Duration, error) {}
