package router

import (
	"errors"
	"fmt"
)

var (
	// ErrLoadFailure matches every error caused by a module, endpoint,
	// matcher registry or matcher failing. Use errors.Is.
	ErrLoadFailure = errors.New("load failure")

	// ErrUnknownMatcher is wrapped by MatcherError when a route names a
	// matcher the registry does not have.
	ErrUnknownMatcher = errors.New("unknown matcher")
)

// LoadError reports a failed node, endpoint or matcher registry load.
type LoadError struct {
	// Node is the node index, or NoNode.
	Node int

	// Endpoint is the endpoint chunk name for endpoint loads.
	Endpoint string

	// Registry is set when the matcher registry failed to load.
	Registry bool

	Err error
}

func (e *LoadError) Error() string {
	switch {
	case e.Registry:
		return fmt.Sprintf("load matchers: %v", e.Err)
	case e.Endpoint != "":
		return fmt.Sprintf("load endpoint %s: %v", e.Endpoint, e.Err)
	default:
		return fmt.Sprintf("load node %d: %v", e.Node, e.Err)
	}
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrLoadFailure) true.
func (e *LoadError) Is(target error) bool { return target == ErrLoadFailure }

// MatcherError reports a matcher that errored or panicked, as opposed to
// one that rejected the value.
type MatcherError struct {
	Route   string
	Param   string
	Matcher string
	Value   string
	Err     error
}

func (e *MatcherError) Error() string {
	return fmt.Sprintf("route %s: matcher %q on param %q (value %q): %v", e.Route, e.Matcher, e.Param, e.Value, e.Err)
}

func (e *MatcherError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrLoadFailure) true.
func (e *MatcherError) Is(target error) bool { return target == ErrLoadFailure }
