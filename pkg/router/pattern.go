package router

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/vango-dev/waypoint/pkg/routepath"
)

// ErrInvalidRouteID is returned by Compile for malformed route ids.
var ErrInvalidRouteID = errors.New("invalid route id")

type segmentKind uint8

const (
	segLiteral segmentKind = iota
	segParam
	segOptional
	segRest
)

// segment is one compiled path segment.
type segment struct {
	kind segmentKind

	// text is the literal text for segLiteral.
	text string

	// prefix and suffix surround a segParam value (e.g., "v" and ".json"
	// for "v[version].json").
	prefix string
	suffix string

	// param is the index into Pattern.params.
	param int
}

// Capture is the raw value captured for one parameter.
type Capture struct {
	Value   string
	Present bool
}

// Pattern is a route id compiled into segment descriptors.
//
// Supported segment forms:
//
//	about          literal
//	[slug]         parameter
//	[id=integer]   parameter checked by the "integer" matcher
//	[[lang]]       optional parameter
//	[...rest]      rest parameter, zero or more segments
//	(group)        route group, does not consume a segment
//	v[ver].json    parameter with literal prefix/suffix
type Pattern struct {
	id       string
	segments []segment
	params   []ParamSpec
}

var (
	restToken     = regexp.MustCompile(`^\[\.\.\.(\w+)(?:=(\w+))?\]$`)
	optionalToken = regexp.MustCompile(`^\[\[(\w+)(?:=(\w+))?\]\]$`)
	paramToken    = regexp.MustCompile(`^([^\[\]]*)\[(\w+)(?:=(\w+))?\]([^\[\]]*)$`)
)

// Compile parses a route id into a Pattern.
func Compile(id string) (*Pattern, error) {
	if !strings.HasPrefix(id, "/") {
		return nil, fmt.Errorf("%w %q: must start with /", ErrInvalidRouteID, id)
	}

	p := &Pattern{id: id}
	seen := make(map[string]bool)
	addParam := func(spec ParamSpec) (int, error) {
		if seen[spec.Name] {
			return 0, fmt.Errorf("%w %q: duplicate parameter %q", ErrInvalidRouteID, id, spec.Name)
		}
		seen[spec.Name] = true
		p.params = append(p.params, spec)
		return len(p.params) - 1, nil
	}

	for _, raw := range strings.Split(strings.Trim(id, "/"), "/") {
		if raw == "" || isGroup(raw) {
			continue
		}

		var (
			seg segment
			err error
		)
		if m := restToken.FindStringSubmatch(raw); m != nil {
			seg.kind = segRest
			seg.param, err = addParam(ParamSpec{Name: m[1], Matcher: m[2], Rest: true, Chained: true})
		} else if m := optionalToken.FindStringSubmatch(raw); m != nil {
			seg.kind = segOptional
			seg.param, err = addParam(ParamSpec{Name: m[1], Matcher: m[2], Optional: true, Chained: true})
		} else if strings.ContainsAny(raw, "[]") {
			m := paramToken.FindStringSubmatch(raw)
			if m == nil {
				return nil, fmt.Errorf("%w %q: unsupported segment %q", ErrInvalidRouteID, id, raw)
			}
			seg.kind = segParam
			seg.prefix, seg.suffix = m[1], m[4]
			seg.param, err = addParam(ParamSpec{Name: m[2], Matcher: m[3]})
		} else {
			seg.kind = segLiteral
			seg.text = raw
		}
		if err != nil {
			return nil, err
		}
		p.segments = append(p.segments, seg)
	}

	return p, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(id string) *Pattern {
	p, err := Compile(id)
	if err != nil {
		panic(err)
	}
	return p
}

func isGroup(seg string) bool {
	return len(seg) > 2 && seg[0] == '(' && seg[len(seg)-1] == ')'
}

// String returns the route id.
func (p *Pattern) String() string {
	return p.id
}

// Params returns the parameters in capture order.
func (p *Pattern) Params() []ParamSpec {
	return slices.Clone(p.params)
}

// Match matches a canonical path and returns one Capture per parameter,
// or nil if the path does not match.
func (p *Pattern) Match(path string) []Capture {
	caps, _ := p.MatchFunc(path, nil)
	return caps
}

// MatchFunc enumerates the ways path can match, in preference order, and
// returns the first capture set accepted by accept. A nil accept takes the
// first structural match.
//
// Preference order is: optional parameters present before absent, rest
// parameters longest first. An error from accept stops the search.
func (p *Pattern) MatchFunc(path string, accept func([]Capture) (bool, error)) ([]Capture, error) {
	w := &walker{
		pattern: p,
		caps:    make([]Capture, len(p.params)),
		accept:  accept,
	}
	ok, err := w.walk(0, routepath.Split(path))
	if err != nil || !ok {
		return nil, err
	}
	return w.result, nil
}

// walker is the backtracking state of one MatchFunc call.
type walker struct {
	pattern *Pattern
	caps    []Capture
	accept  func([]Capture) (bool, error)
	result  []Capture
}

func (w *walker) walk(si int, parts []string) (bool, error) {
	if si == len(w.pattern.segments) {
		if len(parts) != 0 {
			return false, nil
		}
		caps := slices.Clone(w.caps)
		if w.accept != nil {
			ok, err := w.accept(caps)
			if err != nil || !ok {
				return false, err
			}
		}
		w.result = caps
		return true, nil
	}

	seg := &w.pattern.segments[si]
	switch seg.kind {
	case segLiteral:
		if len(parts) == 0 {
			return false, nil
		}
		v, err := routepath.DecodeSegment(parts[0], true)
		if err != nil || v != seg.text {
			return false, nil
		}
		return w.walk(si+1, parts[1:])

	case segParam:
		if len(parts) == 0 {
			return false, nil
		}
		v, ok := seg.bind(parts[0])
		if !ok {
			return false, nil
		}
		return w.try(si, seg.param, Capture{Value: v, Present: true}, parts[1:])

	case segOptional:
		if len(parts) > 0 {
			if v, ok := seg.bind(parts[0]); ok {
				if ok, err := w.try(si, seg.param, Capture{Value: v, Present: true}, parts[1:]); ok || err != nil {
					return ok, err
				}
			}
		}
		return w.try(si, seg.param, Capture{}, parts)

	case segRest:
		for n := len(parts); n > 0; n-- {
			v, ok := joinRest(parts[:n])
			if !ok {
				continue
			}
			if ok, err := w.try(si, seg.param, Capture{Value: v, Present: true}, parts[n:]); ok || err != nil {
				return ok, err
			}
		}
		return w.try(si, seg.param, Capture{}, parts)
	}

	return false, nil
}

// try binds a capture, continues with the next segment and unbinds on failure.
func (w *walker) try(si, param int, c Capture, rest []string) (bool, error) {
	w.caps[param] = c
	ok, err := w.walk(si+1, rest)
	if !ok {
		w.caps[param] = Capture{}
	}
	return ok, err
}

// bind decodes a single-segment value and strips the literal prefix/suffix.
func (s *segment) bind(part string) (string, bool) {
	v, err := routepath.DecodeSegment(part, false)
	if err != nil {
		return "", false
	}
	if len(v) <= len(s.prefix)+len(s.suffix) || !strings.HasPrefix(v, s.prefix) || !strings.HasSuffix(v, s.suffix) {
		return "", false
	}
	return v[len(s.prefix) : len(v)-len(s.suffix)], true
}

// joinRest decodes rest segments and joins them with "/".
func joinRest(parts []string) (string, bool) {
	decoded := make([]string, len(parts))
	for i, part := range parts {
		v, err := routepath.DecodeSegment(part, true)
		if err != nil {
			return "", false
		}
		decoded[i] = v
	}
	return strings.Join(decoded, "/"), true
}
