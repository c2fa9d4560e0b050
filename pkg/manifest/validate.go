package manifest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/router"
)

// builtinPrefix marks a manifest matcher that aliases a builtin.
const builtinPrefix = "builtin:"

// ValidationError collects every problem found in a manifest.
type ValidationError struct {
	Problems []*errors.Error
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return e.Problems[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d manifest problems:", len(e.Problems))
	for _, p := range e.Problems {
		sb.WriteString("\n  ")
		sb.WriteString(p.Error())
	}
	return sb.String()
}

// Unwrap exposes the individual problems to errors.Is and errors.As.
func (e *ValidationError) Unwrap() []error {
	out := make([]error, len(e.Problems))
	for i, p := range e.Problems {
		out[i] = p
	}
	return out
}

// Validate checks route ids, params, node references and matchers.
// It returns nil or a *ValidationError.
func (m *Manifest) Validate() error {
	var problems []*errors.Error
	report := func(e *errors.Error) { problems = append(problems, e) }

	matcherNames := m.matcherNames()
	for name, expr := range m.Matchers {
		if target, ok := strings.CutPrefix(expr, builtinPrefix); ok {
			if !router.IsBuiltin(target) {
				report(unknownMatcher(name, target, router.Builtins().Names()))
			}
			continue
		}
		if _, err := regexp.Compile(expr); err != nil {
			report(errors.New("W107").
				WithMessage("Invalid matcher expression for %q", name).
				Wrap(err))
		}
	}

	seen := make(map[string]bool, len(m.Routes))
	for i, rs := range m.Routes {
		where := fmt.Sprintf("routes[%d] %s", i, rs.ID)

		pattern, err := router.Compile(rs.ID)
		if err != nil {
			report(errors.New("W102").
				WithMessage("Invalid route id %q", rs.ID).
				WithExample(`"/blog/[slug]", "/[[lang]]/docs", "/files/[...path]"`).
				Wrap(err))
			continue
		}

		if seen[rs.ID] {
			report(errors.New("W103").WithMessage("Duplicate route %q", rs.ID))
			continue
		}
		seen[rs.ID] = true

		compiled := pattern.Params()
		if rs.Params != nil && !sameParams(rs.Params, compiled) {
			report(errors.New("W104").
				WithMessage("Params of %s do not match its id", where).
				WithDetail(fmt.Sprintf("Declared %s, id implies %s.", paramNames(rs.Params), paramNames(compiled))))
		}

		for _, p := range compiled {
			if p.Matcher == "" || router.IsBuiltin(p.Matcher) {
				continue
			}
			if _, ok := m.Matchers[p.Matcher]; !ok {
				report(unknownMatcher(p.Matcher, p.Matcher, matcherNames).
					WithMessage("Unknown matcher %q in %s", p.Matcher, where))
			}
		}

		switch {
		case rs.Page != nil && rs.Endpoint != nil:
			report(errors.New("W108").WithMessage("%s declares both a page and an endpoint", where))
		case rs.Page == nil && rs.Endpoint == nil:
			report(errors.New("W108").WithMessage("%s declares neither a page nor an endpoint", where))
		case rs.Page != nil:
			if rs.Page.Leaf == nil {
				report(errors.New("W108").WithMessage("%s has no leaf node", where))
			}
			for _, e := range m.checkNodes(where, rs.Page) {
				report(e)
			}
		case rs.Endpoint.Module == "":
			report(errors.New("W108").WithMessage("%s has an endpoint without a module", where))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// checkNodes reports node references outside the node list.
func (m *Manifest) checkNodes(where string, page *PageSpec) []*errors.Error {
	var out []*errors.Error
	check := func(kind string, idx *int) {
		if idx == nil {
			return
		}
		if *idx < 0 || *idx >= len(m.Nodes) {
			out = append(out, errors.New("W105").
				WithMessage("%s references %s node %d, but the manifest has %d nodes", where, kind, *idx, len(m.Nodes)))
		}
	}
	for _, idx := range page.Layouts {
		check("layout", idx)
	}
	for _, idx := range page.Errors {
		check("error", idx)
	}
	check("leaf", page.Leaf)
	return out
}

func unknownMatcher(name, target string, candidates []string) *errors.Error {
	e := errors.New("W106").WithMessage("Unknown matcher %q", target)
	if s := router.Suggest(target, candidates); s != "" {
		e.WithSuggestion(fmt.Sprintf("Did you mean %q?", s))
	} else {
		e.WithSuggestion(fmt.Sprintf("Declare %q in the manifest matchers", name))
	}
	return e
}

// matcherNames returns every name a route may reference.
func (m *Manifest) matcherNames() []string {
	names := router.Builtins().Names()
	for name := range m.Matchers {
		names = append(names, name)
	}
	return names
}

// sameParams compares declared params with those parsed from the route id.
// Chained is derived from the id and not compared.
func sameParams(declared, compiled []router.ParamSpec) bool {
	if len(declared) != len(compiled) {
		return false
	}
	for i := range declared {
		a, b := declared[i], compiled[i]
		if a.Name != b.Name || a.Optional != b.Optional || a.Rest != b.Rest || a.Matcher != b.Matcher {
			return false
		}
	}
	return true
}

func paramNames(params []router.ParamSpec) string {
	if len(params) == 0 {
		return "no params"
	}
	names := make([]string, len(params))
	for i, p := range params {
		switch {
		case p.Rest:
			names[i] = "..." + p.Name
		case p.Optional:
			names[i] = p.Name + "?"
		default:
			names[i] = p.Name
		}
		if p.Matcher != "" {
			names[i] += "=" + p.Matcher
		}
	}
	return strings.Join(names, ", ")
}
