package router

import (
	"fmt"
	"slices"
	"strings"
)

// RouteDef declares one route for NewTable. Exactly one of Page and
// Endpoint must be set.
type RouteDef struct {
	// ID is the route id (e.g., "/blog/[slug]").
	ID string

	// Params, when non-nil, must agree with the parameters parsed from ID.
	Params []ParamSpec

	Page     *Composition
	Endpoint *EndpointRef
}

// Table is an ordered, immutable list of compiled routes.
// Declaration order decides precedence: the first matching route wins.
type Table struct {
	routes []*Route
	byID   map[string]*Route
}

// ValidationError describes one problem found while building a Table.
type ValidationError struct {
	Type    ValidationErrorType
	Route   string
	Message string
	Details string
}

func (e ValidationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ValidationErrorType categorizes validation errors.
type ValidationErrorType string

const (
	// ErrorInvalidRouteID indicates a route id that does not compile.
	ErrorInvalidRouteID ValidationErrorType = "INVALID_ROUTE_ID"

	// ErrorDuplicateRoute indicates the same id declared twice.
	ErrorDuplicateRoute ValidationErrorType = "DUPLICATE_ROUTE"

	// ErrorParamMismatch indicates declared params that disagree with the id.
	ErrorParamMismatch ValidationErrorType = "PARAM_MISMATCH"

	// ErrorMissingTarget indicates a route with neither page nor endpoint.
	ErrorMissingTarget ValidationErrorType = "MISSING_TARGET"

	// ErrorAmbiguousTarget indicates a route with both page and endpoint.
	ErrorAmbiguousTarget ValidationErrorType = "AMBIGUOUS_TARGET"
)

// MultiValidationError wraps every validation error found.
type MultiValidationError struct {
	Errors []ValidationError
}

func (e *MultiValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d route validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// NewTable compiles defs in order. All problems are collected into a
// *MultiValidationError.
func NewTable(defs []RouteDef) (*Table, error) {
	t := &Table{
		routes: make([]*Route, 0, len(defs)),
		byID:   make(map[string]*Route, len(defs)),
	}
	var errs []ValidationError

	for _, def := range defs {
		pattern, err := Compile(def.ID)
		if err != nil {
			errs = append(errs, ValidationError{
				Type:    ErrorInvalidRouteID,
				Route:   def.ID,
				Message: fmt.Sprintf("route %q does not compile", def.ID),
				Details: err.Error(),
			})
			continue
		}

		if _, dup := t.byID[def.ID]; dup {
			errs = append(errs, ValidationError{
				Type:    ErrorDuplicateRoute,
				Route:   def.ID,
				Message: fmt.Sprintf("route %q is declared more than once", def.ID),
			})
			continue
		}

		params := pattern.Params()
		if def.Params != nil && !slices.Equal(def.Params, params) {
			errs = append(errs, ValidationError{
				Type:    ErrorParamMismatch,
				Route:   def.ID,
				Message: fmt.Sprintf("declared params of %q do not match its id", def.ID),
				Details: fmt.Sprintf("declared %s, id has %s", formatParams(def.Params), formatParams(params)),
			})
			continue
		}

		var target Target
		switch {
		case def.Page != nil && def.Endpoint != nil:
			errs = append(errs, ValidationError{
				Type:    ErrorAmbiguousTarget,
				Route:   def.ID,
				Message: fmt.Sprintf("route %q declares both a page and an endpoint", def.ID),
			})
			continue
		case def.Page != nil:
			target = PageTarget{Composition: Composition{
				Layouts: slices.Clone(def.Page.Layouts),
				Errors:  slices.Clone(def.Page.Errors),
				Leaf:    def.Page.Leaf,
			}}
		case def.Endpoint != nil:
			target = EndpointTarget{Endpoint: def.Endpoint}
		default:
			errs = append(errs, ValidationError{
				Type:    ErrorMissingTarget,
				Route:   def.ID,
				Message: fmt.Sprintf("route %q has neither a page nor an endpoint", def.ID),
			})
			continue
		}

		route := &Route{
			ID:      def.ID,
			Pattern: pattern,
			Params:  params,
			Target:  target,
		}
		t.routes = append(t.routes, route)
		t.byID[def.ID] = route
	}

	if len(errs) > 0 {
		return nil, &MultiValidationError{Errors: errs}
	}
	return t, nil
}

// formatParams renders params the way they appear in a route id.
func formatParams(params []ParamSpec) string {
	parts := make([]string, len(params))
	for i, p := range params {
		name := p.Name
		if p.Matcher != "" {
			name += "=" + p.Matcher
		}
		switch {
		case p.Rest:
			parts[i] = "[..." + name + "]"
		case p.Optional:
			parts[i] = "[[" + name + "]]"
		default:
			parts[i] = "[" + name + "]"
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Routes returns the routes in declaration order.
func (t *Table) Routes() []*Route {
	return slices.Clone(t.routes)
}

// Route returns the route with the given id.
func (t *Table) Route(id string) (*Route, bool) {
	r, ok := t.byID[id]
	return r, ok
}

// Len returns the number of routes.
func (t *Table) Len() int {
	return len(t.routes)
}

// Matchers returns the distinct matcher names referenced by any route.
func (t *Table) Matchers() []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range t.routes {
		for _, p := range r.Params {
			if p.Matcher != "" && !seen[p.Matcher] {
				seen[p.Matcher] = true
				names = append(names, p.Matcher)
			}
		}
	}
	return names
}
