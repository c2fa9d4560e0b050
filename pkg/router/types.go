package router

import (
	"context"

	"github.com/vango-dev/waypoint/pkg/lazy"
	"github.com/vango-dev/waypoint/pkg/modules"
)

// NoNode marks a hole in a layout or error list: no module at that depth.
const NoNode = -1

// ParamSpec describes one route parameter.
type ParamSpec struct {
	// Name is the parameter name (e.g., "slug").
	Name string `json:"name"`

	// Optional parameters may be absent ([[lang]]).
	Optional bool `json:"optional"`

	// Rest parameters capture zero or more trailing segments ([...path]).
	Rest bool `json:"rest"`

	// Chained marks a parameter that occupies a whole segment and may
	// combine with a following rest parameter.
	Chained bool `json:"chained"`

	// Matcher names an entry in the matcher registry. Empty means any value.
	Matcher string `json:"matcher,omitempty"`
}

// Composition lists the nodes rendered for a page route.
type Composition struct {
	// Layouts are node indices from outermost to innermost. NoNode is a hole.
	Layouts []int

	// Errors are error page node indices, aligned with Layouts by depth.
	Errors []int

	// Leaf is the page node index.
	Leaf int
}

// EndpointRef is a lazily loaded server endpoint module.
type EndpointRef struct {
	// Module is the chunk name.
	Module string

	// Export names the member of the chunk, if any.
	Export string

	ref *lazy.Ref[*modules.Module]
}

// NewEndpointRef returns an endpoint whose module is produced by produce on
// first use.
func NewEndpointRef(module, export string, produce lazy.Producer[*modules.Module]) *EndpointRef {
	return &EndpointRef{
		Module: module,
		Export: export,
		ref:    lazy.New(produce),
	}
}

// Load returns the endpoint module, loading it once.
func (e *EndpointRef) Load(ctx context.Context) (*modules.Module, error) {
	return e.ref.Get(ctx)
}

// Loaded reports whether the endpoint module is cached.
func (e *EndpointRef) Loaded() bool {
	return e.ref.Loaded()
}

// Target is what a route serves: a PageTarget or an EndpointTarget.
type Target interface {
	isTarget()
}

// PageTarget is a route rendered from layouts and a leaf page.
type PageTarget struct {
	Composition
}

// EndpointTarget is a route served by a server endpoint.
type EndpointTarget struct {
	Endpoint *EndpointRef
}

func (PageTarget) isTarget()     {}
func (EndpointTarget) isTarget() {}

// Route is a compiled route. Routes are immutable after NewTable.
type Route struct {
	// ID is the route id as declared (e.g., "/blog/[slug]").
	ID string

	// Pattern is the compiled matcher for ID.
	Pattern *Pattern

	// Params describes each parameter, in capture order.
	Params []ParamSpec

	// Target is the route's page or endpoint.
	Target Target
}

// Page returns the page composition, or nil for endpoint routes.
func (r *Route) Page() *Composition {
	if p, ok := r.Target.(PageTarget); ok {
		return &p.Composition
	}
	return nil
}

// Endpoint returns the endpoint, or nil for page routes.
func (r *Route) Endpoint() *EndpointRef {
	if e, ok := r.Target.(EndpointTarget); ok {
		return e.Endpoint
	}
	return nil
}

// Kind returns "page" or "endpoint".
func (r *Route) Kind() string {
	if r.Endpoint() != nil {
		return "endpoint"
	}
	return "page"
}

// Resolution is the result of resolving a path.
type Resolution struct {
	// RouteID is the id of the selected route.
	RouteID string `json:"routeId"`

	// Params holds the extracted parameters. Absent optional and rest
	// parameters have no key.
	Params map[string]string `json:"params"`

	// Page is set for page routes.
	Page *ResolvedPage `json:"page,omitempty"`

	// Endpoint is set for endpoint routes.
	Endpoint *modules.Module `json:"endpoint,omitempty"`
}

// ResolvedPage holds the loaded modules of a page route.
type ResolvedPage struct {
	// Layouts are the loaded layouts, outermost first. Holes are nil.
	Layouts []*modules.Module `json:"layouts"`

	// Leaf is the loaded page module.
	Leaf *modules.Module `json:"leaf"`

	// Errors are the error page node indices, loaded on demand with
	// Resolver.LoadErrorPage.
	Errors []int `json:"errors"`
}
