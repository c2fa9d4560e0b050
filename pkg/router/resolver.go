package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/waypoint/pkg/lazy"
	"github.com/vango-dev/waypoint/pkg/modules"
	"github.com/vango-dev/waypoint/pkg/routepath"
)

const tracerName = "github.com/vango-dev/waypoint/pkg/router"

// Resolver maps request paths to routes and loads their modules.
//
// A Resolver keeps no per-call state; the node arena and matcher registry
// it shares are the only caches. It is safe for concurrent use.
type Resolver struct {
	table    *Table
	nodes    *lazy.Arena[*modules.Module]
	matchers *lazy.Ref[Registry]

	base     string
	logger   *slog.Logger
	tracer   trace.Tracer
	observer Observer
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithBase sets a path prefix (e.g., "/docs") stripped before matching.
// Paths outside the base resolve to not found.
func WithBase(base string) Option {
	return func(r *Resolver) {
		r.base = base
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTracer sets the tracer. Default: the global OpenTelemetry provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Resolver) {
		if tracer != nil {
			r.tracer = tracer
		}
	}
}

// WithObserver sets the event observer. Default: NopObserver.
func WithObserver(o Observer) Option {
	return func(r *Resolver) {
		if o != nil {
			r.observer = o
		}
	}
}

// NewResolver returns a resolver over table. nodes backs the node indices
// used by page compositions. matchers is loaded on the first parameter
// that names a matcher; nil means the builtin matchers.
func NewResolver(table *Table, nodes *lazy.Arena[*modules.Module], matchers *lazy.Ref[Registry], opts ...Option) *Resolver {
	if matchers == nil {
		matchers = lazy.Value(Builtins())
	}
	if nodes == nil {
		nodes = lazy.NewArena[*modules.Module](0, nil)
	}
	r := &Resolver{
		table:    table,
		nodes:    nodes,
		matchers: matchers,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Table returns the route table.
func (r *Resolver) Table() *Table {
	return r.table
}

// Nodes returns the node arena.
func (r *Resolver) Nodes() *lazy.Arena[*modules.Module] {
	return r.nodes
}

// Resolve finds the first route matching path whose matchers accept the
// extracted params, and loads its modules.
//
// ok is false with a nil error when nothing matches (including paths that
// fail canonicalization). A non-nil error satisfies
// errors.Is(err, ErrLoadFailure) and is either a *LoadError or a
// *MatcherError.
func (r *Resolver) Resolve(ctx context.Context, path string) (res *Resolution, ok bool, err error) {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "waypoint.resolve",
		trace.WithAttributes(attribute.String("waypoint.path", path)))
	defer span.End()

	res, ok, err = r.resolve(ctx, path)
	elapsed := time.Since(start)

	switch {
	case err != nil:
		routeID := ""
		var me *MatcherError
		if errors.As(err, &me) {
			routeID = me.Route
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve failed")
		r.observer.Resolved(routeID, OutcomeError, elapsed)
		r.logger.Warn("route resolution failed", "path", path, "error", err)
	case !ok:
		span.SetAttributes(attribute.Bool("waypoint.not_found", true))
		r.observer.Resolved("", OutcomeNotFound, elapsed)
		r.logger.Debug("no route matched", "path", path)
	default:
		span.SetAttributes(attribute.String("waypoint.route", res.RouteID))
		r.observer.Resolved(res.RouteID, OutcomeMatched, elapsed)
		r.logger.Debug("route resolved", "path", path, "route", res.RouteID, "duration", elapsed)
	}
	return res, ok, err
}

func (r *Resolver) resolve(ctx context.Context, raw string) (*Resolution, bool, error) {
	path, ok := r.normalize(raw)
	if !ok {
		return nil, false, nil
	}

	for _, route := range r.table.routes {
		params, ok, err := r.match(ctx, route, path)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			continue
		}
		res, err := r.load(ctx, route, params)
		if err != nil {
			return nil, false, err
		}
		return res, true, nil
	}
	return nil, false, nil
}

// Match returns the route and params that path selects without loading any
// module.
func (r *Resolver) Match(ctx context.Context, path string) (*Route, map[string]string, error) {
	path, ok := r.normalize(path)
	if !ok {
		return nil, nil, nil
	}
	for _, route := range r.table.routes {
		params, ok, err := r.match(ctx, route, path)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			return route, params, nil
		}
	}
	return nil, nil, nil
}

func (r *Resolver) normalize(raw string) (string, bool) {
	c, err := routepath.Canonicalize(raw)
	if err != nil {
		return "", false
	}
	return routepath.StripBase(c.Path, r.base)
}

// match tries every way route's pattern can match path until one passes
// the matchers.
func (r *Resolver) match(ctx context.Context, route *Route, path string) (map[string]string, bool, error) {
	var params map[string]string
	_, err := route.Pattern.MatchFunc(path, func(caps []Capture) (bool, error) {
		p, ok, err := r.exec(ctx, route, caps)
		if ok {
			params = p
		}
		return ok, err
	})
	if err != nil {
		return nil, false, err
	}
	return params, params != nil, nil
}

// exec validates captures against the route's matchers and builds params.
func (r *Resolver) exec(ctx context.Context, route *Route, caps []Capture) (map[string]string, bool, error) {
	params := make(map[string]string, len(caps))
	for i, spec := range route.Params {
		c := caps[i]
		if !c.Present {
			continue
		}
		if spec.Matcher != "" {
			ok, err := r.check(ctx, route, spec, c.Value)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				r.observer.MatcherRejected(route.ID, spec.Matcher)
				return nil, false, nil
			}
		}
		params[spec.Name] = c.Value
	}
	return params, true, nil
}

// check runs one matcher. The registry is loaded on first use.
func (r *Resolver) check(ctx context.Context, route *Route, spec ParamSpec, value string) (ok bool, err error) {
	registry, err := r.matchers.Get(ctx)
	if err != nil {
		return false, &LoadError{Node: NoNode, Registry: true, Err: err}
	}

	fail := func(cause error) error {
		r.observer.MatcherFailed(route.ID, spec.Matcher)
		return &MatcherError{
			Route:   route.ID,
			Param:   spec.Name,
			Matcher: spec.Matcher,
			Value:   value,
			Err:     cause,
		}
	}

	m, found := registry[spec.Matcher]
	if !found || m == nil {
		return false, fail(ErrUnknownMatcher)
	}

	defer func() {
		if p := recover(); p != nil {
			ok = false
			err = fail(fmt.Errorf("panic: %v", p))
		}
	}()

	ok, err = m(value)
	if err != nil {
		return false, fail(err)
	}
	return ok, nil
}

func (r *Resolver) load(ctx context.Context, route *Route, params map[string]string) (*Resolution, error) {
	res := &Resolution{RouteID: route.ID, Params: params}

	switch t := route.Target.(type) {
	case EndpointTarget:
		mod, err := r.LoadEndpoint(ctx, t.Endpoint)
		if err != nil {
			return nil, err
		}
		res.Endpoint = mod
	case PageTarget:
		page, err := r.loadPage(ctx, t.Composition)
		if err != nil {
			return nil, err
		}
		res.Page = page
	}
	return res, nil
}

// loadPage loads all layouts and the leaf concurrently. Results keep their
// outer-to-inner positions regardless of completion order.
func (r *Resolver) loadPage(ctx context.Context, comp Composition) (*ResolvedPage, error) {
	page := &ResolvedPage{
		Layouts: make([]*modules.Module, len(comp.Layouts)),
		Errors:  append([]int{}, comp.Errors...),
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, idx := range comp.Layouts {
		if idx == NoNode {
			continue
		}
		i, idx := i, idx
		g.Go(func() error {
			mod, err := r.LoadNode(gctx, idx)
			if err != nil {
				return err
			}
			page.Layouts[i] = mod
			return nil
		})
	}
	g.Go(func() error {
		mod, err := r.LoadNode(gctx, comp.Leaf)
		if err != nil {
			return err
		}
		page.Leaf = mod
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return page, nil
}

// LoadNode returns the module at index, loading it once.
func (r *Resolver) LoadNode(ctx context.Context, index int) (*modules.Module, error) {
	ctx, span := r.tracer.Start(ctx, "waypoint.load_node",
		trace.WithAttributes(attribute.Int("waypoint.node", index)))
	defer span.End()

	mod, err := r.nodes.Get(ctx, index)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return nil, &LoadError{Node: index, Err: err}
	}
	return mod, nil
}

// LoadEndpoint returns the endpoint module, loading it once.
func (r *Resolver) LoadEndpoint(ctx context.Context, e *EndpointRef) (*modules.Module, error) {
	ctx, span := r.tracer.Start(ctx, "waypoint.load_endpoint",
		trace.WithAttributes(attribute.String("waypoint.endpoint", e.Module)))
	defer span.End()

	mod, err := e.Load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return nil, &LoadError{Node: NoNode, Endpoint: e.Module, Err: err}
	}
	return mod, nil
}

// LoadErrorPage loads the error page for a page resolution at the given
// layout depth: the nearest error node at or above depth. ok is false when
// no error node covers that depth or res is not a page.
func (r *Resolver) LoadErrorPage(ctx context.Context, res *Resolution, depth int) (mod *modules.Module, ok bool, err error) {
	if res == nil || res.Page == nil {
		return nil, false, nil
	}
	errs := res.Page.Errors
	if depth >= len(errs) {
		depth = len(errs) - 1
	}
	for d := depth; d >= 0; d-- {
		if errs[d] == NoNode {
			continue
		}
		mod, err := r.LoadNode(ctx, errs[d])
		if err != nil {
			return nil, false, err
		}
		return mod, true, nil
	}
	return nil, false, nil
}
