package manifest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/waypoint/pkg/lazy"
	"github.com/vango-dev/waypoint/pkg/modules"
	"github.com/vango-dev/waypoint/pkg/router"
)

// Bundle is a manifest wired to a module loader: the compiled route table,
// the lazily loaded nodes and matchers, and a resolver over them.
type Bundle struct {
	Manifest *Manifest
	Table    *router.Table
	Nodes    *lazy.Arena[*modules.Module]
	Matchers *lazy.Ref[router.Registry]
	Resolver *router.Resolver
	Loader   *modules.Loader
}

type buildOptions struct {
	observer router.Observer
	logger   *slog.Logger
	tracer   trace.Tracer
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

// WithObserver receives resolution and module load events.
func WithObserver(o router.Observer) BuildOption {
	return func(b *buildOptions) {
		b.observer = o
	}
}

// WithLogger sets the logger used by the resolver and the producers.
func WithLogger(logger *slog.Logger) BuildOption {
	return func(b *buildOptions) {
		b.logger = logger
	}
}

// WithTracer sets the resolver's tracer.
func WithTracer(tracer trace.Tracer) BuildOption {
	return func(b *buildOptions) {
		b.tracer = tracer
	}
}

// Build validates m and wires it to loader. No module is fetched until a
// route needs it.
func Build(m *Manifest, loader *modules.Loader, opts ...BuildOption) (*Bundle, error) {
	o := buildOptions{
		observer: router.NopObserver{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.observer == nil {
		o.observer = router.NopObserver{}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	b := &Bundle{Manifest: m, Loader: loader}

	b.Nodes = lazy.NewArena(len(m.Nodes), func(ctx context.Context, i int) (*modules.Module, error) {
		n := m.Nodes[i]
		return b.fetch(ctx, o, "node", i, n.Module, n.Export)
	})

	b.Matchers = lazy.New(func(ctx context.Context) (router.Registry, error) {
		start := time.Now()
		reg, err := m.registry()
		o.observer.ModuleLoaded("matchers", time.Since(start), err)
		if err != nil {
			return nil, err
		}
		o.logger.Debug("matchers loaded", "count", len(reg))
		return reg, nil
	})

	defs := make([]router.RouteDef, 0, len(m.Routes))
	for _, rs := range m.Routes {
		def := router.RouteDef{ID: rs.ID}
		if rs.Page != nil {
			comp := rs.Page.Composition()
			def.Page = &comp
		} else {
			e := rs.Endpoint
			def.Endpoint = router.NewEndpointRef(e.Module, e.Export, func(ctx context.Context) (*modules.Module, error) {
				return b.fetch(ctx, o, "endpoint", router.NoNode, e.Module, e.Export)
			})
		}
		defs = append(defs, def)
	}

	table, err := router.NewTable(defs)
	if err != nil {
		return nil, err
	}
	b.Table = table

	ropts := []router.Option{
		router.WithBase(m.Base),
		router.WithLogger(o.logger),
		router.WithObserver(o.observer),
	}
	if o.tracer != nil {
		ropts = append(ropts, router.WithTracer(o.tracer))
	}
	b.Resolver = router.NewResolver(table, b.Nodes, b.Matchers, ropts...)
	return b, nil
}

func (b *Bundle) fetch(ctx context.Context, o buildOptions, kind string, index int, name, export string) (*modules.Module, error) {
	start := time.Now()
	mod, err := b.Loader.Load(ctx, index, name, export)
	elapsed := time.Since(start)
	o.observer.ModuleLoaded(kind, elapsed, err)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("module loaded",
		"kind", kind,
		"index", index,
		"module", name,
		"size", mod.Size,
		"duration", elapsed)
	return mod, nil
}

// registry merges the builtin matchers with those declared in the manifest.
func (m *Manifest) registry() (router.Registry, error) {
	builtins := router.Builtins()
	declared := make(router.Registry, len(m.Matchers))
	for name, expr := range m.Matchers {
		if target, ok := strings.CutPrefix(expr, builtinPrefix); ok {
			fn, ok := builtins[target]
			if !ok {
				return nil, fmt.Errorf("matcher %s: unknown builtin %q", name, target)
			}
			declared[name] = fn
			continue
		}
		fn, err := router.RegexpMatcher(expr)
		if err != nil {
			return nil, fmt.Errorf("matcher %s: %w", name, err)
		}
		declared[name] = fn
	}
	return builtins.Merge(declared), nil
}

// RouteInfo summarizes one route for listings.
type RouteInfo struct {
	ID       string             `json:"id"`
	Kind     string             `json:"kind"`
	Params   []router.ParamSpec `json:"params"`
	Layouts  []string           `json:"layouts,omitempty"`
	Errors   []string           `json:"errors,omitempty"`
	Leaf     string             `json:"leaf,omitempty"`
	Endpoint string             `json:"endpoint,omitempty"`
}

// Routes lists the routes in precedence order, with node indices replaced
// by chunk names. Holes are empty strings.
func (b *Bundle) Routes() []RouteInfo {
	routes := b.Table.Routes()
	out := make([]RouteInfo, 0, len(routes))
	for _, r := range routes {
		info := RouteInfo{ID: r.ID, Kind: r.Kind(), Params: r.Params}
		if e := r.Endpoint(); e != nil {
			info.Endpoint = e.Module
		}
		if c := r.Page(); c != nil {
			info.Layouts = b.nodeNames(c.Layouts)
			info.Errors = b.nodeNames(c.Errors)
			info.Leaf = b.nodeName(c.Leaf)
		}
		out = append(out, info)
	}
	return out
}

func (b *Bundle) nodeNames(indices []int) []string {
	names := make([]string, len(indices))
	for i, idx := range indices {
		names[i] = b.nodeName(idx)
	}
	return names
}

func (b *Bundle) nodeName(idx int) string {
	if idx < 0 || idx >= len(b.Manifest.Nodes) {
		return ""
	}
	return b.Manifest.Nodes[idx].Module
}
