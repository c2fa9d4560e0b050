package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/modules"
	"github.com/vango-dev/waypoint/pkg/router"
)

// Manifest is the build-time description of an application's routes and
// the chunks behind them.
type Manifest struct {
	// AppDir is the directory (under the module store) holding client
	// chunks, e.g. "_app".
	AppDir string `json:"appDir"`

	// AppPath is the URL path client chunks are served from.
	AppPath string `json:"appPath"`

	// Assets are static files served verbatim.
	Assets []string `json:"assets"`

	// MimeTypes maps extensions (".js") to content types.
	MimeTypes map[string]string `json:"mimeTypes"`

	// Client describes the client entry points.
	Client ClientEntry `json:"client"`

	// Nodes are the layout, error and page chunks, referenced by index.
	Nodes []NodeSpec `json:"nodes"`

	// Routes are in precedence order.
	Routes []RouteSpec `json:"routes"`

	// Matchers maps matcher names to Go regular expressions, or to
	// "builtin:<name>" to alias a builtin matcher.
	Matchers map[string]string `json:"matchers"`

	// ServerAssets maps server-only asset names to their sizes.
	ServerAssets map[string]int64 `json:"server_assets"`

	// Prerendered lists paths rendered at build time.
	Prerendered []string `json:"prerendered"`

	// Base is the URL prefix the application is mounted under ("" or
	// "/docs").
	Base string `json:"base"`
}

// ClientEntry describes the client bundle. The resolver carries it
// without interpreting it.
type ClientEntry struct {
	Start                string   `json:"start"`
	App                  string   `json:"app"`
	Imports              []string `json:"imports"`
	Stylesheets          []string `json:"stylesheets"`
	Fonts                []string `json:"fonts"`
	UsesEnvDynamicPublic bool     `json:"uses_env_dynamic_public"`
}

// NodeSpec names the chunk behind one node.
type NodeSpec struct {
	// Module is the chunk path relative to the module store.
	Module string `json:"module"`

	// Export names the member holding the node, if not the chunk itself.
	Export string `json:"export,omitempty"`
}

// UnmarshalJSON accepts either a bare chunk name or an object.
func (n *NodeSpec) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		n.Export = ""
		return json.Unmarshal(data, &n.Module)
	}
	type plain NodeSpec
	return json.Unmarshal(data, (*plain)(n))
}

// RouteSpec is one route as declared in the manifest.
type RouteSpec struct {
	ID string `json:"id"`

	// Pattern is the regular expression the build step generated. It is
	// informational; matching uses the compiled route id.
	Pattern string `json:"pattern,omitempty"`

	Params   []router.ParamSpec `json:"params"`
	Page     *PageSpec          `json:"page"`
	Endpoint *EndpointSpec      `json:"endpoint"`
}

// PageSpec lists the nodes of a page route. Layout and error entries may
// be null for depths without one.
type PageSpec struct {
	Layouts []*int `json:"layouts"`
	Errors  []*int `json:"errors"`
	Leaf    *int   `json:"leaf"`
}

// EndpointSpec names the chunk of a server endpoint.
type EndpointSpec struct {
	Module string `json:"module"`
	Export string `json:"export,omitempty"`
}

// Composition converts p to node indices, with holes as
// router.NoNode.
func (p *PageSpec) Composition() router.Composition {
	c := router.Composition{
		Layouts: holes(p.Layouts),
		Errors:  holes(p.Errors),
		Leaf:    router.NoNode,
	}
	if p.Leaf != nil {
		c.Leaf = *p.Leaf
	}
	return c
}

func holes(in []*int) []int {
	out := make([]int, len(in))
	for i, v := range in {
		if v == nil {
			out[i] = router.NoNode
		} else {
			out[i] = *v
		}
	}
	return out
}

// Parse decodes a manifest. file is used only for error locations.
func Parse(data []byte, file string) (*Manifest, error) {
	var m Manifest
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&m); err != nil {
		return nil, decodeError(data, file, err)
	}
	if dec.More() {
		return nil, errors.New("W101").
			WithDetail("The manifest contains more than one JSON value.").
			WithOffset(file, data, dec.InputOffset())
	}
	m.normalize()
	return &m, nil
}

func decodeError(data []byte, file string, err error) error {
	e := errors.New("W101").Wrap(err)

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case stderrors.As(err, &syntaxErr):
		e.WithOffset(file, data, syntaxErr.Offset)
	case stderrors.As(err, &typeErr):
		e.WithOffset(file, data, typeErr.Offset).
			WithDetail(fmt.Sprintf("Field %q must be %s, not %s.", typeErr.Field, typeErr.Type, typeErr.Value))
	case stderrors.Is(err, io.EOF):
		e.WithDetail("The manifest is empty.")
	}
	return e
}

// Load reads and decodes the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		e := errors.New("W100").Wrap(err)
		if stderrors.Is(err, os.ErrNotExist) {
			e.WithMessage("Manifest %s not found", path).
				WithSuggestion("Pass --manifest or set manifest in waypoint.yaml")
		}
		return nil, e
	}
	return Parse(data, path)
}

// Fetch reads and decodes a manifest stored alongside the modules, e.g. in
// the same S3 bucket.
func Fetch(ctx context.Context, store modules.Store, name string) (*Manifest, error) {
	data, err := store.Fetch(ctx, name)
	if err != nil {
		return nil, errors.New("W100").WithMessage("Manifest %s unreadable", name).Wrap(err)
	}
	return Parse(data, name)
}

func (m *Manifest) normalize() {
	if m.MimeTypes == nil {
		m.MimeTypes = map[string]string{}
	}
	if m.Matchers == nil {
		m.Matchers = map[string]string{}
	}
	if m.ServerAssets == nil {
		m.ServerAssets = map[string]int64{}
	}
	m.Base = strings.TrimSuffix(m.Base, "/")
	if m.AppPath == "" {
		m.AppPath = m.AppDir
	}
}

// MimeType returns the manifest content type for ext (".js" or "js").
func (m *Manifest) MimeType(ext string) (string, bool) {
	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}
	ct, ok := m.MimeTypes[strings.ToLower(ext)]
	return ct, ok
}

// IsAsset reports whether name (with or without a leading slash) is a
// declared static asset.
func (m *Manifest) IsAsset(name string) bool {
	return slices.Contains(m.Assets, strings.TrimPrefix(name, "/"))
}

// IsPrerendered reports whether the canonical path p was prerendered.
func (m *Manifest) IsPrerendered(p string) bool {
	return slices.Contains(m.Prerendered, p)
}

// AppPrefix returns the URL prefix client chunks are served under, e.g.
// "/_app/".
func (m *Manifest) AppPrefix() string {
	if m.AppPath == "" {
		return ""
	}
	return path.Join("/", m.Base, m.AppPath) + "/"
}
