// Package manifest reads the route manifest a build step emits and wires it
// to a module store.
//
// The manifest lists chunks ("nodes") and routes. Page routes refer to
// nodes by index; endpoint routes name their chunk directly. Matchers are
// either Go regular expressions or aliases of builtins:
//
//	{
//	  "appDir": "_app",
//	  "nodes": ["chunks/0-layout.js", {"module": "chunks/2-page.js", "export": "aJ"}],
//	  "matchers": {"id": "^[0-9a-f]{8}$", "number": "builtin:integer"},
//	  "routes": [
//	    {"id": "/[...catchall]", "page": {"layouts": [0], "errors": [1], "leaf": 2}}
//	  ]
//	}
//
// Typical use:
//
//	m, err := manifest.Load("build/manifest.json")
//	if err != nil {
//	    return err
//	}
//	loader := modules.NewLoader(modules.NewDirStore("build"), m.MimeTypes)
//	bundle, err := manifest.Build(m, loader)
//	if err != nil {
//	    return err
//	}
//	res, ok, err := bundle.Resolver.Resolve(ctx, "/blog/hello")
//
// Validation problems carry W1xx codes from internal/errors and are
// collected into a *ValidationError.
package manifest
