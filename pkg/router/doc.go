// Package router resolves request paths against an ordered route table and
// loads the modules each route needs.
//
// # Route IDs
//
// Routes are declared by id, in precedence order:
//
//	/                     root page
//	/about                literal segments
//	/blog/[slug]          one-segment parameter
//	/items/[id=integer]   parameter checked by a named matcher
//	/[[lang]]/docs        optional parameter
//	/files/[...path]      rest parameter, zero or more segments
//	/(marketing)/pricing  route group, not part of the URL
//
// # Resolution
//
// Resolve canonicalizes the path, walks the table in order and returns the
// first route whose pattern matches and whose matchers accept every present
// parameter. A matcher returning false moves on to the next candidate; a
// matcher returning an error aborts with a *MatcherError.
//
// Page routes load their layouts and leaf from a shared lazy.Arena, so every
// node is produced at most once however many requests need it at the same
// time. Endpoint routes load a single module.
//
// # Usage
//
//	table, err := router.NewTable([]router.RouteDef{
//	    {ID: "/[...catchall]", Page: &router.Composition{
//	        Layouts: []int{0}, Errors: []int{1}, Leaf: 2,
//	    }},
//	})
//	nodes := lazy.NewArena(3, loadNode)
//	r := router.NewResolver(table, nodes, nil)
//
//	res, ok, err := r.Resolve(ctx, "/anything/here")
//	// res.RouteID == "/[...catchall]"
//	// res.Params["catchall"] == "anything/here"
package router
