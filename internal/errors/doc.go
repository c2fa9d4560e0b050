// Package errors provides structured, actionable error messages for
// Waypoint's manifest, config and CLI surfaces.
//
// Errors from the resolver itself (router.LoadError, router.MatcherError)
// stay typed Go errors; this package wraps them at the edges where a human
// reads them.
//
// # Error Codes
//
// Each error has a unique code (e.g., "W101") that maps to a category, a
// short message, a detailed explanation and a documentation URL:
//
//	W100-W119  manifest and route validation
//	W120-W139  configuration
//	W140-W159  command line
//
// # Usage
//
//	err := errors.New("W101").
//	    WithOffset("manifest.json", data, syntaxErr.Offset).
//	    Wrap(syntaxErr)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR W101: Manifest is not valid JSON
//	//
//	//   manifest.json:4:12
//	//
//	//      2 │   "appDir": "_app",
//	//      3 │   "nodes": [
//	//   →  4 │     "layout.js",,
//	//        │            ^
//	//      5 │   ]
//	//
//	//   Learn more: https://waypoint.vango.dev/docs/errors/W101
package errors
