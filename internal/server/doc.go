// Package server exposes a manifest bundle over HTTP.
//
// Routes:
//
//	GET /_waypoint/resolve?path=/x   resolution JSON, 404 {"error":"not_found"}, 502 on load failure
//	GET /_waypoint/routes            route table
//	GET /_waypoint/ws                WebSocket: {"path":"/x"} frames, resolve bodies in reply
//	GET /{appPath}/*                 client chunks from the module store
//	GET /{asset}                     manifest assets
//	GET /metrics                     Prometheus exposition, when enabled
//	GET /healthz                     liveness
//
// The server is a chi router and can be mounted elsewhere through Handler.
package server
