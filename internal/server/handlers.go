package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vango-dev/waypoint/pkg/router"
)

// errorBody is the JSON body of every non-200 API response.
type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"routes": s.bundle.Table.Len(),
		"nodes":  s.bundle.Nodes.Len(),
		"loaded": s.bundle.Nodes.Loaded(),
	})
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.bundle.Routes())
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Detail: "missing path parameter"})
		return
	}
	status, body := s.resolve(r.Context(), path)
	writeJSON(w, status, body)
}

// resolve returns the status and body shared by the HTTP and WebSocket
// resolve endpoints.
func (s *Server) resolve(ctx context.Context, path string) (int, any) {
	res, ok, err := s.bundle.Resolver.Resolve(ctx, path)
	switch {
	case err != nil:
		code := "load_failure"
		var me *router.MatcherError
		if errors.As(err, &me) {
			code = "matcher_failure"
		}
		return http.StatusBadGateway, errorBody{Error: code, Detail: err.Error()}
	case !ok:
		return http.StatusNotFound, errorBody{Error: "not_found"}
	default:
		return http.StatusOK, res
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
