package server

import (
	"bytes"
	"errors"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/vango-dev/waypoint/pkg/modules"
	"github.com/vango-dev/waypoint/pkg/router"
)

// handleAppChunk serves client chunks under the manifest's app path. The
// chunk name in the store is appDir joined with the path after the prefix.
func (s *Server) handleAppChunk(w http.ResponseWriter, r *http.Request) {
	rel, ok := relPath(r.URL.Path, s.bundle.Manifest.AppPrefix())
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.serveModule(w, r, path.Join(s.bundle.Manifest.AppDir, rel))
}

// handleAsset serves manifest assets and answers everything else with 404.
func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	prefix := "/"
	if base := s.bundle.Manifest.Base; base != "" {
		prefix = base + "/"
	}
	rel, ok := relPath(r.URL.Path, prefix)
	if !ok || !s.bundle.Manifest.IsAsset(rel) {
		http.NotFound(w, r)
		return
	}
	s.serveModule(w, r, rel)
}

func (s *Server) serveModule(w http.ResponseWriter, r *http.Request, name string) {
	mod, err := s.bundle.Loader.Load(r.Context(), router.NoNode, name, "")
	if err != nil {
		if errors.Is(err, modules.ErrNotExist) || errors.Is(err, modules.ErrInvalidName) {
			http.NotFound(w, r)
			return
		}
		s.logger.Warn("asset fetch failed", "name", name, "error", err)
		http.Error(w, "Bad Gateway", http.StatusBadGateway)
		return
	}

	if ct, ok := s.bundle.Manifest.MimeType(path.Ext(name)); ok {
		w.Header().Set("Content-Type", ct)
	} else {
		w.Header().Set("Content-Type", mod.ContentType)
	}
	w.Header().Set("ETag", `"`+mod.Digest+`"`)
	applyCacheHeaders(w, name)
	http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(mod.Body))
}

// relPath strips prefix from urlPath and rejects traversal, absolute-path
// and separator tricks.
func relPath(urlPath, prefix string) (string, bool) {
	if !strings.HasPrefix(urlPath, prefix) {
		return "", false
	}
	rel := strings.TrimPrefix(urlPath, prefix)
	if rel == "" || strings.IndexByte(rel, 0) != -1 {
		return "", false
	}
	if modules.ValidName(rel) != nil {
		return "", false
	}
	return rel, true
}

// applyCacheHeaders marks fingerprinted chunks immutable.
func applyCacheHeaders(w http.ResponseWriter, name string) {
	if strings.Contains(name, "/immutable/") || isFingerprinted(name) {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=3600, must-revalidate")
}

// isFingerprinted reports whether the base name carries a content hash,
// e.g. "start.BXlnaShS.js" or "2-CGsk4wvi.js".
func isFingerprinted(name string) bool {
	base := path.Base(name)
	base = strings.TrimSuffix(base, path.Ext(base))
	i := strings.LastIndexAny(base, ".-")
	if i < 0 {
		return false
	}
	hash := base[i+1:]
	if len(hash) < 8 {
		return false
	}
	for _, c := range hash {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_') {
			return false
		}
	}
	return true
}
