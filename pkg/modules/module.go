// Package modules fetches the code chunks behind manifest nodes and endpoints.
//
// A Store knows how to read a chunk by name; a Loader wraps a Store and
// turns the bytes into a Module with a content type and digest.
//
//	store := modules.NewFSStore(os.DirFS("build/server"))
//	loader := modules.NewLoader(store, manifest.MimeTypes)
//	mod, err := loader.Load(ctx, 2, "chunks/2-CGsk4wvi.js", "aJ")
package modules

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"
)

// ErrNotExist is returned by stores when a chunk does not exist.
var ErrNotExist = errors.New("modules: chunk not found")

// ErrInvalidName is returned for chunk names that are absolute or escape
// the store root.
var ErrInvalidName = errors.New("modules: invalid chunk name")

// Module is a loaded chunk.
type Module struct {
	// Index is the node index, or -1 for endpoint modules.
	Index int `json:"index"`

	// Name is the chunk path relative to the store root.
	Name string `json:"name"`

	// Export names the member of the chunk that holds the page or layout.
	// Empty means the chunk itself.
	Export string `json:"export,omitempty"`

	// ContentType is derived from the chunk extension.
	ContentType string `json:"contentType"`

	// Digest is the hex SHA-256 of Body.
	Digest string `json:"digest"`

	// Size is len(Body).
	Size int `json:"size"`

	// Body is the raw chunk.
	Body []byte `json:"-"`
}

// Store reads chunks by name.
type Store interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// Loader turns chunks fetched from a Store into Modules.
type Loader struct {
	store     Store
	mimeTypes map[string]string
}

// NewLoader returns a loader over store. mimeTypes maps extensions such as
// ".js" to content types and takes precedence over the system table.
func NewLoader(store Store, mimeTypes map[string]string) *Loader {
	return &Loader{store: store, mimeTypes: mimeTypes}
}

// Store returns the underlying store.
func (l *Loader) Store() Store {
	return l.store
}

// Load fetches name and wraps it as the module for index.
func (l *Loader) Load(ctx context.Context, index int, name, export string) (*Module, error) {
	if err := ValidName(name); err != nil {
		return nil, err
	}
	body, err := l.store.Fetch(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	sum := sha256.Sum256(body)
	return &Module{
		Index:       index,
		Name:        name,
		Export:      export,
		ContentType: l.ContentType(name),
		Digest:      hex.EncodeToString(sum[:]),
		Size:        len(body),
		Body:        body,
	}, nil
}

// ContentType returns the content type for a chunk or asset name.
func (l *Loader) ContentType(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		return "application/octet-stream"
	}
	if ct, ok := l.mimeTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// ValidName reports whether name is a clean, relative, slash-separated path.
func ValidName(name string) error {
	if name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, "\\") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return nil
}
