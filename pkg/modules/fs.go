package modules

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// FSStore reads chunks from an fs.FS, typically the build output directory.
type FSStore struct {
	fsys fs.FS
}

// NewFSStore returns a store over fsys.
func NewFSStore(fsys fs.FS) *FSStore {
	return &FSStore{fsys: fsys}
}

// NewDirStore returns a store over a directory on disk.
func NewDirStore(dir string) *FSStore {
	return NewFSStore(os.DirFS(dir))
}

// Fetch implements Store.
func (s *FSStore) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, name)
		}
		return nil, err
	}
	return data, nil
}
