package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FSBlobStore serves blobs from a private directory, one file per resource
// identifier stored as <root>/<id>.dat.
type FSBlobStore struct {
	root string
}

var _ BlobStore = (*FSBlobStore)(nil)

func NewFSBlobStore(root string) *FSBlobStore {
	return &FSBlobStore{root: root}
}

// Get implements BlobStore. Identifiers containing path separators never
// resolve; the identifier is opaque, not a path.
func (s *FSBlobStore) Get(ctx context.Context, resourceID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if resourceID == "" || resourceID == "." || resourceID == ".." ||
		strings.ContainsAny(resourceID, `/\`) {
		return nil, ErrNotFound
	}

	data, err := os.ReadFile(filepath.Join(s.root, resourceID+".dat"))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read blob %q: %w", resourceID, err)
	}

	return data, nil
}
