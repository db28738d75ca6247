package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/storefront/core"
	"github.com/poiesic/storefront/storage"
)

// IndexCache stores index snapshots in BadgerDB.
type IndexCache struct {
	backend    *Backend
	ownBackend bool
}

var _ storage.IndexCache = (*IndexCache)(nil)

// NewIndexCache creates a cache on top of an already opened backend.
// The caller keeps ownership of the backend.
func NewIndexCache(backend *Backend) (*IndexCache, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	return &IndexCache{backend: backend}, nil
}

// OpenIndexCache opens a BadgerDB database at path and returns a cache owning it.
func OpenIndexCache(path string, logger *slog.Logger) (*IndexCache, error) {
	backend, err := OpenBackend(path, false, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open index cache at %s: %w", path, err)
	}
	return &IndexCache{backend: backend, ownBackend: true}, nil
}

// LoadSnapshot implements storage.IndexCache.
func (c *IndexCache) LoadSnapshot(ctx context.Context, digest string) (*core.IndexSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := c.backend.get(snapshotKey)
	if err != nil {
		return nil, err
	}
	snap, err := storage.UnmarshalSnapshot(data)
	if err != nil {
		return nil, err
	}
	return storage.MatchDigest(snap, digest)
}

// StoreSnapshot implements storage.IndexCache.
func (c *IndexCache) StoreSnapshot(ctx context.Context, snapshot *core.IndexSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := storage.MarshalSnapshot(snapshot)
	if err != nil {
		return err
	}
	return c.backend.set(snapshotKey, data)
}

// Close closes the backend if the cache opened it.
func (c *IndexCache) Close() error {
	if !c.ownBackend || c.backend.IsClosed() {
		return nil
	}
	return c.backend.Close()
}
