package storage

import (
	"context"
	"fmt"

	"github.com/poiesic/storefront/core"
)

// IndexCache persists the most recently built vector index snapshot.
// Only one snapshot is kept; storing a new one replaces the previous.
// Implementations must be thread-safe and support concurrent access.
type IndexCache interface {
	// LoadSnapshot retrieves the snapshot built from the corpus with the given digest.
	// Returns ErrNotFound if no snapshot is stored or the stored one was
	// built from a different corpus.
	LoadSnapshot(ctx context.Context, digest string) (*core.IndexSnapshot, error)

	// StoreSnapshot persists a snapshot, replacing any previous one.
	StoreSnapshot(ctx context.Context, snapshot *core.IndexSnapshot) error

	// Close releases the underlying store.
	Close() error
}

// SnapshotKey is the key the current snapshot is stored under.
const SnapshotKey = "index:snapshot"

// MatchDigest returns snapshot if it was built from the corpus with the
// given digest and ErrNotFound otherwise.
func MatchDigest(snapshot *core.IndexSnapshot, digest string) (*core.IndexSnapshot, error) {
	if snapshot.Digest != digest {
		return nil, fmt.Errorf("%w: snapshot for digest %s", ErrNotFound, digest)
	}
	return snapshot, nil
}
