package badger

import "github.com/poiesic/storefront/storage"

// snapshotKey is the single key holding the current index snapshot.
// Format: index:snapshot
var snapshotKey = []byte(storage.SnapshotKey)
