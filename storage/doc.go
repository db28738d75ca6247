// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package storage provides the persistence layer for built vector indexes.
//
// Building the index vectorizes the whole catalog. The result is a
// core.IndexSnapshot carrying the catalog digest, so an unchanged catalog
// can be restored on the next start instead of being vectorized again.
// Only the latest snapshot is kept.
//
// # Backends
//
//   - storage/badger: embedded BadgerDB (default)
//   - storage/redis: Redis through rueidis, for deployments sharing one cache
//
// Both store the MUS encoding produced by MarshalSnapshot under SnapshotKey.
// A load for any other digest returns ErrNotFound.
//
// # Usage
//
//	cache, err := badger.OpenIndexCache("/var/lib/storefront/index", slog.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cache.Close()
//
// Use in tests with in-memory storage:
//
//	cache, err := badger.NewMemoryIndexCache()
//
// # Thread Safety
//
// All cache implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
