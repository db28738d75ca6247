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


// Package index implements the product vector index used for semantic search.
//
// Each product becomes one document: its name twice, the description, the
// category, and the synonym bags of every synonym keyword found in the name
// or category. Documents are vectorized with TF-IDF (unigrams and bigrams,
// English stop words removed, sublinear term frequency, smoothed IDF, L2
// normalized rows) and queries are scored by cosine similarity.
//
// # Caching
//
// A built index is a core.IndexSnapshot. When the index is configured with a
// storage.IndexCache, Build first looks up a snapshot for the catalog digest
// and only vectorizes the catalog when none is stored.
//
// # Failure Behavior
//
// Query never fails: an unbuilt index, an empty query or any internal error
// yields no hits. Search reports the same conditions as ErrIndexUnavailable
// and ErrQueryFailed so callers can choose a fallback.
package index
