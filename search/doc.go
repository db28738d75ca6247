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


// Package search implements the hybrid product search engine.
//
// An Engine runs two search paths for every query:
//   - keyword matching: case-insensitive substring filtering of the catalog
//   - semantic matching: a vector index query, joined back to live catalog records
//
// Keyword matches always come first. Semantic matches pad the result up to
// the cap or, when nothing matches literally, replace it. Both paths run on
// a small ants worker pool.
//
// The engine never returns errors. An unavailable or failing index degrades
// searches to keyword-only results and related-product lookups to a
// same-category fallback.
package search
