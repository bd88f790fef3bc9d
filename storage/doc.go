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


// Package storage defines the vector store abstraction used by the index cache.
//
// VectorStore is the provider interface: collections are created per document
// version, filled once, searched many times and dropped when found stale.
// Adapters convert provider records into core.SearchResult so the rest of the
// pipeline only ever sees one chunk type.
//
// # Implementations
//
//   - storage/badger: embedded BadgerDB store with brute-force similarity search;
//     NewMemoryStore gives an in-memory instance for tests
//   - storage/qdrant: remote Qdrant server over gRPC
//
// # Constructor Return Type Pattern
//
// Public constructors return the storage.VectorStore interface:
//
//	store, err := badger.OpenStore("/var/lib/flowmate/index", false)
//	store, err := qdrant.NewStore(qdrant.Config{Host: "localhost", Port: 6334})
//
// # Errors
//
// Adapters report failures with the sentinel errors in this package
// (ErrCollectionNotFound, ErrStoreUnavailable, ...) wrapped with %w, so
// callers can use errors.Is regardless of backend.
//
// # Thread Safety
//
// All implementations must be safe for concurrent use.
package storage
