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


// Package index provides the content-addressed vector index cache.
//
// A Cache maps a document fingerprint (optionally scoped by a user
// identity) to a Handle over a populated vector store collection. The
// first request for a fingerprint either adopts a non-empty collection
// already present in the store or builds a new one; later requests are
// served from memory. Concurrent first requests for the same key share a
// single build.
package index
