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


// Package ingestion builds searchable vector collections from source files.
//
// The Pipeline type runs one build end to end:
//   - Extracting normalized text from the file
//   - Splitting the text into ordered chunks
//   - Embedding chunks in batches on a bounded worker pool
//   - Creating a collection sized to the embedding dimension and writing
//     every chunk keyed by its order
//
// A build that fails after the collection was created drops the partial
// collection so the store never holds a half-written index.
package ingestion
