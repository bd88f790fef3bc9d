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


// Package chunking splits normalized document text into ordered,
// overlapping chunks whose size adapts to the total document length.
//
// Splitting prefers paragraph breaks, then line breaks, then sentence
// punctuation, and finally hard truncation. Chunk order is zero-based and
// contiguous; it doubles as the vector entry ID downstream.
package chunking
