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


package core

import "errors"

// Pipeline failure taxonomy. Components wrap these so callers can branch
// with errors.Is regardless of which layer produced the failure.
var (
	// ErrUnsupportedFormat indicates no extractor is registered for a file extension.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrExtractionFailure indicates an extractor could not produce text.
	ErrExtractionFailure = errors.New("extraction failed")

	// ErrIndexUnavailable indicates the vector store is unreachable or an index build failed.
	// Callers recover from it with the raw-file fallback.
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrRetrievalFailure indicates a similarity search failed.
	// Callers recover from it with the raw-file fallback.
	ErrRetrievalFailure = errors.New("retrieval failed")

	// ErrGenerationFailure indicates the language model call failed.
	ErrGenerationFailure = errors.New("generation failed")

	// ErrValidationFailure indicates the conformance check itself could not run.
	// Text that fails conformance is a normal outcome, not this error.
	ErrValidationFailure = errors.New("validation failed")

	// ErrRenderFailure indicates an output document could not be written.
	ErrRenderFailure = errors.New("render failed")
)

// Domain validation errors
var (
	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyContent indicates the Text field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrNegativeOrder indicates a chunk order below zero.
	ErrNegativeOrder = errors.New("chunk order cannot be negative")

	// ErrEmptyDocument indicates a document produced no text or no chunks.
	ErrEmptyDocument = errors.New("document produced no content")

	// ErrEmptyResponse indicates the language model returned nothing.
	ErrEmptyResponse = errors.New("생성된 응답이 없습니다.")
)
