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

import "fmt"

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - Order must not be negative
//
// NOT validated:
//   - Source (chunks cut from stdin or tests may carry no fingerprint)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if chunk.Order < 0 {
		return fmt.Errorf("%w: %w (order %d)", ErrInvalidChunk, ErrNegativeOrder, chunk.Order)
	}

	return nil
}

// ValidateChunks validates a sequence of chunks and checks that orders are
// zero-based and contiguous.
func ValidateChunks(chunks []Chunk) error {
	for i := range chunks {
		if err := ValidateChunk(&chunks[i]); err != nil {
			return err
		}
		if chunks[i].Order != i {
			return fmt.Errorf("%w: order %d at position %d", ErrInvalidChunk, chunks[i].Order, i)
		}
	}
	return nil
}
