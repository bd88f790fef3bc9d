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


// Package mock provides test double implementations of AI service interfaces.
//
// # Usage in Tests
//
//	provider := mock.NewMockProvider()
//	gen := provider.(*mock.MockProvider).GetMockGenerator()
//	gen.GenerateFunc = func(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
//	    return "", errors.New("model offline")
//	}
//
// # Default Behavior
//
//   - MockEmbedder: deterministic unit vectors based on text hash
//   - MockGenerator: a fixed answer, every call recorded
//   - MockVision: a short description naming the MIME type and size
//
// All mocks are safe for concurrent use.
package mock
