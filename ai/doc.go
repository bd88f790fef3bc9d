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


// Package ai provides abstractions for the AI services flowmate depends on.
//
// The pipeline talks to models only through these interfaces:
//
//   - Embedder: turns chunks and queries into vectors
//   - Generator: produces answers, reports, slide outlines and translations
//   - VisionAnalyzer: describes images found while extracting documents
//   - AIProvider: aggregates the above for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: production implementation using OpenAI-compatible APIs (Ollama, vLLM, ...)
//   - ai/mock: deterministic test doubles
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewGenerator, ...) return
// INTERFACE types. Mock constructors return CONCRETE types so tests can
// inject behavior and inspect call counts. mock.NewMockProvider() returns
// the interface and exposes GetMock... accessors for assertions.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithHost("http://localhost:11434"))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	answer, err := provider.Generator().Generate(ctx, prompt, ai.GenerateOptions{MaxTokens: 1024})
package ai
