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


package mock

import "github.com/poiesic/flowmate/ai"

// DefaultResponse is what the mock generator answers with unless overridden.
const DefaultResponse = "문서에 따르면 요청하신 내용은 다음과 같습니다. 핵심 사항을 정리해 드렸습니다."

// MockProvider is a test double for ai.AIProvider.
// It aggregates mock embedder, generator, translator and vision instances.
type MockProvider struct {
	embedder   *MockEmbedder
	generator  *MockGenerator
	translator *MockGenerator
	vision     *MockVision
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use the GetMock... accessors to reach concrete types for test assertions.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		embedder:   NewMockEmbedder(),
		generator:  NewMockGenerator(DefaultResponse),
		translator: NewMockGenerator("번역된 한국어 문장입니다."),
		vision:     NewMockVision(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// This allows full control over the behavior of each service.
func NewMockProviderWithServices(embedder *MockEmbedder, generator, translator *MockGenerator, vision *MockVision) ai.AIProvider {
	return &MockProvider{
		embedder:   embedder,
		generator:  generator,
		translator: translator,
		vision:     vision,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Generator returns the mock generator.
func (p *MockProvider) Generator() ai.Generator {
	return p.generator
}

// Translator returns the mock translator.
func (p *MockProvider) Translator() ai.Generator {
	return p.translator
}

// Vision returns the mock vision analyzer.
func (p *MockProvider) Vision() ai.VisionAnalyzer {
	return p.vision
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockGenerator returns the underlying mock generator for test assertions.
func (p *MockProvider) GetMockGenerator() *MockGenerator {
	return p.generator
}

// GetMockTranslator returns the underlying mock translator for test assertions.
func (p *MockProvider) GetMockTranslator() *MockGenerator {
	return p.translator
}

// GetMockVision returns the underlying mock vision analyzer for test assertions.
func (p *MockProvider) GetMockVision() *MockVision {
	return p.vision
}
