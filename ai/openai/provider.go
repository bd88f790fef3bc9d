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


package openai

import (
	"log/slog"

	"github.com/poiesic/flowmate/ai"
)

// Provider implements ai.AIProvider using OpenAI-compatible services.
// It manages the embedder, generation, translation and vision clients.
type Provider struct {
	config     *ai.Config
	embedder   *Embedder
	generator  *Generator
	translator *Generator
	vision     *Vision
	logger     *slog.Logger
}

// NewProvider creates a new AI provider with OpenAI-compatible services.
// The config is validated and normalized before use.
//
// Returns ai.AIProvider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	generator, err := newGenerator(config.GenerationHost, config.APIToken, config.GenerationModel, config.Temperature, "openai-generator")
	if err != nil {
		return nil, err
	}

	translator, err := newGenerator(config.GenerationHost, config.APIToken, config.TranslationModel, config.TranslationTemperature, "openai-translator")
	if err != nil {
		return nil, err
	}

	vision, err := newVision(config)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:     config,
		embedder:   embedder,
		generator:  generator,
		translator: translator,
		vision:     vision,
		logger:     slog.Default().With("component", "openai-provider"),
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Generator returns the main generation model.
func (p *Provider) Generator() ai.Generator {
	return p.generator
}

// Translator returns the translation-only model.
func (p *Provider) Translator() ai.Generator {
	return p.translator
}

// Vision returns the image analysis service.
func (p *Provider) Vision() ai.VisionAnalyzer {
	return p.vision
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
