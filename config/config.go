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


// Package config loads the process configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/flowmate/ai"
	"github.com/poiesic/flowmate/chunking"
	"github.com/poiesic/flowmate/core"
	"github.com/poiesic/flowmate/extract"
	"github.com/poiesic/flowmate/language"
	"github.com/poiesic/flowmate/retrieval"
	"github.com/poiesic/flowmate/storage"
)

// Environment overrides applied by Load.
const (
	EnvQdrantHost     = "FLOWMATE_QDRANT_HOST"
	EnvGenerationHost = "FLOWMATE_GENERATION_HOST"
)

// Store kinds.
const (
	StoreQdrant = "qdrant"
	StoreBadger = "badger"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	AI          AIConfig            `yaml:"ai"`
	Store       StoreConfig         `yaml:"store"`
	Fingerprint string              `yaml:"fingerprint"`
	Extract     ExtractConfig       `yaml:"extract"`
	Chunking    ChunkingConfig      `yaml:"chunking"`
	Retrieval   RetrievalConfig     `yaml:"retrieval"`
	Language    language.Thresholds `yaml:"language"`
	Memory      MemoryConfig        `yaml:"memory"`
	Timeouts    TimeoutConfig       `yaml:"timeouts"`
	Generation  GenerationConfig    `yaml:"generation"`
	OutputDir   string              `yaml:"output_dir"`
	Watch       WatchConfig         `yaml:"watch"`
}

type AIConfig struct {
	EmbeddingHost          string  `yaml:"embedding_host"`
	GenerationHost         string  `yaml:"generation_host"`
	EmbeddingModel         string  `yaml:"embedding_model"`
	GenerationModel        string  `yaml:"generation_model"`
	ClassifierModel        string  `yaml:"classifier_model"`
	TranslationModel       string  `yaml:"translation_model"`
	VisionModel            string  `yaml:"vision_model"`
	APIToken               string  `yaml:"api_token"`
	Temperature            float64 `yaml:"temperature"`
	TranslationTemperature float64 `yaml:"translation_temperature"`
}

type StoreConfig struct {
	Kind         string `yaml:"kind"`
	QdrantHost   string `yaml:"qdrant_host"`
	QdrantPort   int    `yaml:"qdrant_port"`
	QdrantAPIKey string `yaml:"qdrant_api_key"`
	QdrantTLS    bool   `yaml:"qdrant_tls"`
	BadgerPath   string `yaml:"badger_path"`
	InMemory     bool   `yaml:"in_memory"`
	Metric       string `yaml:"metric"`
}

type ExtractConfig struct {
	MaxImageWorkers     int      `yaml:"max_image_workers"`
	PDFCommand          []string `yaml:"pdf_command"`
	TranscribeCommand   []string `yaml:"transcribe_command"`
	AudioExtractCommand []string `yaml:"audio_extract_command"`
	ConvertCommand      []string `yaml:"convert_command"`
}

type ChunkingConfig struct {
	Breakpoints  []chunking.Breakpoint `yaml:"breakpoints"`
	OverlapRatio float64               `yaml:"overlap_ratio"`
	BatchSize    int                   `yaml:"batch_size"`
	Workers      int                   `yaml:"workers"`
}

type RetrievalConfig struct {
	MinContextChars  int `yaml:"min_context_chars"`
	FillContextChars int `yaml:"fill_context_chars"`
	BrowseK          int `yaml:"browse_k"`
	MaxContextTokens int `yaml:"max_context_tokens"`
}

type MemoryConfig struct {
	MaxTurns   int           `yaml:"max_turns"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type TimeoutConfig struct {
	Extract   time.Duration `yaml:"extract"`
	Embed     time.Duration `yaml:"embed"`
	Search    time.Duration `yaml:"search"`
	Generate  time.Duration `yaml:"generate"`
	Translate time.Duration `yaml:"translate"`
	Render    time.Duration `yaml:"render"`
}

// GenerationConfig controls retries around the generate step.
type GenerationConfig struct {
	RetryAttempts  int           `yaml:"retry_attempts"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"`
}

type WatchConfig struct {
	Dir      string        `yaml:"dir"`
	Debounce time.Duration `yaml:"debounce"`
	Workers  int           `yaml:"workers"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	def := ai.DefaultConfig()
	ext := extract.DefaultConfig()
	return &Config{
		AI: AIConfig{
			EmbeddingHost:          def.EmbeddingHost,
			GenerationHost:         def.GenerationHost,
			EmbeddingModel:         def.EmbeddingModel,
			GenerationModel:        def.GenerationModel,
			TranslationModel:       def.TranslationModel,
			VisionModel:            def.VisionModel,
			APIToken:               def.APIToken,
			Temperature:            def.Temperature,
			TranslationTemperature: def.TranslationTemperature,
		},
		Store: StoreConfig{
			Kind:       StoreQdrant,
			QdrantHost: "localhost",
			QdrantPort: 6334,
			BadgerPath: "data/vectors",
			Metric:     string(storage.MetricCosine),
		},
		Fingerprint: "content",
		Extract: ExtractConfig{
			MaxImageWorkers:     ext.MaxImageWorkers,
			PDFCommand:          ext.PDFCommand,
			TranscribeCommand:   ext.TranscribeCommand,
			AudioExtractCommand: ext.AudioExtractCommand,
			ConvertCommand:      ext.ConvertCommand,
		},
		Chunking: ChunkingConfig{
			Breakpoints:  chunking.DefaultBreakpoints(),
			OverlapRatio: chunking.DefaultOverlapRatio,
			BatchSize:    32,
			Workers:      4,
		},
		Retrieval: RetrievalConfig{
			MinContextChars:  retrieval.DefaultMinContextChars,
			FillContextChars: retrieval.DefaultFillContextChars,
			BrowseK:          retrieval.DefaultBrowseK,
		},
		Language: language.DefaultThresholds(),
		Memory: MemoryConfig{
			MaxTurns:   5,
			SessionTTL: time.Hour,
		},
		Timeouts: TimeoutConfig{
			Extract:   10 * time.Minute,
			Embed:     5 * time.Minute,
			Search:    30 * time.Second,
			Generate:  3 * time.Minute,
			Translate: 30 * time.Second,
			Render:    30 * time.Second,
		},
		Generation: GenerationConfig{
			RetryAttempts:  3,
			RetryBaseDelay: 500 * time.Millisecond,
		},
		OutputDir: "output",
		Watch: WatchConfig{
			Dir:      "uploads",
			Debounce: 2 * time.Second,
			Workers:  2,
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path loads only defaults and overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides hosts from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvQdrantHost); v != "" {
		c.Store.QdrantHost = v
	}
	if v := os.Getenv(EnvGenerationHost); v != "" {
		c.AI.GenerationHost = v
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
	}

	if err := c.Provider().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch c.Store.Kind {
	case StoreQdrant:
		if c.Store.QdrantHost == "" {
			return invalid("store.qdrant_host is required")
		}
	case StoreBadger:
		if c.Store.BadgerPath == "" && !c.Store.InMemory {
			return invalid("store.badger_path is required unless store.in_memory is set")
		}
	default:
		return invalid("store.kind %q must be %s or %s", c.Store.Kind, StoreQdrant, StoreBadger)
	}
	if _, err := storage.ParseMetric(c.Store.Metric); err != nil {
		return invalid("store.metric: %v", err)
	}
	if _, err := core.ParseFingerprintMode(c.Fingerprint); err != nil {
		return invalid("fingerprint: %v", err)
	}
	if c.Chunking.OverlapRatio < 0 || c.Chunking.OverlapRatio >= 1 {
		return invalid("chunking.overlap_ratio %v must be in [0, 1)", c.Chunking.OverlapRatio)
	}
	for i, bp := range c.Chunking.Breakpoints {
		if bp.Size <= 0 {
			return invalid("chunking.breakpoints[%d].size must be positive", i)
		}
		if i > 0 && bp.Below <= c.Chunking.Breakpoints[i-1].Below && bp.Below != 0 {
			return invalid("chunking.breakpoints must be ordered by below")
		}
	}
	if c.Chunking.BatchSize < 1 {
		return invalid("chunking.batch_size must be positive")
	}
	if c.Retrieval.BrowseK < 1 {
		return invalid("retrieval.browse_k must be positive")
	}
	if c.Retrieval.FillContextChars < c.Retrieval.MinContextChars {
		return invalid("retrieval.fill_context_chars must be at least min_context_chars")
	}
	if c.Memory.MaxTurns <= 0 {
		return invalid("memory.max_turns must be positive")
	}
	if c.Generation.RetryAttempts < 1 {
		return invalid("generation.retry_attempts must be at least 1")
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return invalid("output_dir is required")
	}
	return nil
}

// Provider returns the AI provider configuration.
func (c *Config) Provider() *ai.Config {
	return &ai.Config{
		EmbeddingHost:          c.AI.EmbeddingHost,
		GenerationHost:         c.AI.GenerationHost,
		EmbeddingModel:         c.AI.EmbeddingModel,
		GenerationModel:        c.AI.GenerationModel,
		TranslationModel:       c.AI.TranslationModel,
		VisionModel:            c.AI.VisionModel,
		APIToken:               c.AI.APIToken,
		Temperature:            c.AI.Temperature,
		TranslationTemperature: c.AI.TranslationTemperature,
	}
}

// Classifier returns the provider configuration for intent
// classification, or nil when the generation model classifies.
func (c *Config) Classifier() *ai.Config {
	if c.AI.ClassifierModel == "" {
		return nil
	}
	p := c.Provider()
	p.GenerationModel = c.AI.ClassifierModel
	p.Temperature = 0
	return p
}

// ExtractorConfig returns the extractor settings.
func (c *Config) ExtractorConfig() extract.Config {
	return extract.Config{
		MaxImageWorkers:     c.Extract.MaxImageWorkers,
		Timeout:             c.Timeouts.Extract,
		PDFCommand:          c.Extract.PDFCommand,
		TranscribeCommand:   c.Extract.TranscribeCommand,
		AudioExtractCommand: c.Extract.AudioExtractCommand,
		ConvertCommand:      c.Extract.ConvertCommand,
	}
}
