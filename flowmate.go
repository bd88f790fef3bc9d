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


// Package flowmate wires the document assistant together: extraction,
// chunking, the index cache, retrieval, the generation workflow and
// conversation memory, configured from a single config.Config.
package flowmate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/flowmate/ai"
	"github.com/poiesic/flowmate/ai/openai"
	"github.com/poiesic/flowmate/chunking"
	"github.com/poiesic/flowmate/config"
	"github.com/poiesic/flowmate/core"
	"github.com/poiesic/flowmate/extract"
	"github.com/poiesic/flowmate/index"
	"github.com/poiesic/flowmate/ingestion"
	"github.com/poiesic/flowmate/language"
	"github.com/poiesic/flowmate/memory"
	"github.com/poiesic/flowmate/retrieval"
	"github.com/poiesic/flowmate/retry"
	"github.com/poiesic/flowmate/storage"
	"github.com/poiesic/flowmate/storage/badger"
	"github.com/poiesic/flowmate/storage/qdrant"
	"github.com/poiesic/flowmate/watch"
	"github.com/poiesic/flowmate/workflow"
)

// DirectApology is the response format when the direct path fails too.
const DirectApology = "죄송합니다. 문서 처리 중 오류가 발생했습니다: %s\n\n다시 시도해 주시거나 문서 형식을 확인해 주세요."

type Assistant struct {
	cfg        *config.Config
	provider   ai.AIProvider
	store      storage.VectorStore
	ownsStore  bool
	dispatcher *extract.Dispatcher
	chunker    *chunking.Chunker
	pipeline   *ingestion.Pipeline
	cache      *index.Cache
	memory     *memory.Store
	workflow   *workflow.Workflow
	logger     *slog.Logger
}

// Option configures an Assistant.
type Option func(*assistantOptions)

type assistantOptions struct {
	provider   ai.AIProvider
	classifier ai.Generator
	store      storage.VectorStore
	logger     *slog.Logger
}

// WithProvider replaces the OpenAI-compatible provider built from the
// config. The Assistant closes it on Close.
func WithProvider(p ai.AIProvider) Option {
	return func(o *assistantOptions) {
		o.provider = p
	}
}

// WithClassifier sets the intent classification model.
func WithClassifier(g ai.Generator) Option {
	return func(o *assistantOptions) {
		o.classifier = g
	}
}

// WithStore replaces the vector store built from the config. The caller
// keeps ownership of s.
func WithStore(s storage.VectorStore) Option {
	return func(o *assistantOptions) {
		o.store = s
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *assistantOptions) {
		o.logger = logger
	}
}

// New builds an Assistant from cfg. A nil cfg uses config.Default().
func New(cfg *config.Config, opts ...Option) (*Assistant, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	options := &assistantOptions{logger: slog.Default().With("component", "flowmate")}
	for _, opt := range opts {
		opt(options)
	}

	a := &Assistant{cfg: cfg, logger: options.logger}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	a.provider = options.provider
	if a.provider == nil {
		p, err := openai.NewProvider(cfg.Provider())
		if err != nil {
			return nil, err
		}
		a.provider = p
	}
	classifier := options.classifier
	if classifier == nil && cfg.Classifier() != nil {
		g, err := openai.NewGenerator(cfg.Classifier())
		if err != nil {
			return nil, err
		}
		classifier = g
	}

	a.store = options.store
	if a.store == nil {
		s, err := openStore(cfg.Store)
		if err != nil {
			return nil, err
		}
		a.store, a.ownsStore = s, true
	}

	metric, _ := storage.ParseMetric(cfg.Store.Metric)
	mode, _ := core.ParseFingerprintMode(cfg.Fingerprint)

	a.dispatcher = extract.NewDefaultDispatcher(cfg.ExtractorConfig(), a.provider.Vision())
	a.chunker = chunking.New(
		chunking.WithBreakpoints(cfg.Chunking.Breakpoints),
		chunking.WithOverlapRatio(cfg.Chunking.OverlapRatio),
	)

	var err error
	a.pipeline, err = ingestion.NewPipeline(a.dispatcher, a.chunker, a.provider.Embedder(), a.store,
		ingestion.WithPoolSize(cfg.Chunking.Workers),
		ingestion.WithBatchSize(cfg.Chunking.BatchSize),
		ingestion.WithMetric(metric),
	)
	if err != nil {
		return nil, err
	}
	a.cache, err = index.New(a.store, a.pipeline, a.provider.Embedder(),
		index.WithFingerprintMode(mode),
		index.WithBuildTimeout(cfg.Timeouts.Extract+cfg.Timeouts.Embed),
	)
	if err != nil {
		return nil, err
	}

	a.memory = memory.NewStore(
		memory.WithMaxTurns(cfg.Memory.MaxTurns),
		memory.WithSessionTTL(cfg.Memory.SessionTTL),
	)
	enforcer := language.New(a.provider.Translator(),
		language.WithThresholds(cfg.Language),
		language.WithTemperature(cfg.AI.TranslationTemperature),
		language.WithTimeout(cfg.Timeouts.Translate),
	)
	engine := retrieval.NewEngine(
		retrieval.WithMinContextChars(cfg.Retrieval.MinContextChars),
		retrieval.WithFillContextChars(cfg.Retrieval.FillContextChars),
		retrieval.WithBrowseK(cfg.Retrieval.BrowseK),
		retrieval.WithMaxContextTokens(cfg.Retrieval.MaxContextTokens),
	)

	attempts, delay := cfg.Generation.RetryAttempts, cfg.Generation.RetryBaseDelay
	wfOpts := []workflow.Option{
		workflow.WithEngine(engine),
		workflow.WithMemory(a.memory),
		workflow.WithOutputDir(cfg.OutputDir),
		workflow.WithTimeouts(workflow.Timeouts{
			Classify: cfg.Timeouts.Generate,
			Index:    cfg.Timeouts.Extract + cfg.Timeouts.Embed,
			Retrieve: cfg.Timeouts.Search,
			Generate: cfg.Timeouts.Generate,
			Render:   cfg.Timeouts.Render,
		}),
	}
	if classifier != nil {
		wfOpts = append(wfOpts, workflow.WithClassifier(retry.Generator(classifier, attempts, delay)))
	}
	a.workflow, err = workflow.New(retry.Generator(a.provider.Generator(), attempts, delay), a.cache, enforcer, wfOpts...)
	if err != nil {
		return nil, err
	}

	ok = true
	a.logger.Info("assistant ready",
		"store", cfg.Store.Kind,
		"fingerprint", mode,
		"extensions", a.dispatcher.Extensions())
	return a, nil
}

func openStore(cfg config.StoreConfig) (storage.VectorStore, error) {
	switch cfg.Kind {
	case config.StoreBadger:
		return badger.OpenStore(cfg.BadgerPath, cfg.InMemory)
	case config.StoreQdrant:
		return qdrant.NewStore(qdrant.Config{
			Host:   cfg.QdrantHost,
			Port:   cfg.QdrantPort,
			APIKey: cfg.QdrantAPIKey,
			UseTLS: cfg.QdrantTLS,
		})
	}
	return nil, fmt.Errorf("%w: store kind %q", config.ErrInvalidConfig, cfg.Kind)
}

// Execute runs req through the workflow. A panic inside the workflow is
// answered through the direct path instead.
func (a *Assistant) Execute(ctx context.Context, req workflow.Request) (run *workflow.Run) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("workflow panicked, answering directly", "panic", r)
			run = a.direct(ctx, req)
		}
	}()
	return a.workflow.Execute(ctx, req)
}

// Ask answers query about the document at path within a session.
func (a *Assistant) Ask(ctx context.Context, sessionID, path, query string) *workflow.Run {
	return a.Execute(ctx, workflow.Request{Query: query, FilePath: path, SessionID: sessionID})
}

// Answer runs the direct question-answer path without the workflow.
func (a *Assistant) Answer(ctx context.Context, sessionID, path, query string) (answer string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", core.ErrGenerationFailure, r)
		}
	}()
	return a.workflow.Answer(ctx, workflow.Request{Query: query, FilePath: path, SessionID: sessionID})
}

func (a *Assistant) direct(ctx context.Context, req workflow.Request) *workflow.Run {
	run := &workflow.Run{
		Query:     req.Query,
		FilePath:  req.FilePath,
		SessionID: req.SessionID,
		TaskType:  core.TaskQuestionAnswer,
		State:     workflow.StateDone,
		Trace:     []workflow.State{workflow.StateInit, workflow.StateDone},
	}
	answer, err := a.Answer(ctx, req.SessionID, req.FilePath, req.Query)
	if err != nil {
		run.Err = err
		run.ErrorMessage = err.Error()
		run.FinalResponse = fmt.Sprintf(DirectApology, err)
		return run
	}
	run.FinalResponse = answer
	run.Success = true
	return run
}

// Index builds or loads the index for the document at path.
func (a *Assistant) Index(ctx context.Context, path string) (*index.Handle, error) {
	return a.cache.GetOrBuild(ctx, path)
}

// Invalidate drops the index for the document at path.
func (a *Assistant) Invalidate(ctx context.Context, path string) error {
	return a.cache.Invalidate(ctx, "", path)
}

// Chunks extracts and chunks the document at path without indexing it.
func (a *Assistant) Chunks(ctx context.Context, path string) ([]core.Chunk, error) {
	mode, _ := core.ParseFingerprintMode(a.cfg.Fingerprint)
	fp, err := core.FingerprintFile(path, mode)
	if err != nil {
		return nil, err
	}
	return a.pipeline.Chunks(ctx, path, fp)
}

// ClearCache forgets every cached index handle. Stored collections stay.
func (a *Assistant) ClearCache() {
	a.cache.Clear()
}

func (a *Assistant) CacheStats() index.Stats {
	return a.cache.Stats()
}

// ResetSession forgets a session's conversation.
func (a *Assistant) ResetSession(sessionID string) {
	a.memory.Drop(sessionID)
}

// Supported reports whether documents like path can be extracted.
func (a *Assistant) Supported(path string) bool {
	return a.dispatcher.Supported(path)
}

// Watcher pre-indexes supported uploads in dir. Zero settings fall back
// to the configured watch section.
func (a *Assistant) Watcher(dir string, opts ...watch.Option) (*watch.Watcher, error) {
	if dir == "" {
		dir = a.cfg.Watch.Dir
	}
	base := []watch.Option{
		watch.WithDebounce(a.cfg.Watch.Debounce),
		watch.WithWorkers(a.cfg.Watch.Workers),
	}
	return watch.New(dir, a.cache, a.dispatcher.Supported, append(base, opts...)...)
}

func (a *Assistant) Close() error {
	var errs []error
	if a.pipeline != nil {
		a.pipeline.Release()
	}
	if a.provider != nil {
		if err := a.provider.Close(); err != nil {
			a.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	if a.store != nil && a.ownsStore {
		if err := a.store.Close(); err != nil {
			a.logger.Error("error closing vector store", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
