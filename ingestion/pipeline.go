package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/flowmate/ai"
	"github.com/poiesic/flowmate/core"
	"github.com/poiesic/flowmate/storage"
)

// Extractor turns a file into normalized text.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Chunker splits text into ordered chunks.
type Chunker interface {
	Chunk(text string, source core.Fingerprint) ([]core.Chunk, error)
}

// DefaultBatchSize is the number of chunks sent per embedding call.
const DefaultBatchSize = 32

// Pipeline orchestrates extraction, chunking, embedding and index writes.
// A single Pipeline is safe for concurrent builds of different collections.
type Pipeline struct {
	extractor Extractor
	chunker   Chunker
	embedder  ai.Embedder
	store     storage.VectorStore
	pool      *ants.Pool
	batchSize int
	metric    storage.Metric
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize sets how many chunks are embedded per call.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("batch size must be positive, got %d", size)
		}
		p.batchSize = size
		return nil
	}
}

// WithMetric sets the distance metric for new collections.
func WithMetric(metric storage.Metric) Option {
	return func(p *Pipeline) error {
		m, err := storage.ParseMetric(string(metric))
		if err != nil {
			return err
		}
		p.metric = m
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new index build pipeline.
func NewPipeline(
	extractor Extractor,
	chunker Chunker,
	embedder ai.Embedder,
	store storage.VectorStore,
	opts ...Option,
) (*Pipeline, error) {
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if chunker == nil {
		return nil, ErrChunkerRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}

	poolSize := max(runtime.NumCPU()/2, 1)
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
		pool:      pool,
		batchSize: DefaultBatchSize,
		metric:    storage.MetricCosine,
		logger:    slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	return p, nil
}

// Chunks runs extraction and chunking only.
func (p *Pipeline) Chunks(ctx context.Context, path string, source core.Fingerprint) ([]core.Chunk, error) {
	text, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return nil, err
	}
	return p.chunker.Chunk(text, source)
}

// Build extracts, chunks and embeds the file at path into a new collection
// and returns the number of entries written. The collection must not exist.
func (p *Pipeline) Build(ctx context.Context, collection, path string, source core.Fingerprint) (int, error) {
	start := time.Now()
	logger := p.logger.With("collection", collection, "path", path)

	chunks, err := p.Chunks(ctx, path, source)
	if err != nil {
		return 0, err
	}
	n, err := p.Write(ctx, collection, chunks)
	if err != nil {
		return 0, err
	}
	logger.Info("index built", "chunks", n, "took", time.Since(start))
	return n, nil
}

// Write embeds chunks and stores them in a new collection.
// On failure after creation the collection is dropped.
func (p *Pipeline) Write(ctx context.Context, collection string, chunks []core.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, core.ErrEmptyDocument
	}

	vectors, err := embedChunks(ctx, p.pool, p.embedder, chunks, p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}

	if err := p.store.CreateCollection(ctx, collection, len(vectors[0]), p.metric); err != nil {
		return 0, fmt.Errorf("create collection: %w", err)
	}

	for start := 0; start < len(chunks); start += p.batchSize {
		end := min(start+p.batchSize, len(chunks))
		entries := make([]storage.Entry, 0, end-start)
		for i := start; i < end; i++ {
			entries = append(entries, storage.Entry{
				ID:     uint64(chunks[i].Order),
				Vector: vectors[i],
				Text:   chunks[i].Text,
				Metadata: map[string]string{
					storage.MetaSource: string(chunks[i].Source),
					storage.MetaOrder:  strconv.Itoa(chunks[i].Order),
				},
			})
		}
		if err := p.store.Upsert(ctx, collection, entries...); err != nil {
			if delErr := p.store.DeleteCollection(context.WithoutCancel(ctx), collection); delErr != nil {
				p.logger.Warn("failed to drop partial collection", "collection", collection, "err", delErr)
			}
			return 0, fmt.Errorf("upsert entries: %w", err)
		}
	}
	return len(chunks), nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
