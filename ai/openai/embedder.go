package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/flowmate/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// embedBatchSize caps the texts sent per embeddings request.
const embedBatchSize = 64

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
type Embedder struct {
	embedder embeddings.Embedder
	model    string
	logger   *slog.Logger
}

func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(config.APIToken),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	// Chunks keep their line structure for display; newlines only hurt embedding quality.
	embedder, err := embeddings.NewEmbedder(client,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(embedBatchSize))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		model:    config.EmbeddingModel,
		logger:   slog.Default().With("component", "openai-embedder", "model", config.EmbeddingModel),
	}, nil
}

// EmbedText embeds a retrieval query.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vector, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		e.logger.Error("query embedding failed", "chars", len(text), "err", err)
		return nil, fmt.Errorf("embed query with %s: %w", e.model, err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("embed query with %s: empty vector", e.model)
	}
	return vector, nil
}

// EmbedTexts embeds chunk texts in order. The result has one vector per text.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("embedding chunks", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("chunk embedding failed", "count", len(texts), "err", err)
		return nil, fmt.Errorf("embed %d chunks with %s: %w", len(texts), e.model, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embed %d chunks with %s: got %d vectors", len(texts), e.model, len(vectors))
	}
	return vectors, nil
}
