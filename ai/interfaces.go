package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// GenerateOptions controls a single generation call.
type GenerateOptions struct {
	// System is an optional system prompt sent ahead of the user prompt.
	System string

	// MaxTokens caps the response length. Zero leaves the provider default.
	MaxTokens int

	// Temperature overrides the configured sampling temperature when non-nil.
	Temperature *float64
}

// Generator produces text from a prompt using a language model.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate sends prompt to the model and returns the raw response text.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// VisionAnalyzer describes images in text so they can be inlined into
// extracted document content.
type VisionAnalyzer interface {
	// AnalyzeImage returns a textual description of the image bytes.
	// mimeType is e.g. "image/png".
	AnalyzeImage(ctx context.Context, mimeType string, data []byte) (string, error)
}

// AIProvider aggregates the AI services used by the pipeline.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Generator returns the main generation model.
	Generator() Generator

	// Translator returns the model used for translation-only calls.
	Translator() Generator

	// Vision returns the image analysis service.
	Vision() VisionAnalyzer

	// Close releases any resources held by the provider.
	Close() error
}

// Float returns a pointer to v, for GenerateOptions.Temperature.
func Float(v float64) *float64 {
	return &v
}
