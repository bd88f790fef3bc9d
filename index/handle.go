package index

import (
	"context"
	"fmt"

	"github.com/poiesic/flowmate/ai"
	"github.com/poiesic/flowmate/core"
	"github.com/poiesic/flowmate/storage"
)

// Handle is a searchable, populated collection for one document version.
// Handles are immutable and safe for concurrent use.
type Handle struct {
	Collection  string
	Fingerprint core.Fingerprint
	Path        string
	Entries     uint64

	store    storage.VectorStore
	embedder ai.Embedder
}

// Search embeds query and returns up to k chunks, best first.
func (h *Handle) Search(ctx context.Context, query string, k int) ([]core.SearchResult, error) {
	vec, err := h.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return h.store.SimilaritySearch(ctx, h.Collection, vec, k, nil)
}

// Browse returns up to k chunks in document order without ranking.
func (h *Handle) Browse(ctx context.Context, k int) ([]core.SearchResult, error) {
	return h.store.Scroll(ctx, h.Collection, k)
}
