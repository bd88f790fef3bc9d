package ingestion

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/flowmate/ai"
	"github.com/poiesic/flowmate/core"
)

// embedChunks embeds chunk texts in batches of batchSize on pool and
// returns vectors aligned with chunks.
func embedChunks(ctx context.Context, pool *ants.Pool, embedder ai.Embedder, chunks []core.Chunk, batchSize int) ([][]float32, error) {
	if batchSize < 1 {
		batchSize = len(chunks)
	}

	vectors := make([][]float32, len(chunks))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	setErr := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	for start := 0; start < len(chunks); start += batchSize {
		end := min(start+batchSize, len(chunks))
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}

		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				setErr(ctx.Err())
				return
			}
			embedded, err := embedder.EmbedTexts(ctx, texts)
			if err != nil {
				setErr(err)
				return
			}
			if len(embedded) != len(texts) {
				setErr(fmt.Errorf("%w: expected %d, received %d", ErrEmbeddingMismatch, len(texts), len(embedded)))
				return
			}
			copy(vectors[start:end], embedded)
		})
		if err != nil {
			wg.Done()
			setErr(err)
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: empty vector", ErrEmbeddingMismatch)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has length %d, expected %d", ErrEmbeddingMismatch, i, len(v), dim)
		}
	}
	return vectors, nil
}
