package ingestion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/flowmate/ai/mock"
	"github.com/poiesic/flowmate/chunking"
	"github.com/poiesic/flowmate/core"
	"github.com/poiesic/flowmate/storage"
	"github.com/poiesic/flowmate/storage/badger"
)

// testExtractor returns fixed text and counts calls.
type testExtractor struct {
	text  string
	err   error
	calls int
}

func (e *testExtractor) Extract(ctx context.Context, path string) (string, error) {
	e.calls++
	return e.text, e.err
}

// failingUpsertStore wraps a store and rejects writes.
type failingUpsertStore struct {
	storage.VectorStore
}

func (s *failingUpsertStore) Upsert(ctx context.Context, name string, entries ...storage.Entry) error {
	return storage.ErrStoreUnavailable
}

func setupStore(t *testing.T) storage.VectorStore {
	t.Helper()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func longText() string {
	return strings.Repeat("사내 보안 규정은 모든 임직원이 준수해야 합니다.\n", 200)
}

func TestNewPipeline_RequiredArguments(t *testing.T) {
	store := setupStore(t)
	ext := &testExtractor{}
	ch := chunking.New()
	emb := mock.NewMockEmbedder()

	_, err := NewPipeline(nil, ch, emb, store)
	assert.ErrorIs(t, err, ErrExtractorRequired)
	_, err = NewPipeline(ext, nil, emb, store)
	assert.ErrorIs(t, err, ErrChunkerRequired)
	_, err = NewPipeline(ext, ch, nil, store)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
	_, err = NewPipeline(ext, ch, emb, nil)
	assert.ErrorIs(t, err, ErrStoreRequired)

	_, err = NewPipeline(ext, ch, emb, store, WithBatchSize(0))
	assert.Error(t, err)
	_, err = NewPipeline(ext, ch, emb, store, WithMetric("manhattan"))
	assert.Error(t, err)
}

func TestPipeline_Build(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	ext := &testExtractor{text: longText()}
	emb := mock.NewMockEmbedder()

	p, err := NewPipeline(ext, chunking.New(), emb, store, WithPoolSize(2), WithBatchSize(3))
	require.NoError(t, err)
	defer p.Release()

	n, err := p.Build(ctx, "doc_abc", "/docs/policy.txt", "abc")
	require.NoError(t, err)
	require.Greater(t, n, 1)

	count, err := store.Count(ctx, "doc_abc")
	require.NoError(t, err)
	assert.Equal(t, uint64(n), count)
	assert.Equal(t, n, emb.TextCount())
	assert.Equal(t, (n+2)/3, emb.CallCount())
	assert.Equal(t, 1, ext.calls)

	results, err := store.Scroll(ctx, "doc_abc", n)
	require.NoError(t, err)
	require.Len(t, results, n)
	for i, r := range results {
		assert.Equal(t, i, r.Chunk.Order)
		assert.Equal(t, core.Fingerprint("abc"), r.Chunk.Source)
	}
}

func TestPipeline_BuildSearchable(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	text := "재택근무는 주 2회까지 허용됩니다.\n\n" + strings.Repeat("기타 내용입니다. ", 300)
	emb := mock.NewMockEmbedder()

	p, err := NewPipeline(&testExtractor{text: text}, chunking.New(), emb, store)
	require.NoError(t, err)
	defer p.Release()

	_, err = p.Build(ctx, "doc_x", "x.txt", "x")
	require.NoError(t, err)

	results, err := p.Chunks(ctx, "x.txt", "x")
	require.NoError(t, err)
	query, err := emb.EmbedText(ctx, results[0].Text)
	require.NoError(t, err)

	found, err := store.SimilaritySearch(ctx, "doc_x", query, 1, nil)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 0, found[0].Chunk.Order)
}

func TestPipeline_ExtractionError(t *testing.T) {
	store := setupStore(t)
	boom := errors.New("unreadable")
	p, err := NewPipeline(&testExtractor{err: boom}, chunking.New(), mock.NewMockEmbedder(), store)
	require.NoError(t, err)
	defer p.Release()

	_, err = p.Build(context.Background(), "doc_e", "e.pdf", "e")
	assert.ErrorIs(t, err, boom)
}

func TestPipeline_EmptyDocument(t *testing.T) {
	store := setupStore(t)
	p, err := NewPipeline(&testExtractor{text: "  \n "}, chunking.New(), mock.NewMockEmbedder(), store)
	require.NoError(t, err)
	defer p.Release()

	_, err = p.Build(context.Background(), "doc_empty", "empty.txt", "empty")
	assert.ErrorIs(t, err, core.ErrEmptyDocument)

	exists, err := store.CollectionExists(context.Background(), "doc_empty")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPipeline_EmbeddingErrorCreatesNothing(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	emb := mock.NewMockEmbedder()
	emb.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
		return nil, errors.New("embedding service down")
	}

	p, err := NewPipeline(&testExtractor{text: longText()}, chunking.New(), emb, store)
	require.NoError(t, err)
	defer p.Release()

	_, err = p.Build(ctx, "doc_f", "f.txt", "f")
	require.Error(t, err)

	exists, err := store.CollectionExists(ctx, "doc_f")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPipeline_EmbeddingCountMismatch(t *testing.T) {
	store := setupStore(t)
	emb := mock.NewMockEmbedder()
	emb.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
		return [][]float32{{1, 0}}, nil
	}

	p, err := NewPipeline(&testExtractor{text: longText()}, chunking.New(), emb, store, WithBatchSize(4))
	require.NoError(t, err)
	defer p.Release()

	_, err = p.Build(context.Background(), "doc_m", "m.txt", "m")
	assert.ErrorIs(t, err, ErrEmbeddingMismatch)
}

func TestPipeline_UpsertFailureDropsCollection(t *testing.T) {
	ctx := context.Background()
	inner := setupStore(t)
	store := &failingUpsertStore{VectorStore: inner}

	p, err := NewPipeline(&testExtractor{text: longText()}, chunking.New(), mock.NewMockEmbedder(), store)
	require.NoError(t, err)
	defer p.Release()

	_, err = p.Build(ctx, "doc_u", "u.txt", "u")
	require.ErrorIs(t, err, storage.ErrStoreUnavailable)

	exists, err := inner.CollectionExists(ctx, "doc_u")
	require.NoError(t, err)
	assert.False(t, exists)
}
