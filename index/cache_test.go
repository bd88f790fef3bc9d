package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/flowmate/ai/mock"
	"github.com/poiesic/flowmate/chunking"
	"github.com/poiesic/flowmate/core"
	"github.com/poiesic/flowmate/ingestion"
	"github.com/poiesic/flowmate/storage"
	"github.com/poiesic/flowmate/storage/badger"
)

// countingExtractor reads files as text and counts invocations.
type countingExtractor struct {
	calls atomic.Int64
	delay time.Duration
}

func (e *countingExtractor) Extract(ctx context.Context, path string) (string, error) {
	e.calls.Add(1)
	time.Sleep(e.delay)
	data, err := os.ReadFile(path)
	return string(data), err
}

// unreachableStore fails every call the way a dead network store does.
type unreachableStore struct {
	storage.VectorStore
}

func (unreachableStore) CollectionExists(context.Context, string) (bool, error) {
	return false, storage.ErrStoreUnavailable
}

type fixture struct {
	store     storage.VectorStore
	extractor *countingExtractor
	pipeline  *ingestion.Pipeline
	embedder  *mock.MockEmbedder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := &fixture{store: store, extractor: &countingExtractor{}, embedder: mock.NewMockEmbedder()}
	f.pipeline, err = ingestion.NewPipeline(f.extractor, chunking.New(), f.embedder, store)
	require.NoError(t, err)
	t.Cleanup(f.pipeline.Release)
	return f
}

func (f *fixture) cache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(f.store, f.pipeline, f.embedder)
	require.NoError(t, err)
	return c
}

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func docText() string {
	return "출장비 정산은 귀국 후 7일 이내에 해야 합니다.\n\n" + strings.Repeat("영수증은 원본을 제출합니다. ", 120)
}

func TestNew_RequiredArguments(t *testing.T) {
	f := newFixture(t)

	_, err := New(nil, f.pipeline, f.embedder)
	assert.ErrorIs(t, err, ErrStoreRequired)
	_, err = New(f.store, nil, f.embedder)
	assert.ErrorIs(t, err, ErrBuilderRequired)
	_, err = New(f.store, f.pipeline, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestGetOrBuild_SecondCallIsCached(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.cache(t)
	path := writeDoc(t, "policy.txt", docText())

	first, err := c.GetOrBuild(ctx, path)
	require.NoError(t, err)
	second, err := c.GetOrBuild(ctx, path)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int64(1), f.extractor.calls.Load())
	assert.Equal(t, Stats{Handles: 1, Builds: 1, Hits: 1}, c.Stats())
	assert.Greater(t, first.Entries, uint64(0))
}

func TestGetOrBuild_ConcurrentFirstAccessBuildsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.extractor.delay = 50 * time.Millisecond
	c := f.cache(t)
	path := writeDoc(t, "policy.txt", docText())

	const n = 8
	handles := make([]*Handle, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := c.GetOrBuild(ctx, path)
			assert.NoError(t, err)
			handles[i] = h
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), f.extractor.calls.Load())
	assert.Equal(t, uint64(1), c.Stats().Builds)
	for _, h := range handles {
		assert.Same(t, handles[0], h)
	}
}

func TestGetOrBuild_SameQuerySameCandidates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	path := writeDoc(t, "policy.txt", docText())

	h1, err := f.cache(t).GetOrBuild(ctx, path)
	require.NoError(t, err)
	h2, err := f.cache(t).GetOrBuild(ctx, path)
	require.NoError(t, err)

	r1, err := h1.Search(ctx, "출장비 정산", 5)
	require.NoError(t, err)
	r2, err := h2.Search(ctx, "출장비 정산", 5)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}

func TestGetOrBuild_ReusesStoredCollection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	path := writeDoc(t, "policy.txt", docText())

	_, err := f.cache(t).GetOrBuild(ctx, path)
	require.NoError(t, err)

	fresh := f.cache(t)
	_, err = fresh.GetOrBuild(ctx, path)
	require.NoError(t, err)

	assert.Equal(t, int64(1), f.extractor.calls.Load())
	assert.Equal(t, Stats{Handles: 1, StoreReuses: 1}, fresh.Stats())
}

func TestGetOrBuild_RebuildsEmptyCollection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.cache(t)
	path := writeDoc(t, "policy.txt", docText())

	fp, err := core.FingerprintFile(path, core.ModeContent)
	require.NoError(t, err)
	name := CollectionName("", fp)
	require.NoError(t, f.store.CreateCollection(ctx, name, 4, storage.MetricCosine))

	h, err := c.GetOrBuild(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), c.Stats().Builds)

	count, err := f.store.Count(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, h.Entries, count)
}

func TestGetOrBuild_ContentChangeNewCollection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.cache(t)
	path := writeDoc(t, "policy.txt", docText())

	h1, err := c.GetOrBuild(ctx, path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(docText()+"\n개정: 10일 이내"), 0o644))
	h2, err := c.GetOrBuild(ctx, path)
	require.NoError(t, err)

	assert.NotEqual(t, h1.Collection, h2.Collection)
	assert.Equal(t, int64(2), f.extractor.calls.Load())
}

func TestGetOrBuild_CancelledCallerDoesNotFailWaiters(t *testing.T) {
	f := newFixture(t)
	f.extractor.delay = 200 * time.Millisecond
	c := f.cache(t)
	path := writeDoc(t, "policy.txt", docText())

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := c.GetOrBuild(leaderCtx, path)
		leaderErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	type result struct {
		h   *Handle
		err error
	}
	waiter := make(chan result, 1)
	go func() {
		h, err := c.GetOrBuild(context.Background(), path)
		waiter <- result{h, err}
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	err := <-leaderErr
	assert.ErrorIs(t, err, core.ErrIndexUnavailable)
	assert.ErrorIs(t, err, context.Canceled)

	res := <-waiter
	require.NoError(t, res.err)
	assert.Greater(t, res.h.Entries, uint64(0))
	assert.Equal(t, int64(1), f.extractor.calls.Load())
	assert.Equal(t, uint64(1), c.Stats().Builds)
}

func TestGetOrBuild_BuildTimeout(t *testing.T) {
	f := newFixture(t)
	f.extractor.delay = 100 * time.Millisecond
	c, err := New(f.store, f.pipeline, f.embedder, WithBuildTimeout(20*time.Millisecond))
	require.NoError(t, err)

	_, err = c.GetOrBuild(context.Background(), writeDoc(t, "policy.txt", docText()))
	assert.ErrorIs(t, err, core.ErrIndexUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, c.Stats().Handles)
}

func TestGetOrBuild_StoreUnreachable(t *testing.T) {
	f := newFixture(t)
	c, err := New(unreachableStore{}, f.pipeline, f.embedder)
	require.NoError(t, err)
	path := writeDoc(t, "policy.txt", docText())

	h, err := c.GetOrBuild(context.Background(), path)
	assert.Nil(t, h)
	assert.ErrorIs(t, err, core.ErrIndexUnavailable)
	assert.ErrorIs(t, err, storage.ErrStoreUnavailable)
	assert.Zero(t, c.Stats().Handles)
}

func TestGetOrBuild_EmptyDocument(t *testing.T) {
	f := newFixture(t)
	c := f.cache(t)
	path := writeDoc(t, "blank.txt", "   \n")

	_, err := c.GetOrBuild(context.Background(), path)
	assert.ErrorIs(t, err, core.ErrIndexUnavailable)
	assert.ErrorIs(t, err, core.ErrEmptyDocument)
}

func TestGetOrBuild_MissingFile(t *testing.T) {
	f := newFixture(t)
	c := f.cache(t)

	_, err := c.GetOrBuild(context.Background(), filepath.Join(t.TempDir(), "gone.txt"))
	assert.ErrorIs(t, err, core.ErrIndexUnavailable)
}

func TestGetOrBuildScoped_SeparatesScopes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.cache(t)
	path := writeDoc(t, "policy.txt", docText())

	a, err := c.GetOrBuildScoped(ctx, "alice", path)
	require.NoError(t, err)
	b, err := c.GetOrBuildScoped(ctx, "bob", path)
	require.NoError(t, err)

	assert.NotEqual(t, a.Collection, b.Collection)
	assert.Equal(t, a.Fingerprint, b.Fingerprint)
	assert.True(t, strings.HasSuffix(a.Collection, "_"+string(a.Fingerprint)))
	assert.Equal(t, 2, c.Stats().Handles)
}

func TestInvalidate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.cache(t)
	path := writeDoc(t, "policy.txt", docText())

	h, err := c.GetOrBuild(ctx, path)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, "", path))

	exists, err := f.store.CollectionExists(ctx, h.Collection)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Zero(t, c.Stats().Handles)

	_, err = c.GetOrBuild(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.extractor.calls.Load())
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.cache(t)
	path := writeDoc(t, "policy.txt", docText())

	_, err := c.GetOrBuild(ctx, path)
	require.NoError(t, err)
	c.Clear()
	assert.Equal(t, Stats{}, c.Stats())

	_, err = c.GetOrBuild(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), c.Stats().StoreReuses)
}

func TestHandle_Browse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	path := writeDoc(t, "policy.txt", docText())

	h, err := f.cache(t).GetOrBuild(ctx, path)
	require.NoError(t, err)

	results, err := h.Browse(ctx, 2)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, 0, results[0].Chunk.Order)
	assert.True(t, strings.HasPrefix(results[0].Chunk.Text, "출장비 정산"))
}

func TestHandle_SearchEmbedError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	path := writeDoc(t, "policy.txt", docText())
	h, err := f.cache(t).GetOrBuild(ctx, path)
	require.NoError(t, err)

	f.embedder.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
		return nil, errors.New("embedder down")
	}
	_, err = h.Search(ctx, "질문", 3)
	assert.Error(t, err)
}
