package index

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/poiesic/flowmate/ai"
	"github.com/poiesic/flowmate/core"
	"github.com/poiesic/flowmate/storage"
)

// DefaultBuildTimeout bounds a shared index load once it is detached from
// the requests waiting on it.
const DefaultBuildTimeout = 15 * time.Minute

// Builder populates a new collection from a source file.
type Builder interface {
	Build(ctx context.Context, collection, path string, source core.Fingerprint) (int, error)
}

// Stats is a snapshot of cache activity since construction or the last Clear.
type Stats struct {
	Handles     int    `json:"handles"`
	Builds      uint64 `json:"builds"`
	Hits        uint64 `json:"hits"`
	StoreReuses uint64 `json:"store_reuses"`
}

// Cache is the vector index cache.
type Cache struct {
	store    storage.VectorStore
	builder  Builder
	embedder ai.Embedder
	mode     core.FingerprintMode
	timeout  time.Duration
	logger   *slog.Logger

	group   singleflight.Group
	mu      sync.RWMutex
	handles map[string]*Handle

	builds      atomic.Uint64
	hits        atomic.Uint64
	storeReuses atomic.Uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithFingerprintMode selects how document versions are identified.
func WithFingerprintMode(mode core.FingerprintMode) Option {
	return func(c *Cache) {
		c.mode = mode
	}
}

// WithBuildTimeout bounds each shared load. Non-positive values keep the
// default.
func WithBuildTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// New creates an empty cache over store. builder populates missing
// collections and embedder embeds queries for Handle.Search.
func New(store storage.VectorStore, builder Builder, embedder ai.Embedder, opts ...Option) (*Cache, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if builder == nil {
		return nil, ErrBuilderRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	c := &Cache{
		store:    store,
		builder:  builder,
		embedder: embedder,
		mode:     core.ModeContent,
		timeout:  DefaultBuildTimeout,
		handles:  make(map[string]*Handle),
		logger:   slog.Default().With("component", "index-cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CollectionName derives the collection for a fingerprint, prefixed with a
// hash of scope when scope is non-empty.
func CollectionName(scope string, fp core.Fingerprint) string {
	if scope == "" {
		return "doc_" + string(fp)
	}
	return "doc_" + core.HashString(scope) + "_" + string(fp)
}

// GetOrBuild returns the handle for the current version of path.
// Every failure wraps core.ErrIndexUnavailable.
func (c *Cache) GetOrBuild(ctx context.Context, path string) (*Handle, error) {
	return c.GetOrBuildScoped(ctx, "", path)
}

// GetOrBuildScoped is GetOrBuild with the cache key scoped by an identity.
func (c *Cache) GetOrBuildScoped(ctx context.Context, scope, path string) (*Handle, error) {
	fp, err := core.FingerprintFile(path, c.mode)
	if err != nil {
		return nil, fmt.Errorf("%w: fingerprint: %w", core.ErrIndexUnavailable, err)
	}
	name := CollectionName(scope, fp)

	if h := c.lookup(name); h != nil {
		c.hits.Add(1)
		return h, nil
	}

	// The load outlives any single caller: a cancelled request must not
	// fail the others waiting on the same collection.
	ch := c.group.DoChan(name, func() (any, error) {
		if h := c.lookup(name); h != nil {
			c.hits.Add(1)
			return h, nil
		}
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		h, err := c.load(loadCtx, name, path, fp)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.handles[name] = h
		c.mu.Unlock()
		return h, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", core.ErrIndexUnavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("joined in-flight index load", "collection", name)
		}
		return res.Val.(*Handle), nil
	}
}

func (c *Cache) lookup(name string) *Handle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.handles[name]
}

// load adopts a populated collection from the store or rebuilds it.
func (c *Cache) load(ctx context.Context, name, path string, fp core.Fingerprint) (*Handle, error) {
	logger := c.logger.With("collection", name, "path", path)

	exists, err := c.store.CollectionExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrIndexUnavailable, err)
	}
	if exists {
		count, err := c.store.Count(ctx, name)
		if err == nil && count > 0 {
			c.storeReuses.Add(1)
			logger.Debug("reusing stored collection", "entries", count)
			return c.newHandle(name, path, fp, count), nil
		}
		logger.Warn("discarding empty or unreadable collection", "entries", count, "err", err)
		if err := c.store.DeleteCollection(ctx, name); err != nil {
			return nil, fmt.Errorf("%w: delete stale collection: %w", core.ErrIndexUnavailable, err)
		}
	}

	n, err := c.builder.Build(ctx, name, path, fp)
	if err != nil {
		logger.Warn("index build failed", "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrIndexUnavailable, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %w", core.ErrIndexUnavailable, core.ErrEmptyDocument)
	}
	c.builds.Add(1)
	return c.newHandle(name, path, fp, uint64(n)), nil
}

func (c *Cache) newHandle(name, path string, fp core.Fingerprint, entries uint64) *Handle {
	return &Handle{
		Collection:  name,
		Fingerprint: fp,
		Path:        path,
		Entries:     entries,
		store:       c.store,
		embedder:    c.embedder,
	}
}

// Invalidate forgets the handle for path and drops its collection.
func (c *Cache) Invalidate(ctx context.Context, scope, path string) error {
	fp, err := core.FingerprintFile(path, c.mode)
	if err != nil {
		return err
	}
	name := CollectionName(scope, fp)

	c.mu.Lock()
	delete(c.handles, name)
	c.mu.Unlock()

	return c.store.DeleteCollection(ctx, name)
}

// Clear forgets every handle and resets counters. Collections stay in the
// store and are adopted again on the next lookup.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.handles = make(map[string]*Handle)
	c.mu.Unlock()

	c.builds.Store(0)
	c.hits.Store(0)
	c.storeReuses.Store(0)
	c.logger.Info("index cache cleared")
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	n := len(c.handles)
	c.mu.RUnlock()
	return Stats{
		Handles:     n,
		Builds:      c.builds.Load(),
		Hits:        c.hits.Load(),
		StoreReuses: c.storeReuses.Load(),
	}
}
