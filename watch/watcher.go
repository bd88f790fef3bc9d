// Package watch pre-builds document indices as files land in an upload
// directory, so the first question about a new file does not pay for
// extraction and embedding.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/flowmate/index"
)

// DefaultDebounce is how long a path must stay quiet before it is indexed.
const DefaultDebounce = 2 * time.Second

// DefaultWorkers bounds concurrent index builds.
const DefaultWorkers = 2

var (
	ErrIndexerRequired = errors.New("indexer is required")
	ErrNotDirectory    = errors.New("watch path is not a directory")
)

// Indexer builds or loads the index for a document.
type Indexer interface {
	GetOrBuild(ctx context.Context, path string) (*index.Handle, error)
}

// Watcher indexes supported files created or written in one directory.
type Watcher struct {
	dir       string
	indexer   Indexer
	supported func(path string) bool
	debounce  time.Duration
	workers   int
	existing  bool
	onIndexed func(path string, err error)
	logger    *slog.Logger

	fsw    *fsnotify.Watcher
	pool   *ants.Pool
	wg     sync.WaitGroup
	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a changed file is indexed.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithWorkers bounds concurrent index builds.
func WithWorkers(n int) Option {
	return func(w *Watcher) {
		if n > 0 {
			w.workers = n
		}
	}
}

// WithExisting indexes supported files already in the directory when Run
// starts.
func WithExisting() Option {
	return func(w *Watcher) {
		w.existing = true
	}
}

// WithIndexHook is called after each build attempt.
func WithIndexHook(fn func(path string, err error)) Option {
	return func(w *Watcher) {
		w.onIndexed = fn
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// New starts watching dir. supported filters paths by extension; nil
// accepts every file. Events that arrive before Run are kept until Run
// drains them.
func New(dir string, indexer Indexer, supported func(string) bool, opts ...Option) (*Watcher, error) {
	if indexer == nil {
		return nil, ErrIndexerRequired
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, ErrNotDirectory
	}

	w := &Watcher{
		dir:       dir,
		indexer:   indexer,
		supported: supported,
		debounce:  DefaultDebounce,
		workers:   DefaultWorkers,
		timers:    make(map[string]*time.Timer),
		logger:    slog.Default().With("component", "watch"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.supported == nil {
		w.supported = func(string) bool { return true }
	}

	w.fsw, err = fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.fsw.Add(dir); err != nil {
		w.fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run indexes changed files until ctx is done, then waits for in-flight
// builds and closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	pool, err := ants.NewPool(w.workers)
	if err != nil {
		w.fsw.Close()
		return err
	}
	w.pool = pool
	defer func() {
		w.shutdown()
		w.fsw.Close()
		w.wg.Wait()
		pool.Release()
	}()

	if w.existing {
		w.scan(ctx)
	}
	w.logger.Info("watching for uploads", "dir", w.dir, "debounce", w.debounce)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	path := event.Name
	if !w.accepts(path) {
		return
	}
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		w.schedule(ctx, path)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.cancel(path)
	}
}

// accepts skips hidden and temporary files such as in-progress uploads.
func (w *Watcher) accepts(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") || strings.HasSuffix(name, ".tmp") {
		return false
	}
	return w.supported(path)
}

func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if t, ok := w.timers[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.enqueue(ctx, path)
	})
}

// enqueue submits a build unless the watcher is shutting down.
func (w *Watcher) enqueue(ctx context.Context, path string) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.wg.Add(1)
	w.mu.Unlock()

	err := w.pool.Submit(func() {
		defer w.wg.Done()
		w.build(ctx, path)
	})
	if err != nil {
		w.wg.Done()
		w.logger.Warn("could not schedule index build", "path", path, "err", err)
	}
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) shutdown() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) scan(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("could not list watch directory", "err", err)
		return
	}
	for _, e := range entries {
		path := filepath.Join(w.dir, e.Name())
		if e.Type().IsRegular() && w.accepts(path) {
			w.enqueue(ctx, path)
		}
	}
}

func (w *Watcher) build(ctx context.Context, path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	start := time.Now()
	_, err := w.indexer.GetOrBuild(ctx, path)
	if err != nil {
		w.logger.Warn("pre-indexing failed", "path", path, "err", err)
	} else {
		w.logger.Info("pre-indexed upload", "path", path, "elapsed", time.Since(start))
	}
	if w.onIndexed != nil {
		w.onIndexed(path, err)
	}
}
