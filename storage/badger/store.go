package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/flowmate/core"
	"github.com/poiesic/flowmate/storage"
)

// Store implements storage.VectorStore on an embedded BadgerDB.
// Search is brute force over the collection's entries, which is adequate for
// per-document collections of a few thousand chunks.
type Store struct {
	backend     *Backend
	ownsBackend bool
	logger      *slog.Logger
}

var _ storage.VectorStore = (*Store)(nil)

// NewStore creates a vector store on an open backend. The caller keeps
// ownership of the backend.
func NewStore(backend *Backend) (storage.VectorStore, error) {
	return newStore(backend, false), nil
}

// OpenStore opens a backend at path and returns a store that closes it on Close.
func OpenStore(path string, inMemory bool) (storage.VectorStore, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrStoreUnavailable, err)
	}
	return newStore(backend, true), nil
}

func newStore(backend *Backend, owns bool) *Store {
	return &Store{
		backend:     backend,
		ownsBackend: owns,
		logger:      slog.Default().With("component", "badger-store"),
	}
}

func (s *Store) checkOpen() error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return nil
}

func (s *Store) info(tx *badger.Txn, name string) (storage.CollectionInfo, error) {
	item, err := tx.Get(makeCollectionKey(name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return storage.CollectionInfo{}, fmt.Errorf("%w: %s", storage.ErrCollectionNotFound, name)
	}
	if err != nil {
		return storage.CollectionInfo{}, err
	}
	var info storage.CollectionInfo
	err = item.Value(func(val []byte) error {
		info, err = storage.UnmarshalCollectionInfo(val)
		return err
	})
	return info, err
}

// CollectionExists reports whether the collection header exists.
func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}
	if err := validateName(name); err != nil {
		return false, err
	}
	var exists bool
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		_, err := s.info(tx, name)
		if errors.Is(err, storage.ErrCollectionNotFound) {
			return nil
		}
		exists = err == nil
		return err
	}, false)
	return exists, err
}

// CreateCollection writes the collection header.
func (s *Store) CreateCollection(ctx context.Context, name string, dim int, metric storage.Metric) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := validateName(name); err != nil {
		return err
	}
	if dim <= 0 {
		return fmt.Errorf("%w: dimension must be positive, got %d", storage.ErrInvalidQuery, dim)
	}
	metric, err := storage.ParseMetric(string(metric))
	if err != nil {
		return err
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		if _, err := s.info(tx, name); err == nil {
			return fmt.Errorf("%w: collection %s", storage.ErrDuplicateKey, name)
		}
		s.logger.Debug("creating collection", "name", name, "dim", dim, "metric", metric)
		return tx.Set(makeCollectionKey(name), storage.MarshalCollectionInfo(storage.CollectionInfo{Dim: dim, Metric: metric}))
	}, true)
}

// DeleteCollection drops the header and every entry.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := validateName(name); err != nil {
		return err
	}
	deleted, err := s.backend.DeletePrefix(makeEntryPrefix(name))
	if err != nil {
		return err
	}
	s.logger.Debug("deleted collection", "name", name, "entries", deleted)
	return s.backend.WithTx(func(tx *badger.Txn) error {
		return tx.Delete(makeCollectionKey(name))
	}, true)
}

// Count iterates the collection's keys without loading values.
func (s *Store) Count(ctx context.Context, name string) (uint64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	if err := validateName(name); err != nil {
		return 0, err
	}
	var count uint64
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		if _, err := s.info(tx, name); err != nil {
			return err
		}
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeEntryPrefix(name)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// Upsert writes entries in one batch after checking their dimension.
func (s *Store) Upsert(ctx context.Context, name string, entries ...storage.Entry) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := validateName(name); err != nil {
		return err
	}
	var info storage.CollectionInfo
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		info, err = s.info(tx, name)
		return err
	}, false)
	if err != nil {
		return err
	}
	for i := range entries {
		if len(entries[i].Vector) != info.Dim {
			return fmt.Errorf("%w: entry %d has %d, collection %s has %d",
				storage.ErrDimensionMismatch, entries[i].ID, len(entries[i].Vector), name, info.Dim)
		}
	}

	return s.backend.WithBatch(func(wb *badger.WriteBatch) error {
		for i := range entries {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := wb.Set(makeEntryKey(name, entries[i].ID), storage.MarshalEntry(&entries[i])); err != nil {
				return err
			}
		}
		return nil
	})
}

// scan calls fn for each entry in ascending ID order until fn returns false.
func (s *Store) scan(ctx context.Context, name string, fn func(info storage.CollectionInfo, e *storage.Entry) bool) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := validateName(name); err != nil {
		return err
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		info, err := s.info(tx, name)
		if err != nil {
			return err
		}
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeEntryPrefix(name)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var entry *storage.Entry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalEntry(val)
				return err
			})
			if err != nil {
				return err
			}
			if !fn(info, entry) {
				return nil
			}
		}
		return nil
	}, false)
}

// SimilaritySearch scores every matching entry and returns the best k.
func (s *Store) SimilaritySearch(ctx context.Context, name string, vector []float32, k int, filter map[string]string) ([]core.SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}
	var results []core.SearchResult
	var dimErr error
	err := s.scan(ctx, name, func(info storage.CollectionInfo, e *storage.Entry) bool {
		if len(vector) != info.Dim {
			dimErr = fmt.Errorf("%w: query has %d, collection %s has %d", storage.ErrDimensionMismatch, len(vector), name, info.Dim)
			return false
		}
		if !matches(e.Metadata, filter) {
			return true
		}
		results = append(results, toResult(e, score(info.Metric, vector, e.Vector)))
		return true
	})
	if err != nil {
		return nil, err
	}
	if dimErr != nil {
		return nil, dimErr
	}

	// Sort by similarity descending, chunk order ascending on ties
	slices.SortFunc(results, func(a, b core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return a.Chunk.Order - b.Chunk.Order
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Scroll returns the first limit entries in chunk order.
func (s *Store) Scroll(ctx context.Context, name string, limit int) ([]core.SearchResult, error) {
	if limit <= 0 {
		return nil, nil
	}
	results := make([]core.SearchResult, 0, limit)
	err := s.scan(ctx, name, func(_ storage.CollectionInfo, e *storage.Entry) bool {
		results = append(results, toResult(e, 0))
		return len(results) < limit
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Close closes the backend if the store opened it.
func (s *Store) Close() error {
	if s.ownsBackend && !s.backend.IsClosed() {
		return s.backend.Close()
	}
	return nil
}

func toResult(e *storage.Entry, score float32) core.SearchResult {
	order := int(e.ID)
	if v, ok := e.Metadata[storage.MetaOrder]; ok {
		if parsed, err := strconv.Atoi(v); err == nil {
			order = parsed
		}
	}
	return core.SearchResult{
		Chunk: core.Chunk{
			Text:   e.Text,
			Order:  order,
			Source: core.Fingerprint(e.Metadata[storage.MetaSource]),
		},
		Score: score,
	}
}

func matches(metadata, filter map[string]string) bool {
	for k, v := range filter {
		if metadata[k] != v {
			return false
		}
	}
	return true
}

// score returns a similarity where larger is closer for every metric.
func score(metric storage.Metric, a, b []float32) float32 {
	switch metric {
	case storage.MetricDot:
		return dotProduct(a, b)
	case storage.MetricEuclid:
		return float32(1 / (1 + euclidean(a, b)))
	default:
		return cosine(a, b)
	}
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := min(len(a), len(b))
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	minLen := min(len(a), len(b))
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

func euclidean(a, b []float32) float64 {
	var sum float64
	minLen := min(len(a), len(b))
	for i := 0; i < minLen; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
