package storage

import (
	"context"
	"fmt"

	"github.com/poiesic/flowmate/core"
)

// Metric is the distance function a collection is searched with.
type Metric string

const (
	MetricCosine Metric = "cosine"
	MetricDot    Metric = "dot"
	MetricEuclid Metric = "euclid"
)

// ParseMetric validates a metric name. Empty means cosine.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case "", MetricCosine:
		return MetricCosine, nil
	case MetricDot, MetricEuclid:
		return Metric(s), nil
	}
	return "", fmt.Errorf("%w: unknown metric %q", ErrInvalidQuery, s)
}

// Entry is one vector index record. Entries are written once per build and
// never updated; stale collections are dropped and rebuilt wholesale.
type Entry struct {
	ID       uint64 // chunk order
	Vector   []float32
	Text     string
	Metadata map[string]string
}

// Well-known metadata keys written by the index builder.
const (
	MetaSource = "source"
	MetaOrder  = "order"
)

// VectorStore is the provider interface over a vector database.
// Adapters convert provider records to core.SearchResult so provider quirks
// stay behind this boundary.
type VectorStore interface {
	// CollectionExists reports whether a collection with this name exists.
	CollectionExists(ctx context.Context, name string) (bool, error)

	// CreateCollection creates an empty collection for vectors of length dim.
	// Returns ErrDuplicateKey if it already exists.
	CreateCollection(ctx context.Context, name string, dim int, metric Metric) error

	// DeleteCollection drops the collection and all its entries.
	// Deleting a missing collection is not an error.
	DeleteCollection(ctx context.Context, name string) error

	// Count returns the number of entries in the collection.
	// Returns ErrCollectionNotFound for a missing collection.
	Count(ctx context.Context, name string) (uint64, error)

	// Upsert writes entries keyed by Entry.ID.
	// Returns ErrDimensionMismatch when a vector does not match the collection.
	Upsert(ctx context.Context, name string, entries ...Entry) error

	// SimilaritySearch returns up to k entries closest to vector, best first.
	// Ties are broken by ascending chunk order. filter restricts results to
	// entries whose metadata matches every key/value pair.
	SimilaritySearch(ctx context.Context, name string, vector []float32, k int, filter map[string]string) ([]core.SearchResult, error)

	// Scroll returns up to limit entries in ascending ID order without ranking.
	Scroll(ctx context.Context, name string, limit int) ([]core.SearchResult, error)

	// Close releases the connection or database handle.
	Close() error
}
