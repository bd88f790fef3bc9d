package qdrant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/flowmate/core"
	"github.com/poiesic/flowmate/storage"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Payload keys. Entry metadata is stored alongside as top-level string fields.
const (
	payloadText  = "text"
	payloadOrder = "order"
)

// Config holds connection settings for a Qdrant server.
type Config struct {
	Host   string
	Port   int // gRPC port, 6334 by default
	APIKey string
	UseTLS bool
}

// pointsClient is the subset of *qdrant.Client the store uses.
type pointsClient interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	DeleteCollection(ctx context.Context, collectionName string) error
	Count(ctx context.Context, request *qdrant.CountPoints) (uint64, error)
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Scroll(ctx context.Context, request *qdrant.ScrollPoints) ([]*qdrant.RetrievedPoint, error)
	Close() error
}

// Store implements storage.VectorStore on a Qdrant server.
type Store struct {
	client pointsClient
	logger *slog.Logger
}

var _ storage.VectorStore = (*Store)(nil)

// NewStore connects to Qdrant. The gRPC client connects lazily, so an
// unreachable server surfaces on first use as storage.ErrStoreUnavailable.
func NewStore(cfg Config) (storage.VectorStore, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrStoreUnavailable, err)
	}
	return newStore(client), nil
}

func newStore(client pointsClient) *Store {
	return &Store{
		client: client,
		logger: slog.Default().With("component", "qdrant"),
	}
}

// translate maps gRPC status codes onto storage errors.
func translate(err error, name string) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: %s: %w", storage.ErrCollectionNotFound, name, err)
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s: %w", storage.ErrDuplicateKey, name, err)
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s: %w", storage.ErrInvalidQuery, name, err)
	case codes.Unavailable, codes.DeadlineExceeded, codes.Unauthenticated:
		return fmt.Errorf("%w: %w", storage.ErrStoreUnavailable, err)
	}
	return err
}

func distance(metric storage.Metric) (qdrant.Distance, error) {
	metric, err := storage.ParseMetric(string(metric))
	if err != nil {
		return qdrant.Distance_Cosine, err
	}
	switch metric {
	case storage.MetricDot:
		return qdrant.Distance_Dot, nil
	case storage.MetricEuclid:
		return qdrant.Distance_Euclid, nil
	}
	return qdrant.Distance_Cosine, nil
}

// CollectionExists asks the server whether the collection exists.
func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	exists, err := s.client.CollectionExists(ctx, name)
	return exists, translate(err, name)
}

// CreateCollection creates a single unnamed-vector collection.
func (s *Store) CreateCollection(ctx context.Context, name string, dim int, metric storage.Metric) error {
	if dim <= 0 {
		return fmt.Errorf("%w: dimension must be positive, got %d", storage.ErrInvalidQuery, dim)
	}
	dist, err := distance(metric)
	if err != nil {
		return err
	}
	s.logger.Debug("creating collection", "name", name, "dim", dim, "distance", dist.String())
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dim),
			Distance: dist,
		}),
	})
	return translate(err, name)
}

// DeleteCollection drops the collection. Missing collections are ignored.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	err := s.client.DeleteCollection(ctx, name)
	if status.Code(err) == codes.NotFound {
		return nil
	}
	return translate(err, name)
}

// Count returns the exact number of points.
func (s *Store) Count(ctx context.Context, name string) (uint64, error) {
	exact := true
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: name,
		Exact:          &exact,
	})
	return count, translate(err, name)
}

// Upsert writes points and waits for them to be indexed.
func (s *Store) Upsert(ctx context.Context, name string, entries ...storage.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	points := make([]*qdrant.PointStruct, len(entries))
	for i := range entries {
		points[i] = toPoint(&entries[i])
	}
	wait := true
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Wait:           &wait,
		Points:         points,
	})
	return translate(err, name)
}

// SimilaritySearch runs a nearest-neighbour query with an optional keyword filter.
func (s *Store) SimilaritySearch(ctx context.Context, name string, vector []float32, k int, filter map[string]string) ([]core.SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}
	limit := uint64(k)
	hits, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		Filter:         buildFilter(filter),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, translate(err, name)
	}

	results := make([]core.SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, toResult(hit.GetId(), hit.GetPayload(), hit.GetScore()))
	}
	return results, nil
}

// Scroll pages through points in ID order.
func (s *Store) Scroll(ctx context.Context, name string, limit int) ([]core.SearchResult, error) {
	if limit <= 0 {
		return nil, nil
	}
	l := uint32(limit)
	points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: name,
		Limit:          &l,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, translate(err, name)
	}

	results := make([]core.SearchResult, 0, len(points))
	for _, p := range points {
		results = append(results, toResult(p.GetId(), p.GetPayload(), 0))
	}
	return results, nil
}

// Close closes the gRPC connection.
func (s *Store) Close() error {
	return s.client.Close()
}

func toPoint(e *storage.Entry) *qdrant.PointStruct {
	payload := make(map[string]any, len(e.Metadata)+2)
	for k, v := range e.Metadata {
		payload[k] = v
	}
	payload[payloadText] = e.Text
	payload[payloadOrder] = int64(e.ID)
	return &qdrant.PointStruct{
		Id:      qdrant.NewIDNum(e.ID),
		Vectors: qdrant.NewVectors(e.Vector...),
		Payload: qdrant.NewValueMap(payload),
	}
}

func toResult(id *qdrant.PointId, payload map[string]*qdrant.Value, score float32) core.SearchResult {
	order := int(id.GetNum())
	if v, ok := payload[payloadOrder]; ok {
		order = int(v.GetIntegerValue())
	}
	return core.SearchResult{
		Chunk: core.Chunk{
			Text:   payload[payloadText].GetStringValue(),
			Order:  order,
			Source: core.Fingerprint(payload[storage.MetaSource].GetStringValue()),
		},
		Score: score,
	}
}

func buildFilter(filter map[string]string) *qdrant.Filter {
	if len(filter) == 0 {
		return nil
	}
	conditions := make([]*qdrant.Condition, 0, len(filter))
	for k, v := range filter {
		conditions = append(conditions, qdrant.NewMatch(k, v))
	}
	return &qdrant.Filter{Must: conditions}
}
