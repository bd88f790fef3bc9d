package memory

import (
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = time.Hour

// Store holds one Buffer per session and expires idle sessions.
type Store struct {
	mu       sync.Mutex
	cache    *cache.Cache
	maxTurns int
	ttl      time.Duration
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithMaxTurns sets the capacity of new session buffers.
func WithMaxTurns(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxTurns = n
		}
	}
}

// WithSessionTTL sets the idle expiry. Zero or negative keeps sessions
// until dropped.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates an empty session store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		maxTurns: DefaultMaxTurns,
		ttl:      DefaultSessionTTL,
		logger:   slog.Default().With("component", "memory"),
	}
	for _, opt := range opts {
		opt(s)
	}

	expiry, cleanup := s.ttl, s.ttl/2
	if s.ttl <= 0 {
		expiry, cleanup = cache.NoExpiration, 0
	}
	s.cache = cache.New(expiry, cleanup)
	s.cache.OnEvicted(func(id string, _ any) {
		s.logger.Debug("session evicted", "session", id)
	})
	return s
}

// Session returns the buffer for id, creating it if needed. Access resets
// the idle timer.
func (s *Store) Session(id string) *Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if x, found := s.cache.Get(id); found {
		buf := x.(*Buffer)
		s.cache.Set(id, buf, cache.DefaultExpiration)
		return buf
	}
	buf := NewBuffer(s.maxTurns)
	s.cache.Set(id, buf, cache.DefaultExpiration)
	return buf
}

// Drop forgets a session.
func (s *Store) Drop(id string) {
	s.cache.Delete(id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.cache.ItemCount()
}
