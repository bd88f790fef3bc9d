package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/flowmate/core"
)

// Searcher is the query surface of an index handle.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]core.SearchResult, error)
	Browse(ctx context.Context, k int) ([]core.SearchResult, error)
}

var (
	errNoIndex   = errors.New("no index available")
	errNoContent = errors.New("no content retrieved")
)

// Defaults for Engine.
const (
	DefaultMinContextChars  = 500
	DefaultFillContextChars = 1000
	DefaultBrowseK          = 5
	DefaultExpansionWords   = 3
	DefaultDedupPrefix      = 100
)

const chunkSeparator = "\n\n"

// Result is the context assembled for one query.
type Result struct {
	Chunks   []core.SearchResult
	Text     string
	Initial  int
	Expanded bool
	Filled   bool
	Trimmed  bool
	Tokens   int
}

// Engine is the retrieval engine.
type Engine struct {
	minContextChars  int
	fillContextChars int
	browseK          int
	maxContextTokens int
	expansionWords   int
	dedupPrefix      int
	logger           *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMinContextChars sets the length below which the context is topped up.
func WithMinContextChars(n int) Option {
	return func(e *Engine) {
		e.minContextChars = n
	}
}

// WithFillContextChars sets the length the top-up stops at.
func WithFillContextChars(n int) Option {
	return func(e *Engine) {
		e.fillContextChars = n
	}
}

// WithBrowseK sets how many unranked chunks the first top-up round reads.
// Later rounds double it. Non-positive values keep the default.
func WithBrowseK(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.browseK = k
		}
	}
}

// WithMaxContextTokens trims the context to n tokens. Zero disables trimming.
func WithMaxContextTokens(n int) Option {
	return func(e *Engine) {
		e.maxContextTokens = n
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an engine with default thresholds.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		minContextChars:  DefaultMinContextChars,
		fillContextChars: DefaultFillContextChars,
		browseK:          DefaultBrowseK,
		expansionWords:   DefaultExpansionWords,
		dedupPrefix:      DefaultDedupPrefix,
		logger:           slog.Default().With("component", "retrieval"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// dedupKey hashes the leading runes of a chunk.
func (e *Engine) dedupKey(text string) string {
	if utf8.RuneCountInString(text) > e.dedupPrefix {
		text = string([]rune(text)[:e.dedupPrefix])
	}
	return core.HashString(text)
}

// Retrieve assembles context for query under plan. Errors wrap
// core.ErrRetrievalFailure; callers fall back to ReadFallback.
func (e *Engine) Retrieve(ctx context.Context, searcher Searcher, query string, plan Plan) (*Result, error) {
	if searcher == nil {
		return nil, fmt.Errorf("%w: %w", core.ErrRetrievalFailure, errNoIndex)
	}
	k := max(plan.K, 1)
	logger := e.logger.With("label", plan.Label, "k", k)

	initial, err := searcher.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", core.ErrRetrievalFailure, err)
	}

	res := &Result{Initial: len(initial)}
	seen := make(map[string]bool, len(initial))
	add := func(r core.SearchResult) bool {
		key := e.dedupKey(r.Chunk.Text)
		if seen[key] {
			return false
		}
		seen[key] = true
		res.Chunks = append(res.Chunks, r)
		return true
	}
	for _, r := range initial {
		seen[e.dedupKey(r.Chunk.Text)] = true
		res.Chunks = append(res.Chunks, r)
	}

	if len(initial) < k/2 {
		if short := leadingWords(query, e.expansionWords); short != "" {
			extra, err := searcher.Search(ctx, short, k)
			if err != nil {
				logger.Warn("expansion search failed", "err", err)
			} else {
				for _, r := range extra {
					if len(res.Chunks) >= k {
						break
					}
					if add(r) {
						res.Expanded = true
					}
				}
			}
		}
	}

	text := joinChunks(res.Chunks)
	if utf8.RuneCountInString(text) < e.minContextChars {
		filled := func() bool { return utf8.RuneCountInString(text) > e.fillContextChars }
		// Browse reads in document order, so each round doubles the limit
		// until the text is long enough or the collection is exhausted.
		for limit := max(e.browseK, 1); !filled(); limit *= 2 {
			browsed, err := searcher.Browse(ctx, limit)
			if err != nil {
				logger.Warn("context fill failed", "limit", limit, "err", err)
				break
			}
			for _, r := range browsed {
				if filled() {
					break
				}
				if add(r) {
					res.Filled = true
					if text != "" {
						text += chunkSeparator
					}
					text += r.Chunk.Text
				}
			}
			if len(browsed) < limit {
				break
			}
		}
	}

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrRetrievalFailure, errNoContent)
	}

	if e.maxContextTokens > 0 {
		text, res.Trimmed, err = truncateTokens(text, e.maxContextTokens)
		if err != nil {
			return nil, fmt.Errorf("%w: tokenize: %w", core.ErrRetrievalFailure, err)
		}
	}
	res.Text = text
	if res.Tokens, err = CountTokens(text); err != nil {
		logger.Debug("token count unavailable", "err", err)
	}

	logger.Debug("retrieved context",
		"initial", res.Initial,
		"chunks", len(res.Chunks),
		"expanded", res.Expanded,
		"filled", res.Filled,
		"trimmed", res.Trimmed,
		"tokens", res.Tokens)
	return res, nil
}

func leadingWords(query string, n int) string {
	words := strings.Fields(query)
	return strings.Join(words[:min(n, len(words))], " ")
}

func joinChunks(results []core.SearchResult) string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Chunk.Text
	}
	return strings.Join(texts, chunkSeparator)
}
