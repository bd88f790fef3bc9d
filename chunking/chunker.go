package chunking

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/poiesic/flowmate/core"
)

// Breakpoint selects Size for documents shorter than Below runes.
// A Below of zero matches any length.
type Breakpoint struct {
	Below int `yaml:"below"`
	Size  int `yaml:"size"`
}

const DefaultOverlapRatio = 0.15

// DefaultBreakpoints returns the size table: under 2000 runes 1000, under
// 5000 1200, under 10000 1500, otherwise 2000.
func DefaultBreakpoints() []Breakpoint {
	return []Breakpoint{
		{Below: 2000, Size: 1000},
		{Below: 5000, Size: 1200},
		{Below: 10000, Size: 1500},
		{Below: 0, Size: 2000},
	}
}

// DefaultSeparators are tried in order; the empty separator truncates.
func DefaultSeparators() []string {
	return []string{"\n\n", "\n", ".", "!", "?", ""}
}

// Chunker is the adaptive chunker.
type Chunker struct {
	breakpoints  []Breakpoint
	overlapRatio float64
	separators   []string
	logger       *slog.Logger
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithBreakpoints replaces the size table. Entries must be ordered by Below
// with the catch-all (Below == 0) last.
func WithBreakpoints(bps []Breakpoint) Option {
	return func(c *Chunker) {
		if len(bps) > 0 {
			c.breakpoints = bps
		}
	}
}

// WithOverlapRatio sets overlap as a fraction of chunk size.
func WithOverlapRatio(ratio float64) Option {
	return func(c *Chunker) {
		if ratio >= 0 && ratio < 1 {
			c.overlapRatio = ratio
		}
	}
}

// WithSeparators replaces the separator preference list.
func WithSeparators(seps []string) Option {
	return func(c *Chunker) {
		if len(seps) > 0 {
			c.separators = seps
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chunker) {
		c.logger = logger
	}
}

// New creates a chunker with the default policy.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		breakpoints:  DefaultBreakpoints(),
		overlapRatio: DefaultOverlapRatio,
		separators:   DefaultSeparators(),
		logger:       slog.Default().With("component", "chunking"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SizeFor returns the chunk size and overlap for a text of length runes.
func (c *Chunker) SizeFor(length int) (size, overlap int) {
	size = c.breakpoints[len(c.breakpoints)-1].Size
	for _, bp := range c.breakpoints {
		if bp.Below == 0 || length < bp.Below {
			size = bp.Size
			break
		}
	}
	return size, int(math.Round(float64(size) * c.overlapRatio))
}

// Chunk splits text into chunks tagged with source.
// Whitespace-only input fails with core.ErrEmptyDocument.
func (c *Chunker) Chunk(text string, source core.Fingerprint) ([]core.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, core.ErrEmptyDocument
	}

	length := utf8.RuneCountInString(text)
	size, overlap := c.SizeFor(length)

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(size),
		textsplitter.WithChunkOverlap(overlap),
		textsplitter.WithSeparators(c.separators),
		textsplitter.WithLenFunc(utf8.RuneCountInString),
		textsplitter.WithKeepSeparator(true),
	)
	pieces, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split text: %w", err)
	}

	chunks := make([]core.Chunk, 0, len(pieces))
	for _, p := range pieces {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		chunks = append(chunks, core.Chunk{Text: p, Order: len(chunks), Source: source})
	}
	if len(chunks) == 0 {
		return nil, core.ErrEmptyDocument
	}
	if err := core.ValidateChunks(chunks); err != nil {
		return nil, err
	}

	c.logger.Debug("chunked document",
		"source", source,
		"runes", length,
		"chunk_size", size,
		"overlap", overlap,
		"chunks", len(chunks))
	return chunks, nil
}
