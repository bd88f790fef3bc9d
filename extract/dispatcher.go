package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/flowmate/ai"
	"github.com/poiesic/flowmate/core"
)

// Extractor converts one file into normalized text.
// Implementations may call out to media analyzers and external commands, so
// Extract can be slow; it must honor ctx cancellation.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, path string) (string, error)

// Extract calls f.
func (f ExtractorFunc) Extract(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

// Dispatcher routes files to extractors by lower-cased extension.
type Dispatcher struct {
	extractors map[string]Extractor
	timeout    time.Duration
	logger     *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithExtractor registers e for each extension (with or without the leading dot).
// Later registrations replace earlier ones.
func WithExtractor(e Extractor, exts ...string) Option {
	return func(d *Dispatcher) {
		for _, ext := range exts {
			d.extractors[normalizeExt(ext)] = e
		}
	}
}

// WithTimeout bounds every Extract call. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a dispatcher with only the extractors given in opts.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		extractors: make(map[string]Extractor),
		logger:     slog.Default().With("component", "extract"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewDefaultDispatcher registers the built-in extractors for every supported
// format. vision may be nil, in which case embedded images are skipped.
// Extra opts are applied last and can override built-ins.
func NewDefaultDispatcher(cfg Config, vision ai.VisionAnalyzer, opts ...Option) *Dispatcher {
	cfg = cfg.withDefaults()
	images := &imageAnalyzer{vision: vision, maxWorkers: cfg.MaxImageWorkers, logger: slog.Default().With("component", "extract")}

	docx := &DocxExtractor{images: images}
	pptx := &PptxExtractor{images: images}
	xlsx := &XlsxExtractor{images: images}
	transcribe := &CommandExtractor{Args: cfg.TranscribeCommand, Heading: "# 음성 전사"}

	builtins := []Option{
		WithTimeout(cfg.Timeout),
		WithExtractor(TextExtractor{}, "txt", "md"),
		WithExtractor(CSVExtractor{}, "csv"),
		WithExtractor(docx, "docx"),
		WithExtractor(pptx, "pptx"),
		WithExtractor(xlsx, "xlsx"),
		WithExtractor(&ConvertingExtractor{Args: cfg.ConvertCommand, Format: "docx", Next: docx}, "doc"),
		WithExtractor(&ConvertingExtractor{Args: cfg.ConvertCommand, Format: "pptx", Next: pptx}, "ppt"),
		WithExtractor(&ConvertingExtractor{Args: cfg.ConvertCommand, Format: "xlsx", Next: xlsx}, "xls"),
		WithExtractor(&ImageExtractor{images: images}, "jpg", "jpeg", "png"),
		WithExtractor(&CommandExtractor{Args: cfg.PDFCommand, SplitPages: true}, "pdf"),
		WithExtractor(transcribe, "wav", "mp3"),
		WithExtractor(&MediaExtractor{AudioArgs: cfg.AudioExtractCommand, Transcriber: transcribe}, "mp4"),
	}
	return NewDispatcher(append(builtins, opts...)...)
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Supported reports whether a file's extension has a registered extractor.
func (d *Dispatcher) Supported(path string) bool {
	_, ok := d.extractors[normalizeExt(filepath.Ext(path))]
	return ok
}

// Extensions lists registered extensions in sorted order.
func (d *Dispatcher) Extensions() []string {
	exts := make([]string, 0, len(d.extractors))
	for ext := range d.extractors {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// Extract selects the extractor for path's extension and runs it.
// Unknown extensions fail with core.ErrUnsupportedFormat, extractor errors
// are wrapped in core.ErrExtractionFailure.
func (d *Dispatcher) Extract(ctx context.Context, path string) (string, error) {
	ext := normalizeExt(filepath.Ext(path))
	extractor, ok := d.extractors[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q (%s)", core.ErrUnsupportedFormat, ext, filepath.Base(path))
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := extractor.Extract(ctx, path)
	if err != nil {
		d.logger.Warn("extraction failed", "path", path, "ext", ext, "err", err)
		return "", fmt.Errorf("%w: %s: %w", core.ErrExtractionFailure, filepath.Base(path), err)
	}
	d.logger.Debug("extracted", "path", path, "ext", ext, "chars", len([]rune(text)), "took", time.Since(start))
	return text, nil
}
