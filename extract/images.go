package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/flowmate/ai"
)

// embeddedImage is an image found inside a document.
type embeddedImage struct {
	name string
	mime string
	data []byte
}

// imageAnalyzer describes embedded images through a vision model using a
// bounded worker pool.
type imageAnalyzer struct {
	vision     ai.VisionAnalyzer
	maxWorkers int
	logger     *slog.Logger
}

// mimeForImage returns the MIME type for raster formats the vision model
// accepts, or "" for anything else (vector metafiles, media).
func mimeForImage(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	case ".webp":
		return "image/webp"
	}
	return ""
}

// analyze returns one description per image, in input order. A failed image
// yields a failure marker rather than failing the whole document.
// With no vision model configured it returns nil.
func (a *imageAnalyzer) analyze(ctx context.Context, images []embeddedImage) ([]string, error) {
	if a == nil || a.vision == nil || len(images) == 0 {
		return nil, nil
	}

	size := min(a.maxWorkers, len(images))
	if size <= 0 {
		size = 1
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("create image pool: %w", err)
	}
	defer pool.Release()

	results := make([]string, len(images))
	var wg sync.WaitGroup
	for i, img := range images {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			desc, err := a.vision.AnalyzeImage(ctx, img.mime, img.data)
			if err != nil {
				a.logger.Warn("image analysis failed", "image", img.name, "err", err)
				results[i] = fmt.Sprintf("[이미지 분석 실패: %v]", err)
				return
			}
			results[i] = strings.TrimSpace(desc)
		})
		if err != nil {
			wg.Done()
			results[i] = fmt.Sprintf("[이미지 분석 실패: %v]", err)
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// imageBlock renders one analysis result under its 1-based number.
func imageBlock(n int, desc string) string {
	return fmt.Sprintf("[이미지 %d 분석 결과]\n%s", n, desc)
}
