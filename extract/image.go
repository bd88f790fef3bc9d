package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var errNoVision = errors.New("no vision model configured")

// ImageExtractor describes a standalone image file through the vision model.
type ImageExtractor struct {
	images *imageAnalyzer
}

// Extract returns the vision model's description of the image.
func (e *ImageExtractor) Extract(ctx context.Context, path string) (string, error) {
	if e.images == nil || e.images.vision == nil {
		return "", errNoVision
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	desc, err := e.images.vision.AnalyzeImage(ctx, mimeForImage(filepath.Base(path)), data)
	if err != nil {
		return "", err
	}
	return "# 이미지 파일\n\n" + imageBlock(1, strings.TrimSpace(desc)), nil
}
