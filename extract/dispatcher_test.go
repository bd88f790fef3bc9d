package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/flowmate/ai/mock"
	"github.com/poiesic/flowmate/core"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestDispatcher_UnsupportedExtension(t *testing.T) {
	d := NewDispatcher(WithExtractor(TextExtractor{}, "txt"))

	_, err := d.Extract(context.Background(), "/tmp/archive.zip")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnsupportedFormat)
	assert.False(t, d.Supported("archive.zip"))
}

func TestDispatcher_ExtensionIsCaseInsensitive(t *testing.T) {
	d := NewDispatcher(WithExtractor(TextExtractor{}, ".TXT"))
	p := writeFile(t, "NOTES.Txt", "휴가 규정")

	assert.True(t, d.Supported(p))
	text, err := d.Extract(context.Background(), p)
	require.NoError(t, err)
	assert.Contains(t, text, "휴가 규정")
}

func TestDispatcher_WrapsExtractorErrors(t *testing.T) {
	boom := errors.New("boom")
	d := NewDispatcher(WithExtractor(ExtractorFunc(func(context.Context, string) (string, error) {
		return "", boom
	}), "pdf"))

	_, err := d.Extract(context.Background(), "broken.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrExtractionFailure)
	assert.ErrorIs(t, err, boom)
}

func TestDispatcher_MissingFile(t *testing.T) {
	d := NewDispatcher(WithExtractor(TextExtractor{}, "txt"))

	_, err := d.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, core.ErrExtractionFailure)
}

func TestDefaultDispatcher_RegistersAllFormats(t *testing.T) {
	d := NewDefaultDispatcher(DefaultConfig(), mock.NewMockVision())

	for _, ext := range []string{"txt", "pdf", "doc", "docx", "ppt", "pptx", "xls", "xlsx", "csv", "jpg", "jpeg", "png", "wav", "mp3", "mp4"} {
		assert.True(t, d.Supported("file."+ext), ext)
	}
	assert.IsNonDecreasing(t, d.Extensions())
}

func TestDefaultDispatcher_OverrideBuiltin(t *testing.T) {
	d := NewDefaultDispatcher(DefaultConfig(), nil, WithExtractor(ExtractorFunc(func(context.Context, string) (string, error) {
		return "custom", nil
	}), "pdf"))

	text, err := d.Extract(context.Background(), "any.pdf")
	require.NoError(t, err)
	assert.Equal(t, "custom", text)
}

func TestImageExtractor_RequiresVision(t *testing.T) {
	p := writeFile(t, "chart.png", "\x89PNG")
	d := NewDefaultDispatcher(DefaultConfig(), nil)

	_, err := d.Extract(context.Background(), p)
	assert.ErrorIs(t, err, core.ErrExtractionFailure)
}

func TestImageExtractor_DescribesImage(t *testing.T) {
	p := writeFile(t, "chart.png", "\x89PNG")
	d := NewDefaultDispatcher(DefaultConfig(), mock.NewMockVision())

	text, err := d.Extract(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "# 이미지 파일\n\n[이미지 1 분석 결과]\n이미지 설명 (image/png, 4 바이트)", text)
}
