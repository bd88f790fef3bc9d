package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/korean"
)

func TestTextExtractor(t *testing.T) {
	p := writeFile(t, "policy.txt", "\ufeff  연차는 15일입니다.\n")

	text, err := TextExtractor{}.Extract(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "# 텍스트 파일\n\n[본문 내용]\n\n연차는 15일입니다.", text)
}

func TestTextExtractor_EUCKR(t *testing.T) {
	encoded, err := korean.EUCKR.NewEncoder().Bytes([]byte("출장 규정"))
	require.NoError(t, err)
	p := filepath.Join(t.TempDir(), "legacy.txt")
	require.NoError(t, os.WriteFile(p, encoded, 0o644))

	text, err := TextExtractor{}.Extract(context.Background(), p)
	require.NoError(t, err)
	assert.Contains(t, text, "출장 규정")
}

func TestTextExtractor_CancelledContext(t *testing.T) {
	p := writeFile(t, "a.txt", "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := TextExtractor{}.Extract(ctx, p)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCSVExtractor(t *testing.T) {
	p := writeFile(t, "staff.csv", "이름,부서\n김철수,영업\n이영희,\"개발, 연구\"\n")

	text, err := CSVExtractor{}.Extract(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "# CSV 파일\n[표 형식 데이터]\n이름 | 부서\n--- | ---\n김철수 | 영업\n이영희 | 개발, 연구", text)
}

func TestCSVExtractor_Empty(t *testing.T) {
	p := writeFile(t, "empty.csv", "")

	text, err := CSVExtractor{}.Extract(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "# CSV 파일\n[표 형식 데이터]\n", text)
}
