package chunking

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/flowmate/core"
)

// koreanText builds roughly n runes of sentence-structured Korean prose.
func koreanText(n int) string {
	const sentence = "회사의 출장 규정은 모든 직원에게 적용됩니다. "
	var sb strings.Builder
	for i := 0; utf8.RuneCountInString(sb.String()) < n; i++ {
		sb.WriteString(sentence)
		if i%5 == 4 {
			sb.WriteString("\n\n")
		}
	}
	return string([]rune(sb.String())[:n])
}

func TestSizeFor(t *testing.T) {
	c := New()

	tests := []struct {
		length      int
		wantSize    int
		wantOverlap int
	}{
		{0, 1000, 150},
		{1500, 1000, 150},
		{1999, 1000, 150},
		{2000, 1200, 180},
		{4999, 1200, 180},
		{5000, 1500, 225},
		{9999, 1500, 225},
		{10000, 2000, 300},
		{12000, 2000, 300},
		{1_000_000, 2000, 300},
	}
	for _, tt := range tests {
		size, overlap := c.SizeFor(tt.length)
		assert.Equal(t, tt.wantSize, size, "length %d", tt.length)
		assert.Equal(t, tt.wantOverlap, overlap, "length %d", tt.length)
	}
}

func TestSizeFor_MonotonicAcrossBreakpoints(t *testing.T) {
	c := New()

	prev := 0
	for length := 0; length <= 20000; length += 250 {
		size, overlap := c.SizeFor(length)
		assert.GreaterOrEqual(t, size, prev, "length %d", length)
		assert.Equal(t, int(float64(size)*0.15+0.5), overlap)
		prev = size
	}
}

func TestChunk_Empty(t *testing.T) {
	c := New()

	for _, text := range []string{"", "   ", "\n\n\t"} {
		_, err := c.Chunk(text, "fp")
		assert.ErrorIs(t, err, core.ErrEmptyDocument)
	}
}

func TestChunk_ShortTextSingleChunk(t *testing.T) {
	c := New()

	chunks, err := c.Chunk("연차 휴가는 입사 1년 후 15일이 부여됩니다.", "fp1")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Order)
	assert.Equal(t, core.Fingerprint("fp1"), chunks[0].Source)
}

func TestChunk_OrdersAreContiguousAndBounded(t *testing.T) {
	c := New()

	for _, n := range []int{1500, 3000, 7000, 12000} {
		text := koreanText(n)
		size, _ := c.SizeFor(n)

		chunks, err := c.Chunk(text, "fp")
		require.NoError(t, err)
		require.NotEmpty(t, chunks)
		for i, ch := range chunks {
			assert.Equal(t, i, ch.Order)
			assert.LessOrEqual(t, utf8.RuneCountInString(ch.Text), size, "n=%d chunk %d", n, i)
			assert.NotEmpty(t, strings.TrimSpace(ch.Text))
		}
		if n > size {
			assert.Greater(t, len(chunks), 1, "n=%d", n)
		}
	}
}

func TestChunk_HardTruncationWithoutSeparators(t *testing.T) {
	c := New()
	text := strings.Repeat("가", 2500)

	chunks, err := c.Chunk(text, "fp")
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for _, ch := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(ch.Text), 1200)
	}
}

func TestChunk_CustomPolicy(t *testing.T) {
	c := New(
		WithBreakpoints([]Breakpoint{{Below: 0, Size: 50}}),
		WithOverlapRatio(0),
		WithSeparators([]string{"\n", ""}),
	)

	chunks, err := c.Chunk(strings.Repeat("한 줄의 내용입니다\n", 20), "fp")
	require.NoError(t, err)
	assert.Greater(t, len(chunks), 3)
	for _, ch := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(ch.Text), 50)
	}
}
