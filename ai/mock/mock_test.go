package mock

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/poiesic/flowmate/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	m := NewMockEmbedder()
	ctx := context.Background()

	v1, err := m.EmbedText(ctx, "같은 문장")
	require.NoError(t, err)
	v2, err := m.EmbedText(ctx, "같은 문장")
	require.NoError(t, err)
	v3, err := m.EmbedText(ctx, "다른 문장")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.NotEqual(t, v1, v3)
	assert.Len(t, v1, DefaultDimension)

	var norm float64
	for _, x := range v1 {
		norm += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-4)
}

func TestMockEmbedder_CountsConcurrently(t *testing.T) {
	m := NewMockEmbedder()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.EmbedTexts(context.Background(), []string{"a", "b"})
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, m.CallCount())
	assert.Equal(t, 40, m.TextCount())

	m.Reset()
	assert.Equal(t, 0, m.CallCount())
}

func TestMockGenerator(t *testing.T) {
	g := NewMockGenerator("응답")
	out, err := g.Generate(context.Background(), "프롬프트", ai.GenerateOptions{MaxTokens: 10})
	require.NoError(t, err)
	assert.Equal(t, "응답", out)
	assert.Equal(t, 1, g.CallCount())
	assert.Equal(t, "프롬프트", g.LastCall().Prompt)
	assert.Equal(t, 10, g.LastCall().Opts.MaxTokens)

	boom := errors.New("boom")
	g.GenerateFunc = func(context.Context, string, ai.GenerateOptions) (string, error) { return "", boom }
	_, err = g.Generate(context.Background(), "x", ai.GenerateOptions{})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, g.Calls(), 2)
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider()
	mp := p.(*MockProvider)

	assert.Same(t, mp.GetMockEmbedder(), p.Embedder())
	assert.Same(t, mp.GetMockGenerator(), p.Generator())
	assert.Same(t, mp.GetMockTranslator(), p.Translator())
	assert.Same(t, mp.GetMockVision(), p.Vision())
	assert.NoError(t, p.Close())
}
