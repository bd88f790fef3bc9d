package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntrySerialization(t *testing.T) {
	e := &Entry{
		ID:       7,
		Vector:   []float32{0.5, -1.25, 0},
		Text:     "세 번째 단락입니다.",
		Metadata: map[string]string{MetaSource: "abc", MetaOrder: "7"},
	}

	data := MarshalEntry(e)
	decoded, err := UnmarshalEntry(data)
	require.NoError(t, err)
	assert.Equal(t, e, decoded)

	// Encoding is deterministic regardless of map iteration order.
	assert.Equal(t, data, MarshalEntry(e))

	t.Run("truncated input fails", func(t *testing.T) {
		for _, cut := range []int{0, 1, len(data) / 2, len(data) - 1} {
			_, err := UnmarshalEntry(data[:cut])
			assert.Error(t, err, "cut at %d", cut)
		}
	})
}

func TestCollectionInfoSerialization(t *testing.T) {
	info := CollectionInfo{Dim: 1024, Metric: MetricCosine}
	decoded, err := UnmarshalCollectionInfo(MarshalCollectionInfo(info))
	require.NoError(t, err)
	assert.Equal(t, info, decoded)

	_, err = UnmarshalCollectionInfo(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("")
	require.NoError(t, err)
	assert.Equal(t, MetricCosine, m)

	m, err = ParseMetric("dot")
	require.NoError(t, err)
	assert.Equal(t, MetricDot, m)

	_, err = ParseMetric("manhattan")
	assert.ErrorIs(t, err, ErrInvalidQuery)
}
