package embeddings

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func TestHashEmbedder_UnitVectors(t *testing.T) {
	h := NewHashEmbedder(64)
	assert.Equal(t, 64, h.Dimension())

	vecs, err := h.EmbedDocuments(context.Background(), []string{
		"Practice pausing instead of saying um",
		"the and of",
	})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	for _, v := range vecs {
		assert.Len(t, v, 64)
		assert.InDelta(t, 1.0, norm(v), 1e-5)
	}
}

func TestHashEmbedder_Deterministic(t *testing.T) {
	h := NewHashEmbedder(0)
	assert.Equal(t, DefaultHashDimension, h.Dimension())

	a, err := h.EmbedQuery(context.Background(), "reduce filler words")
	require.NoError(t, err)
	b, err := h.EmbedQuery(context.Background(), "reduce filler words")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestHashEmbedder_SimilarityOrdering(t *testing.T) {
	h := NewHashEmbedder(256)
	ctx := context.Background()

	q, err := h.EmbedQuery(ctx, "exercises to reduce filler words")
	require.NoError(t, err)
	docs, err := h.EmbedDocuments(ctx, []string{
		"Filler word awareness drill: record yourself and reduce filler words",
		"Maintain eye contact by looking at the camera lens",
	})
	require.NoError(t, err)

	assert.Greater(t, cosine(q, docs[0]), cosine(q, docs[1]))
	assert.GreaterOrEqual(t, cosine(q, docs[1]), 0.0)
}

func TestHashEmbedder_EmptyInput(t *testing.T) {
	h := NewHashEmbedder(32)

	_, err := h.EmbedDocuments(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = h.EmbedQuery(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestHashEmbedder_Cancelled(t *testing.T) {
	h := NewHashEmbedder(32)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.EmbedQuery(ctx, "anything")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTerms(t *testing.T) {
	assert.Equal(t, []string{"reduce", "filler", "word"}, terms("Reduce the filler words!"))
	assert.Equal(t, []string{"class"}, terms("class"))
	assert.Empty(t, terms("to the of"))
}
