package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder(TextDim)

	a, err := e.EmbedText(context.Background(), "Toy Story animation comedy")
	require.NoError(t, err)
	b, err := e.EmbedText(context.Background(), "Toy Story animation comedy")
	require.NoError(t, err)

	assert.Equal(t, a, b, "same text must produce byte-identical vectors")
}

func TestHashEmbedder_DimensionAndBounds(t *testing.T) {
	e := NewHashEmbedder(TextDim)

	vec, err := e.EmbedText(context.Background(), "a b c d e f g h i j k l m n o p")
	require.NoError(t, err)

	require.Len(t, vec, TextDim)
	for i, v := range vec {
		assert.True(t, v == 0.0 || v == 1.0, "element %d out of {0,1}: %v", i, v)
	}
}

func TestHashEmbedder_DistinctTextsDiffer(t *testing.T) {
	e := NewHashEmbedder(TextDim)

	a, err := e.EmbedText(context.Background(), "Alien horror sci-fi")
	require.NoError(t, err)
	b, err := e.EmbedText(context.Background(), "Clueless comedy romance")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestHashEmbedder_EmptyText(t *testing.T) {
	e := NewHashEmbedder(TextDim)

	vec, err := e.EmbedText(context.Background(), "")
	require.NoError(t, err)

	require.Len(t, vec, TextDim)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}
