package embedding

import (
	"context"
	"hash/fnv"
	"strings"
)

// HashEmbedder is a deterministic text embedder using feature hashing:
// each lowercased token is hashed to an index and its slot set to 1.0.
// It needs no model, never fails, and always produces the same vector for
// the same text, which makes it the fallback when the live collaborator is
// unavailable. It carries no semantic similarity beyond shared tokens.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates a hash embedder producing dim-wide vectors.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim < 1 {
		dim = TextDim
	}
	return &HashEmbedder{dim: dim}
}

// Name returns the identifier of this embedder implementation.
func (e *HashEmbedder) Name() string { return "hash" }

// EmbedText maps text to a fixed-width indicator vector. The error return
// exists only to satisfy TextEmbedder; it is always nil.
func (e *HashEmbedder) EmbedText(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, e.dim)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[int(h.Sum32())%e.dim] = 1.0
	}
	return vec, nil
}
