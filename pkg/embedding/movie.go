package embedding

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cinelens/cinelens-engine/pkg/models"
)

// MovieBuilder maps one movie record to its TargetDim embedding: a semantic
// text sub-vector (TextDim) followed by the 18 genre flags as 1.0/0.0.
// When the primary text embedder fails, the builder falls back to the
// deterministic hash embedder so a missing model never aborts a sweep.
type MovieBuilder struct {
	primary  TextEmbedder
	fallback *HashEmbedder
	logger   *zap.Logger
}

// NewMovieBuilder creates a movie feature builder. primary may be nil, in
// which case every build uses the hash fallback.
func NewMovieBuilder(primary TextEmbedder, logger *zap.Logger) *MovieBuilder {
	return &MovieBuilder{
		primary:  primary,
		fallback: NewHashEmbedder(TextDim),
		logger:   logger.Named("movie-builder"),
	}
}

// Build returns the movie's embedding and whether the hash fallback served
// the text sub-vector. The result always has exactly TargetDim finite
// elements.
func (b *MovieBuilder) Build(ctx context.Context, movie *models.Movie) ([]float64, bool, error) {
	text := movie.EmbeddingText()

	textVec, usedFallback, err := b.embedText(ctx, movie.ID, text)
	if err != nil {
		return nil, false, err
	}
	if n := SanitizeFinite(textVec); n > 0 {
		b.logger.Warn("text embedding contained non-finite values",
			zap.Int("movie_id", movie.ID),
			zap.Int("replaced", n))
	}
	textVec = FitDimension(textVec, TextDim)

	genreVec := make([]float64, GenreCount)
	for i, active := range movie.Genres {
		if active {
			genreVec[i] = 1.0
		}
	}

	return Assemble(TargetDim, textVec, genreVec), usedFallback, nil
}

func (b *MovieBuilder) embedText(ctx context.Context, movieID int, text string) ([]float64, bool, error) {
	if b.primary != nil {
		vec, err := b.primary.EmbedText(ctx, text)
		if err == nil {
			return vec, false, nil
		}
		// Context cancellation is a caller decision, not a degraded-mode
		// condition; surface it instead of hashing.
		if ctx.Err() != nil {
			return nil, false, fmt.Errorf("embed text for movie %d: %w", movieID, err)
		}
		b.logger.Warn("text embedder unavailable, using hash fallback",
			zap.Int("movie_id", movieID),
			zap.String("embedder", b.primary.Name()),
			zap.Error(err))
	}
	vec, err := b.fallback.EmbedText(ctx, text)
	if err != nil {
		return nil, false, fmt.Errorf("hash fallback for movie %d: %w", movieID, err)
	}
	return vec, true, nil
}
