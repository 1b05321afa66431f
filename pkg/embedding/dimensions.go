// Package embedding builds fixed-width feature vectors for MovieLens
// movies and users. Both builders share a fixed-dimension assembly rule:
// heterogeneous sub-vectors are concatenated, then zero-padded or
// tail-truncated to land exactly on TargetDim.
package embedding

import "github.com/cinelens/cinelens-engine/pkg/models"

// Capacity constants of the feature layout. They move together: the movie
// layout is TextDim+GenreCount and the user layout is
// 2+OccupationSlots+3+GenreCount, both of which must fit within TargetDim.
const (
	// TargetDim is the width of every emitted embedding vector.
	TargetDim = 128

	// TextDim is the width reserved for the semantic text sub-vector in
	// movie embeddings. The collaborator's native dimension is fit to it.
	TextDim = 110

	// GenreCount mirrors the canonical genre flag count.
	GenreCount = models.GenreCount

	// OccupationSlots is the capacity of the occupation one-hot block in
	// user embeddings. Occupations beyond this many distinct values get no
	// indicator.
	OccupationSlots = 20
)
