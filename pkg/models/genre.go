package models

// GenreCount is the number of genre flags carried by every movie record.
// The MovieLens "unknown" flag is excluded at load time.
const GenreCount = 18

// GenreColumns lists the movie genre columns in their canonical order.
// This order is load-bearing: genre flag slices, genre preference vectors
// and the genre block of movie embeddings all use it.
var GenreColumns = [GenreCount]string{
	"action", "adventure", "animation", "children", "comedy", "crime",
	"documentary", "drama", "fantasy", "film_noir", "horror", "musical",
	"mystery", "romance", "sci_fi", "thriller", "war", "western",
}

// GenreNames holds the human-readable genre names used for text
// representations, in the same canonical order as GenreColumns.
var GenreNames = [GenreCount]string{
	"action", "adventure", "animation", "children", "comedy", "crime",
	"documentary", "drama", "fantasy", "film noir", "horror", "musical",
	"mystery", "romance", "sci-fi", "thriller", "war", "western",
}
