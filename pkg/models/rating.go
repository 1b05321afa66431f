package models

import "time"

// Rating is a single user-movie rating on the 1-5 scale.
type Rating struct {
	UserID  int
	MovieID int
	Rating  int
	RatedAt time.Time
}

// UserRatingStats holds a user's aggregated rating behavior, computed per
// batch run from the ratings table. Avg and Stddev are nil when the
// underlying aggregate is undefined (no ratings, or fewer than two ratings
// for the standard deviation); per-genre preferences are nil when the user
// has rated no movie carrying that genre. Neutral defaulting happens in the
// feature builder, not here.
type UserRatingStats struct {
	NumRatings int
	AvgRating  *float64
	Stddev     *float64
	GenrePrefs [GenreCount]*float64
}
