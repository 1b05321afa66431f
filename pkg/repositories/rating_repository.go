package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/cinelens/cinelens-engine/pkg/database"
	"github.com/cinelens/cinelens-engine/pkg/models"
)

// RatingRepository defines data access for rating records and the
// per-user aggregates the user feature builder consumes.
type RatingRepository interface {
	ReplaceAll(ctx context.Context, ratings []*models.Rating) (int64, error)
	StatsByUser(ctx context.Context) (map[int]*models.UserRatingStats, error)
	Count(ctx context.Context) (int, error)
	OrphanCounts(ctx context.Context) (orphanedUsers, orphanedMovies int, err error)
	ListAll(ctx context.Context) ([]*models.Rating, error)
}

// ratingRepository implements RatingRepository using PostgreSQL.
type ratingRepository struct {
	db *database.DB
}

// NewRatingRepository creates a new rating repository.
func NewRatingRepository(db *database.DB) RatingRepository {
	return &ratingRepository{db: db}
}

// ReplaceAll truncates the ratings table and bulk-loads the given records.
func (r *ratingRepository) ReplaceAll(ctx context.Context, ratings []*models.Rating) (int64, error) {
	if _, err := r.db.Exec(ctx, "TRUNCATE ratings"); err != nil {
		return 0, fmt.Errorf("failed to truncate ratings: %w", err)
	}

	copied, err := r.db.CopyFrom(ctx,
		pgx.Identifier{"ratings"},
		[]string{"user_id", "movie_id", "rating", "rated_at"},
		pgx.CopyFromSlice(len(ratings), func(i int) ([]any, error) {
			rt := ratings[i]
			return []any{rt.UserID, rt.MovieID, rt.Rating, rt.RatedAt}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to copy ratings: %w", err)
	}
	return copied, nil
}

// StatsByUser computes every user's rating aggregates in two population
// queries: count/mean/stddev, then per-genre mean ratings via the
// ratings-movies join. Aggregates that are undefined in SQL (no ratings,
// single rating, unrated genre) come back as NULL and stay nil here;
// neutral defaulting is the feature builder's job.
func (r *ratingRepository) StatsByUser(ctx context.Context) (map[int]*models.UserRatingStats, error) {
	stats := make(map[int]*models.UserRatingStats)

	rows, err := r.db.Query(ctx, `
		SELECT u.user_id,
		       COUNT(r.rating),
		       AVG(r.rating::float),
		       STDDEV(r.rating::float)
		FROM users u
		LEFT JOIN ratings r ON u.user_id = r.user_id
		GROUP BY u.user_id
		ORDER BY u.user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rating stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID int
		s := &models.UserRatingStats{}
		if err := rows.Scan(&userID, &s.NumRatings, &s.AvgRating, &s.Stddev); err != nil {
			return nil, fmt.Errorf("failed to scan rating stats: %w", err)
		}
		stats[userID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rating stats: %w", err)
	}

	prefRows, err := r.db.Query(ctx, genrePreferenceQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to query genre preferences: %w", err)
	}
	defer prefRows.Close()

	for prefRows.Next() {
		var userID int
		prefs := make([]*float64, models.GenreCount)
		dest := []any{&userID}
		for i := range prefs {
			dest = append(dest, &prefs[i])
		}
		if err := prefRows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan genre preferences: %w", err)
		}
		s, ok := stats[userID]
		if !ok {
			s = &models.UserRatingStats{}
			stats[userID] = s
		}
		copy(s.GenrePrefs[:], prefs)
	}
	if err := prefRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read genre preferences: %w", err)
	}

	return stats, nil
}

// genrePreferenceQuery builds the 18-way conditional average over the
// ratings-movies join, one column per canonical genre.
func genrePreferenceQuery() string {
	var sb strings.Builder
	sb.WriteString("SELECT u.user_id")
	for _, genre := range models.GenreColumns {
		fmt.Fprintf(&sb,
			",\n\t       AVG(CASE WHEN m.genre_%s THEN r.rating::float ELSE NULL END)",
			genre)
	}
	sb.WriteString(`
		FROM users u
		LEFT JOIN ratings r ON u.user_id = r.user_id
		LEFT JOIN movies m ON r.movie_id = m.movie_id
		GROUP BY u.user_id
		ORDER BY u.user_id`)
	return sb.String()
}

// Count returns the number of rating records.
func (r *ratingRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM ratings").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count ratings: %w", err)
	}
	return count, nil
}

// OrphanCounts reports ratings that reference missing users or movies,
// used by the post-load referential integrity check.
func (r *ratingRepository) OrphanCounts(ctx context.Context) (int, int, error) {
	var orphanedUsers, orphanedMovies int

	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM ratings r
		LEFT JOIN users u ON r.user_id = u.user_id
		WHERE u.user_id IS NULL`).Scan(&orphanedUsers)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count orphaned user ratings: %w", err)
	}

	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM ratings r
		LEFT JOIN movies m ON r.movie_id = m.movie_id
		WHERE m.movie_id IS NULL`).Scan(&orphanedMovies)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count orphaned movie ratings: %w", err)
	}

	return orphanedUsers, orphanedMovies, nil
}

// ListAll returns every rating in (user, movie) order, used by the graph
// mirror.
func (r *ratingRepository) ListAll(ctx context.Context) ([]*models.Rating, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_id, movie_id, rating, rated_at
		FROM ratings
		ORDER BY user_id, movie_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

	var ratings []*models.Rating
	for rows.Next() {
		var rt models.Rating
		if err := rows.Scan(&rt.UserID, &rt.MovieID, &rt.Rating, &rt.RatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, &rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ratings: %w", err)
	}
	return ratings, nil
}
