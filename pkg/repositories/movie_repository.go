package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/cinelens/cinelens-engine/pkg/apperrors"
	"github.com/cinelens/cinelens-engine/pkg/database"
	"github.com/cinelens/cinelens-engine/pkg/models"
)

// MovieRepository defines data access for movie records and their
// embeddings.
type MovieRepository interface {
	List(ctx context.Context) ([]*models.Movie, error)
	ReplaceAll(ctx context.Context, movies []*models.Movie) (int64, error)
	UpdateEmbedding(ctx context.Context, movieID int, embedding []float64) error
	Count(ctx context.Context) (int, error)
	EmbeddingStats(ctx context.Context) (*EmbeddingStats, error)
}

// EmbeddingStats summarizes embedding coverage for one entity table.
type EmbeddingStats struct {
	Total        int
	WithVector   int
	WrongWidth   int
	ExpectedDims int
}

// movieGenreColumns lists the genre columns in canonical order, prefixed
// for SQL.
func movieGenreColumns() []string {
	cols := make([]string, models.GenreCount)
	for i, name := range models.GenreColumns {
		cols[i] = "genre_" + name
	}
	return cols
}

// movieRepository implements MovieRepository using PostgreSQL.
type movieRepository struct {
	db *database.DB
}

// NewMovieRepository creates a new movie repository.
func NewMovieRepository(db *database.DB) MovieRepository {
	return &movieRepository{db: db}
}

// List returns all movies in ID order with their genre flags.
func (r *movieRepository) List(ctx context.Context) ([]*models.Movie, error) {
	query := fmt.Sprintf(`
		SELECT movie_id, title, release_date, imdb_url, %s
		FROM movies
		ORDER BY movie_id`,
		strings.Join(movieGenreColumns(), ", "))

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	defer rows.Close()

	var movies []*models.Movie
	for rows.Next() {
		var m models.Movie
		dest := []any{&m.ID, &m.Title, &m.ReleaseDate, &m.IMDBURL}
		for i := range m.Genres {
			dest = append(dest, &m.Genres[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		movies = append(movies, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read movies: %w", err)
	}
	return movies, nil
}

// ReplaceAll truncates the movies table and bulk-loads the given records.
func (r *movieRepository) ReplaceAll(ctx context.Context, movies []*models.Movie) (int64, error) {
	if _, err := r.db.Exec(ctx, "TRUNCATE movies CASCADE"); err != nil {
		return 0, fmt.Errorf("failed to truncate movies: %w", err)
	}

	columns := append([]string{"movie_id", "title", "release_date", "imdb_url"}, movieGenreColumns()...)
	copied, err := r.db.CopyFrom(ctx,
		pgx.Identifier{"movies"},
		columns,
		pgx.CopyFromSlice(len(movies), func(i int) ([]any, error) {
			m := movies[i]
			row := []any{m.ID, m.Title, m.ReleaseDate, m.IMDBURL}
			for _, g := range m.Genres {
				row = append(row, g)
			}
			return row, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to copy movies: %w", err)
	}
	return copied, nil
}

// UpdateEmbedding overwrites the movie's embedding vector. The update is
// atomic per movie; there is no versioning.
func (r *movieRepository) UpdateEmbedding(ctx context.Context, movieID int, embedding []float64) error {
	tag, err := r.db.Exec(ctx,
		"UPDATE movies SET embedding = $1 WHERE movie_id = $2",
		embedding, movieID)
	if err != nil {
		return fmt.Errorf("failed to update movie %d embedding: %w", movieID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("movie %d: %w", movieID, apperrors.ErrNotFound)
	}
	return nil
}

// Count returns the number of movie records.
func (r *movieRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM movies").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count movies: %w", err)
	}
	return count, nil
}

// EmbeddingStats reports embedding coverage for the movies table.
func (r *movieRepository) EmbeddingStats(ctx context.Context) (*EmbeddingStats, error) {
	return embeddingStats(ctx, r.db, "movies")
}
