package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/cinelens/cinelens-engine/pkg/models"
	"github.com/cinelens/cinelens-engine/pkg/repositories"
)

// Mirror copies users, movies and ratings from PostgreSQL into Neo4j:
// (:User)-[:RATED]->(:Movie). Writes are idempotent MERGEs, so the sync
// can re-run after any partial failure.
type Mirror struct {
	client    *Client
	movies    repositories.MovieRepository
	users     repositories.UserRepository
	ratings   repositories.RatingRepository
	batchSize int
	logger    *zap.Logger
}

// NewMirror creates a graph mirror. batchSize bounds the rows per UNWIND
// statement.
func NewMirror(
	client *Client,
	movies repositories.MovieRepository,
	users repositories.UserRepository,
	ratings repositories.RatingRepository,
	batchSize int,
	logger *zap.Logger,
) *Mirror {
	if batchSize < 1 {
		batchSize = 500
	}
	return &Mirror{
		client:    client,
		movies:    movies,
		users:     users,
		ratings:   ratings,
		batchSize: batchSize,
		logger:    logger.Named("mirror"),
	}
}

// SyncResult reports how many records each sync pass wrote.
type SyncResult struct {
	Users   int `yaml:"users"`
	Movies  int `yaml:"movies"`
	Ratings int `yaml:"ratings"`
}

// Sync mirrors the full dataset. Nodes go first so the rating edges can
// MATCH both endpoints.
func (m *Mirror) Sync(ctx context.Context) (*SyncResult, error) {
	if err := m.ensureConstraints(ctx); err != nil {
		return nil, err
	}

	users, err := m.users.List(ctx)
	if err != nil {
		return nil, err
	}
	movies, err := m.movies.List(ctx)
	if err != nil {
		return nil, err
	}
	ratings, err := m.ratings.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	if err := m.syncUsers(ctx, users); err != nil {
		return nil, err
	}
	if err := m.syncMovies(ctx, movies); err != nil {
		return nil, err
	}
	if err := m.syncRatings(ctx, ratings); err != nil {
		return nil, err
	}

	result := &SyncResult{Users: len(users), Movies: len(movies), Ratings: len(ratings)}
	m.logger.Info("graph sync complete",
		zap.Int("users", result.Users),
		zap.Int("movies", result.Movies),
		zap.Int("ratings", result.Ratings))
	return result, nil
}

// ensureConstraints creates uniqueness constraints for both node labels.
// Constraint creation may fail for restricted users; that only costs
// MERGE performance, so failures are logged and ignored.
func (m *Mirror) ensureConstraints(ctx context.Context) error {
	session := m.client.session(ctx)
	defer session.Close(ctx)

	for _, stmt := range []string{
		`CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE`,
		`CREATE CONSTRAINT movie_id_unique IF NOT EXISTS FOR (m:Movie) REQUIRE m.id IS UNIQUE`,
	} {
		res, err := session.Run(ctx, stmt, nil)
		if err != nil {
			m.logger.Warn("constraint creation failed, continuing", zap.Error(err))
			continue
		}
		if _, err := res.Consume(ctx); err != nil {
			m.logger.Warn("constraint creation failed, continuing", zap.Error(err))
		}
	}
	return nil
}

func (m *Mirror) syncUsers(ctx context.Context, users []*models.User) error {
	rows := make([]map[string]any, 0, len(users))
	for _, u := range users {
		rows = append(rows, map[string]any{
			"id":         int64(u.ID),
			"age":        int64(u.Age),
			"gender":     u.Gender,
			"occupation": u.Occupation,
			"zip_code":   u.ZipCode,
		})
	}
	return m.batched(ctx, "users", rows, `
UNWIND $rows AS row
MERGE (u:User {id: row.id})
SET u += row
`)
}

func (m *Mirror) syncMovies(ctx context.Context, movies []*models.Movie) error {
	rows := make([]map[string]any, 0, len(movies))
	for _, mv := range movies {
		row := map[string]any{
			"id":     int64(mv.ID),
			"title":  mv.Title,
			"genres": mv.ActiveGenres(),
		}
		if year := mv.ReleaseYear(); year > 0 {
			row["release_year"] = int64(year)
		}
		rows = append(rows, row)
	}
	return m.batched(ctx, "movies", rows, `
UNWIND $rows AS row
MERGE (m:Movie {id: row.id})
SET m += row
`)
}

func (m *Mirror) syncRatings(ctx context.Context, ratings []*models.Rating) error {
	rows := make([]map[string]any, 0, len(ratings))
	for _, r := range ratings {
		rows = append(rows, map[string]any{
			"user_id":  int64(r.UserID),
			"movie_id": int64(r.MovieID),
			"rating":   int64(r.Rating),
			"rated_at": r.RatedAt.UTC().Format(time.RFC3339),
		})
	}
	return m.batched(ctx, "ratings", rows, `
UNWIND $rows AS row
MATCH (u:User {id: row.user_id})
MATCH (m:Movie {id: row.movie_id})
MERGE (u)-[e:RATED]->(m)
SET e.rating = row.rating,
    e.rated_at = row.rated_at
`)
}

// batched writes rows in UNWIND batches of at most batchSize inside
// managed write transactions.
func (m *Mirror) batched(ctx context.Context, entity string, rows []map[string]any, query string) error {
	session := m.client.session(ctx)
	defer session.Close(ctx)

	for start := 0; start < len(rows); start += m.batchSize {
		end := start + m.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			res, err := tx.Run(ctx, query, map[string]any{"rows": batch})
			if err != nil {
				return nil, err
			}
			return nil, res.Err()
		})
		if err != nil {
			return fmt.Errorf("failed to sync %s batch at offset %d: %w", entity, start, err)
		}

		m.logger.Debug("synced batch",
			zap.String("entity", entity),
			zap.Int("offset", start),
			zap.Int("size", len(batch)))
	}
	return nil
}

// Verify compares graph node and relationship counts against PostgreSQL.
func (m *Mirror) Verify(ctx context.Context) error {
	pgUsers, err := m.users.Count(ctx)
	if err != nil {
		return err
	}
	pgMovies, err := m.movies.Count(ctx)
	if err != nil {
		return err
	}
	pgRatings, err := m.ratings.Count(ctx)
	if err != nil {
		return err
	}

	session := m.client.session(ctx)
	defer session.Close(ctx)

	counts, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (u:User) WITH count(u) AS users
MATCH (m:Movie) WITH users, count(m) AS movies
MATCH (:User)-[e:RATED]->(:Movie)
RETURN users, movies, count(e) AS ratings
`, nil)
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		return record.Values, nil
	})
	if err != nil {
		return fmt.Errorf("failed to count graph entities: %w", err)
	}

	values := counts.([]any)
	gUsers, gMovies, gRatings := values[0].(int64), values[1].(int64), values[2].(int64)

	m.logger.Info("graph counts",
		zap.Int64("users", gUsers),
		zap.Int64("movies", gMovies),
		zap.Int64("ratings", gRatings))

	if int(gUsers) != pgUsers || int(gMovies) != pgMovies || int(gRatings) != pgRatings {
		return fmt.Errorf("graph out of sync: postgres %d/%d/%d vs graph %d/%d/%d (users/movies/ratings)",
			pgUsers, pgMovies, pgRatings, gUsers, gMovies, gRatings)
	}
	return nil
}
