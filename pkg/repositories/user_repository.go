package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cinelens/cinelens-engine/pkg/apperrors"
	"github.com/cinelens/cinelens-engine/pkg/database"
	"github.com/cinelens/cinelens-engine/pkg/embedding"
	"github.com/cinelens/cinelens-engine/pkg/models"
)

// UserRepository defines data access for user records and their
// embeddings.
type UserRepository interface {
	List(ctx context.Context) ([]*models.User, error)
	ReplaceAll(ctx context.Context, users []*models.User) (int64, error)
	UpdateEmbedding(ctx context.Context, userID int, embedding []float64) error
	Count(ctx context.Context) (int, error)
	EmbeddingStats(ctx context.Context) (*EmbeddingStats, error)
}

// userRepository implements UserRepository using PostgreSQL.
type userRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *database.DB) UserRepository {
	return &userRepository{db: db}
}

// List returns all users in ID order. The order matters: the occupation
// index snapshot derives its slot assignment from it.
func (r *userRepository) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_id, age, gender, occupation, zip_code
		FROM users
		ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Age, &u.Gender, &u.Occupation, &u.ZipCode); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}
	return users, nil
}

// ReplaceAll truncates the users table and bulk-loads the given records.
func (r *userRepository) ReplaceAll(ctx context.Context, users []*models.User) (int64, error) {
	if _, err := r.db.Exec(ctx, "TRUNCATE users CASCADE"); err != nil {
		return 0, fmt.Errorf("failed to truncate users: %w", err)
	}

	copied, err := r.db.CopyFrom(ctx,
		pgx.Identifier{"users"},
		[]string{"user_id", "age", "gender", "occupation", "zip_code"},
		pgx.CopyFromSlice(len(users), func(i int) ([]any, error) {
			u := users[i]
			return []any{u.ID, u.Age, u.Gender, u.Occupation, u.ZipCode}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to copy users: %w", err)
	}
	return copied, nil
}

// UpdateEmbedding overwrites the user's embedding vector.
func (r *userRepository) UpdateEmbedding(ctx context.Context, userID int, embedding []float64) error {
	tag, err := r.db.Exec(ctx,
		"UPDATE users SET embedding = $1 WHERE user_id = $2",
		embedding, userID)
	if err != nil {
		return fmt.Errorf("failed to update user %d embedding: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", userID, apperrors.ErrNotFound)
	}
	return nil
}

// Count returns the number of user records.
func (r *userRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// EmbeddingStats reports embedding coverage for the users table.
func (r *userRepository) EmbeddingStats(ctx context.Context) (*EmbeddingStats, error) {
	return embeddingStats(ctx, r.db, "users")
}

// embeddingStats is shared by both entity tables; the table name comes
// from a fixed internal set, never from user input.
func embeddingStats(ctx context.Context, db *database.DB, table string) (*EmbeddingStats, error) {
	stats := &EmbeddingStats{ExpectedDims: embedding.TargetDim}

	query := fmt.Sprintf(`
		SELECT
			COUNT(*),
			COUNT(embedding),
			COUNT(*) FILTER (WHERE embedding IS NOT NULL
				AND array_length(embedding, 1) <> $1)
		FROM %s`, table)

	err := db.QueryRow(ctx, query, embedding.TargetDim).
		Scan(&stats.Total, &stats.WithVector, &stats.WrongWidth)
	if err != nil {
		return nil, fmt.Errorf("failed to collect %s embedding stats: %w", table, err)
	}
	return stats, nil
}
