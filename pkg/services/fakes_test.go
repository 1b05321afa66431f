package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/cinelens/cinelens-engine/pkg/models"
	"github.com/cinelens/cinelens-engine/pkg/repositories"
)

// fakeMovieRepo is an in-memory MovieRepository for service tests.
type fakeMovieRepo struct {
	mu         sync.Mutex
	movies     []*models.Movie
	embeddings map[int][]float64
	failIDs    map[int]bool
	stats      *repositories.EmbeddingStats
	listErr    error
}

func newFakeMovieRepo(movies ...*models.Movie) *fakeMovieRepo {
	return &fakeMovieRepo{
		movies:     movies,
		embeddings: make(map[int][]float64),
		failIDs:    make(map[int]bool),
	}
}

func (f *fakeMovieRepo) List(ctx context.Context) ([]*models.Movie, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.movies, nil
}

func (f *fakeMovieRepo) ReplaceAll(ctx context.Context, movies []*models.Movie) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.movies = movies
	return int64(len(movies)), nil
}

func (f *fakeMovieRepo) UpdateEmbedding(ctx context.Context, movieID int, embedding []float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIDs[movieID] {
		return fmt.Errorf("update rejected for movie %d", movieID)
	}
	f.embeddings[movieID] = embedding
	return nil
}

func (f *fakeMovieRepo) Count(ctx context.Context) (int, error) {
	return len(f.movies), nil
}

func (f *fakeMovieRepo) EmbeddingStats(ctx context.Context) (*repositories.EmbeddingStats, error) {
	if f.stats != nil {
		return f.stats, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return &repositories.EmbeddingStats{
		Total:      len(f.movies),
		WithVector: len(f.embeddings),
	}, nil
}

// fakeUserRepo is an in-memory UserRepository for service tests.
type fakeUserRepo struct {
	mu         sync.Mutex
	users      []*models.User
	embeddings map[int][]float64
	failIDs    map[int]bool
	stats      *repositories.EmbeddingStats
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	return &fakeUserRepo{
		users:      users,
		embeddings: make(map[int][]float64),
		failIDs:    make(map[int]bool),
	}
}

func (f *fakeUserRepo) List(ctx context.Context) ([]*models.User, error) {
	return f.users, nil
}

func (f *fakeUserRepo) ReplaceAll(ctx context.Context, users []*models.User) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = users
	return int64(len(users)), nil
}

func (f *fakeUserRepo) UpdateEmbedding(ctx context.Context, userID int, embedding []float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIDs[userID] {
		return fmt.Errorf("update rejected for user %d", userID)
	}
	f.embeddings[userID] = embedding
	return nil
}

func (f *fakeUserRepo) Count(ctx context.Context) (int, error) {
	return len(f.users), nil
}

func (f *fakeUserRepo) EmbeddingStats(ctx context.Context) (*repositories.EmbeddingStats, error) {
	if f.stats != nil {
		return f.stats, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return &repositories.EmbeddingStats{
		Total:      len(f.users),
		WithVector: len(f.embeddings),
	}, nil
}

// fakeRatingRepo is an in-memory RatingRepository for service tests.
type fakeRatingRepo struct {
	mu       sync.Mutex
	ratings  []*models.Rating
	stats    map[int]*models.UserRatingStats
	orphaned struct {
		users, movies int
	}
}

func newFakeRatingRepo() *fakeRatingRepo {
	return &fakeRatingRepo{stats: make(map[int]*models.UserRatingStats)}
}

func (f *fakeRatingRepo) ReplaceAll(ctx context.Context, ratings []*models.Rating) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ratings = ratings
	return int64(len(ratings)), nil
}

func (f *fakeRatingRepo) StatsByUser(ctx context.Context) (map[int]*models.UserRatingStats, error) {
	return f.stats, nil
}

func (f *fakeRatingRepo) Count(ctx context.Context) (int, error) {
	return len(f.ratings), nil
}

func (f *fakeRatingRepo) OrphanCounts(ctx context.Context) (int, int, error) {
	return f.orphaned.users, f.orphaned.movies, nil
}

func (f *fakeRatingRepo) ListAll(ctx context.Context) ([]*models.Rating, error) {
	return f.ratings, nil
}
