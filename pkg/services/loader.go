package services

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/cinelens/cinelens-engine/pkg/apperrors"
	"github.com/cinelens/cinelens-engine/pkg/config"
	"github.com/cinelens/cinelens-engine/pkg/dataset"
	"github.com/cinelens/cinelens-engine/pkg/repositories"
)

// LoaderService loads the MovieLens 100K files into PostgreSQL. Each table
// load truncates and bulk-copies, so re-running the stage is safe.
type LoaderService struct {
	cfg     *config.DatasetConfig
	movies  repositories.MovieRepository
	users   repositories.UserRepository
	ratings repositories.RatingRepository
	logger  *zap.Logger
}

// NewLoaderService creates a new dataset loader.
func NewLoaderService(
	cfg *config.DatasetConfig,
	movies repositories.MovieRepository,
	users repositories.UserRepository,
	ratings repositories.RatingRepository,
	logger *zap.Logger,
) *LoaderService {
	return &LoaderService{
		cfg:     cfg,
		movies:  movies,
		users:   users,
		ratings: ratings,
		logger:  logger.Named("loader"),
	}
}

// LoadResult summarizes one load run.
type LoadResult struct {
	Users        int64 `yaml:"users"`
	Movies       int64 `yaml:"movies"`
	Ratings      int64 `yaml:"ratings"`
	SkippedLines int   `yaml:"skipped_lines"`
}

// Load reads all three dataset files and replaces the database contents.
// Users and movies load before ratings so the foreign keys hold.
func (s *LoaderService) Load(ctx context.Context) (*LoadResult, error) {
	for _, path := range []string{s.cfg.UsersFile(), s.cfg.MoviesFile(), s.cfg.RatingsFile()} {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrDatasetFileMissing, path)
		}
	}

	result := &LoadResult{}

	users, skipped, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	result.Users = users
	result.SkippedLines += skipped

	movies, skipped, err := s.loadMovies(ctx)
	if err != nil {
		return nil, err
	}
	result.Movies = movies
	result.SkippedLines += skipped

	ratings, skipped, err := s.loadRatings(ctx)
	if err != nil {
		return nil, err
	}
	result.Ratings = ratings
	result.SkippedLines += skipped

	if err := s.verify(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("dataset load complete",
		zap.Int64("users", result.Users),
		zap.Int64("movies", result.Movies),
		zap.Int64("ratings", result.Ratings),
		zap.Int("skipped_lines", result.SkippedLines))

	return result, nil
}

func (s *LoaderService) loadUsers(ctx context.Context) (int64, int, error) {
	f, err := os.Open(s.cfg.UsersFile())
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open users file: %w", err)
	}
	defer f.Close()

	users, lineErrs := dataset.ParseUsers(f)
	s.logLineErrors("users", lineErrs)

	copied, err := s.users.ReplaceAll(ctx, users)
	if err != nil {
		return 0, 0, err
	}
	s.logger.Info("loaded users", zap.Int64("count", copied))
	return copied, len(lineErrs), nil
}

func (s *LoaderService) loadMovies(ctx context.Context) (int64, int, error) {
	f, err := os.Open(s.cfg.MoviesFile())
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open movies file: %w", err)
	}
	defer f.Close()

	movies, lineErrs := dataset.ParseMovies(f)
	s.logLineErrors("movies", lineErrs)

	copied, err := s.movies.ReplaceAll(ctx, movies)
	if err != nil {
		return 0, 0, err
	}
	s.logger.Info("loaded movies", zap.Int64("count", copied))
	return copied, len(lineErrs), nil
}

func (s *LoaderService) loadRatings(ctx context.Context) (int64, int, error) {
	f, err := os.Open(s.cfg.RatingsFile())
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open ratings file: %w", err)
	}
	defer f.Close()

	ratings, lineErrs := dataset.ParseRatings(f)
	s.logLineErrors("ratings", lineErrs)

	copied, err := s.ratings.ReplaceAll(ctx, ratings)
	if err != nil {
		return 0, 0, err
	}
	s.logger.Info("loaded ratings", zap.Int64("count", copied))
	return copied, len(lineErrs), nil
}

// verify checks referential integrity after a load. Orphaned ratings are
// a warning, not a failure: the upstream distribution has been consistent
// for years, but a partial manual edit should not hide silently.
func (s *LoaderService) verify(ctx context.Context) error {
	orphanedUsers, orphanedMovies, err := s.ratings.OrphanCounts(ctx)
	if err != nil {
		return err
	}
	if orphanedUsers > 0 {
		s.logger.Warn("ratings reference non-existent users", zap.Int("count", orphanedUsers))
	}
	if orphanedMovies > 0 {
		s.logger.Warn("ratings reference non-existent movies", zap.Int("count", orphanedMovies))
	}
	return nil
}

func (s *LoaderService) logLineErrors(file string, errs []dataset.LineError) {
	for _, e := range errs {
		s.logger.Warn("skipped malformed line",
			zap.String("file", file),
			zap.Int("line", e.Line),
			zap.Error(e.Err))
	}
}
