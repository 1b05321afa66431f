package services

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cinelens/cinelens-engine/pkg/apperrors"
	"github.com/cinelens/cinelens-engine/pkg/embedding"
	"github.com/cinelens/cinelens-engine/pkg/models"
	"github.com/cinelens/cinelens-engine/pkg/repositories"
	"github.com/cinelens/cinelens-engine/pkg/workpool"
)

// PipelineService runs the embedding batch sweeps: every movie, then
// every user, each mapped to a 128-wide vector and persisted. Entities
// are independent, so sweeps run on a bounded worker pool; a single
// entity failure never aborts the rest of the sweep.
type PipelineService struct {
	movies      repositories.MovieRepository
	users       repositories.UserRepository
	ratings     repositories.RatingRepository
	movieBuild  *embedding.MovieBuilder
	pool        *workpool.Pool
	occupations []string // optional pinned occupation-to-slot mapping
	logger      *zap.Logger
}

// NewPipelineService creates the embedding pipeline. occupations may be
// empty, in which case the occupation snapshot derives from the user
// population in ID order.
func NewPipelineService(
	movies repositories.MovieRepository,
	users repositories.UserRepository,
	ratings repositories.RatingRepository,
	movieBuild *embedding.MovieBuilder,
	pool *workpool.Pool,
	occupations []string,
	logger *zap.Logger,
) *PipelineService {
	return &PipelineService{
		movies:      movies,
		users:       users,
		ratings:     ratings,
		movieBuild:  movieBuild,
		pool:        pool,
		occupations: occupations,
		logger:      logger.Named("pipeline"),
	}
}

// EntityFailure identifies one entity that could not be embedded, with
// enough detail for an operator to re-run just the failures.
type EntityFailure struct {
	ID     int    `yaml:"id"`
	Reason string `yaml:"reason"`
}

// SweepReport summarizes one entity sweep.
type SweepReport struct {
	Entity   string          `yaml:"entity"`
	Total    int             `yaml:"total"`
	Embedded int             `yaml:"embedded"`
	Fallback int             `yaml:"fallback"`
	Failed   []EntityFailure `yaml:"failed,omitempty"`
}

// RunReport is the full batch report written after an embedding run.
type RunReport struct {
	RunID     uuid.UUID     `yaml:"run_id"`
	StartedAt time.Time     `yaml:"started_at"`
	Duration  time.Duration `yaml:"duration"`
	Movies    *SweepReport  `yaml:"movies,omitempty"`
	Users     *SweepReport  `yaml:"users,omitempty"`
}

// buildOutcome is the per-entity result collected from the worker pool.
type buildOutcome struct {
	usedFallback bool
}

// Run sweeps movies then users and returns the combined report. Listing
// failures abort the run; per-entity build or persist failures do not.
func (s *PipelineService) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{
		RunID:     uuid.New(),
		StartedAt: time.Now().UTC(),
	}
	logger := s.logger.With(zap.String("run_id", report.RunID.String()))
	start := time.Now()

	movieReport, err := s.EmbedMovies(ctx)
	if err != nil {
		return nil, err
	}
	report.Movies = movieReport

	userReport, err := s.EmbedUsers(ctx)
	if err != nil {
		return nil, err
	}
	report.Users = userReport

	report.Duration = time.Since(start)
	logger.Info("embedding run complete",
		zap.Int("movies_embedded", movieReport.Embedded),
		zap.Int("movies_fallback", movieReport.Fallback),
		zap.Int("movies_failed", len(movieReport.Failed)),
		zap.Int("users_embedded", userReport.Embedded),
		zap.Int("users_failed", len(userReport.Failed)),
		zap.Duration("duration", report.Duration))

	return report, nil
}

// EmbedMovies recomputes and persists every movie embedding.
func (s *PipelineService) EmbedMovies(ctx context.Context) (*SweepReport, error) {
	movies, err := s.movies.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(movies) == 0 {
		return nil, fmt.Errorf("movies: %w", apperrors.ErrPopulationNotLoaded)
	}

	s.logger.Info("embedding movies", zap.Int("count", len(movies)))

	items := make([]workpool.Item[buildOutcome], 0, len(movies))
	for _, movie := range movies {
		movie := movie
		items = append(items, workpool.Item[buildOutcome]{
			ID: movie.ID,
			Execute: func(ctx context.Context) (buildOutcome, error) {
				vec, usedFallback, err := s.movieBuild.Build(ctx, movie)
				if err != nil {
					return buildOutcome{}, err
				}
				if err := s.movies.UpdateEmbedding(ctx, movie.ID, vec); err != nil {
					return buildOutcome{}, err
				}
				return buildOutcome{usedFallback: usedFallback}, nil
			},
		})
	}

	results := workpool.Process(ctx, s.pool, items, s.progressLogger("movies", len(items)))
	return s.collect("movies", len(movies), results), nil
}

// EmbedUsers recomputes and persists every user embedding. The occupation
// snapshot and the rating aggregates are computed once, before any user
// is processed; that is the only cross-entity dependency in the sweep.
func (s *PipelineService) EmbedUsers(ctx context.Context) (*SweepReport, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("users: %w", apperrors.ErrPopulationNotLoaded)
	}

	occupations := s.occupationIndex(users)
	stats, err := s.ratings.StatsByUser(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("embedding users",
		zap.Int("count", len(users)),
		zap.Int("distinct_occupations", occupations.Len()))
	if occupations.Len() > embedding.OccupationSlots {
		s.logger.Warn("occupations exceed one-hot capacity, overflow gets no indicator",
			zap.Int("distinct", occupations.Len()),
			zap.Int("capacity", embedding.OccupationSlots))
	}

	builder := embedding.NewUserBuilder(occupations)

	items := make([]workpool.Item[buildOutcome], 0, len(users))
	for _, user := range users {
		user := user
		items = append(items, workpool.Item[buildOutcome]{
			ID: user.ID,
			Execute: func(ctx context.Context) (buildOutcome, error) {
				vec := builder.Build(user, stats[user.ID])
				if err := s.users.UpdateEmbedding(ctx, user.ID, vec); err != nil {
					return buildOutcome{}, err
				}
				return buildOutcome{}, nil
			},
		})
	}

	results := workpool.Process(ctx, s.pool, items, s.progressLogger("users", len(items)))
	return s.collect("users", len(users), results), nil
}

// Verify checks that every persisted embedding has the expected width and
// reports coverage for both tables.
func (s *PipelineService) Verify(ctx context.Context) error {
	for entity, repo := range map[string]interface {
		EmbeddingStats(ctx context.Context) (*repositories.EmbeddingStats, error)
	}{
		"movies": s.movies,
		"users":  s.users,
	} {
		stats, err := repo.EmbeddingStats(ctx)
		if err != nil {
			return err
		}
		s.logger.Info("embedding coverage",
			zap.String("entity", entity),
			zap.Int("total", stats.Total),
			zap.Int("with_vector", stats.WithVector),
			zap.Int("expected_dims", stats.ExpectedDims))
		if stats.WrongWidth > 0 {
			return fmt.Errorf("%s: %d vectors with wrong width: %w",
				entity, stats.WrongWidth, apperrors.ErrDimensionMismatch)
		}
	}
	return nil
}

// occupationIndex returns the snapshot for this run: the pinned
// configuration list when present, otherwise first-seen order over the
// ID-ordered population.
func (s *PipelineService) occupationIndex(users []*models.User) *embedding.OccupationIndex {
	if len(s.occupations) > 0 {
		return embedding.NewOccupationIndex(s.occupations)
	}
	return embedding.OccupationIndexFromUsers(users)
}

func (s *PipelineService) collect(entity string, total int, results []workpool.Result[buildOutcome]) *SweepReport {
	report := &SweepReport{Entity: entity, Total: total}
	for _, r := range results {
		if r.Err != nil {
			report.Failed = append(report.Failed, EntityFailure{ID: r.ID, Reason: r.Err.Error()})
			s.logger.Error("failed to embed entity",
				zap.String("entity", entity),
				zap.Int("id", r.ID),
				zap.Error(r.Err))
			continue
		}
		report.Embedded++
		if r.Result.usedFallback {
			report.Fallback++
		}
	}
	sort.Slice(report.Failed, func(i, j int) bool {
		return report.Failed[i].ID < report.Failed[j].ID
	})
	return report
}

func (s *PipelineService) progressLogger(entity string, total int) func(completed, total int) {
	return func(completed, _ int) {
		if completed%100 == 0 {
			s.logger.Info("sweep progress",
				zap.String("entity", entity),
				zap.Int("completed", completed),
				zap.Int("total", total))
		}
	}
}

// WriteReport persists the run report as YAML for operators; failures are
// listed with their identifiers so a re-run can target just those.
func (r *RunReport) WriteReport(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
