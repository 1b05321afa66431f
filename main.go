package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/cinelens/cinelens-engine/pkg/apperrors"
	"github.com/cinelens/cinelens-engine/pkg/config"
	"github.com/cinelens/cinelens-engine/pkg/database"
	"github.com/cinelens/cinelens-engine/pkg/embedding"
	"github.com/cinelens/cinelens-engine/pkg/graph"
	"github.com/cinelens/cinelens-engine/pkg/llm"
	"github.com/cinelens/cinelens-engine/pkg/logging"
	"github.com/cinelens/cinelens-engine/pkg/repositories"
	"github.com/cinelens/cinelens-engine/pkg/services"
	"github.com/cinelens/cinelens-engine/pkg/workpool"
)

// Version is set at build time via ldflags
var Version = "dev"

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: cinelens-engine [stage]

Stages:
  load    load the MovieLens files into PostgreSQL
  embed   compute and persist movie and user embeddings
  graph   mirror the dataset into Neo4j
  verify  check embedding widths and graph counts
  all     load, embed, graph (when configured), verify (default)
`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	stage := "all"
	if flag.NArg() > 0 {
		stage = flag.Arg(0)
	}

	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting cinelens-engine",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("stage", stage))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, stage, cfg, logger); err != nil {
		logger.Fatal("stage failed", zap.String("stage", stage), zap.Error(err))
	}
}

func run(ctx context.Context, stage string, cfg *config.Config, logger *zap.Logger) error {
	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	sqlDB, err := database.OpenSQL(cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	if err := database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger); err != nil {
		sqlDB.Close()
		return err
	}
	sqlDB.Close()

	movies := repositories.NewMovieRepository(db)
	users := repositories.NewUserRepository(db)
	ratings := repositories.NewRatingRepository(db)

	switch stage {
	case "load":
		return runLoad(ctx, cfg, movies, users, ratings, logger)
	case "embed":
		return runEmbed(ctx, cfg, movies, users, ratings, logger)
	case "graph":
		return runGraph(ctx, cfg, movies, users, ratings, logger)
	case "verify":
		return runVerify(ctx, cfg, movies, users, ratings, logger)
	case "all":
		if err := runLoad(ctx, cfg, movies, users, ratings, logger); err != nil {
			return err
		}
		if err := runEmbed(ctx, cfg, movies, users, ratings, logger); err != nil {
			return err
		}
		if err := runGraph(ctx, cfg, movies, users, ratings, logger); err != nil {
			if errors.Is(err, apperrors.ErrGraphNotConfigured) {
				logger.Info("no graph endpoint configured, skipping mirror")
			} else {
				return err
			}
		}
		return runVerify(ctx, cfg, movies, users, ratings, logger)
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
}

func runLoad(
	ctx context.Context,
	cfg *config.Config,
	movies repositories.MovieRepository,
	users repositories.UserRepository,
	ratings repositories.RatingRepository,
	logger *zap.Logger,
) error {
	loader := services.NewLoaderService(&cfg.Dataset, movies, users, ratings, logger)
	_, err := loader.Load(ctx)
	return err
}

func runEmbed(
	ctx context.Context,
	cfg *config.Config,
	movies repositories.MovieRepository,
	users repositories.UserRepository,
	ratings repositories.RatingRepository,
	logger *zap.Logger,
) error {
	var primary embedding.TextEmbedder
	if cfg.Embedding.IsAvailable() {
		client, err := llm.NewClient(&llm.Config{
			Endpoint: cfg.Embedding.Endpoint,
			Model:    cfg.Embedding.Model,
			APIKey:   cfg.Embedding.APIKey,
			Timeout:  cfg.Embedding.Timeout(),
		}, logger)
		if err != nil {
			return err
		}
		primary = client
	} else {
		logger.Warn("no embedding endpoint configured, using deterministic hash embedder")
		primary = embedding.NewHashEmbedder(embedding.TextDim)
	}

	pipeline := newPipeline(cfg, movies, users, ratings, primary, logger)
	report, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}
	if err := report.WriteReport(cfg.Pipeline.ReportPath); err != nil {
		return err
	}
	logger.Info("wrote batch report", zap.String("path", cfg.Pipeline.ReportPath))
	return nil
}

func runGraph(
	ctx context.Context,
	cfg *config.Config,
	movies repositories.MovieRepository,
	users repositories.UserRepository,
	ratings repositories.RatingRepository,
	logger *zap.Logger,
) error {
	client, err := graph.NewClient(ctx, &cfg.Graph, logger)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	mirror := graph.NewMirror(client, movies, users, ratings, cfg.Graph.BatchSize, logger)
	if _, err := mirror.Sync(ctx); err != nil {
		return err
	}
	return mirror.Verify(ctx)
}

func runVerify(
	ctx context.Context,
	cfg *config.Config,
	movies repositories.MovieRepository,
	users repositories.UserRepository,
	ratings repositories.RatingRepository,
	logger *zap.Logger,
) error {
	pipeline := newPipeline(cfg, movies, users, ratings, embedding.NewHashEmbedder(embedding.TextDim), logger)
	if err := pipeline.Verify(ctx); err != nil {
		return err
	}

	if cfg.Graph.IsAvailable() {
		client, err := graph.NewClient(ctx, &cfg.Graph, logger)
		if err != nil {
			return err
		}
		defer client.Close(ctx)
		mirror := graph.NewMirror(client, movies, users, ratings, cfg.Graph.BatchSize, logger)
		return mirror.Verify(ctx)
	}
	return nil
}

func newPipeline(
	cfg *config.Config,
	movies repositories.MovieRepository,
	users repositories.UserRepository,
	ratings repositories.RatingRepository,
	primary embedding.TextEmbedder,
	logger *zap.Logger,
) *services.PipelineService {
	pool := workpool.New(workpool.Config{MaxConcurrent: cfg.Pipeline.Workers}, logger)
	builder := embedding.NewMovieBuilder(primary, logger)
	return services.NewPipelineService(movies, users, ratings, builder, pool, cfg.Pipeline.Occupations, logger)
}
