package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for cinelens-engine.
// Configuration can come from YAML file (config.yaml) or environment
// variables; environment variables always override YAML values. Secrets
// (database password, embedding API key, graph password) must only come
// from environment variables.
type Config struct {
	Env     string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Text-embedding collaborator endpoint (OpenAI-compatible)
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Batch pipeline settings
	Pipeline PipelineConfig `yaml:"pipeline"`

	// MovieLens dataset file locations
	Dataset DatasetConfig `yaml:"dataset"`

	// Graph mirror (Neo4j) settings
	Graph GraphConfig `yaml:"graph"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"cinelens"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"movielens"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// EmbeddingConfig holds the text-embedding endpoint configuration. An empty
// endpoint means no live collaborator is available and the pipeline runs
// entirely on the deterministic fallback embedder.
type EmbeddingConfig struct {
	Endpoint    string `yaml:"endpoint" env:"EMBEDDING_ENDPOINT" env-default:""`
	Model       string `yaml:"model" env:"EMBEDDING_MODEL" env-default:"text-embedding-3-small"`
	APIKey      string `yaml:"-" env:"EMBEDDING_API_KEY"` // Secret - not in YAML
	TimeoutSecs int    `yaml:"timeout_secs" env:"EMBEDDING_TIMEOUT_SECS" env-default:"30"`
}

// IsAvailable returns true when a live embedding endpoint is configured.
func (c *EmbeddingConfig) IsAvailable() bool {
	return c.Endpoint != ""
}

// Timeout returns the per-request timeout for embedding calls.
func (c *EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// PipelineConfig holds batch sweep settings.
type PipelineConfig struct {
	// Workers bounds concurrent entity builds within a sweep.
	Workers int `yaml:"workers" env:"PIPELINE_WORKERS" env-default:"8"`

	// ReportPath is where the batch report is written as YAML.
	ReportPath string `yaml:"report_path" env:"PIPELINE_REPORT_PATH" env-default:"embedding_report.yaml"`

	// Occupations optionally pins the occupation-to-slot mapping so that
	// re-runs against a changed population keep existing slot meanings.
	// When empty, the mapping is derived from the user population in
	// ID order.
	Occupations []string `yaml:"occupations" env:"PIPELINE_OCCUPATIONS" env-separator:","`
}

// DatasetConfig locates the extracted MovieLens 100K files.
type DatasetConfig struct {
	Dir string `yaml:"dir" env:"DATASET_DIR" env-default:"ml-100k"`
}

// UsersFile returns the path of the pipe-separated users file.
func (c *DatasetConfig) UsersFile() string { return filepath.Join(c.Dir, "u.user") }

// MoviesFile returns the path of the pipe-separated movies file.
func (c *DatasetConfig) MoviesFile() string { return filepath.Join(c.Dir, "u.item") }

// RatingsFile returns the path of the tab-separated ratings file.
func (c *DatasetConfig) RatingsFile() string { return filepath.Join(c.Dir, "u.data") }

// GraphConfig holds Neo4j connection settings for the graph mirror. An
// empty URI disables the graph stage.
type GraphConfig struct {
	URI       string `yaml:"uri" env:"NEO4J_URI" env-default:""`
	User      string `yaml:"user" env:"NEO4J_USER" env-default:"neo4j"`
	Password  string `yaml:"-" env:"NEO4J_PASSWORD"` // Secret - not in YAML
	Database  string `yaml:"database" env:"NEO4J_DATABASE" env-default:""`
	BatchSize int    `yaml:"batch_size" env:"NEO4J_BATCH_SIZE" env-default:"500"`
}

// IsAvailable returns true when a graph endpoint is configured.
func (c *GraphConfig) IsAvailable() bool {
	return c.URI != ""
}

// Load reads configuration from config.yaml with environment variable
// overrides. When no config.yaml exists, configuration comes from the
// environment alone. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if cfg.Pipeline.Workers < 1 {
		return nil, fmt.Errorf("pipeline workers must be positive, got %d", cfg.Pipeline.Workers)
	}

	return cfg, nil
}
