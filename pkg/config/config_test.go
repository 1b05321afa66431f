package config

import (
	"os"
	"path/filepath"
	"testing"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		os.Chdir(originalDir)
	})
	return tmpDir
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	tmpDir := chdirTemp(t)

	yamlContent := `
env: "test"
database:
  host: "db.example.com"
  port: 5432
  user: "yamluser"
  database: "yamldb"
embedding:
  endpoint: "http://yaml.example.com/v1"
  model: "yaml-model"
dataset:
  dir: "/data/ml-100k"
`
	if err := os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	os.Unsetenv("PGHOST")
	t.Setenv("PGUSER", "envuser")
	t.Setenv("EMBEDDING_MODEL", "env-model")

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Host != "db.example.com" {
		t.Errorf("expected YAML host, got %q", cfg.Database.Host)
	}
	if cfg.Database.User != "envuser" {
		t.Errorf("expected env to override YAML user, got %q", cfg.Database.User)
	}
	if cfg.Embedding.Model != "env-model" {
		t.Errorf("expected env to override YAML model, got %q", cfg.Embedding.Model)
	}
	if cfg.Embedding.Endpoint != "http://yaml.example.com/v1" {
		t.Errorf("expected YAML endpoint, got %q", cfg.Embedding.Endpoint)
	}
	if cfg.Version != "test-version" {
		t.Errorf("expected injected version, got %q", cfg.Version)
	}
}

func TestLoad_DefaultsWithoutConfigFile(t *testing.T) {
	chdirTemp(t)

	for _, key := range []string{"PGHOST", "PGPORT", "PGUSER", "PGDATABASE", "EMBEDDING_ENDPOINT", "PIPELINE_WORKERS", "NEO4J_URI"} {
		os.Unsetenv(key)
	}

	cfg, err := Load("dev")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
		t.Errorf("unexpected database defaults: %s:%d", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Pipeline.Workers != 8 {
		t.Errorf("expected default worker count 8, got %d", cfg.Pipeline.Workers)
	}
	if cfg.Embedding.IsAvailable() {
		t.Error("embedding endpoint should be unavailable by default")
	}
	if cfg.Graph.IsAvailable() {
		t.Error("graph should be unavailable by default")
	}
}

func TestDatasetConfig_FilePaths(t *testing.T) {
	ds := DatasetConfig{Dir: "/data/ml-100k"}

	if got := ds.UsersFile(); got != filepath.Join("/data/ml-100k", "u.user") {
		t.Errorf("unexpected users file path: %q", got)
	}
	if got := ds.MoviesFile(); got != filepath.Join("/data/ml-100k", "u.item") {
		t.Errorf("unexpected movies file path: %q", got)
	}
	if got := ds.RatingsFile(); got != filepath.Join("/data/ml-100k", "u.data") {
		t.Errorf("unexpected ratings file path: %q", got)
	}
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	db := DatabaseConfig{
		Host: "localhost", Port: 5432, User: "cinelens",
		Password: "secret", Database: "movielens", SSLMode: "disable",
	}

	want := "host=localhost port=5432 user=cinelens password=secret dbname=movielens sslmode=disable"
	if got := db.ConnectionString(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestLoad_RejectsNonPositiveWorkers(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PIPELINE_WORKERS", "0")

	if _, err := Load("dev"); err == nil {
		t.Fatal("expected error for zero workers")
	}
}
