// Package graph mirrors the relational dataset into Neo4j so that
// recommendation experiments can traverse user-movie relationships
// directly. The mirror is optional; without a configured URI every
// operation returns ErrGraphNotConfigured.
package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/cinelens/cinelens-engine/pkg/apperrors"
	"github.com/cinelens/cinelens-engine/pkg/config"
)

// Client wraps the Neo4j driver with the session defaults the mirror
// needs.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
}

// NewClient connects to Neo4j and verifies connectivity. Returns
// ErrGraphNotConfigured when no URI is set.
func NewClient(ctx context.Context, cfg *config.GraphConfig, logger *zap.Logger) (*Client, error) {
	if !cfg.IsAvailable() {
		return nil, apperrors.ErrGraphNotConfigured
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify neo4j connectivity: %w", err)
	}

	logger.Info("connected to neo4j", zap.String("uri", cfg.URI))

	return &Client{
		driver:   driver,
		database: cfg.Database,
		logger:   logger.Named("graph"),
	}, nil
}

// session opens a write session against the configured database.
func (c *Client) session(ctx context.Context) neo4j.SessionWithContext {
	return c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: c.database,
	})
}

// Close releases the driver's connection pool.
func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.driver == nil {
		return nil
	}
	err := c.driver.Close(ctx)
	c.driver = nil
	return err
}
