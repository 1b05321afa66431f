// Package llm provides the OpenAI-compatible text-embedding client.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/cinelens/cinelens-engine/pkg/retry"
)

// Client calls an OpenAI-compatible embeddings endpoint. It implements the
// embedding.TextEmbedder interface consumed by the movie feature builder.
type Client struct {
	client   *openai.Client
	endpoint string
	model    string
	timeout  time.Duration
	logger   *zap.Logger
}

// Config holds configuration for creating an embedding client.
type Config struct {
	Endpoint string        // Base URL, e.g., "https://api.openai.com/v1"
	Model    string        // Model name, e.g., "text-embedding-3-small"
	APIKey   string        // Optional for local endpoints
	Timeout  time.Duration // Per-request timeout; 0 means no extra deadline
}

// NewClient creates a new OpenAI-compatible embedding client.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")

	return &Client{
		client:   openai.NewClientWithConfig(clientConfig),
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		timeout:  cfg.Timeout,
		logger:   logger.Named("llm"),
	}, nil
}

// Name returns the configured model identifier.
func (c *Client) Name() string { return c.model }

// EmbedText generates an embedding vector for the input text at the
// model's native dimension. Transient endpoint failures are retried with
// backoff before the error surfaces to the caller.
func (c *Client) EmbedText(ctx context.Context, input string) ([]float64, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()

	resp, err := retry.DoWithResult(ctx, nil, func() (openai.EmbeddingResponse, error) {
		return c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(c.model),
			Input: []string{input},
		})
	})
	if err != nil {
		c.logger.Debug("embedding request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, fmt.Errorf("create embedding: %w", err)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embedding in response")
	}

	vec := make([]float64, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float64(v)
	}

	c.logger.Debug("embedding request completed",
		zap.Int("dimension", len(vec)),
		zap.Duration("elapsed", time.Since(start)))

	return vec, nil
}
