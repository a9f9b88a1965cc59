// Package embedding prepares text for the embedding model and sends it in
// fixed-size batches.
package embedding

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/syllabus/ai"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/metrics"
)

// DefaultBatchSize is the number of texts sent per backend call.
const DefaultBatchSize = 20

// Client wraps an ai.Embedder with input cleaning and batching.
// It does not retry; a failed batch fails the whole call.
type Client struct {
	embedder  ai.Embedder
	model     string
	batchSize int
	metrics   *metrics.Collector
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBatchSize sets the number of texts per backend call.
func WithBatchSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithModelName sets the model name reported in errors.
func WithModelName(name string) Option {
	return func(c *Client) {
		c.model = name
	}
}

// WithMetrics records embedded text counts on collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a Client around embedder.
func NewClient(embedder ai.Embedder, opts ...Option) (*Client, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	c := &Client{
		embedder:  embedder,
		model:     "embedder",
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "embedding")
	return c, nil
}

// BatchSize returns the configured batch size.
func (c *Client) BatchSize() int {
	return c.batchSize
}

// Embed returns one vector per text, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	cleaned := make([]string, len(texts))
	for i, text := range texts {
		var truncated bool
		cleaned[i], truncated = Clean(text)
		if truncated {
			c.logger.Warn("text truncated for embedding", "index", i, "limit", MaxTextLength)
		} else if len(cleaned[i]) != len(text) {
			c.logger.Debug("text cleaned", "index", i, "from", len(text), "to", len(cleaned[i]))
		}
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(cleaned); start += c.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+c.batchSize, len(cleaned))
		batch := cleaned[start:end]

		out, err := c.embedder.EmbedTexts(ctx, batch)
		if err != nil {
			c.logger.Error("embedding batch failed", "offset", start, "size", len(batch), "err", err)
			return nil, core.NewModelCallError("embed", c.model, err)
		}
		if len(out) != len(batch) {
			return nil, core.NewModelCallError("embed", c.model,
				fmt.Errorf("%w: expected %d, received %d", ErrResultMismatch, len(batch), len(out)))
		}
		c.metrics.AddEmbeddedTexts(len(batch))
		vectors = append(vectors, out...)
	}

	c.logger.Debug("embedded texts", "count", len(texts))
	return vectors, nil
}

// EmbedOne embeds a single text.
func (c *Client) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
