// Package embeddings provides text embedding generation for the vector index.
//
// A single OpenAI-backed provider is used when an API key is configured;
// otherwise a deterministic mock keeps local runs and tests working offline.
package embeddings

import (
	"context"

	"github.com/rs/zerolog"
)

// DefaultDimensions is the embedding width the vector tables are created with.
const DefaultDimensions = 384

// Client defines the interface for embedding operations.
type Client interface {
	// GetEmbedding generates an embedding for the given text.
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
	// Dimensions returns the width of produced vectors.
	Dimensions() int
}

// Config holds configuration for creating an embedding client.
type Config struct {
	APIKey     string
	Model      string
	Dimensions int
	RateLimit  float64
}

// NewClient creates the embedding client. Without an API key it falls back to
// the mock provider.
func NewClient(cfg Config, logger *zerolog.Logger) Client {
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}

	if cfg.APIKey == "" {
		logger.Warn().Msg("no embedding API key configured, using mock provider")

		return NewMockClientWithDimensions(cfg.Dimensions)
	}

	return NewOpenAIClient(cfg)
}

func normalizeVector(vec []float32) []float32 {
	var sum float32
	for _, v := range vec {
		sum += v * v
	}

	if sum == 0 {
		return vec
	}

	norm := sqrt32(sum)
	for i := range vec {
		vec[i] /= norm
	}

	return vec
}

const sqrtIterations = 10

// sqrt32 computes square root for float32 via Newton's method.
func sqrt32(x float32) float32 {
	if x <= 0 {
		return 0
	}

	z := x
	for i := 0; i < sqrtIterations; i++ {
		z = (z + x/z) / 2
	}

	return z
}
