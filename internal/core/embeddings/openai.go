package embeddings

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const openaiBurst = 5

// ErrEmptyEmbeddingResponse indicates the API returned no embedding data.
var ErrEmptyEmbeddingResponse = errors.New("embedding response contained no data")

type openaiClient struct {
	client      *openai.Client
	model       string
	dimensions  int
	rateLimiter *rate.Limiter
}

// NewOpenAIClient creates the OpenAI embedding provider. The requested
// dimensions are passed through to the API, so vectors match the width of the
// pgvector columns without padding.
func NewOpenAIClient(cfg Config) Client {
	model := cfg.Model
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}

	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 1
	}

	return &openaiClient{
		client:      openai.NewClient(cfg.APIKey),
		model:       model,
		dimensions:  cfg.Dimensions,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), openaiBurst),
	}
}

func (c *openaiClient) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      openai.EmbeddingModel(c.model),
		Dimensions: c.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, ErrEmptyEmbeddingResponse
	}

	return resp.Data[0].Embedding, nil
}

func (c *openaiClient) Dimensions() int {
	return c.dimensions
}
