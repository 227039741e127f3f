package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/reviewradar/review-radar/internal/platform/config"
	"github.com/reviewradar/review-radar/internal/platform/observability"
)

const (
	rateLimiterBurst = 5

	sentimentPrompt = `You are a sentiment classifier for customer reviews. ` +
		`Respond with a JSON object mapping the labels "positive", "negative" and "neutral" ` +
		`to probabilities that sum to 1. Return only the JSON object.`
)

// ErrEmptyCompletion indicates the model returned no choices.
var ErrEmptyCompletion = errors.New("model returned an empty completion")

type openaiModel struct {
	cfg         *config.Config
	client      *openai.Client
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
}

// NewOpenAIModel classifies text via chat completions with a JSON response
// format. Requests share one process-wide rate limiter.
func NewOpenAIModel(cfg *config.Config, logger *zerolog.Logger) Model {
	return &openaiModel{
		cfg:         cfg,
		client:      openai.NewClient(cfg.OpenAIAPIKey),
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.ModelRateLimitRPS), rateLimiterBurst),
	}
}

func (m *openaiModel) Classify(ctx context.Context, text string) (map[string]float64, error) {
	if err := m.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: m.cfg.SentimentModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: sentimentPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})

	observability.ModelRequestDuration.WithLabelValues(m.cfg.SentimentModel).Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, ErrEmptyCompletion
	}

	var scores map[string]float64
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &scores); err != nil {
		return nil, fmt.Errorf("failed to parse sentiment response: %w", err)
	}

	return scores, nil
}
