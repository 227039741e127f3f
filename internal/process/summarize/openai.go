package summarize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/reviewradar/review-radar/internal/platform/config"
	"github.com/reviewradar/review-radar/internal/platform/observability"
)

const (
	rateLimiterBurst = 5

	summaryPromptTemplate = `Summarize the following customer review in one or two sentences.` +
		` Keep the reviewer's overall opinion and the concrete details they mention.` +
		` Write the summary in %s. Return only the summary.`
)

var promptLanguages = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
}

type openaiModel struct {
	cfg         *config.Config
	client      *openai.Client
	rateLimiter *rate.Limiter
}

// NewOpenAIModel summarizes via chat completions, one review per request.
func NewOpenAIModel(cfg *config.Config) Model {
	return &openaiModel{
		cfg:         cfg,
		client:      openai.NewClient(cfg.OpenAIAPIKey),
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.ModelRateLimitRPS), rateLimiterBurst),
	}
}

func (m *openaiModel) Summarize(ctx context.Context, text, language string) (string, error) {
	if err := m.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	name, ok := promptLanguages[language]
	if !ok {
		name = "the language of the review"
	}

	start := time.Now()

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: m.cfg.SummaryModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(summaryPromptTemplate, name),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
	})

	observability.ModelRequestDuration.WithLabelValues(m.cfg.SummaryModel).Observe(time.Since(start).Seconds())

	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("summary model %s: empty completion", m.cfg.SummaryModel)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
