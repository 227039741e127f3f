// Package summarize condenses long review texts into short summaries.
// Short reviews are their own summary and are skipped.
package summarize

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/reviewradar/review-radar/internal/core/domain"
)

// Model generates one summary for one review text.
type Model interface {
	Summarize(ctx context.Context, text, language string) (string, error)
}

// Options bound which reviews get summarized and how long summaries may be.
type Options struct {
	// MinInputChars is the text length at or below which no summary is
	// generated; such reviews are their own summary.
	MinInputChars int
	// MinChars rejects degenerate model outputs.
	MinChars int
	// MaxChars truncates overlong outputs at a word boundary.
	MaxChars int
}

// Summarizer generates review summaries. The model is constructed lazily on
// first use, so jobs with only short reviews never pay the model setup cost.
type Summarizer struct {
	opts     Options
	newModel func() Model
	logger   *zerolog.Logger

	once  sync.Once
	model Model
}

func New(opts Options, newModel func() Model, logger *zerolog.Logger) *Summarizer {
	return &Summarizer{
		opts:     opts,
		newModel: newModel,
		logger:   logger,
	}
}

func (s *Summarizer) loadModel() Model {
	s.once.Do(func() {
		s.model = s.newModel()
	})

	return s.model
}

// Generate summarizes one review in place. Reviews at or below the input
// threshold keep HasSummary false; a model failure is logged and treated the
// same way.
func (s *Summarizer) Generate(ctx context.Context, review domain.Review) domain.Review {
	text := strings.TrimSpace(review.Text)
	if len([]rune(text)) <= s.opts.MinInputChars {
		return review
	}

	raw, err := s.loadModel().Summarize(ctx, text, review.DetectedLanguage)
	if err != nil {
		s.logger.Warn().Err(err).Str("review_id", review.ReviewID).Msg("summary generation failed")

		return review
	}

	summary := truncateAtWord(normalizeWhitespace(raw), s.opts.MaxChars)
	if len([]rune(summary)) < s.opts.MinChars {
		return review
	}

	review.Summary = summary
	review.HasSummary = true

	return review
}

// GenerateBatch summarizes every eligible review in order; one review's
// failure never aborts the batch.
func (s *Summarizer) GenerateBatch(ctx context.Context, reviews []domain.Review) []domain.Review {
	out := make([]domain.Review, len(reviews))

	for i, review := range reviews {
		out[i] = s.Generate(ctx, review)
	}

	return out
}

func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func truncateAtWord(summary string, maxChars int) string {
	if maxChars <= 0 {
		return summary
	}

	runes := []rune(summary)
	if len(runes) <= maxChars {
		return summary
	}

	cut := string(runes[:maxChars])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}

	return strings.TrimSpace(cut)
}
