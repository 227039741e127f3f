// Package sentiment classifies review text (or, as fallback, a numeric
// rating) into a sentiment label with confidence and a score distribution.
package sentiment

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/reviewradar/review-radar/internal/core/domain"
)

// maxTextRunes bounds the text sent to the classification model.
const maxTextRunes = 512

const (
	negativeBaseConfidence = 0.8
	negativeStepPerPoint   = 0.1
	neutralConfidence      = 0.7
	positiveBaseConfidence = 0.7
	positiveStepPerPoint   = 0.2
)

// Model runs text classification and returns model-native label scores.
// Native label names (pos/neg/neu or the canonical long forms) are mapped to
// the three canonical labels by the Analyzer.
type Model interface {
	Classify(ctx context.Context, text string) (map[string]float64, error)
}

// Analyzer is the sentiment classifier. The model is shared process-wide and
// read-only after construction, so one Analyzer serves concurrent jobs.
type Analyzer struct {
	model  Model
	logger *zerolog.Logger
}

func New(model Model, logger *zerolog.Logger) *Analyzer {
	return &Analyzer{
		model:  model,
		logger: logger,
	}
}

var labelMapping = map[string]domain.SentimentLabel{
	"pos":      domain.SentimentPositive,
	"positive": domain.SentimentPositive,
	"neg":      domain.SentimentNegative,
	"negative": domain.SentimentNegative,
	"neu":      domain.SentimentNeutral,
	"neutral":  domain.SentimentNeutral,
}

// Classify maps review text, or a rating when no text exists, to a sentiment.
// A review with neither text nor rating yields an absent label with
// confidence zero; that is a valid outcome, not an error.
func (a *Analyzer) Classify(ctx context.Context, text string, rating *float64) domain.SentimentResult {
	text = strings.TrimSpace(text)

	if text != "" {
		return a.classifyText(ctx, text)
	}

	if rating != nil {
		return FromRating(*rating)
	}

	return domain.SentimentResult{
		Confidence: 0,
		Method:     domain.MethodNone,
	}
}

func (a *Analyzer) classifyText(ctx context.Context, text string) domain.SentimentResult {
	if runes := []rune(text); len(runes) > maxTextRunes {
		text = string(runes[:maxTextRunes])
	}

	native, err := a.model.Classify(ctx, text)
	if err != nil || len(native) == 0 {
		if err != nil {
			a.logger.Warn().Err(err).Msg("sentiment model failed, falling back to neutral")
		}

		return neutralFallback(err)
	}

	scores := make(map[domain.SentimentLabel]float64, len(native))
	best := domain.SentimentNeutral
	bestScore := 0.0

	for nativeLabel, score := range native {
		label, ok := labelMapping[strings.ToLower(nativeLabel)]
		if !ok {
			label = domain.SentimentNeutral
		}

		scores[label] += score
		if scores[label] > bestScore {
			bestScore = scores[label]
			best = label
		}
	}

	return domain.SentimentResult{
		Label:      &best,
		Confidence: bestScore,
		Scores:     scores,
		Method:     domain.MethodText,
	}
}

// FromRating applies the fixed rating rule: ≤2 negative, ==3 neutral,
// ≥4 positive. Confidence grows with distance from the neutral boundary,
// capped at 1.0; the remaining probability mass is shared equally between
// the two losing labels.
func FromRating(rating float64) domain.SentimentResult {
	var (
		label      domain.SentimentLabel
		confidence float64
	)

	switch {
	case rating <= 2:
		label = domain.SentimentNegative
		confidence = negativeBaseConfidence + (2-rating)*negativeStepPerPoint
	case rating == 3:
		label = domain.SentimentNeutral
		confidence = neutralConfidence
	default:
		label = domain.SentimentPositive
		confidence = positiveBaseConfidence + (rating-4)*positiveStepPerPoint
	}

	if confidence > 1 {
		confidence = 1
	}

	remainder := (1 - confidence) / 2
	scores := map[domain.SentimentLabel]float64{
		domain.SentimentPositive: remainder,
		domain.SentimentNegative: remainder,
		domain.SentimentNeutral:  remainder,
	}
	scores[label] = confidence

	return domain.SentimentResult{
		Label:      &label,
		Confidence: confidence,
		Scores:     scores,
		Method:     domain.MethodRating,
	}
}

func neutralFallback(err error) domain.SentimentResult {
	label := domain.SentimentNeutral

	result := domain.SentimentResult{
		Label:      &label,
		Confidence: 0,
		Scores:     map[domain.SentimentLabel]float64{},
		Method:     domain.MethodText,
	}

	if err != nil {
		result.Err = err.Error()
	}

	return result
}

// AnalyzeBatch classifies every review in order. One review's failure never
// aborts the batch; the failed item carries the neutral fallback with the
// error recorded.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, reviews []domain.Review) []domain.Review {
	out := make([]domain.Review, len(reviews))

	for i, review := range reviews {
		result := a.Classify(ctx, review.Text, review.Rating)

		review.Sentiment = result.Label
		review.SentimentConfidence = result.Confidence
		review.SentimentScores = result.Scores
		review.SentimentMethod = result.Method
		review.SentimentError = result.Err

		out[i] = review
	}

	return out
}

// BatchSummary aggregates sentiment over a review list. Percentages and mean
// confidence cover the analyzed subset only, not the full list.
type BatchSummary struct {
	TotalReviews       int     `json:"total_reviews"`
	AnalyzedReviews    int     `json:"analyzed_reviews"`
	Positive           int     `json:"positive"`
	Negative           int     `json:"negative"`
	Neutral            int     `json:"neutral"`
	NoSentiment        int     `json:"no_sentiment"`
	PositivePercentage float64 `json:"positive_percentage"`
	NegativePercentage float64 `json:"negative_percentage"`
	NeutralPercentage  float64 `json:"neutral_percentage"`
	AverageConfidence  float64 `json:"average_confidence"`
}

func Summarize(reviews []domain.Review) BatchSummary {
	summary := BatchSummary{TotalReviews: len(reviews)}

	var confidenceSum float64

	for _, review := range reviews {
		if review.Sentiment == nil {
			summary.NoSentiment++
			continue
		}

		summary.AnalyzedReviews++
		confidenceSum += review.SentimentConfidence

		switch *review.Sentiment {
		case domain.SentimentPositive:
			summary.Positive++
		case domain.SentimentNegative:
			summary.Negative++
		case domain.SentimentNeutral:
			summary.Neutral++
		}
	}

	if summary.AnalyzedReviews > 0 {
		analyzed := float64(summary.AnalyzedReviews)
		summary.PositivePercentage = percent(summary.Positive, analyzed)
		summary.NegativePercentage = percent(summary.Negative, analyzed)
		summary.NeutralPercentage = percent(summary.Neutral, analyzed)
		summary.AverageConfidence = confidenceSum / analyzed
	}

	return summary
}

func percent(count int, total float64) float64 {
	return float64(count) / total * 100
}
