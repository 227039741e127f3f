package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewradar/review-radar/internal/core/domain"
)

type stubModel struct {
	summary    string
	err        error
	calls      int
	constructs *int
}

func (s *stubModel) Summarize(_ context.Context, _, _ string) (string, error) {
	s.calls++

	return s.summary, s.err
}

func testOptions() Options {
	return Options{MinInputChars: 150, MinChars: 30, MaxChars: 300}
}

func newTestSummarizer(model *stubModel) *Summarizer {
	logger := zerolog.Nop()

	return New(testOptions(), func() Model {
		if model.constructs != nil {
			*model.constructs++
		}

		return model
	}, &logger)
}

func longReview() domain.Review {
	return domain.Review{
		Text: strings.Repeat("The breakfast was wonderful and the staff helped us with everything. ", 4),
	}
}

func TestGenerate_ShortReviewSkipped(t *testing.T) {
	constructs := 0
	model := &stubModel{summary: "irrelevant", constructs: &constructs}
	summarizer := newTestSummarizer(model)

	review := summarizer.Generate(context.Background(), domain.Review{Text: "Great place!"})

	assert.False(t, review.HasSummary)
	assert.Empty(t, review.Summary)
	assert.Zero(t, model.calls)
	assert.Zero(t, constructs, "model must not be constructed for short reviews")
}

func TestGenerate_ThresholdBoundary(t *testing.T) {
	constructs := 0
	model := &stubModel{summary: "Guests praised the breakfast and the helpful staff.", constructs: &constructs}
	summarizer := newTestSummarizer(model)

	// Exactly at the threshold counts as short.
	review := summarizer.Generate(context.Background(), domain.Review{Text: strings.Repeat("a", 150)})

	assert.False(t, review.HasSummary)
	assert.Zero(t, model.calls)
	assert.Zero(t, constructs, "model must not be invoked at the threshold")

	// One character past it gets summarized.
	review = summarizer.Generate(context.Background(), domain.Review{Text: strings.Repeat("a", 151)})

	assert.True(t, review.HasSummary)
	assert.Equal(t, 1, model.calls)
}

func TestGenerate_LongReviewSummarized(t *testing.T) {
	model := &stubModel{summary: "Guests praised the breakfast and the helpful staff."}
	summarizer := newTestSummarizer(model)

	review := summarizer.Generate(context.Background(), longReview())

	assert.True(t, review.HasSummary)
	assert.Equal(t, "Guests praised the breakfast and the helpful staff.", review.Summary)
	assert.Equal(t, 1, model.calls)
}

func TestGenerate_ModelConstructedOnce(t *testing.T) {
	constructs := 0
	model := &stubModel{summary: "A long enough summary about the breakfast and staff.", constructs: &constructs}
	summarizer := newTestSummarizer(model)

	summarizer.Generate(context.Background(), longReview())
	summarizer.Generate(context.Background(), longReview())

	assert.Equal(t, 1, constructs)
	assert.Equal(t, 2, model.calls)
}

func TestGenerate_ModelFailureLeavesReviewWithoutSummary(t *testing.T) {
	model := &stubModel{err: errors.New("model down")}
	summarizer := newTestSummarizer(model)

	review := summarizer.Generate(context.Background(), longReview())

	assert.False(t, review.HasSummary)
	assert.Empty(t, review.Summary)
}

func TestGenerate_DegenerateOutputRejected(t *testing.T) {
	model := &stubModel{summary: "Too short."}
	summarizer := newTestSummarizer(model)

	review := summarizer.Generate(context.Background(), longReview())

	assert.False(t, review.HasSummary)
}

func TestGenerate_OverlongOutputTruncatedAtWordBoundary(t *testing.T) {
	model := &stubModel{summary: strings.Repeat("word ", 100)}
	summarizer := newTestSummarizer(model)

	review := summarizer.Generate(context.Background(), longReview())

	require.True(t, review.HasSummary)
	assert.LessOrEqual(t, len([]rune(review.Summary)), 300)
	assert.False(t, strings.HasSuffix(review.Summary, " "))
	assert.True(t, strings.HasSuffix(review.Summary, "word"))
}

func TestGenerateBatch_FailureIsolation(t *testing.T) {
	model := &stubModel{summary: "Guests praised the breakfast and the helpful staff."}
	summarizer := newTestSummarizer(model)

	reviews := summarizer.GenerateBatch(context.Background(), []domain.Review{
		{Text: "short"},
		longReview(),
	})

	require.Len(t, reviews, 2)
	assert.False(t, reviews[0].HasSummary)
	assert.True(t, reviews[1].HasSummary)
}

func TestSelectLeadSentence(t *testing.T) {
	text := "Nice. We stayed 3 nights at Grand Hotel and loved every minute of the visit. Ok."

	lead := selectLeadSentence(text)

	assert.Contains(t, lead, "Grand Hotel")
}

func TestLeadSentenceModelDeterministic(t *testing.T) {
	model := NewLeadSentenceModel()

	first, err := model.Summarize(context.Background(), longReview().Text, "en")
	require.NoError(t, err)
	second, err := model.Summarize(context.Background(), longReview().Text, "en")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}
