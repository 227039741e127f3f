package db

import (
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewradar/review-radar/internal/core/domain"
)

// stubRow feeds canned column values into the scan helpers.
type stubRow struct {
	values []any
}

func (s *stubRow) Scan(dest ...any) error {
	if len(dest) != len(s.values) {
		return fmt.Errorf("got %d dests, have %d values", len(dest), len(s.values))
	}

	for i, d := range dest {
		if s.values[i] == nil {
			continue
		}

		switch d := d.(type) {
		case *int64:
			*d = s.values[i].(int64)
		case *int:
			*d = s.values[i].(int)
		case *float64:
			*d = s.values[i].(float64)
		case *bool:
			*d = s.values[i].(bool)
		case *string:
			*d = s.values[i].(string)
		case *[]string:
			*d = s.values[i].([]string)
		case *[]byte:
			*d = s.values[i].([]byte)
		case *time.Time:
			*d = s.values[i].(time.Time)
		case *pgtype.Text:
			*d = s.values[i].(pgtype.Text)
		case *pgtype.Float8:
			*d = s.values[i].(pgtype.Float8)
		case *pgtype.Timestamptz:
			*d = s.values[i].(pgtype.Timestamptz)
		default:
			return fmt.Errorf("unsupported dest type %T at index %d", d, i)
		}
	}

	return nil
}

func newTestDB() *DB {
	logger := zerolog.Nop()

	return &DB{Logger: &logger}
}

func jobRowValues(topCategories []byte) []any {
	now := time.Now()

	return []any{
		int64(7),                   // id
		"hotel paradiso",           // search_query
		"keyword",                  // search_mode
		[]string{"google"},         // platforms
		"completed",                // status
		toText("done"),             // message
		3, 2, 1, 0,                 // review_count, positive, negative, neutral
		pgtype.Float8{Float64: 4.2, Valid: true}, // avg_rating
		topCategories, // top_categories
		5,             // total_keywords
		now, now,      // created_at, updated_at
		pgtype.Timestamptz{Time: now, Valid: true}, // completed_at
	}
}

func TestScanJob_MalformedTopCategoriesDegradesToEmpty(t *testing.T) {
	database := newTestDB()

	job, err := database.scanJob(&stubRow{values: jobRowValues([]byte(`{"broken"`))})
	require.NoError(t, err)

	assert.Empty(t, job.Stats.TopCategories)
	assert.Equal(t, int64(7), job.ID)
	assert.Equal(t, 3, job.Stats.ReviewCount)
	assert.Equal(t, domain.StatusCompleted, job.Status)
}

func TestScanJob_ValidTopCategories(t *testing.T) {
	database := newTestDB()

	payload := []byte(`[{"key":"service","name":"Service","count":2,"percentage":100}]`)
	job, err := database.scanJob(&stubRow{values: jobRowValues(payload)})
	require.NoError(t, err)

	require.Len(t, job.Stats.TopCategories, 1)
	assert.Equal(t, "service", job.Stats.TopCategories[0].Key)
}

func reviewRowValues(sentimentScores, keywordCategories []byte) []any {
	return []any{
		int64(11),          // id
		int64(7),           // job_id
		"google",           // platform
		"great stay",       // review_text
		pgtype.Float8{Float64: 5, Valid: true}, // rating
		toText("Ana"), // author_name
		pgtype.Timestamptz{Time: time.Now(), Valid: true}, // review_date
		toText("https://example.com"),                     // source_url
		toText("positive"),                                // sentiment
		0.9,                                               // sentiment_confidence
		sentimentScores,                                   // sentiment_scores
		toText("rating"),                                  // sentiment_method
		toText("en"),                                      // detected_language
		[]string{"staff"},                                 // extracted_keywords
		keywordCategories,                                 // keyword_categories
		1,                                                 // keyword_count
		toText(""),                                        // summary
		false,                                             // has_summary
		"abc123",                                          // review_hash
		"google_abc123",                                   // review_id
	}
}

func TestScanReview_MalformedJSONFieldsDegradeToEmpty(t *testing.T) {
	database := newTestDB()

	review, err := database.scanReview(&stubRow{
		values: reviewRowValues([]byte(`{{`), []byte(`not json`)),
	})
	require.NoError(t, err)

	assert.Empty(t, review.SentimentScores)
	assert.Empty(t, review.KeywordCategories)

	// Everything else survives.
	assert.Equal(t, int64(11), review.ID)
	assert.Equal(t, "great stay", review.Text)
	require.NotNil(t, review.Sentiment)
	assert.Equal(t, domain.SentimentPositive, *review.Sentiment)
	assert.Equal(t, []string{"staff"}, review.ExtractedKeywords)
}

func TestScanReview_ValidJSONFields(t *testing.T) {
	database := newTestDB()

	review, err := database.scanReview(&stubRow{
		values: reviewRowValues(
			[]byte(`{"positive":0.9,"negative":0.05,"neutral":0.05}`),
			[]byte(`{"service":{"category_name":"Service","keywords_found":[],"total_weight":1,"confidence":1}}`),
		),
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.9, review.SentimentScores[domain.SentimentPositive], 1e-9)
	require.Contains(t, review.KeywordCategories, "service")
	assert.Equal(t, "Service", review.KeywordCategories["service"].CategoryName)
}
