package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/reviewradar/review-radar/internal/core/domain"
)

const reviewColumns = `
	id, job_id, platform, review_text, rating, author_name, review_date, source_url,
	sentiment, sentiment_confidence, sentiment_scores, sentiment_method,
	detected_language, extracted_keywords, keyword_categories, keyword_count,
	summary, has_summary, review_hash, review_id
`

// ReviewHashExists reports whether a review with the given content hash is
// already persisted, across all jobs.
func (db *DB) ReviewHashExists(ctx context.Context, hash string) (bool, error) {
	var exists bool

	err := db.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reviews WHERE review_hash = $1
		)
	`, hash).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check review hash: %w", err)
	}

	return exists, nil
}

// InsertReview persists one enriched review. The unique index on review_hash
// makes concurrent duplicate inserts collapse to a single row; the returned
// bool reports whether this call actually inserted.
func (db *DB) InsertReview(ctx context.Context, review *domain.Review) (bool, error) {
	sentimentScores, err := json.Marshal(review.SentimentScores)
	if err != nil {
		return false, fmt.Errorf("marshal sentiment scores: %w", err)
	}

	keywordCategories, err := json.Marshal(review.KeywordCategories)
	if err != nil {
		return false, fmt.Errorf("marshal keyword categories: %w", err)
	}

	var sentiment pgtype.Text
	if review.Sentiment != nil {
		sentiment = toText(string(*review.Sentiment))
	}

	tag, err := db.Pool.Exec(ctx, `
		INSERT INTO reviews (
			job_id, platform, review_text, rating, author_name, review_date, source_url,
			sentiment, sentiment_confidence, sentiment_scores, sentiment_method,
			detected_language, extracted_keywords, keyword_categories, keyword_count,
			summary, has_summary, review_hash, review_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (review_hash) DO NOTHING
	`,
		review.JobID,
		string(review.Platform),
		SanitizeUTF8(review.Text),
		toFloat8Ptr(review.Rating),
		toText(review.Author),
		toTimestamptz(review.Date),
		toText(review.SourceURL),
		sentiment,
		review.SentimentConfidence,
		sentimentScores,
		string(review.SentimentMethod),
		toText(review.DetectedLanguage),
		review.ExtractedKeywords,
		keywordCategories,
		safeIntToInt32(review.KeywordCount),
		toText(review.Summary),
		review.HasSummary,
		review.ReviewHash,
		review.ReviewID,
	)
	if err != nil {
		return false, fmt.Errorf("insert review: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ListReviewsByJob returns a job's persisted reviews ordered by review date,
// newest first.
func (db *DB) ListReviewsByJob(ctx context.Context, jobID int64) ([]domain.Review, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews
		WHERE job_id = $1
		ORDER BY review_date DESC, id
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list reviews by job: %w", err)
	}
	defer rows.Close()

	reviews := []domain.Review{}

	for rows.Next() {
		review, err := db.scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}

		reviews = append(reviews, *review)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate reviews: %w", rows.Err())
	}

	return reviews, nil
}

// CountReviews returns the total number of persisted reviews.
func (db *DB) CountReviews(ctx context.Context) (int, error) {
	var count int64

	err := db.Pool.QueryRow(ctx, `
		SELECT COUNT(*)::bigint
		FROM reviews
	`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count reviews: %w", err)
	}

	return int(count), nil
}

func (db *DB) scanReview(row rowScanner) (*domain.Review, error) {
	var (
		review            domain.Review
		platform          string
		rating            pgtype.Float8
		author            pgtype.Text
		reviewDate        pgtype.Timestamptz
		sourceURL         pgtype.Text
		sentiment         pgtype.Text
		sentimentScores   []byte
		sentimentMethod   pgtype.Text
		detectedLanguage  pgtype.Text
		keywordCategories []byte
		summary           pgtype.Text
	)

	if err := row.Scan(
		&review.ID, &review.JobID, &platform, &review.Text, &rating, &author, &reviewDate, &sourceURL,
		&sentiment, &review.SentimentConfidence, &sentimentScores, &sentimentMethod,
		&detectedLanguage, &review.ExtractedKeywords, &keywordCategories, &review.KeywordCount,
		&summary, &review.HasSummary, &review.ReviewHash, &review.ReviewID,
	); err != nil {
		return nil, err
	}

	review.Platform = domain.Platform(platform)
	review.Author = fromText(author)
	review.Date = fromTimestamptz(reviewDate)
	review.SourceURL = fromText(sourceURL)
	review.SentimentMethod = domain.SentimentMethod(fromText(sentimentMethod))
	review.DetectedLanguage = fromText(detectedLanguage)
	review.Summary = fromText(summary)

	if rating.Valid {
		review.Rating = &rating.Float64
	}

	if sentiment.Valid {
		label := domain.SentimentLabel(sentiment.String)
		review.Sentiment = &label
	}

	// Malformed stored JSON degrades to empty enrichment fields instead of
	// making the whole review unreadable.
	if len(sentimentScores) > 0 {
		if err := json.Unmarshal(sentimentScores, &review.SentimentScores); err != nil {
			db.Logger.Warn().Err(err).Int64("review_id", review.ID).Msg("malformed sentiment_scores, returning empty")
			review.SentimentScores = nil
		}
	}

	if len(keywordCategories) > 0 {
		if err := json.Unmarshal(keywordCategories, &review.KeywordCategories); err != nil {
			db.Logger.Warn().Err(err).Int64("review_id", review.ID).Msg("malformed keyword_categories, returning empty")
			review.KeywordCategories = nil
		}
	}

	return &review, nil
}
