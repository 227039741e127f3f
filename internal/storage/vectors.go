package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"
)

// ReviewPoint is one review's entry in the vector index. PointID is derived
// from the review's content-addressed id, so re-indexing the same review
// overwrites its point instead of accumulating duplicates.
type ReviewPoint struct {
	PointID   int64
	ReviewID  string
	JobID     int64
	Platform  string
	Sentiment string
	Rating    *float64
	Text      string
	Embedding []float32
}

// ReviewVectorHit is a search result with its cosine similarity score.
type ReviewVectorHit struct {
	ReviewPoint
	Score float32
}

// ReviewVectorFilter narrows a similarity search with exact-match conditions.
// Zero values mean "no constraint".
type ReviewVectorFilter struct {
	Platform  string
	Sentiment string
	JobID     int64
}

// UpsertReviewVector writes one review point, replacing any previous payload
// and embedding for the same point id.
func (db *DB) UpsertReviewVector(ctx context.Context, point ReviewPoint) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO review_vectors (point_id, review_id, job_id, platform, sentiment, rating, review_text, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (point_id) DO UPDATE
		SET review_id = EXCLUDED.review_id,
			job_id = EXCLUDED.job_id,
			platform = EXCLUDED.platform,
			sentiment = EXCLUDED.sentiment,
			rating = EXCLUDED.rating,
			review_text = EXCLUDED.review_text,
			embedding = EXCLUDED.embedding
	`, point.PointID, point.ReviewID, point.JobID, point.Platform,
		toText(point.Sentiment), toFloat8Ptr(point.Rating),
		SanitizeUTF8(point.Text), pgvector.NewVector(point.Embedding))
	if err != nil {
		return fmt.Errorf("upsert review vector: %w", err)
	}

	return nil
}

// SearchReviewVectors returns the points nearest to the query embedding by
// cosine similarity, applying the filter's equality conditions in SQL.
// Score thresholding is left to the caller.
func (db *DB) SearchReviewVectors(ctx context.Context, embedding []float32, limit int, filter ReviewVectorFilter) ([]ReviewVectorHit, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT point_id, review_id, job_id, platform, sentiment, rating, review_text,
		       1 - (embedding <=> $1::vector) AS score
		FROM review_vectors
		WHERE ($2 = '' OR platform = $2)
		  AND ($3 = '' OR sentiment = $3)
		  AND ($4 = 0 OR job_id = $4)
		ORDER BY embedding <=> $1::vector
		LIMIT $5
	`, pgvector.NewVector(embedding), filter.Platform, filter.Sentiment, filter.JobID, safeIntToInt32(limit))
	if err != nil {
		return nil, fmt.Errorf("search review vectors: %w", err)
	}
	defer rows.Close()

	hits := []ReviewVectorHit{}

	for rows.Next() {
		var (
			hit       ReviewVectorHit
			sentiment pgtype.Text
			rating    pgtype.Float8
		)

		if err := rows.Scan(
			&hit.PointID, &hit.ReviewID, &hit.JobID, &hit.Platform,
			&sentiment, &rating, &hit.Text, &hit.Score,
		); err != nil {
			return nil, fmt.Errorf("scan review vector hit: %w", err)
		}

		hit.Sentiment = fromText(sentiment)

		if rating.Valid {
			hit.Rating = &rating.Float64
		}

		hits = append(hits, hit)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate review vector hits: %w", rows.Err())
	}

	return hits, nil
}

// CountReviewVectors returns the review collection size.
func (db *DB) CountReviewVectors(ctx context.Context) (int, error) {
	var count int64

	err := db.Pool.QueryRow(ctx, `
		SELECT COUNT(*)::bigint
		FROM review_vectors
	`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count review vectors: %w", err)
	}

	return int(count), nil
}
