// Package vectorindex maintains the semantic search collections: one for
// reviews, one for knowledge documents. Embeddings are stored in pgvector
// columns and searched by cosine similarity.
package vectorindex

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/reviewradar/review-radar/internal/core/domain"
	"github.com/reviewradar/review-radar/internal/core/embeddings"
	"github.com/reviewradar/review-radar/internal/platform/observability"
	"github.com/reviewradar/review-radar/internal/process/dedup"
	db "github.com/reviewradar/review-radar/internal/storage"
)

// Repository is the storage surface the index needs.
type Repository interface {
	UpsertReviewVector(ctx context.Context, point db.ReviewPoint) error
	SearchReviewVectors(ctx context.Context, embedding []float32, limit int, filter db.ReviewVectorFilter) ([]db.ReviewVectorHit, error)
	CountReviewVectors(ctx context.Context) (int, error)
	UpsertKnowledgeDoc(ctx context.Context, doc domain.KnowledgeDoc, pointID int64, embedding []float32) error
	SearchKnowledgeDocs(ctx context.Context, embedding []float32, limit int, category string) ([]db.KnowledgeHit, error)
	CountKnowledgeDocs(ctx context.Context) (int, error)
}

var _ Repository = (*db.DB)(nil)

// Index embeds texts and reads/writes the vector collections.
type Index struct {
	repo     Repository
	embedder embeddings.Client
	logger   *zerolog.Logger
}

func New(repo Repository, embedder embeddings.Client, logger *zerolog.Logger) *Index {
	return &Index{
		repo:     repo,
		embedder: embedder,
		logger:   logger,
	}
}

func (idx *Index) embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := idx.embedder.GetEmbedding(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("get embedding: %w", err)
	}

	if len(vec) != idx.embedder.Dimensions() {
		return nil, fmt.Errorf("embedding has %d dimensions, index expects %d", len(vec), idx.embedder.Dimensions())
	}

	return vec, nil
}

// IndexReview embeds a review's text and upserts its point. The point id is
// derived from the content-addressed review id, so re-indexing overwrites.
func (idx *Index) IndexReview(ctx context.Context, review domain.Review) error {
	if review.Text == "" {
		return nil
	}

	vec, err := idx.embed(ctx, review.Text)
	if err != nil {
		observability.VectorIndexFailures.Inc()

		return fmt.Errorf("index review %s: %w", review.ReviewID, err)
	}

	point := db.ReviewPoint{
		PointID:   dedup.PointID(review.ReviewID),
		ReviewID:  review.ReviewID,
		JobID:     review.JobID,
		Platform:  string(review.Platform),
		Rating:    review.Rating,
		Text:      review.Text,
		Embedding: vec,
	}

	if review.Sentiment != nil {
		point.Sentiment = string(*review.Sentiment)
	}

	if err := idx.repo.UpsertReviewVector(ctx, point); err != nil {
		observability.VectorIndexFailures.Inc()

		return fmt.Errorf("index review %s: %w", review.ReviewID, err)
	}

	return nil
}

// IndexKnowledge embeds and stores one knowledge document.
func (idx *Index) IndexKnowledge(ctx context.Context, doc domain.KnowledgeDoc) error {
	vec, err := idx.embed(ctx, doc.Text)
	if err != nil {
		observability.VectorIndexFailures.Inc()

		return fmt.Errorf("index knowledge doc %s: %w", doc.DocID, err)
	}

	if err := idx.repo.UpsertKnowledgeDoc(ctx, doc, dedup.PointID(doc.DocID), vec); err != nil {
		observability.VectorIndexFailures.Inc()

		return fmt.Errorf("index knowledge doc %s: %w", doc.DocID, err)
	}

	return nil
}

// SearchReviews finds reviews semantically similar to the query. Hits below
// minScore are dropped after the nearest-neighbor lookup, so a restrictive
// threshold can return fewer results than the limit.
func (idx *Index) SearchReviews(ctx context.Context, query string, limit int, minScore float32, filter db.ReviewVectorFilter) ([]db.ReviewVectorHit, error) {
	vec, err := idx.embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search reviews: %w", err)
	}

	hits, err := idx.repo.SearchReviewVectors(ctx, vec, limit, filter)
	if err != nil {
		return nil, fmt.Errorf("search reviews: %w", err)
	}

	return filterByScore(hits, minScore), nil
}

// SearchKnowledge finds knowledge documents similar to the query.
func (idx *Index) SearchKnowledge(ctx context.Context, query string, limit int, minScore float32, category string) ([]db.KnowledgeHit, error) {
	vec, err := idx.embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search knowledge: %w", err)
	}

	hits, err := idx.repo.SearchKnowledgeDocs(ctx, vec, limit, category)
	if err != nil {
		return nil, fmt.Errorf("search knowledge: %w", err)
	}

	kept := hits[:0]

	for _, hit := range hits {
		if hit.Score >= minScore {
			kept = append(kept, hit)
		}
	}

	return kept, nil
}

func filterByScore(hits []db.ReviewVectorHit, minScore float32) []db.ReviewVectorHit {
	kept := hits[:0]

	for _, hit := range hits {
		if hit.Score >= minScore {
			kept = append(kept, hit)
		}
	}

	return kept
}

// Stats reports the collection sizes and embedding width.
type Stats struct {
	ReviewPoints  int `json:"review_points"`
	KnowledgeDocs int `json:"knowledge_docs"`
	VectorSize    int `json:"vector_size"`
}

func (idx *Index) Stats(ctx context.Context) (Stats, error) {
	reviewCount, err := idx.repo.CountReviewVectors(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("collection stats: %w", err)
	}

	knowledgeCount, err := idx.repo.CountKnowledgeDocs(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("collection stats: %w", err)
	}

	return Stats{
		ReviewPoints:  reviewCount,
		KnowledgeDocs: knowledgeCount,
		VectorSize:    idx.embedder.Dimensions(),
	}, nil
}
