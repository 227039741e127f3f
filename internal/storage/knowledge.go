package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"

	"github.com/reviewradar/review-radar/internal/core/domain"
)

// KnowledgeHit is a knowledge search result with its similarity score.
type KnowledgeHit struct {
	domain.KnowledgeDoc
	Score float32
}

// UpsertKnowledgeDoc stores a knowledge document together with its embedding.
// The doc id is the natural key; re-importing a document replaces it.
func (db *DB) UpsertKnowledgeDoc(ctx context.Context, doc domain.KnowledgeDoc, pointID int64, embedding []float32) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO knowledge_docs (point_id, doc_id, title, doc_text, category, source, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (doc_id) DO UPDATE
		SET point_id = EXCLUDED.point_id,
			title = EXCLUDED.title,
			doc_text = EXCLUDED.doc_text,
			category = EXCLUDED.category,
			source = EXCLUDED.source,
			embedding = EXCLUDED.embedding
	`, pointID, doc.DocID, toText(doc.Title), SanitizeUTF8(doc.Text),
		toText(doc.Category), toText(doc.Source), pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("upsert knowledge doc: %w", err)
	}

	return nil
}

// SearchKnowledgeDocs returns the documents nearest to the query embedding,
// optionally restricted to one category.
func (db *DB) SearchKnowledgeDocs(ctx context.Context, embedding []float32, limit int, category string) ([]KnowledgeHit, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT doc_id, title, doc_text, category, source,
		       1 - (embedding <=> $1::vector) AS score
		FROM knowledge_docs
		WHERE ($2 = '' OR category = $2)
		ORDER BY embedding <=> $1::vector
		LIMIT $3
	`, pgvector.NewVector(embedding), category, safeIntToInt32(limit))
	if err != nil {
		return nil, fmt.Errorf("search knowledge docs: %w", err)
	}
	defer rows.Close()

	hits := []KnowledgeHit{}

	for rows.Next() {
		var (
			hit      KnowledgeHit
			title    pgtype.Text
			category pgtype.Text
			source   pgtype.Text
		)

		if err := rows.Scan(&hit.DocID, &title, &hit.Text, &category, &source, &hit.Score); err != nil {
			return nil, fmt.Errorf("scan knowledge hit: %w", err)
		}

		hit.Title = fromText(title)
		hit.Category = fromText(category)
		hit.Source = fromText(source)

		hits = append(hits, hit)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate knowledge hits: %w", rows.Err())
	}

	return hits, nil
}

// CountKnowledgeDocs returns the knowledge collection size.
func (db *DB) CountKnowledgeDocs(ctx context.Context) (int, error) {
	var count int64

	err := db.Pool.QueryRow(ctx, `
		SELECT COUNT(*)::bigint
		FROM knowledge_docs
	`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count knowledge docs: %w", err)
	}

	return int(count), nil
}
