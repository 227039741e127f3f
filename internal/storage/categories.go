package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/reviewradar/review-radar/internal/core/domain"
)

// LoadCategoryDictionary reads the full keyword dictionary: every category
// with its localized names and per-language weighted keywords.
func (db *DB) LoadCategoryDictionary(ctx context.Context) (domain.CategoryDictionary, error) {
	dictionary, err := db.loadCategories(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT category_key, language, keyword, weight
		FROM category_keywords
		ORDER BY category_key, language, keyword
	`)
	if err != nil {
		return nil, fmt.Errorf("load category keywords: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key      string
			language string
			keyword  string
			weight   float64
		)

		if err := rows.Scan(&key, &language, &keyword, &weight); err != nil {
			return nil, fmt.Errorf("scan category keyword: %w", err)
		}

		category, ok := dictionary[key]
		if !ok {
			continue
		}

		if category.Keywords == nil {
			category.Keywords = map[string][]domain.WeightedKeyword{}
		}

		category.Keywords[language] = append(category.Keywords[language], domain.WeightedKeyword{
			Keyword: keyword,
			Weight:  weight,
		})
		dictionary[key] = category
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate category keywords: %w", rows.Err())
	}

	return dictionary, nil
}

func (db *DB) loadCategories(ctx context.Context) (domain.CategoryDictionary, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT key, names, icon, color, description
		FROM keyword_categories
		ORDER BY key
	`)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	defer rows.Close()

	dictionary := domain.CategoryDictionary{}

	for rows.Next() {
		var (
			category    domain.Category
			names       []byte
			icon        pgtype.Text
			color       pgtype.Text
			description pgtype.Text
		)

		if err := rows.Scan(&category.Key, &names, &icon, &color, &description); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}

		if len(names) > 0 {
			if err := json.Unmarshal(names, &category.Names); err != nil {
				return nil, fmt.Errorf("unmarshal category names: %w", err)
			}
		}

		category.Icon = fromText(icon)
		category.Color = fromText(color)
		category.Description = fromText(description)
		category.Keywords = map[string][]domain.WeightedKeyword{}

		dictionary[category.Key] = category
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate categories: %w", rows.Err())
	}

	return dictionary, nil
}

// UpsertCategory creates or replaces a category and its keyword set in one
// transaction.
func (db *DB) UpsertCategory(ctx context.Context, category domain.Category) error {
	names, err := json.Marshal(category.Names)
	if err != nil {
		return fmt.Errorf("marshal category names: %w", err)
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin upsert category: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO keyword_categories (key, names, icon, color, description)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO UPDATE
		SET names = EXCLUDED.names,
			icon = EXCLUDED.icon,
			color = EXCLUDED.color,
			description = EXCLUDED.description
	`, category.Key, names, toText(category.Icon), toText(category.Color), toText(category.Description))
	if err != nil {
		return fmt.Errorf("upsert category: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM category_keywords WHERE category_key = $1
	`, category.Key); err != nil {
		return fmt.Errorf("clear category keywords: %w", err)
	}

	batch := &pgx.Batch{}

	for language, keywords := range category.Keywords {
		for _, kw := range keywords {
			batch.Queue(`
				INSERT INTO category_keywords (category_key, language, keyword, weight)
				VALUES ($1, $2, $3, $4)
			`, category.Key, language, kw.Keyword, kw.Weight)
		}
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert category keywords: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit upsert category: %w", err)
	}

	return nil
}

// DeleteCategory removes a category; its keywords go with it via the FK
// cascade. Returns false when the key did not exist.
func (db *DB) DeleteCategory(ctx context.Context, key string) (bool, error) {
	tag, err := db.Pool.Exec(ctx, `
		DELETE FROM keyword_categories WHERE key = $1
	`, key)
	if err != nil {
		return false, fmt.Errorf("delete category: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
