// Package keywords matches dictionary keywords against review text and rolls
// the hits up into per-category scores.
package keywords

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/rs/zerolog"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/reviewradar/review-radar/internal/core/domain"
)

// topCategoryLimit bounds a job's top-category rollup.
const topCategoryLimit = 5

// Repository loads the keyword dictionary from storage.
type Repository interface {
	LoadCategoryDictionary(ctx context.Context) (domain.CategoryDictionary, error)
}

// Matcher extracts keywords and scores categories. The dictionary is loaded
// lazily on first use and cached until Invalidate is called.
type Matcher struct {
	repo   Repository
	logger *zerolog.Logger

	mu         sync.Mutex
	dictionary domain.CategoryDictionary
}

func NewMatcher(repo Repository, logger *zerolog.Logger) *Matcher {
	return &Matcher{
		repo:   repo,
		logger: logger,
	}
}

func (m *Matcher) loadDictionary(ctx context.Context) (domain.CategoryDictionary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dictionary != nil {
		return m.dictionary, nil
	}

	dictionary, err := m.repo.LoadCategoryDictionary(ctx)
	if err != nil {
		return nil, fmt.Errorf("load category dictionary: %w", err)
	}

	m.logger.Info().Int("categories", len(dictionary)).Msg("keyword dictionary loaded")
	m.dictionary = dictionary

	return dictionary, nil
}

// Invalidate drops the cached dictionary so the next analysis reloads it.
// Called after admin edits to categories.
func (m *Matcher) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.dictionary = nil
}

var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldText lowercases and strips diacritics, so "Propreté" matches "proprete".
func foldText(s string) string {
	folded, _, err := transform.String(accentFolder, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}

	return folded
}

// AnalyzeReview fills a review's language, keyword and category fields.
// Only the detected language's keyword lists are matched. The extracted list
// is de-duplicated across categories; a keyword configured in two categories
// still counts toward both category scores.
func (m *Matcher) AnalyzeReview(ctx context.Context, review domain.Review) (domain.Review, error) {
	dictionary, err := m.loadDictionary(ctx)
	if err != nil {
		return review, err
	}

	language := DetectLanguage(review.Text)
	review.DetectedLanguage = language

	folded := foldText(review.Text)
	matches := map[string][]domain.KeywordHit{}
	seen := map[string]struct{}{}
	extractedSeen := map[string]struct{}{}

	var extracted []string

	for key, category := range dictionary {
		for _, kw := range category.Keywords[language] {
			needle := foldText(kw.Keyword)
			if needle == "" || !strings.Contains(folded, needle) {
				continue
			}

			if _, dup := seen[key+"\x00"+needle]; dup {
				continue
			}

			seen[key+"\x00"+needle] = struct{}{}
			matches[key] = append(matches[key], domain.KeywordHit{Keyword: kw.Keyword, Weight: kw.Weight})

			if _, dup := extractedSeen[needle]; !dup {
				extractedSeen[needle] = struct{}{}
				extracted = append(extracted, kw.Keyword)
			}
		}
	}

	sort.Strings(extracted)

	review.ExtractedKeywords = extracted
	review.KeywordCount = len(extracted)
	review.KeywordCategories = scoreCategories(dictionary, matches, language)

	return review, nil
}

// scoreCategories turns raw hits into CategoryMatch entries. Confidence is
// the mean hit weight capped at 1.0.
func scoreCategories(dictionary domain.CategoryDictionary, matches map[string][]domain.KeywordHit, language string) map[string]domain.CategoryMatch {
	scored := make(map[string]domain.CategoryMatch, len(matches))

	for key, hits := range matches {
		category := dictionary[key]

		var total float64
		for _, hit := range hits {
			total += hit.Weight
		}

		confidence := total / float64(len(hits))
		if confidence > 1 {
			confidence = 1
		}

		sort.Slice(hits, func(i, j int) bool {
			if hits[i].Weight != hits[j].Weight {
				return hits[i].Weight > hits[j].Weight
			}

			return hits[i].Keyword < hits[j].Keyword
		})

		scored[key] = domain.CategoryMatch{
			CategoryName:  category.Name(language),
			Icon:          category.Icon,
			Color:         category.Color,
			KeywordsFound: hits,
			TotalWeight:   total,
			Confidence:    confidence,
		}
	}

	return scored
}

// AnalyzeBatch analyzes every review in order. A dictionary load failure
// aborts the batch; per-review work is pure and cannot fail.
func (m *Matcher) AnalyzeBatch(ctx context.Context, reviews []domain.Review) ([]domain.Review, error) {
	out := make([]domain.Review, len(reviews))

	for i, review := range reviews {
		analyzed, err := m.AnalyzeReview(ctx, review)
		if err != nil {
			return nil, err
		}

		out[i] = analyzed
	}

	return out, nil
}

// TopCategories ranks categories by how many reviews mention them and keeps
// the strongest entries for the job rollup. Percentages are relative to the
// reviews that matched at least one category, not the full review list.
func (m *Matcher) TopCategories(ctx context.Context, reviews []domain.Review) ([]domain.TopCategory, error) {
	dictionary, err := m.loadDictionary(ctx)
	if err != nil {
		return nil, err
	}

	counts := map[string]int{}
	categorized := 0

	for _, review := range reviews {
		if len(review.KeywordCategories) > 0 {
			categorized++
		}

		for key := range review.KeywordCategories {
			counts[key]++
		}
	}

	top := make([]domain.TopCategory, 0, len(counts))

	for key, count := range counts {
		entry := domain.TopCategory{
			Key:   key,
			Name:  dictionary[key].Name("en"),
			Count: count,
		}

		if categorized > 0 {
			entry.Percentage = float64(count) / float64(categorized) * 100
		}

		top = append(top, entry)
	}

	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}

		return top[i].Key < top[j].Key
	})

	if len(top) > topCategoryLimit {
		top = top[:topCategoryLimit]
	}

	return top, nil
}

// TotalKeywords sums extracted keywords over a review list.
func TotalKeywords(reviews []domain.Review) int {
	var total int
	for _, review := range reviews {
		total += review.KeywordCount
	}

	return total
}
