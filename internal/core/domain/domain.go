// Package domain defines the core entities of the review pipeline: jobs,
// reviews, sentiment results, and category matches.
//
// JSON tags on persisted fields are part of the wire contract with the
// dashboard and must not be renamed.
package domain

import "time"

// SearchMode selects how a job interprets its query.
type SearchMode string

const (
	SearchModeKeyword SearchMode = "keyword"
	SearchModeURL     SearchMode = "url"
)

// Platform identifies an external review source.
type Platform string

const (
	PlatformGoogle      Platform = "google"
	PlatformTripAdvisor Platform = "tripadvisor"
	PlatformBooking     Platform = "booking"
)

// JobStatus is the state of a scraping job. Transitions are strictly forward;
// StatusFailed is terminal and reachable from any stage.
type JobStatus string

const (
	StatusPending             JobStatus = "pending"
	StatusScraping            JobStatus = "scraping"
	StatusAnalyzingSentiment  JobStatus = "analyzing_sentiment"
	StatusAnalyzingKeywords   JobStatus = "analyzing_keywords"
	StatusGeneratingSummaries JobStatus = "generating_summaries"
	StatusSavingResults       JobStatus = "saving_results"
	StatusCompleted           JobStatus = "completed"
	StatusFailed              JobStatus = "failed"
)

// SentimentLabel is one of the three canonical sentiment classes.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// SentimentMethod records which input produced a sentiment.
type SentimentMethod string

const (
	MethodText   SentimentMethod = "text"
	MethodRating SentimentMethod = "rating"
	MethodNone   SentimentMethod = "none"
)

// SentimentResult is the outcome of classifying one review.
// Label is nil when neither text nor rating was available; that is a valid
// terminal outcome, not an error.
type SentimentResult struct {
	Label      *SentimentLabel            `json:"label,omitempty"`
	Confidence float64                    `json:"confidence"`
	Scores     map[SentimentLabel]float64 `json:"scores,omitempty"`
	Method     SentimentMethod            `json:"method"`
	Err        string                     `json:"error,omitempty"`
}

// KeywordHit is one dictionary keyword found in a review, with its
// configured weight.
type KeywordHit struct {
	Keyword string  `json:"keyword"`
	Weight  float64 `json:"weight"`
}

// CategoryMatch describes how strongly one topical category matched a review.
type CategoryMatch struct {
	CategoryName  string       `json:"category_name"`
	Icon          string       `json:"icon,omitempty"`
	Color         string       `json:"color,omitempty"`
	KeywordsFound []KeywordHit `json:"keywords_found"`
	TotalWeight   float64      `json:"total_weight"`
	Confidence    float64      `json:"confidence"`
}

// Review is one scraped opinion, owned by exactly one job. The fetch layer
// fills the raw fields; each pipeline stage enriches it in place; it is
// persisted once at the end of the pipeline.
type Review struct {
	ID        int64     `json:"id,omitempty"`
	JobID     int64     `json:"job_id,omitempty"`
	Platform  Platform  `json:"platform"`
	Text      string    `json:"review_text"`
	Rating    *float64  `json:"rating,omitempty"`
	Author    string    `json:"author_name"`
	Date      time.Time `json:"review_date"`
	SourceURL string    `json:"source_url,omitempty"`

	// Enrichment fields, populated by the pipeline stages in order.
	Sentiment           *SentimentLabel            `json:"sentiment,omitempty"`
	SentimentConfidence float64                    `json:"sentiment_confidence"`
	SentimentScores     map[SentimentLabel]float64 `json:"sentiment_scores,omitempty"`
	SentimentMethod     SentimentMethod            `json:"sentiment_method,omitempty"`
	SentimentError      string                     `json:"sentiment_error,omitempty"`
	DetectedLanguage    string                     `json:"detected_language,omitempty"`
	ExtractedKeywords   []string                   `json:"extracted_keywords,omitempty"`
	KeywordCategories   map[string]CategoryMatch   `json:"keyword_categories,omitempty"`
	KeywordCount        int                        `json:"keyword_count"`
	Summary             string                     `json:"summary,omitempty"`
	HasSummary          bool                       `json:"has_summary"`

	// Content-addressed identity, derived by the dedup stage.
	ReviewHash string `json:"review_hash,omitempty"`
	ReviewID   string `json:"review_id,omitempty"`
}

// TopCategory is one entry of a job's top-category rollup. Entries are stored
// ordered by descending hit count.
type TopCategory struct {
	Key        string  `json:"key"`
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// JobStats are the aggregate statistics written to a job when it completes.
// They are only meaningful once the job status is "completed".
type JobStats struct {
	ReviewCount   int           `json:"review_count"`
	PositiveCount int           `json:"positive_count"`
	NegativeCount int           `json:"negative_count"`
	NeutralCount  int           `json:"neutral_count"`
	AvgRating     float64       `json:"avg_rating"`
	TopCategories []TopCategory `json:"top_categories"`
	TotalKeywords int           `json:"total_keywords"`
}

// Job is one end-to-end scraping and enrichment request.
type Job struct {
	ID          int64      `json:"id"`
	SearchQuery string     `json:"search_query"`
	SearchMode  SearchMode `json:"search_type"`
	Platforms   []Platform `json:"platforms"`
	Status      JobStatus  `json:"status"`
	Message     string     `json:"message,omitempty"`
	Stats       JobStats   `json:"stats"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// KnowledgeDoc is a free-form document indexed into the knowledge collection.
type KnowledgeDoc struct {
	DocID    string `json:"doc_id"`
	Title    string `json:"title,omitempty"`
	Text     string `json:"text"`
	Category string `json:"category,omitempty"`
	Source   string `json:"source,omitempty"`
}
