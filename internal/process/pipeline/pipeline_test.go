package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewradar/review-radar/internal/core/domain"
	"github.com/reviewradar/review-radar/internal/process/dedup"
	"github.com/reviewradar/review-radar/internal/process/sentiment"
)

func ratingPtr(r float64) *float64 { return &r }

type stubRepo struct {
	statuses  []domain.JobStatus
	messages  map[domain.JobStatus]string
	stats     *domain.JobStats
	inserted  []domain.Review
	preExists map[string]bool
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		messages:  map[domain.JobStatus]string{},
		preExists: map[string]bool{},
	}
}

func (s *stubRepo) UpdateJobStatus(_ context.Context, _ int64, status domain.JobStatus, message string) error {
	s.statuses = append(s.statuses, status)
	s.messages[status] = message

	return nil
}

func (s *stubRepo) UpdateJobStats(_ context.Context, _ int64, stats domain.JobStats) error {
	s.stats = &stats

	return nil
}

func (s *stubRepo) ReviewHashExists(_ context.Context, hash string) (bool, error) {
	return s.preExists[hash], nil
}

func (s *stubRepo) InsertReview(_ context.Context, review *domain.Review) (bool, error) {
	s.inserted = append(s.inserted, *review)

	return true, nil
}

type stubScraper struct {
	byPlatform map[domain.Platform][]domain.Review
	err        error
	urlReviews []domain.Review
}

func (s *stubScraper) ScrapeURL(_ context.Context, _ string) ([]domain.Review, error) {
	return s.urlReviews, s.err
}

func (s *stubScraper) ScrapeSearch(_ context.Context, platform domain.Platform, _ string) ([]domain.Review, error) {
	if s.err != nil {
		return nil, s.err
	}

	return s.byPlatform[platform], nil
}

type stubPlaces struct {
	enabled bool
	reviews []domain.Review
	err     error
	calls   int
}

func (s *stubPlaces) Enabled() bool { return s.enabled }

func (s *stubPlaces) FindReviews(_ context.Context, _ string) ([]domain.Review, error) {
	s.calls++

	return s.reviews, s.err
}

type stubMatcher struct {
	err error
}

func (s *stubMatcher) AnalyzeBatch(_ context.Context, reviews []domain.Review) ([]domain.Review, error) {
	if s.err != nil {
		return nil, s.err
	}

	out := make([]domain.Review, len(reviews))

	for i, review := range reviews {
		review.DetectedLanguage = "en"
		review.ExtractedKeywords = []string{"staff"}
		review.KeywordCount = 1
		review.KeywordCategories = map[string]domain.CategoryMatch{"service": {CategoryName: "Service"}}
		out[i] = review
	}

	return out, nil
}

func (s *stubMatcher) TopCategories(_ context.Context, reviews []domain.Review) ([]domain.TopCategory, error) {
	if len(reviews) == 0 {
		return []domain.TopCategory{}, nil
	}

	return []domain.TopCategory{{Key: "service", Name: "Service", Count: len(reviews), Percentage: 100}}, nil
}

type passthroughSummarizer struct{}

func (passthroughSummarizer) GenerateBatch(_ context.Context, reviews []domain.Review) []domain.Review {
	return reviews
}

type stubIndexer struct {
	indexed []domain.Review
	err     error
}

func (s *stubIndexer) IndexReview(_ context.Context, review domain.Review) error {
	if s.err != nil {
		return s.err
	}

	s.indexed = append(s.indexed, review)

	return nil
}

func testReviews() []domain.Review {
	return []domain.Review{
		{Platform: domain.PlatformGoogle, Author: "Alice", Rating: ratingPtr(5), Date: time.Now()},
		{Platform: domain.PlatformGoogle, Author: "Bob", Rating: ratingPtr(3), Date: time.Now()},
		{Platform: domain.PlatformGoogle, Author: "Carol", Rating: ratingPtr(1), Date: time.Now()},
	}
}

func newTestPipeline(repo *stubRepo, scraper *stubScraper, places *stubPlaces, indexer *stubIndexer) *Pipeline {
	logger := zerolog.Nop()
	analyzer := sentiment.New(nil, &logger)

	return New(repo, scraper, places, analyzer, &stubMatcher{}, passthroughSummarizer{}, indexer, &logger)
}

func keywordJob() *domain.Job {
	return &domain.Job{
		ID:          1,
		SearchQuery: "grand hotel",
		SearchMode:  domain.SearchModeKeyword,
		Platforms:   []domain.Platform{domain.PlatformGoogle},
		Status:      domain.StatusScraping,
	}
}

func TestProcessJob_EndToEnd(t *testing.T) {
	repo := newStubRepo()
	scraper := &stubScraper{byPlatform: map[domain.Platform][]domain.Review{
		domain.PlatformGoogle: testReviews(),
	}}
	indexer := &stubIndexer{}
	pipeline := newTestPipeline(repo, scraper, &stubPlaces{}, indexer)

	require.NoError(t, pipeline.ProcessJob(context.Background(), keywordJob()))

	assert.Equal(t, []domain.JobStatus{
		domain.StatusAnalyzingSentiment,
		domain.StatusAnalyzingKeywords,
		domain.StatusGeneratingSummaries,
		domain.StatusSavingResults,
		domain.StatusCompleted,
	}, repo.statuses)

	require.NotNil(t, repo.stats)
	assert.Equal(t, 3, repo.stats.ReviewCount)
	assert.Equal(t, 1, repo.stats.PositiveCount)
	assert.Equal(t, 1, repo.stats.NeutralCount)
	assert.Equal(t, 1, repo.stats.NegativeCount)
	assert.InDelta(t, 3.0, repo.stats.AvgRating, 1e-9)
	assert.Equal(t, 3, repo.stats.TotalKeywords)
	require.Len(t, repo.stats.TopCategories, 1)
	assert.Equal(t, "service", repo.stats.TopCategories[0].Key)

	require.Len(t, repo.inserted, 3)

	for _, review := range repo.inserted {
		assert.Equal(t, int64(1), review.JobID)
		assert.NotEmpty(t, review.ReviewHash)
		assert.NotEmpty(t, review.ReviewID)
		assert.NotNil(t, review.Sentiment)
	}

	assert.Len(t, indexer.indexed, 3)
}

func TestProcessJob_DuplicateSkipped(t *testing.T) {
	repo := newStubRepo()
	reviews := testReviews()
	scraper := &stubScraper{byPlatform: map[domain.Platform][]domain.Review{
		domain.PlatformGoogle: reviews,
	}}
	indexer := &stubIndexer{}
	pipeline := newTestPipeline(repo, scraper, &stubPlaces{}, indexer)

	// Pre-existing hash for Alice's review.
	repo.preExists[dedup.Fingerprint(reviews[0])] = true

	require.NoError(t, pipeline.ProcessJob(context.Background(), keywordJob()))

	assert.Len(t, repo.inserted, 2)
	// Stats still cover every scraped review.
	assert.Equal(t, 3, repo.stats.ReviewCount)
}

func TestProcessJob_AllPlatformsFailed(t *testing.T) {
	repo := newStubRepo()
	scraper := &stubScraper{err: errors.New("blocked")}
	pipeline := newTestPipeline(repo, scraper, &stubPlaces{}, &stubIndexer{})

	err := pipeline.ProcessJob(context.Background(), keywordJob())
	require.Error(t, err)

	require.NotEmpty(t, repo.statuses)
	assert.Equal(t, domain.StatusFailed, repo.statuses[len(repo.statuses)-1])
	assert.Contains(t, repo.messages[domain.StatusFailed], "blocked")
}

func TestProcessJob_NoPlatforms(t *testing.T) {
	repo := newStubRepo()
	pipeline := newTestPipeline(repo, &stubScraper{}, &stubPlaces{}, &stubIndexer{})

	job := keywordJob()
	job.Platforms = nil

	err := pipeline.ProcessJob(context.Background(), job)
	require.Error(t, err)
	assert.Equal(t, domain.StatusFailed, repo.statuses[len(repo.statuses)-1])
}

func TestProcessJob_NoReviewsCompletes(t *testing.T) {
	repo := newStubRepo()
	scraper := &stubScraper{byPlatform: map[domain.Platform][]domain.Review{}}
	pipeline := newTestPipeline(repo, scraper, &stubPlaces{}, &stubIndexer{})

	require.NoError(t, pipeline.ProcessJob(context.Background(), keywordJob()))

	assert.Equal(t, domain.StatusCompleted, repo.statuses[len(repo.statuses)-1])
	require.NotNil(t, repo.stats)
	assert.Zero(t, repo.stats.ReviewCount)
}

func TestProcessJob_PlacesPreferredForGoogle(t *testing.T) {
	repo := newStubRepo()
	places := &stubPlaces{enabled: true, reviews: testReviews()}
	pipeline := newTestPipeline(repo, &stubScraper{}, places, &stubIndexer{})

	require.NoError(t, pipeline.ProcessJob(context.Background(), keywordJob()))

	assert.Equal(t, 1, places.calls)
	assert.Len(t, repo.inserted, 3)
}

func TestProcessJob_IndexFailureDoesNotFailJob(t *testing.T) {
	repo := newStubRepo()
	scraper := &stubScraper{byPlatform: map[domain.Platform][]domain.Review{
		domain.PlatformGoogle: testReviews(),
	}}
	pipeline := newTestPipeline(repo, scraper, &stubPlaces{}, &stubIndexer{err: errors.New("index down")})

	require.NoError(t, pipeline.ProcessJob(context.Background(), keywordJob()))

	assert.Equal(t, domain.StatusCompleted, repo.statuses[len(repo.statuses)-1])
	assert.Len(t, repo.inserted, 3)
}

func TestProcessJob_PanicMarksJobFailed(t *testing.T) {
	repo := newStubRepo()
	scraper := &stubScraper{byPlatform: map[domain.Platform][]domain.Review{
		domain.PlatformGoogle: testReviews(),
	}}
	logger := zerolog.Nop()
	analyzer := sentiment.New(nil, &logger)

	pipeline := New(repo, scraper, &stubPlaces{}, analyzer, &panickyMatcher{}, passthroughSummarizer{}, &stubIndexer{}, &logger)

	err := pipeline.ProcessJob(context.Background(), keywordJob())
	require.Error(t, err)
	assert.Equal(t, domain.StatusFailed, repo.statuses[len(repo.statuses)-1])
	assert.Contains(t, repo.messages[domain.StatusFailed], "panic")
}

type panickyMatcher struct{}

func (panickyMatcher) AnalyzeBatch(_ context.Context, _ []domain.Review) ([]domain.Review, error) {
	panic("keyword dictionary corrupted")
}

func (panickyMatcher) TopCategories(_ context.Context, _ []domain.Review) ([]domain.TopCategory, error) {
	return nil, nil
}
