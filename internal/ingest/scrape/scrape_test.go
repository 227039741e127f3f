package scrape

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewradar/review-radar/internal/core/domain"
)

const tripadvisorFixture = `
<html><body>
<div data-automation="reviewCard">
  <a href="/Profile/traveler42">traveler42</a>
  <span class="ui_bubble_rating bubble_45"></span>
  <span data-automation="reviewText">Lovely hotel with a great view of the old town.</span>
  <span class="ratingDate">Written March 5, 2024</span>
</div>
<div data-automation="reviewCard">
  <a href="/Profile/foodie">foodie</a>
  <span class="ui_bubble_rating bubble_20"></span>
  <span data-automation="reviewText">Breakfast was cold and the room smelled.</span>
  <span class="ratingDate">2 weeks ago</span>
</div>
<div data-automation="reviewCard">
  <span class="ui_bubble_rating bubble_50"></span>
</div>
</body></html>`

const googleFixture = `
<html><body>
<div data-review-id="r1">
  <div class="review-author">Alice</div>
  <span role="img" aria-label="5 stars"></span>
  <span class="review-text">Amazing service, we will definitely return.</span>
  <span class="review-date">a month ago</span>
</div>
<div data-review-id="r2">
  <div class="review-author">Bob</div>
  <span role="img" aria-label="2 stars"></span>
  <span class="review-text">Waited an hour for a table.</span>
  <span class="review-date">3 days ago</span>
</div>
</body></html>`

const bookingFixture = `
<html><body>
<div data-testid="review-card">
  <div data-testid="review-author">Carol</div>
  <div data-testid="review-score">Scored 8.0</div>
  <div data-testid="review-positive-text">Comfortable bed and quiet room.</div>
  <div data-testid="review-negative-text">Parking was expensive.</div>
  <span data-testid="review-date">Reviewed: 10 January 2024</span>
</div>
</body></html>`

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    domain.Platform
		wantErr bool
	}{
		{name: "tripadvisor", url: "https://www.tripadvisor.com/Hotel_Review-g1.html", want: domain.PlatformTripAdvisor},
		{name: "tripadvisor country tld", url: "https://www.tripadvisor.fr/Hotel_Review-g1.html", want: domain.PlatformTripAdvisor},
		{name: "booking", url: "https://www.booking.com/hotel/es/example.html", want: domain.PlatformBooking},
		{name: "google maps", url: "https://www.google.com/maps/place/Some+Hotel", want: domain.PlatformGoogle},
		{name: "unknown host", url: "https://example.com/reviews", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			platform, err := DetectPlatform(tt.url)

			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownPlatform)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, platform)
		})
	}
}

func TestBuildSearchURL(t *testing.T) {
	u, err := BuildSearchURL(domain.PlatformTripAdvisor, "grand hotel oslo")
	require.NoError(t, err)
	assert.Equal(t, "https://www.tripadvisor.com/Search?q=grand+hotel+oslo", u)

	_, err = BuildSearchURL(domain.Platform("yelp"), "query")
	require.ErrorIs(t, err, ErrUnknownPlatform)
}

func TestParseTripAdvisor(t *testing.T) {
	now := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

	reviews, err := parseTripAdvisor(tripadvisorFixture, "https://www.tripadvisor.com/x", 25, now)
	require.NoError(t, err)

	// The text-less card is skipped.
	require.Len(t, reviews, 2)

	first := reviews[0]
	assert.Equal(t, domain.PlatformTripAdvisor, first.Platform)
	assert.Equal(t, "traveler42", first.Author)
	require.NotNil(t, first.Rating)
	assert.InDelta(t, 4.5, *first.Rating, 1e-9)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), first.Date)

	second := reviews[1]
	require.NotNil(t, second.Rating)
	assert.InDelta(t, 2.0, *second.Rating, 1e-9)
	assert.Equal(t, now.AddDate(0, 0, -14), second.Date)
}

func TestParseTripAdvisor_Limit(t *testing.T) {
	reviews, err := parseTripAdvisor(tripadvisorFixture, "https://www.tripadvisor.com/x", 1, time.Now())
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
}

func TestParseGoogle(t *testing.T) {
	now := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

	reviews, err := parseGoogle(googleFixture, "https://www.google.com/maps/place/x", 25, now)
	require.NoError(t, err)

	require.Len(t, reviews, 2)

	first := reviews[0]
	assert.Equal(t, "Alice", first.Author)
	require.NotNil(t, first.Rating)
	assert.InDelta(t, 5.0, *first.Rating, 1e-9)
	assert.Equal(t, now.AddDate(0, -1, 0), first.Date)
	assert.Equal(t, "https://www.google.com/maps/place/x", first.SourceURL)
}

func TestParseBooking(t *testing.T) {
	now := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

	reviews, err := parseBooking(bookingFixture, "https://www.booking.com/hotel/x", 25, now)
	require.NoError(t, err)

	require.Len(t, reviews, 1)

	review := reviews[0]
	assert.Equal(t, "Carol", review.Author)
	assert.Equal(t, "Comfortable bed and quiet room. Parking was expensive.", review.Text)
	require.NotNil(t, review.Rating)
	assert.InDelta(t, 4.0, *review.Rating, 1e-9)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), review.Date)
}

func TestParseReviewDate_FallbackToScrapeTime(t *testing.T) {
	now := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now, parseReviewDate("not a date at all", now))
	assert.Equal(t, now, parseReviewDate("", now))
}

type stubFetcher struct {
	html string
	urls []string
}

func (s *stubFetcher) FetchHTML(_ context.Context, pageURL string) (string, error) {
	s.urls = append(s.urls, pageURL)

	return s.html, nil
}

func TestScrapeURL_UnknownPlatform(t *testing.T) {
	logger := zerolog.Nop()
	scraper := NewScraper(&stubFetcher{}, 25, &logger)

	_, err := scraper.ScrapeURL(context.Background(), "https://example.com/somepage")
	require.ErrorIs(t, err, ErrUnknownPlatform)
}

func TestScrapeSearch(t *testing.T) {
	logger := zerolog.Nop()
	fetcher := &stubFetcher{html: tripadvisorFixture}
	scraper := NewScraper(fetcher, 25, &logger)

	reviews, err := scraper.ScrapeSearch(context.Background(), domain.PlatformTripAdvisor, "grand hotel")
	require.NoError(t, err)

	assert.Len(t, reviews, 2)
	require.Len(t, fetcher.urls, 1)
	assert.Contains(t, fetcher.urls[0], "tripadvisor.com/Search")
}
