package scrape

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/reviewradar/review-radar/internal/core/domain"
	"github.com/reviewradar/review-radar/internal/ingest/fetch"
	"github.com/reviewradar/review-radar/internal/platform/observability"
)

// Fetcher retrieves rendered page HTML.
type Fetcher interface {
	FetchHTML(ctx context.Context, pageURL string) (string, error)
}

var _ Fetcher = (*fetch.Client)(nil)

// Scraper fetches and parses review pages for all supported platforms.
type Scraper struct {
	fetcher        Fetcher
	maxPerPlatform int
	logger         *zerolog.Logger
}

func NewScraper(fetcher Fetcher, maxPerPlatform int, logger *zerolog.Logger) *Scraper {
	return &Scraper{
		fetcher:        fetcher,
		maxPerPlatform: maxPerPlatform,
		logger:         logger,
	}
}

// ScrapeURL fetches one specific page; the platform is detected from the URL
// and unknown hosts are a hard failure.
func (s *Scraper) ScrapeURL(ctx context.Context, pageURL string) ([]domain.Review, error) {
	platform, err := DetectPlatform(pageURL)
	if err != nil {
		return nil, err
	}

	return s.scrapePage(ctx, platform, pageURL)
}

// ScrapeSearch looks a query up on one platform's search page and parses the
// reviews found there.
func (s *Scraper) ScrapeSearch(ctx context.Context, platform domain.Platform, query string) ([]domain.Review, error) {
	searchURL, err := BuildSearchURL(platform, query)
	if err != nil {
		return nil, err
	}

	return s.scrapePage(ctx, platform, searchURL)
}

func (s *Scraper) scrapePage(ctx context.Context, platform domain.Platform, pageURL string) ([]domain.Review, error) {
	html, err := s.fetcher.FetchHTML(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s page: %w", platform, err)
	}

	reviews, err := s.parse(platform, html, pageURL)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("platform", string(platform)).
		Str("url", pageURL).
		Int("reviews", len(reviews)).
		Msg("page scraped")

	observability.ReviewsScraped.WithLabelValues(string(platform)).Add(float64(len(reviews)))

	return reviews, nil
}

func (s *Scraper) parse(platform domain.Platform, html, sourceURL string) ([]domain.Review, error) {
	now := time.Now()

	switch platform {
	case domain.PlatformGoogle:
		return parseGoogle(html, sourceURL, s.maxPerPlatform, now)
	case domain.PlatformTripAdvisor:
		return parseTripAdvisor(html, sourceURL, s.maxPerPlatform, now)
	case domain.PlatformBooking:
		return parseBooking(html, sourceURL, s.maxPerPlatform, now)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlatform, platform)
	}
}
