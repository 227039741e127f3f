package scrape

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/reviewradar/review-radar/internal/core/domain"
)

const maxRating = 5.0

var (
	numberRegex = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	bubbleRegex = regexp.MustCompile(`bubble_(\d+)`)
)

// parseGoogle extracts reviews from a Google Maps place page. Star ratings
// come from the aria-label of the rating element.
func parseGoogle(html, sourceURL string, limit int, now time.Time) ([]domain.Review, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse google page: %w", err)
	}

	reviews := []domain.Review{}

	doc.Find("div[data-review-id]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(reviews) >= limit {
			return false
		}

		text := strings.TrimSpace(s.Find("span.review-text").First().Text())
		if text == "" {
			text = strings.TrimSpace(s.Find("span[data-review-text]").First().Text())
		}

		if text == "" {
			return true
		}

		review := domain.Review{
			Platform:  domain.PlatformGoogle,
			Text:      text,
			Author:    strings.TrimSpace(s.Find("div.review-author").First().Text()),
			Date:      parseReviewDate(s.Find("span.review-date").First().Text(), now),
			SourceURL: sourceURL,
		}

		if label, ok := s.Find("span[role='img'][aria-label]").First().Attr("aria-label"); ok {
			if rating, ok := parseFirstNumber(label); ok && rating <= maxRating {
				review.Rating = &rating
			}
		}

		reviews = append(reviews, review)

		return true
	})

	return reviews, nil
}

// parseTripAdvisor extracts reviews from a TripAdvisor listing. Ratings are
// encoded as bubble_NN classes on a 0-50 scale.
func parseTripAdvisor(html, sourceURL string, limit int, now time.Time) ([]domain.Review, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse tripadvisor page: %w", err)
	}

	reviews := []domain.Review{}

	doc.Find("div[data-automation='reviewCard']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(reviews) >= limit {
			return false
		}

		text := strings.TrimSpace(s.Find("span[data-automation='reviewText']").First().Text())
		if text == "" {
			text = strings.TrimSpace(s.Find("q").First().Text())
		}

		if text == "" {
			return true
		}

		review := domain.Review{
			Platform:  domain.PlatformTripAdvisor,
			Text:      text,
			Author:    strings.TrimSpace(s.Find("a[href*='/Profile/']").First().Text()),
			Date:      parseReviewDate(s.Find("span.ratingDate").First().Text(), now),
			SourceURL: sourceURL,
		}

		if class, ok := s.Find("span[class*='bubble_']").First().Attr("class"); ok {
			if m := bubbleRegex.FindStringSubmatch(class); m != nil {
				if bubbles, err := strconv.ParseFloat(m[1], 64); err == nil {
					rating := bubbles / 10
					review.Rating = &rating
				}
			}
		}

		reviews = append(reviews, review)

		return true
	})

	return reviews, nil
}

// parseBooking extracts reviews from a Booking.com property page. Scores use
// a 0-10 scale and are halved to match the other platforms. Positive and
// negative comment sections are joined into one text.
func parseBooking(html, sourceURL string, limit int, now time.Time) ([]domain.Review, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse booking page: %w", err)
	}

	reviews := []domain.Review{}

	doc.Find("div[data-testid='review-card']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(reviews) >= limit {
			return false
		}

		var parts []string

		for _, selector := range []string{
			"div[data-testid='review-positive-text']",
			"div[data-testid='review-negative-text']",
		} {
			if part := strings.TrimSpace(s.Find(selector).First().Text()); part != "" {
				parts = append(parts, part)
			}
		}

		if len(parts) == 0 {
			return true
		}

		review := domain.Review{
			Platform:  domain.PlatformBooking,
			Text:      strings.Join(parts, " "),
			Author:    strings.TrimSpace(s.Find("div[data-testid='review-author']").First().Text()),
			Date:      parseReviewDate(s.Find("span[data-testid='review-date']").First().Text(), now),
			SourceURL: sourceURL,
		}

		if score, ok := parseFirstNumber(s.Find("div[data-testid='review-score']").First().Text()); ok {
			rating := score / 2
			review.Rating = &rating
		}

		reviews = append(reviews, review)

		return true
	})

	return reviews, nil
}

func parseFirstNumber(s string) (float64, bool) {
	m := numberRegex.FindString(s)
	if m == "" {
		return 0, false
	}

	f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64)
	if err != nil {
		return 0, false
	}

	return f, true
}
