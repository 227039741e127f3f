// Package scrape turns review platform HTML into domain reviews.
package scrape

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/reviewradar/review-radar/internal/core/domain"
)

// ErrUnknownPlatform indicates a URL that belongs to no supported platform.
var ErrUnknownPlatform = errors.New("URL does not belong to a supported review platform")

// DetectPlatform identifies which review platform hosts the given URL.
func DetectPlatform(rawURL string) (domain.Platform, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}

	host := strings.ToLower(u.Host)

	switch {
	case strings.Contains(host, "tripadvisor."):
		return domain.PlatformTripAdvisor, nil
	case strings.Contains(host, "booking.com"):
		return domain.PlatformBooking, nil
	case strings.Contains(host, "google.") && (strings.Contains(u.Path, "/maps") || strings.Contains(rawURL, "reviews")):
		return domain.PlatformGoogle, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownPlatform, host)
	}
}

// BuildSearchURL returns the platform's search page for a free-text query.
func BuildSearchURL(platform domain.Platform, query string) (string, error) {
	escaped := url.QueryEscape(query)

	switch platform {
	case domain.PlatformGoogle:
		return "https://www.google.com/maps/search/" + escaped, nil
	case domain.PlatformTripAdvisor:
		return "https://www.tripadvisor.com/Search?q=" + escaped, nil
	case domain.PlatformBooking:
		return "https://www.booking.com/searchresults.html?ss=" + escaped, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownPlatform, platform)
	}
}
