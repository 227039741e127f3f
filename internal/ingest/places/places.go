// Package places looks reviews up through the Google Places API. Structured
// lookups are preferred for the google platform in keyword mode because the
// maps HTML is hostile to scraping; the API caps a place at five reviews,
// which is a known upstream limit.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/reviewradar/review-radar/internal/core/domain"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// ErrNoPlaceFound indicates the text search matched nothing.
var ErrNoPlaceFound = errors.New("no place found for query")

// ErrAPIStatus indicates a non-OK status in the API response body.
var ErrAPIStatus = errors.New("places API returned error status")

// Client wraps the two-step TextSearch + Details lookup.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *zerolog.Logger
}

func New(apiKey string, timeout time.Duration, logger *zerolog.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// NewWithBaseURL is used by tests to point the client at a fake server.
func NewWithBaseURL(apiKey, baseURL string, timeout time.Duration, logger *zerolog.Logger) *Client {
	c := New(apiKey, timeout, logger)
	c.baseURL = baseURL

	return c
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type textSearchResponse struct {
	Status  string `json:"status"`
	Results []struct {
		PlaceID string `json:"place_id"`
		Name    string `json:"name"`
	} `json:"results"`
}

type detailsResponse struct {
	Status string `json:"status"`
	Result struct {
		Name    string `json:"name"`
		URL     string `json:"url"`
		Reviews []struct {
			AuthorName string  `json:"author_name"`
			Rating     float64 `json:"rating"`
			Text       string  `json:"text"`
			Time       int64   `json:"time"`
		} `json:"reviews"`
	} `json:"result"`
}

// FindReviews resolves a query to a place and returns its reviews.
func (c *Client) FindReviews(ctx context.Context, query string) ([]domain.Review, error) {
	placeID, err := c.textSearch(ctx, query)
	if err != nil {
		return nil, err
	}

	return c.placeDetails(ctx, placeID)
}

func (c *Client) textSearch(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("key", c.apiKey)

	var resp textSearchResponse
	if err := c.getJSON(ctx, c.baseURL+"/textsearch/json?"+params.Encode(), &resp); err != nil {
		return "", fmt.Errorf("text search: %w", err)
	}

	if resp.Status != "OK" && resp.Status != "ZERO_RESULTS" {
		return "", fmt.Errorf("text search: %w: %s", ErrAPIStatus, resp.Status)
	}

	if len(resp.Results) == 0 {
		return "", fmt.Errorf("%w: %q", ErrNoPlaceFound, query)
	}

	return resp.Results[0].PlaceID, nil
}

func (c *Client) placeDetails(ctx context.Context, placeID string) ([]domain.Review, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "name,url,reviews")
	params.Set("key", c.apiKey)

	var resp detailsResponse
	if err := c.getJSON(ctx, c.baseURL+"/details/json?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("place details: %w", err)
	}

	if resp.Status != "OK" {
		return nil, fmt.Errorf("place details: %w: %s", ErrAPIStatus, resp.Status)
	}

	reviews := make([]domain.Review, 0, len(resp.Result.Reviews))

	for _, r := range resp.Result.Reviews {
		if r.Text == "" {
			continue
		}

		rating := r.Rating
		reviews = append(reviews, domain.Review{
			Platform:  domain.PlatformGoogle,
			Text:      r.Text,
			Rating:    &rating,
			Author:    r.AuthorName,
			Date:      time.Unix(r.Time, 0).UTC(),
			SourceURL: resp.Result.URL,
		})
	}

	c.logger.Debug().Str("place_id", placeID).Int("reviews", len(reviews)).Msg("place details fetched")

	return reviews, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected HTTP status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
