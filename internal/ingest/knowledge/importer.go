// Package knowledge imports external documents into the knowledge collection:
// single pages via readability extraction, whole feeds via RSS/Atom parsing.
package knowledge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/reviewradar/review-radar/internal/core/domain"
)

const (
	fetchTimeout   = 15 * time.Second
	maxBodySize    = 10 * 1024 * 1024 // 10MB
	maxFeedEntries = 50
	docIDHexLen    = 16

	userAgent = "ReviewRadar/1.0 (Knowledge Importer)"
)

// ErrEmptyDocument indicates a page with no extractable text.
var ErrEmptyDocument = errors.New("no text content extracted from document")

// Importer turns web pages and feeds into knowledge documents.
type Importer struct {
	httpClient *http.Client
	feedParser *gofeed.Parser
	logger     *zerolog.Logger
}

func NewImporter(logger *zerolog.Logger) *Importer {
	return &Importer{
		httpClient: &http.Client{Timeout: fetchTimeout},
		feedParser: gofeed.NewParser(),
		logger:     logger,
	}
}

// DocID derives a stable document id from the source URL, so re-importing a
// page replaces its previous version.
func DocID(sourceURL string) string {
	sum := sha256.Sum256([]byte(sourceURL))

	return "web_" + hex.EncodeToString(sum[:])[:docIDHexLen]
}

// FromURL fetches one page and extracts its readable text.
func (i *Importer) FromURL(ctx context.Context, pageURL, category string) (domain.KnowledgeDoc, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return domain.KnowledgeDoc{}, fmt.Errorf("parse import URL: %w", err)
	}

	body, err := i.fetch(ctx, pageURL)
	if err != nil {
		return domain.KnowledgeDoc{}, err
	}

	article, err := readability.FromReader(strings.NewReader(body), parsed)
	if err != nil {
		return domain.KnowledgeDoc{}, fmt.Errorf("extract article: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return domain.KnowledgeDoc{}, fmt.Errorf("%w: %s", ErrEmptyDocument, pageURL)
	}

	return domain.KnowledgeDoc{
		DocID:    DocID(pageURL),
		Title:    strings.TrimSpace(article.Title),
		Text:     text,
		Category: category,
		Source:   pageURL,
	}, nil
}

// FromFeed parses an RSS/Atom feed and returns one document per entry.
// Entries without text are skipped.
func (i *Importer) FromFeed(ctx context.Context, feedURL, category string) ([]domain.KnowledgeDoc, error) {
	feed, err := i.feedParser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	docs := make([]domain.KnowledgeDoc, 0, len(feed.Items))

	for _, item := range feed.Items {
		if len(docs) >= maxFeedEntries {
			break
		}

		text := strings.TrimSpace(item.Content)
		if text == "" {
			text = strings.TrimSpace(item.Description)
		}

		if text == "" {
			continue
		}

		source := item.Link
		if source == "" {
			source = feedURL + "#" + item.GUID
		}

		docs = append(docs, domain.KnowledgeDoc{
			DocID:    DocID(source),
			Title:    strings.TrimSpace(item.Title),
			Text:     text,
			Category: category,
			Source:   source,
		})
	}

	i.logger.Debug().Str("feed", feedURL).Int("docs", len(docs)).Msg("feed imported")

	return docs, nil
}

func (i *Importer) fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected HTTP status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	return string(body), nil
}
