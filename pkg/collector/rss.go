package collector

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"membrain/pkg/domain"
)

// RSSCollector extracts image entries from one RSS/Atom feed. Entries
// without an image enclosure are ignored.
type RSSCollector struct {
	name      string
	feedURL   string
	userAgent string
	client    *http.Client
	sanitizer *bluemonday.Policy
}

// NewRSS creates a collector over one feed URL
func NewRSS(name, feedURL, userAgent string, timeout time.Duration) *RSSCollector {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &RSSCollector{
		name:      name,
		feedURL:   feedURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Name identifies the collector in logs and stats
func (c *RSSCollector) Name() string {
	return "rss-" + c.name
}

// Extract fetches the feed and stages up to limit image entries as items
func (c *RSSCollector) Extract(ctx context.Context, limit int) ([]*domain.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", c.feedURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d for %s", resp.StatusCode, c.feedURL)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", c.feedURL, err)
	}

	items := make([]*domain.Item, 0, limit)
	for _, entry := range feed.Items {
		if len(items) >= limit {
			break
		}

		imageURL := entryImage(entry)
		if imageURL == "" {
			continue
		}

		item := domain.NewItem(imageURL)
		item.SetContext("rss", entry.Link)
		item.AddText(entry.Title, domain.BlockTitle, 1.0)

		if desc := strings.TrimSpace(c.sanitizer.Sanitize(entry.Description)); desc != "" {
			item.AddText(desc, domain.BlockDescription, 1.0)
		}

		items = append(items, item)
	}

	return items, nil
}

// entryImage picks the entry's image artifact: an image enclosure first,
// the entry-level image as fallback
func entryImage(entry *gofeed.Item) string {
	for _, enc := range entry.Enclosures {
		if strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	if entry.Image != nil {
		return entry.Image.URL
	}
	return ""
}
