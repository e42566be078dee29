package collector

import (
	"context"
	"fmt"

	"github.com/microcosm-cc/bluemonday"

	"membrain/pkg/domain"
)

// listing sort orders, the closed set of reddit collector variants
const (
	sortHot    = "hot"
	sortRising = "rising"
	sortTop    = "top"
)

// RedditCollector extracts submissions from one subreddit listing
type RedditCollector struct {
	client    *RedditClient
	subreddit string
	sort      string
	sanitizer *bluemonday.Policy
}

// NewRedditHot creates a collector over the subreddit's hot listing
func NewRedditHot(client *RedditClient, subreddit string) *RedditCollector {
	return newReddit(client, subreddit, sortHot)
}

// NewRedditRising creates a collector over the subreddit's rising listing
func NewRedditRising(client *RedditClient, subreddit string) *RedditCollector {
	return newReddit(client, subreddit, sortRising)
}

// NewRedditTop creates a collector over the subreddit's top listing
func NewRedditTop(client *RedditClient, subreddit string) *RedditCollector {
	return newReddit(client, subreddit, sortTop)
}

func newReddit(client *RedditClient, subreddit, sort string) *RedditCollector {
	return &RedditCollector{
		client:    client,
		subreddit: subreddit,
		sort:      sort,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Name identifies the collector variant in logs and stats
func (c *RedditCollector) Name() string {
	return fmt.Sprintf("reddit-%s-%s", c.subreddit, c.sort)
}

// Extract pulls up to limit submissions and stages them as items. Every item
// carries the submission URL as its artifact source, the post shortlink as
// its unique context and the post title as an authored text block.
func (c *RedditCollector) Extract(ctx context.Context, limit int) ([]*domain.Item, error) {
	subs, err := c.client.Listing(ctx, c.subreddit, c.sort, limit)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", c.Name(), err)
	}

	items := make([]*domain.Item, 0, len(subs))
	for _, sub := range subs {
		item := domain.NewItem(sub.URL)
		item.SetContext("reddit", sub.Shortlink())
		item.AddText(sub.Title, domain.BlockTitle, 1.0)

		// selftext may carry user-authored markup
		if body := c.sanitizer.Sanitize(sub.Selftext); body != "" {
			item.AddText(body, domain.BlockDescription, 1.0)
		}

		items = append(items, item)
	}

	return items, nil
}
