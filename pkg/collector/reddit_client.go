package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-pkgz/repeater/v2"
)

// redditAuthURL is where app-only tokens are minted
const redditAuthURL = "https://www.reddit.com/api/v1/access_token"

// RedditClient is a single long-lived reddit API client, constructed once
// and shared by all reddit collectors. With credentials it runs the app-only
// OAuth flow against the oauth API host; without credentials it falls back
// to the public JSON listings.
type RedditClient struct {
	clientID     string
	clientSecret string
	userAgent    string
	client       *http.Client

	authURL string
	apiURL  string

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewRedditClient creates the shared reddit client
func NewRedditClient(clientID, clientSecret, userAgent string, timeout time.Duration) *RedditClient {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	apiURL := "https://www.reddit.com"
	if clientID != "" {
		apiURL = "https://oauth.reddit.com"
	}
	return &RedditClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		userAgent:    userAgent,
		client:       &http.Client{Timeout: timeout},
		authURL:      redditAuthURL,
		apiURL:       apiURL,
	}
}

// Submission is the subset of a reddit post the pipeline cares about
type Submission struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Selftext string `json:"selftext"`
}

// Shortlink returns the canonical short URL of the submission's post
func (s Submission) Shortlink() string {
	return "https://redd.it/" + s.ID
}

type listingResponse struct {
	Data struct {
		Children []struct {
			Data Submission `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Listing fetches one subreddit listing (hot, rising, top...) with up to
// limit entries. Transient failures are retried with backoff; this is the
// collector-side retry the load path deliberately does not have.
func (c *RedditClient) Listing(ctx context.Context, subreddit, sort string, limit int) ([]Submission, error) {
	var subs []Submission

	retrier := repeater.NewBackoff(3, 250*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	err := retrier.Do(ctx, func() error {
		var err error
		subs, err = c.listing(ctx, subreddit, sort, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("reddit %s/%s listing: %w", subreddit, sort, err)
	}
	return subs, nil
}

func (c *RedditClient) listing(ctx context.Context, subreddit, sort string, limit int) ([]Submission, error) {
	listingURL := fmt.Sprintf("%s/r/%s/%s.json?limit=%d&raw_json=1", c.apiURL, subreddit, sort, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listingURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	if c.clientID != "" {
		token, err := c.accessToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("get access token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidateToken()
		return nil, fmt.Errorf("listing unauthorized")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var listing listingResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	subs := make([]Submission, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		subs = append(subs, child.Data)
	}
	return subs, nil
}

// accessToken returns a valid app-only token, refreshing it shortly before
// expiry. Safe for concurrent collectors.
func (c *RedditClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.expires.Add(-time.Minute)) {
		return c.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint status code: %d", resp.StatusCode)
	}

	var tr struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("empty access token")
	}

	c.token = tr.AccessToken
	c.expires = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	return c.token, nil
}

func (c *RedditClient) invalidateToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
}
