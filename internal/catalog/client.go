package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://www.googleapis.com/books/v1"

	// Google Books tolerates short bursts, the limiter keeps us under the daily quota pace
	defaultRateLimit = 10
	defaultRateBurst = 20

	// Retry configuration. Lookups sit on the request path so the budget is small.
	defaultMaxRetries   = 2
	defaultInitialDelay = 200 * time.Millisecond
	defaultMaxDelay     = 2 * time.Second

	volumeCachePrefix = "catalog:volume:"
)

// ErrVolumeNotFound is returned when the catalog has no volume for an identifier.
var ErrVolumeNotFound = errors.New("volume not found")

// Config holds the settings for a catalog client.
type Config struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	RateLimit int
	CacheTTL  time.Duration
}

// Client talks to the Google Books volumes API with rate limiting and retry logic
type Client struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	rateLimiter  *rate.Limiter
	cache        Cache
	cacheTTL     time.Duration
	maxRetries   int
	initialDelay time.Duration
	maxDelay     time.Duration
	logger       *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithCache enables read-through caching of volume lookups.
func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetry overrides the retry budget.
func WithRetry(maxRetries int, initialDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.initialDelay = initialDelay
		c.maxDelay = maxDelay
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a new catalog API client
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = defaultRateLimit
	}

	c := &Client{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		rateLimiter: rate.NewLimiter(rate.Limit(limit), max(limit*2, defaultRateBurst)),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		cacheTTL:     cfg.CacheTTL,
		maxRetries:   defaultMaxRetries,
		initialDelay: defaultInitialDelay,
		maxDelay:     defaultMaxDelay,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetVolume fetches metadata for a single volume, consulting the cache first.
func (c *Client) GetVolume(ctx context.Context, volumeID string) (*Volume, error) {
	if volumeID == "" {
		return nil, ErrVolumeNotFound
	}

	key := volumeCachePrefix + volumeID
	if c.cache != nil {
		raw, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			c.logger.Warn("catalog cache read failed", "volume_id", volumeID, "error", err)
		} else if ok {
			var v Volume
			if err := json.Unmarshal(raw, &v); err == nil {
				return &v, nil
			}
		}
	}

	var resp volumeResponse
	if err := c.doRequest(ctx, "/volumes/"+url.PathEscape(volumeID), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch volume %s: %w", volumeID, err)
	}
	v := resp.toVolume()
	if v.ID == "" {
		v.ID = volumeID
	}

	if c.cache != nil {
		if raw, err := json.Marshal(v); err == nil {
			if err := c.cache.Set(ctx, key, raw, c.cacheTTL); err != nil {
				c.logger.Warn("catalog cache write failed", "volume_id", volumeID, "error", err)
			}
		}
	}

	return &v, nil
}

// Search runs a free-text query. startIndex is 0-based, maxResults is capped at 40 by the API.
func (c *Client) Search(ctx context.Context, query string, startIndex, maxResults int) (*SearchResult, error) {
	params := BuildSearchParams(query, startIndex, maxResults)

	var resp volumeListResponse
	if err := c.doRequest(ctx, "/volumes", params, &resp); err != nil {
		return nil, fmt.Errorf("failed to search volumes: %w", err)
	}

	out := &SearchResult{
		TotalItems: resp.TotalItems,
		Items:      make([]Volume, 0, len(resp.Items)),
	}
	for _, item := range resp.Items {
		out.Items = append(out.Items, item.toVolume())
	}
	return out, nil
}

// doRequest performs a GET with rate limiting and retry logic
func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, result any) error {
	if params == nil {
		params = url.Values{}
	}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	fullURL := c.baseURL + endpoint
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	var lastErr error
	delay := c.initialDelay

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying catalog request",
				"endpoint", endpoint, "attempt", attempt+1, "delay", delay, "error", lastErr)
			select {
			case <-ctx.Done():
				return fmt.Errorf("request cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
			delay = min(delay*2, c.maxDelay)
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		retry, err := c.attempt(ctx, fullURL, result)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// attempt runs a single request and reports whether a failure is worth retrying.
func (c *Client) attempt(ctx context.Context, fullURL string, result any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Bookish/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// caller cancellation is final, transport errors are not
		return ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, ErrVolumeNotFound
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return shouldRetry(resp.StatusCode), fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return false, fmt.Errorf("failed to parse response: %w", err)
	}
	return false, nil
}

// shouldRetry determines if an HTTP status code warrants a retry
func shouldRetry(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}

// BuildSearchParams creates the query parameters for a volume search
func BuildSearchParams(query string, startIndex, maxResults int) url.Values {
	params := url.Values{}
	params.Set("q", query)
	params.Set("startIndex", strconv.Itoa(max(startIndex, 0)))
	if maxResults > 0 {
		params.Set("maxResults", strconv.Itoa(min(maxResults, 40)))
	}
	return params
}
