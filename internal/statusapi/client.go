package statusapi

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/statuswatch/statuswatch/internal/cache"
	"github.com/statuswatch/statuswatch/internal/metrics"
)

// Package statusapi fetches and validates status page summaries.
//
// FetchSummary consults the response cache first, retries transient
// failures with linear backoff, and records the upstream round-trip time
// so the exporter can graph it.

// ErrInvalidSummary is returned when the response body parses but is not a
// usable status page summary.
var ErrInvalidSummary = errors.New("statusapi: response is not a valid summary")

// Options configures a Client.
type Options struct {
	URL        string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	UserAgent  string
}

// FetchInfo carries metadata about how a summary was obtained.
type FetchInfo struct {
	FromCache    bool          `json:"from_cache"`
	ResponseTime time.Duration `json:"response_time"`
	Attempts     int           `json:"attempts"`
}

// Client fetches status page summaries.
type Client struct {
	opts   Options
	http   *http.Client
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewClient creates a Client. The cache may be nil to disable caching.
func NewClient(opts Options, responseCache cache.Cache, cacheTTL time.Duration, logger *zap.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "statuswatch/1.0"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		opts:   opts,
		http:   &http.Client{Timeout: opts.Timeout},
		cache:  responseCache,
		ttl:    cacheTTL,
		logger: logger,
	}
}

// FetchSummary returns the current summary, from cache when allowed.
func (c *Client) FetchSummary(ctx context.Context, useCache bool) (*Summary, *FetchInfo, error) {
	key := cacheKey(c.opts.URL)

	if useCache && c.cache != nil {
		if body, ok := c.cache.Get(key); ok {
			summary, err := decodeSummary(body)
			if err == nil {
				c.logger.Debug("summary served from cache", zap.String("key", key))
				c.publishCacheMetrics()
				return summary, &FetchInfo{FromCache: true}, nil
			}
			// A cached body that no longer decodes is dropped and refetched.
			c.cache.Delete(key)
		}
	}

	body, info, err := c.fetchWithRetry(ctx)
	if err != nil {
		return nil, info, err
	}

	summary, err := decodeSummary(body)
	if err != nil {
		return nil, info, err
	}

	if c.cache != nil {
		if err := c.cache.Put(key, body, c.ttl); err != nil {
			c.logger.Warn("could not cache summary", zap.Error(err))
		}
		c.publishCacheMetrics()
	}
	return summary, info, nil
}

// publishCacheMetrics mirrors cache counters into the exporter.
func (c *Client) publishCacheMetrics() {
	stats := c.cache.Stats()
	metrics.CacheHitRatio.Set(stats.HitRatio)
	metrics.CacheSizeBytes.Set(float64(stats.TotalSizeBytes))
	metrics.CacheEvictions.Set(float64(stats.Evictions))
}

// fetchWithRetry performs the GET with linear backoff on transient errors.
func (c *Client) fetchWithRetry(ctx context.Context) ([]byte, *FetchInfo, error) {
	info := &FetchInfo{}
	var lastErr error

	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * c.opts.RetryDelay
			c.logger.Debug("retrying status fetch",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, info, ctx.Err()
			}
		}
		info.Attempts = attempt + 1

		start := time.Now()
		body, retriable, err := c.fetchOnce(ctx)
		info.ResponseTime = time.Since(start)
		if err == nil {
			return body, info, nil
		}
		lastErr = err
		if !retriable {
			break
		}
	}
	return nil, info, fmt.Errorf("fetch %s: %w", c.opts.URL, lastErr)
}

// fetchOnce performs a single GET. The bool reports whether the failure is
// worth retrying.
func (c *Client) fetchOnce(ctx context.Context) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.URL, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// Network errors and timeouts are transient.
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("upstream returned %s", resp.Status)
	default:
		return nil, false, fmt.Errorf("upstream returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	return body, false, nil
}

// decodeSummary parses and validates a summary body.
func decodeSummary(body []byte) (*Summary, error) {
	var s Summary
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	if s.Page.Name == "" || s.Status.Indicator == "" {
		return nil, ErrInvalidSummary
	}
	return &s, nil
}

// cacheKey fingerprints the request URL.
func cacheKey(url string) string {
	sum := md5.Sum([]byte("summary:" + url))
	return hex.EncodeToString(sum[:])
}
