package arkm

// Package arkm talks to the Arkham Intelligence explorer. This file is the
// transport layer: it fetches pages and knows nothing about wallet records.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"wallet-watch/internal/infra/log"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public explorer the monitor scrapes.
const DefaultBaseURL = "https://intel.arkm.com"

// browserUserAgent keeps the scrape indistinguishable from a regular
// browser visit; the explorer serves a reduced page to obvious bots.
const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// FetchError marks a network failure, timeout or non-2xx response from the
// explorer. The scheduler's next interval is the retry mechanism; the
// client never retries internally.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client fetches explorer pages over HTTP.
type Client struct {
	baseURL         string
	httpClient      *http.Client
	rateLimiter     *rate.Limiter
	circuitBreaker  *gobreaker.CircuitBreaker
	maxResponseSize int64
}

// NewClient builds a client for the given explorer base URL. timeout bounds
// each request so a stalled fetch cannot hang the process; zero values fall
// back to sane defaults.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	// The monitor issues one request per cycle; the limiter only matters
	// when cycles are run back to back (tests, --once in a shell loop).
	rateLimiter := rate.NewLimiter(rate.Limit(1), 3)

	circuitBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ArkhamExplorer",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Client{
		baseURL:         baseURL,
		rateLimiter:     rateLimiter,
		circuitBreaker:  circuitBreaker,
		maxResponseSize: 10 * 1024 * 1024, // 10MB
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DisableKeepAlives: false,
				MaxIdleConns:      10,
				IdleConnTimeout:   90 * time.Second,
			},
		},
	}
}

// EntityPath returns the explorer path for an entity page.
func EntityPath(entityID string) string {
	return "/explorer/entity/" + entityID
}

// AddressURL returns the public explorer link for a wallet address.
func (c *Client) AddressURL(address string) string {
	return c.baseURL + "/explorer/address/" + address
}

// FetchEntityPage retrieves the raw HTML of the entity page. It returns a
// FetchError on network failure or a non-2xx status.
func (c *Client) FetchEntityPage(ctx context.Context, entityID string) ([]byte, error) {
	if entityID == "" {
		return nil, fmt.Errorf("entity id is required")
	}

	url := c.baseURL + EntityPath(entityID)

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	var body []byte
	_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		b, err := c.get(ctx, url)
		if err != nil {
			return nil, err
		}
		body = b
		return b, nil
	})
	if err != nil {
		log.LogError("Failed to fetch entity page",
			zap.String("entity_id", entityID),
			zap.String("url", url),
			zap.Error(err))
		var fe *FetchError
		if errors.As(err, &fe) {
			return nil, fe
		}
		// Breaker-open and similar rejections still count as fetch failures.
		return nil, &FetchError{URL: url, Err: err}
	}

	log.LogDebug("Fetched entity page",
		zap.String("entity_id", entityID),
		zap.Int("bytes", len(body)))
	return body, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize))
	if err != nil {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	log.LogDebug("HTTP GET",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()))

	return body, nil
}
