// Package httpx is the shared HTTP client used by every outbound
// adapter: a bounded timeout, exponential backoff retry on transient
// failures, and a per-host politeness delay between calls.
package httpx

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client wraps http.Client with retry and politeness-delay behavior
// common to every external adapter.
type Client struct {
	http       *http.Client
	maxRetries int
	politeness time.Duration
	lastCallAt time.Time
}

// New builds a Client with a bounded timeout, a small retry budget,
// and a minimum delay between successive calls.
func New(timeout time.Duration, maxRetries int, politeness time.Duration) *Client {
	return &Client{
		http:       &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		politeness: politeness,
	}
}

// GetJSON issues a GET request with retry on transient errors (5xx,
// timeouts), honoring the configured per-host politeness delay, and
// returns the raw response body.
func (c *Client) GetJSON(url string, headers map[string]string) ([]byte, error) {
	if wait := c.politeness - time.Since(c.lastCallAt); wait > 0 {
		time.Sleep(wait)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		c.lastCallAt = time.Now()

		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			c.backoff(attempt)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			c.backoff(attempt)
			continue
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("transient status %d from %s", resp.StatusCode, url)
			c.backoff(attempt)
			continue
		}
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("permanent status %d from %s: %s", resp.StatusCode, url, string(body))
		}

		return body, nil
	}

	return nil, fmt.Errorf("exhausted retries: %w", lastErr)
}

func (c *Client) backoff(attempt int) {
	if attempt >= c.maxRetries {
		return
	}
	time.Sleep(time.Duration(1<<uint(attempt)) * 250 * time.Millisecond)
}
