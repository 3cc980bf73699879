package station

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrUnreachable indicates the station did not produce a usable response
// within the retry budget.
var ErrUnreachable = errors.New("station unreachable")

// Client fetches raw frames from the weather station over HTTP.
type Client struct {
	BaseURL    string
	RetryCount int           // additional attempts after the first
	RetryDelay time.Duration // delay between attempts

	httpClient *http.Client
}

// NewClient returns a client with the given request timeout and retry budget.
func NewClient(baseURL string, timeout time.Duration, retryCount int, retryDelay time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if retryCount < 0 {
		retryCount = 0
	}
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		RetryCount: retryCount,
		RetryDelay: retryDelay,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch issues GET BaseURL+command and returns the response body with line
// breaks stripped. A pending maintenance command rides along as a path
// suffix. Failed attempts are retried after RetryDelay until the budget is
// exhausted, then ErrUnreachable is returned wrapping the last error. The
// context aborts both in-flight requests and inter-attempt delays.
func (c *Client) Fetch(ctx context.Context, command string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.RetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.RetryDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		body, err := c.fetchOnce(ctx, command)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
	}
	return "", fmt.Errorf("%w after %d attempts: %v", ErrUnreachable, c.RetryCount+1, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, command string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+command, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	body := strings.NewReplacer("\r", "", "\n", "").Replace(string(raw))
	if body == "" {
		return "", errors.New("empty response body")
	}
	return body, nil
}
