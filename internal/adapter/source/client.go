package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/covid-state-tracker/internal/observability"
)

// maxErrorBody bounds how much of a failed response is quoted in the error.
const maxErrorBody = 512

// Client opens CSV snapshots by location. http(s) URLs are fetched with a
// timeout; any other location is read from the local filesystem.
type Client struct {
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a source client.
func NewClient(timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Open returns a reader for location. The caller closes it.
func (c *Client) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if isRemote(location) {
		return c.get(ctx, location)
	}
	f, err := os.Open(location)
	if err != nil {
		return nil, fmt.Errorf("open source file: %w", err)
	}
	return f, nil
}

func (c *Client) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("source error: %s: status %d: %s", url, resp.StatusCode, body)
	}

	c.logger.Debug("source response", "url", url, "content_length", resp.ContentLength)
	return resp.Body, nil
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
