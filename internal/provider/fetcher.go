package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

var _ PageFetcher = (*HTTPFetcher)(nil)

// maxPageBytes caps how much of a rate page is read.
const maxPageBytes = 4 << 20

// HTTPFetcher downloads pages over HTTP with a bounded timeout.
type HTTPFetcher struct {
	userAgent string
	client    *http.Client
}

// NewHTTPFetcher creates a new HTTPFetcher.
func NewHTTPFetcher(timeoutSec int, userAgent string) *HTTPFetcher {
	return &HTTPFetcher{
		userAgent: userAgent,
		client:    &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}
}

// Fetch returns the body of url. Any status other than 200 is an error.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("page request creation failed: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "es-DO,es;q=0.9,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("page request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page %s returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("read page %s: %w", url, err)
	}
	return string(body), nil
}
