// Package source fetches the raw study log over HTTP.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 60 * time.Second

// maxBodyBytes caps a single download; the sheet is a few thousand rows at most.
const maxBodyBytes = 32 << 20

// Source returns the raw CSV bytes of the study log.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// HTTP fetches CSV from a published spreadsheet URL.
type HTTP struct {
	URL    string
	Client *http.Client
}

// NewHTTP returns an HTTP source with the given request timeout.
func NewHTTP(url string, timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTP{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
	}
}

// Fetch performs one GET and returns the full body.
func (s *HTTP) Fetch(ctx context.Context) ([]byte, error) {
	if s.URL == "" {
		return nil, fmt.Errorf("source url is empty")
	}
	resp, err := s.httpRequest(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected source status: %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read source body: %w", err)
	}
	return body, nil
}

func (s *HTTP) httpRequest(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}
