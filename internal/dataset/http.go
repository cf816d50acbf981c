package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rewired-gh/readiness/internal/logger"
)

// HTTPConfig holds retry configuration for remote datasets
type HTTPConfig struct {
	MaxRetries     int
	RetryDelayBase time.Duration
}

// HTTPSource downloads the dataset CSV over HTTP(S)
type HTTPSource struct {
	url            string
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// NewHTTPSource creates a new HTTP dataset source
func NewHTTPSource(url string, timeout time.Duration, cfg HTTPConfig) *HTTPSource {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelayBase <= 0 {
		cfg.RetryDelayBase = time.Second
	}
	return &HTTPSource{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries:     cfg.MaxRetries,
		retryDelayBase: cfg.RetryDelayBase,
	}
}

// Key returns the dataset URL
func (s *HTTPSource) Key() string {
	return s.url
}

// Open performs the GET request with retry logic and returns the body
func (s *HTTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	var lastErr error

	for i := 0; i < s.maxRetries; i++ {
		if i > 0 {
			delay := s.retryDelayBase * time.Duration(i)
			logger.Debug("Retrying dataset download in %v (attempt %d/%d): %v", delay, i+1, s.maxRetries, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "text/csv")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("failed to download dataset: unexpected status %d", resp.StatusCode)
		}

		return resp.Body, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
