package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultUserAgent = "MARV-Grant-Finder/1.0 (grant-research-tool)"

// Fetcher is a rate-limited HTTP client with retries and exponential
// backoff, shared by sources that talk to upstream sites directly.
type Fetcher struct {
	client *http.Client
	config FetchConfig
	logger *zap.Logger

	mu       sync.Mutex
	lastCall time.Time
}

// NewFetcher builds a fetcher from config, applying defaults for unset
// fields.
func NewFetcher(config FetchConfig, logger *zap.Logger) *Fetcher {
	if config.TimeoutSeconds == 0 {
		config.TimeoutSeconds = 30
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.RateLimitRPS == 0 {
		config.RateLimitRPS = 0.5
	}
	if config.UserAgent == "" {
		config.UserAgent = defaultUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		config: config,
		logger: logger,
	}
}

// Get fetches a URL and returns the body bytes.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	return f.do(ctx, http.MethodGet, url, nil, "")
}

// PostJSON sends a JSON body and returns the response bytes.
func (f *Fetcher) PostJSON(ctx context.Context, url string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	return f.do(ctx, http.MethodPost, url, body, "application/json")
}

func (f *Fetcher) do(ctx context.Context, method, url string, body []byte, contentType string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < f.config.MaxRetries; attempt++ {
		if err := f.rateLimit(ctx); err != nil {
			return nil, err
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", f.config.UserAgent)
		req.Header.Set("Accept", "text/html,application/json;q=0.9,*/*;q=0.8")
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := f.client.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			data, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr == nil {
				return data, nil
			}
			err = readErr
		} else if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			err = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
		lastErr = err

		f.logger.Warn("request failed",
			zap.String("url", url),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", f.config.MaxRetries),
			zap.Error(err))

		if attempt < f.config.MaxRetries-1 {
			backoff := time.Duration(1<<attempt) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, fmt.Errorf("%s %s after %d attempts: %w", method, url, f.config.MaxRetries, lastErr)
}

// rateLimit blocks until the per-source request interval has elapsed.
func (f *Fetcher) rateLimit(ctx context.Context) error {
	f.mu.Lock()
	interval := time.Duration(float64(time.Second) / f.config.RateLimitRPS)
	wait := interval - time.Since(f.lastCall)
	if wait < 0 {
		wait = 0
	}
	f.lastCall = time.Now().Add(wait)
	f.mu.Unlock()

	if wait == 0 {
		return nil
	}
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
