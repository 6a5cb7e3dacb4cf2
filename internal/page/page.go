package page

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pfrederiksen/domevents/internal/dom"
)

const (
	UserAgent  = "domevents/1.0 (github.com/pfrederiksen/domevents)"
	Timeout    = 30 * time.Second
	MaxRetries = 3
)

// Loader fetches and parses pages.
type Loader struct {
	client          *http.Client
	maxRetries      uint64
	initialInterval time.Duration
}

// Option configures a Loader.
type Option func(*Loader)

// WithClient replaces the HTTP client.
func WithClient(c *http.Client) Option {
	return func(l *Loader) {
		l.client = c
	}
}

// WithRetry sets how many times a failed fetch is retried and the first
// wait between attempts.
func WithRetry(maxRetries uint64, initialInterval time.Duration) Option {
	return func(l *Loader) {
		l.maxRetries = maxRetries
		l.initialInterval = initialInterval
	}
}

// New creates a new Loader instance
func New(opts ...Option) *Loader {
	l := &Loader{
		client: &http.Client{
			Timeout: Timeout,
		},
		maxRetries:      MaxRetries,
		initialInterval: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// IsURL reports whether source names an http(s) resource.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Load reads the page at source, a file path or an http(s) URL.
func (l *Loader) Load(ctx context.Context, source string) (*dom.Tree, error) {
	if IsURL(source) {
		return l.Fetch(ctx, source)
	}
	return LoadFile(source)
}

// LoadFile parses a local HTML file.
func LoadFile(path string) (*dom.Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}
	defer f.Close()

	return dom.Parse(f)
}

// Fetch downloads and parses the page at url.
func (l *Loader) Fetch(ctx context.Context, url string) (*dom.Tree, error) {
	var tree *dom.Tree

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("User-Agent", UserAgent)

		resp, err := l.client.Do(req)
		if err != nil {
			return fmt.Errorf("fetching page: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("unexpected status code: %d", resp.StatusCode))
		}

		tree, err = dom.Parse(resp.Body)
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = l.initialInterval
	policy.MaxElapsedTime = 2 * Timeout

	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, l.maxRetries), ctx)); err != nil {
		return nil, err
	}
	return tree, nil
}
