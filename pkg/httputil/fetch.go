package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/matzehuels/modmap/pkg/buildinfo"
	"github.com/matzehuels/modmap/pkg/observability"
)

var (
	// ErrNotFound is returned for a 404 response.
	ErrNotFound = errors.New("not found")

	// ErrNetwork is returned for transport failures and unexpected statuses.
	ErrNetwork = errors.New("network error")
)

// MaxBodySize bounds a fetched document.
const MaxBodySize = 32 << 20

// NewClient returns an HTTP client with a request timeout.
func NewClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// Fetch performs a GET request with [DefaultBackoff] and returns the
// response body. A nil client uses [NewClient].
func Fetch(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	return DefaultBackoff.Fetch(ctx, client, rawURL)
}

// Fetch performs a GET request and returns the response body, retrying
// transient failures under b. A nil client uses [NewClient].
func (b Backoff) Fetch(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	if client == nil {
		client = NewClient()
	}
	var body []byte
	err := b.Do(ctx, func(attempt int) error {
		var err error
		body, err = get(ctx, client, rawURL)
		return err
	})
	return body, err
}

func get(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.5")

	host, path := hostPath(req.URL)
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := client.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		return nil, &RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return nil, &RetryableError{Err: fmt.Errorf("%w: read body: %v", ErrNetwork, err)}
	}
	if len(data) > MaxBodySize {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrNetwork, MaxBodySize)
	}
	return data, nil
}

func hostPath(u *url.URL) (string, string) {
	if u == nil {
		return "", ""
	}
	return u.Host, u.Path
}

func checkStatus(resp *http.Response) error {
	switch code := resp.StatusCode; {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusTooManyRequests || code >= 500:
		return &RetryableError{
			Err:   fmt.Errorf("%w: status %d", ErrNetwork, code),
			After: retryAfter(resp.Header.Get("Retry-After")),
		}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
