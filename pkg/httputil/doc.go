// Package httputil provides the HTTP plumbing used to fetch remote datasets.
//
//   - [Backoff]: retry policy with doubling delays and Retry-After hints
//   - [Fetch]: GET a URL and return the body, classifying failures
//
// Network errors, 429 and 5xx responses are wrapped in [RetryableError] so
// [Backoff.Do] attempts them again; 404 and other client errors are
// returned at once. Every request is reported to the observability HTTP hooks.
package httputil
