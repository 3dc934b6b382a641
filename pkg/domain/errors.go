package domain

import "errors"

// upstream and catalog failure taxonomy. Source clients wrap transport
// failures with these sentinels so callers can branch with errors.Is without
// seeing raw upstream errors.
var (
	// ErrUpstreamUnavailable indicates a network or parse failure after retries
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrUpstreamRateLimited indicates the upstream throttled us, retryable after backoff
	ErrUpstreamRateLimited = errors.New("upstream rate limited")

	// ErrCatalogUnavailable indicates all required sources failed for a build
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)
