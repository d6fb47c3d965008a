package entity

import (
	"errors"
	"fmt"
)

// ErrNoQuoteData is returned by the price service when an upstream fetch
// fails and no cached value of any age exists for the requested set.
var ErrNoQuoteData = errors.New("no quote data available")

// ErrCriticalUnavailable signals a first-load total failure: neither
// balance data nor cached price data exist. It is the only error that
// surfaces past the merge boundary as a whole-view condition.
var ErrCriticalUnavailable = errors.New("no balance or price data available")

// UpstreamError represents a non-2xx response from the price API.
type UpstreamError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the response class justifies a retry.
// 4xx responses are client/request errors and are treated as hard
// failures; 5xx responses are transient.
func (e *UpstreamError) Retryable() bool {
	return e.StatusCode >= 500
}

// IsRetryable classifies an error for the retry policy: network and
// timeout failures are retried, upstream rejections (4xx) are not.
func IsRetryable(err error) bool {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Retryable()
	}
	// Anything that is not a typed upstream rejection is assumed to be a
	// transport-level failure.
	return err != nil
}
