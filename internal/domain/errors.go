package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrValidation signals a malformed request rejected at the boundary.
	ErrValidation = errors.New("validation failed")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrBackendUnavailable signals a connection or transport failure of the search backend.
	ErrBackendUnavailable = errors.New("search backend unavailable")
	// ErrBackendTimeout signals the backend call exceeded the request deadline.
	ErrBackendTimeout = errors.New("search backend timeout")
	// ErrBackendMalformed signals a contract violation in the backend response.
	ErrBackendMalformed = errors.New("malformed backend response")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrInternal signals an unexpected, unclassified failure.
	ErrInternal = errors.New("internal error")
)

// RateLimitedError wraps ErrRateLimited with the retry hint for the caller.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s: retry after %ds", ErrRateLimited.Error(), int(e.RetryAfter.Seconds()))
}

func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }

// NewRateLimited creates a rate limit error carrying the retry hint.
func NewRateLimited(retryAfter time.Duration) error {
	return &RateLimitedError{RetryAfter: retryAfter}
}
