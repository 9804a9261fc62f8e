package helpdex

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors returned by the client. Use errors.Is() to check.
var (
	ErrValidation         = errors.New("validation failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrRateLimited        = errors.New("rate limited")
	ErrBackendUnavailable = errors.New("search backend unavailable")
	ErrBackendTimeout     = errors.New("search backend timeout")
	ErrBackendMalformed   = errors.New("search backend returned malformed response")
	ErrInternal           = errors.New("internal server error")
)

// RateLimitedError wraps ErrRateLimited with the server's retry hint.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }

// apiError carries the raw error payload alongside the sentinel.
type apiError struct {
	sentinel error
	code     string
	message  string
	status   int
}

func (e *apiError) Error() string {
	return fmt.Sprintf("helpdex: %s (http %d): %s", e.code, e.status, e.message)
}

func (e *apiError) Unwrap() error { return e.sentinel }

// codeSentinels maps wire error codes to sentinel errors.
var codeSentinels = map[string]error{
	"validation_failed":          ErrValidation,
	"bad_request":                ErrValidation,
	"unauthorized":               ErrUnauthorized,
	"rate_limited":               ErrRateLimited,
	"backend_unavailable":        ErrBackendUnavailable,
	"backend_timeout":            ErrBackendTimeout,
	"backend_malformed_response": ErrBackendMalformed,
	"internal_error":             ErrInternal,
}
