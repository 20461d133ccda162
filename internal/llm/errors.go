package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// APIError is a provider error carrying the HTTP status of the failed call.
type APIError struct {
	Provider   Provider
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// IsServerError reports a 5xx-class failure.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

// IsServerError reports whether err wraps a 5xx-class APIError.
func IsServerError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsServerError()
}

// ErrorType buckets err into a short label for logs and metrics.
func ErrorType(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return "transport"
	}
	switch {
	case apiErr.IsServerError():
		return "server"
	case apiErr.StatusCode == http.StatusTooManyRequests:
		return "rate_limit"
	case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
		return "auth"
	case apiErr.StatusCode >= 400:
		return "client"
	default:
		return "unknown"
	}
}

func wrapStatus(p Provider, status int, err error) error {
	if status == 0 {
		return fmt.Errorf("%s: %w", p, err)
	}
	return &APIError{Provider: p, StatusCode: status, Err: err}
}
