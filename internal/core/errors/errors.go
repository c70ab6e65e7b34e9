package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Access
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limit exceeded")

	// Snapshot
	ErrSnapshotNotReady = errors.New("snapshot not ready")

	// Ticket records
	ErrMissingTimestamp = errors.New("timestamp missing")
	ErrNegativeDuration = errors.New("closedAt precedes createdAt")

	// Upstream
	ErrThrottleBudgetExhausted = errors.New("rate-limit retry budget exhausted")
	ErrMissingAccessToken      = errors.New("token response has no access_token")

	// Generic
	ErrNotFound = errors.New("resource not found")
)

// AuthError reports a failed client-credentials exchange. It is fatal at startup.
type AuthError struct {
	Cause error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("upstream authentication failed: %v", e.Cause)
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

// FetchError aborts one refresh cycle. PagesFetched counts the pages of
// Resource that completed before the abort.
type FetchError struct {
	Resource     string
	PagesFetched int
	Cause        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %q aborted after %d page(s): %v", e.Resource, e.PagesFetched, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// ParseError marks a single ticket whose derived metrics could not be computed.
// The ticket is excluded from aggregates; the batch continues.
type ParseError struct {
	TicketID string
	Field    string
	Cause    error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("ticket %s: %v", e.TicketID, e.Cause)
	}
	return fmt.Sprintf("ticket %s: field %s: %v", e.TicketID, e.Field, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// StatusError carries an unexpected upstream HTTP status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status code %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Body)
}

// AppError wraps errors with additional context for HTTP responses
type AppError struct {
	Err        error  // The underlying error
	Message    string // User-friendly message
	Code       string // Machine-readable error code
	StatusCode int    // HTTP status code
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewUnauthorizedError returns the single response used for every rejected
// access token, whatever the reason.
func NewUnauthorizedError() *AppError {
	return &AppError{
		Err:        ErrUnauthorized,
		Message:    "Authentication required",
		Code:       "UNAUTHORIZED",
		StatusCode: 401,
	}
}

func NewNotFoundError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "NOT_FOUND",
		StatusCode: 404,
	}
}
