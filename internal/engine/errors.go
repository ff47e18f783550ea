// internal/engine/errors.go
package engine

import (
	"context"
	"errors"
	"fmt"
)

// Common engine errors
var (
	ErrTimeout         = errors.New("request timeout")
	ErrNetworkError    = errors.New("network error")
	ErrBadStatus       = errors.New("unexpected HTTP status")
	ErrReadError       = errors.New("failed to read response body")
	ErrParseError      = errors.New("failed to parse response")
	ErrUnsupportedType = errors.New("unsupported content type")
	ErrWorkerPanic     = errors.New("page worker panicked")
	ErrBrowserNotFound = errors.New("chrome browser not found")
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	ErrCodeTimeout         ErrorCode = "TIMEOUT"
	ErrCodeNetworkError    ErrorCode = "NETWORK_ERROR"
	ErrCodeHTTPStatus      ErrorCode = "HTTP_STATUS"
	ErrCodeReadError       ErrorCode = "READ_ERROR"
	ErrCodeParseError      ErrorCode = "PARSE_ERROR"
	ErrCodeUnsupportedType ErrorCode = "UNSUPPORTED_TYPE"
	ErrCodePanic           ErrorCode = "PANIC"
	ErrCodeBrowserError    ErrorCode = "BROWSER_ERROR"
)

// EngineError is a page-scoped failure. It never aborts a run: the page simply
// contributes no records.
type EngineError struct {
	Code       ErrorCode
	Page       int
	Message    string
	Underlying error
	Retry      bool
	Details    map[string]interface{}
}

// Error implements the error interface
func (e *EngineError) Error() string {
	prefix := string(e.Code)
	if e.Page > 0 {
		prefix = fmt.Sprintf("page %d: %s", e.Page, e.Code)
	}
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// Is checks if the error matches the target
func (e *EngineError) Is(target error) bool {
	if t, ok := target.(*EngineError); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Underlying, target)
}

// NewEngineError creates a new EngineError
func NewEngineError(code ErrorCode, message string, err error) *EngineError {
	return &EngineError{
		Code:       code,
		Message:    message,
		Underlying: err,
		Retry:      false,
		Details:    make(map[string]interface{}),
	}
}

// NewPageError creates an EngineError bound to a page index
func NewPageError(page int, code ErrorCode, message string, err error) *EngineError {
	e := NewEngineError(code, message, err)
	e.Page = page
	return e
}

// WithRetry marks the error as retryable
func (e *EngineError) WithRetry() *EngineError {
	e.Retry = true
	return e
}

// WithDetail adds a detail to the error
func (e *EngineError) WithDetail(key string, value interface{}) *EngineError {
	e.Details[key] = value
	return e
}

// CodeOf returns the ErrorCode of err, or "" if err is not an EngineError
func CodeOf(err error) ErrorCode {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

// TransportError classifies a failed round trip. A cancelled or expired
// context becomes TIMEOUT; everything else is a network error.
func TransportError(ctx context.Context, page int, err error) *EngineError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return NewPageError(page, ErrCodeTimeout, "page deadline exceeded", errors.Join(ErrTimeout, err)).WithRetry()
	}
	if isTimeout(err) {
		return NewPageError(page, ErrCodeTimeout, "request timed out", errors.Join(ErrTimeout, err)).WithRetry()
	}
	return NewPageError(page, ErrCodeNetworkError, "request failed", errors.Join(ErrNetworkError, err)).WithRetry()
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
