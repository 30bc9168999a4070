// SPDX-License-Identifier: Apache-2.0
// Package errors provides typed error handling for the Vibemonitor SDK.
package errors

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// ErrorCode classifies SDK errors for monitoring and recovery.
type ErrorCode string

const (
	// CodeInternal indicates an internal SDK error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeInvalidInput indicates the input was invalid.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeAuth indicates authentication failed (401 or failed token refresh).
	CodeAuth ErrorCode = "AUTH_FAILED"

	// CodeServer indicates the backend reported a failure.
	CodeServer ErrorCode = "SERVER_ERROR"

	// CodeNetwork indicates a transport failure (connection, DNS, body read).
	CodeNetwork ErrorCode = "NETWORK_ERROR"

	// CodeNotFound indicates a resource was not found.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeRateLimit indicates rate limiting was triggered.
	CodeRateLimit ErrorCode = "RATE_LIMITED"
)

// VibeError is a typed error with context for observability.
// It implements the error interface and can be unwrapped with errors.As().
type VibeError struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]interface{}
	Recoverable bool
	StatusCode  int // HTTP status associated with the failure

	// Redirect signals that the caller should route the user back to login.
	// Only set on authentication failures.
	Redirect bool
}

// Error implements the error interface.
func (e *VibeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *VibeError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *VibeError) MarshalJSON() ([]byte, error) {
	type Alias VibeError
	return json.Marshal(&struct {
		Message     string `json:"message"`
		Code        string `json:"code"`
		Err         string `json:"error,omitempty"`
		Recoverable bool   `json:"recoverable"`
		*Alias
	}{
		Message:     e.Error(),
		Code:        string(e.Code),
		Err:         fmt.Sprintf("%v", e.Err),
		Recoverable: e.Recoverable,
		Alias:       (*Alias)(e),
	})
}

// New creates a new VibeError with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *VibeError {
	return &VibeError{
		Code:        code,
		Message:     msg,
		Err:         cause,
		Context:     make(map[string]interface{}),
		Recoverable: code == CodeNetwork || code == CodeRateLimit,
		StatusCode:  codeToStatusCode(code),
	}
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *VibeError) WithContext(key string, value interface{}) *VibeError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithStatus overrides the HTTP status carried by the error.
func (e *VibeError) WithStatus(status int) *VibeError {
	e.StatusCode = status
	return e
}

// WithRecoverable sets whether the error can be recovered from.
func (e *VibeError) WithRecoverable(recoverable bool) *VibeError {
	e.Recoverable = recoverable
	return e
}

// WithRedirect marks the error as one that should send the user to login.
func (e *VibeError) WithRedirect() *VibeError {
	e.Redirect = true
	return e
}

// AsVibeError attempts to convert an error to a VibeError.
// Returns the error as VibeError if it is one, or wraps it otherwise.
func AsVibeError(err error) *VibeError {
	if err == nil {
		return nil
	}
	if ve, ok := err.(*VibeError); ok {
		return ve
	}
	return New(CodeInternal, "wrapped error", err)
}

// codeToStatusCode maps error codes to HTTP status codes.
func codeToStatusCode(code ErrorCode) int {
	switch code {
	case CodeNotFound:
		return 404
	case CodeAuth:
		return 401
	case CodeInvalidInput:
		return 400
	case CodeRateLimit:
		return 429
	default:
		return 500
	}
}
