// Package errors provides the structured error type returned by the Lark
// client, the ATS operations and the webhook router.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Configuration is missing; raised before any network call.
	ErrCodeConfigMissing ErrorCode = "CONFIG_MISSING"

	// The remote envelope carried a non-zero code.
	ErrCodeLarkAPIError   ErrorCode = "LARK_API_ERROR"
	ErrCodeLarkAuthFailed ErrorCode = "LARK_AUTH_FAILED"

	// The request never produced a decodable envelope.
	ErrCodeTransportFailed  ErrorCode = "TRANSPORT_FAILED"
	ErrCodeResponseInvalid  ErrorCode = "RESPONSE_INVALID"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodeTokenStoreFailed ErrorCode = "TOKEN_STORE_FAILED"

	ErrCodeEventTypeMissing ErrorCode = "EVENT_TYPE_MISSING"
	ErrCodeEventTypeUnknown ErrorCode = "EVENT_TYPE_UNKNOWN"

	ErrCodeUnknown ErrorCode = "UNKNOWN_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Retryable  bool                   `json:"retryable"`
	RemoteCode int                    `json:"remoteCode,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	cause      error
}

func (e *StandardError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, e.Details)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. Error Constructors
// ==========================

// NewConfigMissingError reports required configuration keys that are absent.
func NewConfigMissingError(keys ...string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigMissing,
		Message:   "Required configuration is missing",
		Details:   fmt.Sprintf("%s must be set in environment variables", strings.Join(keys, " and ")),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRemoteError wraps a non-zero status envelope. msg is kept verbatim.
func NewRemoteError(message string, remoteCode int, msg string) *StandardError {
	return &StandardError{
		Code:       ErrCodeLarkAPIError,
		Message:    message,
		Details:    msg,
		Retryable:  false,
		RemoteCode: remoteCode,
		Timestamp:  time.Now().UTC(),
	}
}

// NewAuthError wraps a rejected tenant token request.
func NewAuthError(remoteCode int, msg string) *StandardError {
	return &StandardError{
		Code:       ErrCodeLarkAuthFailed,
		Message:    "Failed to obtain tenant access token",
		Details:    msg,
		Retryable:  false,
		RemoteCode: remoteCode,
		Timestamp:  time.Now().UTC(),
	}
}

func NewTransportError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransportFailed,
		Message:   fmt.Sprintf("Request to Lark failed during %s", operation),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewInvalidResponseError(operation, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeResponseInvalid,
		Message:   fmt.Sprintf("Unexpected response from Lark during %s", operation),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidInputError(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewTokenStoreError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTokenStoreFailed,
		Message:   "Token store operation failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewEventTypeMissingError() *StandardError {
	return &StandardError{
		Code:      ErrCodeEventTypeMissing,
		Message:   "No event type specified",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewUnknownEventTypeError(eventType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEventTypeUnknown,
		Message:   fmt.Sprintf("Unknown event type: %s", eventType),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandardError unwraps err into a *StandardError if one is in the chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "CONFIG"):
		return "CONFIGURATION"
	case strings.HasPrefix(codeStr, "LARK"):
		return "REMOTE"
	case strings.HasPrefix(codeStr, "TRANSPORT") || strings.HasPrefix(codeStr, "RESPONSE") || strings.HasPrefix(codeStr, "TOKEN"):
		return "TRANSPORT"
	case strings.HasPrefix(codeStr, "EVENT"):
		return "ROUTING"
	case strings.HasPrefix(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

// CodeOf returns the code carried by err, or ErrCodeUnknown.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr.Code
	}
	return ErrCodeUnknown
}
