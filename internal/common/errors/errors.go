// Package errors provides standardized error handling for the planner and its BPMN workflow integration.
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

// Completion errors
const (
	ErrCodeMissingCredential ErrorCode = "MISSING_CREDENTIAL"
	ErrCodeTransportFailure  ErrorCode = "TRANSPORT_FAILURE"
	ErrCodeHTTPError         ErrorCode = "HTTP_ERROR"
	ErrCodeUnexpectedFormat  ErrorCode = "UNEXPECTED_FORMAT"
	ErrCodeExhaustedRetries  ErrorCode = "EXHAUSTED_RETRIES"
	ErrCodeFormatError       ErrorCode = "FORMAT_ERROR"
)

// Planning / infrastructure errors
const (
	ErrCodeInputParsingFailed ErrorCode = "INPUT_PARSING_FAILED"
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodeFallbackFailed     ErrorCode = "FALLBACK_FAILED"
	ErrCodeCacheUnavailable   ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *StandardError) Unwrap() error {
	return e.Cause
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewMissingCredentialError is fatal for the call and never retried.
func NewMissingCredentialError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingCredential,
		Message:   "Missing OPENROUTER_API_KEY environment variable. Get a key from https://openrouter.ai",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTransportFailureError covers connection errors and timeouts.
func NewTransportFailureError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransportFailure,
		Message:   err.Error(),
		Details:   "connection error or timeout",
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// NewHTTPError carries the status code and the decoded error body.
func NewHTTPError(status int, detail string) *StandardError {
	return &StandardError{
		Code:      ErrCodeHTTPError,
		Message:   fmt.Sprintf("HTTP %d: %s", status, detail),
		Details:   detail,
		Retryable: true,
		Metadata:  map[string]interface{}{"status": status},
		Timestamp: time.Now().UTC(),
	}
}

// NewUnexpectedFormatError is returned when a successful response lacks the expected fields.
func NewUnexpectedFormatError(body string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnexpectedFormat,
		Message:   fmt.Sprintf("Unexpected response format: %s", body),
		Details:   body,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// NewExhaustedRetriesError wraps the last retryable failure once the budget is spent.
func NewExhaustedRetriesError(attempts int, last error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExhaustedRetries,
		Message:   fmt.Sprintf("Request failed after %d attempts: %s", attempts, messageOf(last)),
		Retryable: false,
		Metadata:  map[string]interface{}{"attempts": attempts},
		Timestamp: time.Now().UTC(),
		Cause:     last,
	}
}

func messageOf(err error) string {
	if err == nil {
		return ""
	}
	var se *StandardError
	if stderrors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}

// NewFormatError signals a markdown conversion failure.
func NewFormatError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeFormatError,
		Message:   fmt.Sprintf("AI response convert error... %v", err),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

func NewInputParsingFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputParsingFailed,
		Message:   "Failed to parse planning request",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewFallbackFailedError is the only planning error that reaches the end caller.
func NewFallbackFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeFallbackFailed,
		Message:   "Local activity generation failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

func NewCacheUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Completion cache unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeMissingCredential:  "MISSING_CREDENTIAL",
	ErrCodeTransportFailure:   "TRANSPORT_FAILURE",
	ErrCodeHTTPError:          "HTTP_ERROR",
	ErrCodeUnexpectedFormat:   "UNEXPECTED_FORMAT",
	ErrCodeExhaustedRetries:   "EXHAUSTED_RETRIES",
	ErrCodeFormatError:        "FORMAT_ERROR",
	ErrCodeInputParsingFailed: "INPUT_PARSING_FAILED",
	ErrCodeValidationFailed:   "VALIDATION_FAILED",
	ErrCodeFallbackFailed:     "FALLBACK_FAILED",
	ErrCodeCacheUnavailable:   "CACHE_UNAVAILABLE",
}

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeTransportFailure,
		ErrCodeHTTPError,
		ErrCodeCacheUnavailable:
		return 3

	case ErrCodeExhaustedRetries:
		return 1

	default:
		return 0 // input and contract errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError finds a StandardError anywhere in the chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the code of the outermost StandardError in the chain, or INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// Normalize wraps a plain error into an INTERNAL_ERROR StandardError.
func Normalize(err error) *StandardError {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CREDENTIAL"):
		return "CONFIGURATION"
	case strings.Contains(codeStr, "TRANSPORT") || strings.Contains(codeStr, "HTTP") || strings.Contains(codeStr, "RETRIES"):
		return "UPSTREAM"
	case strings.Contains(codeStr, "FORMAT"):
		return "RESPONSE"
	case strings.Contains(codeStr, "INPUT") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "FALLBACK"):
		return "PLANNING"
	default:
		return "OTHER"
	}
}
