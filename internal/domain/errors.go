package domain

import (
	"errors"
	"fmt"
)

// Category sentinels.
var (
	ErrNotFound      = fmt.Errorf("not found")
	ErrDuplicate     = fmt.Errorf("duplicate")
	ErrTimeout       = fmt.Errorf("operation timed out")
	ErrInvalidInput  = fmt.Errorf("invalid input")
	ErrProviderError = fmt.Errorf("provider error")
)

// Sentinel errors for the domain layer.
var (
	ErrProviderNotFound  = fmt.Errorf("llm provider not found")
	ErrSessionNotFound   = fmt.Errorf("session not found")
	ErrUnknownAgent      = fmt.Errorf("unknown agent type")
	ErrConfigLoad        = fmt.Errorf("failed to load configuration")
	ErrDecryption        = fmt.Errorf("decryption failed")
	ErrTranscriptWrite   = fmt.Errorf("transcript write failed")
	ErrCompletionFailed  = fmt.Errorf("completion request failed")
	ErrMalformedResponse = fmt.Errorf("malformed completion response")

	// Resilience errors.
	ErrContextOverflow = fmt.Errorf("context window exceeded")
	ErrRateLimit       = fmt.Errorf("rate limit exceeded")
	ErrAuthInvalid     = fmt.Errorf("authentication failed")
	ErrCircuitOpen     = fmt.Errorf("circuit open")
)

// DomainError wraps a sentinel error with context.
type DomainError struct {
	Op     string // operation name (e.g., "Agent.ProcessQuery")
	Err    error  // underlying sentinel or wrapped error
	Detail string // human-readable detail
}

func (e *DomainError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError creates a new DomainError.
func NewDomainError(op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail}
}

// WrapOp adds operation context to an error using fmt.Errorf wrapping.
// Returns nil if err is nil, enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// FriendlyError renders err the way end users see a failed query.
func FriendlyError(err error) string {
	if err == nil {
		return ""
	}
	return "Error processing your query. Please try again later. " + err.Error()
}

// ErrorCode is a machine-parseable error category for monitoring and API responses.
type ErrorCode string

// Error codes.
const (
	CodeUnknown           ErrorCode = "UNKNOWN"
	CodeNotFound          ErrorCode = "NOT_FOUND"
	CodeDuplicate         ErrorCode = "DUPLICATE"
	CodeTimeout           ErrorCode = "TIMEOUT"
	CodeInvalidInput      ErrorCode = "INVALID_INPUT"
	CodeProviderError     ErrorCode = "PROVIDER_ERROR"
	CodeProviderNotFound  ErrorCode = "PROVIDER_NOT_FOUND"
	CodeSessionNotFound   ErrorCode = "SESSION_NOT_FOUND"
	CodeUnknownAgent      ErrorCode = "UNKNOWN_AGENT"
	CodeConfigLoad        ErrorCode = "CONFIG_LOAD"
	CodeDecryption        ErrorCode = "DECRYPTION"
	CodeTranscriptWrite   ErrorCode = "TRANSCRIPT_WRITE"
	CodeContextOverflow   ErrorCode = "CONTEXT_OVERFLOW"
	CodeRateLimit         ErrorCode = "RATE_LIMIT"
	CodeAuthInvalid       ErrorCode = "AUTH_INVALID"
	CodeCircuitOpen       ErrorCode = "CIRCUIT_OPEN"
	CodeMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
	CodeCompletionFailed  ErrorCode = "COMPLETION_FAILED"
)

// errorCodes maps sentinels to codes. Order matters: the most specific
// sentinels come first so a wrapped chain resolves to its root cause rather
// than the generic completion failure.
var errorCodes = []struct {
	err  error
	code ErrorCode
}{
	{ErrRateLimit, CodeRateLimit},
	{ErrAuthInvalid, CodeAuthInvalid},
	{ErrContextOverflow, CodeContextOverflow},
	{ErrCircuitOpen, CodeCircuitOpen},
	{ErrMalformedResponse, CodeMalformedResponse},
	{ErrProviderNotFound, CodeProviderNotFound},
	{ErrSessionNotFound, CodeSessionNotFound},
	{ErrUnknownAgent, CodeUnknownAgent},
	{ErrConfigLoad, CodeConfigLoad},
	{ErrDecryption, CodeDecryption},
	{ErrTranscriptWrite, CodeTranscriptWrite},
	{ErrTimeout, CodeTimeout},
	{ErrProviderError, CodeProviderError},
	{ErrCompletionFailed, CodeCompletionFailed},
	{ErrNotFound, CodeNotFound},
	{ErrDuplicate, CodeDuplicate},
	{ErrInvalidInput, CodeInvalidInput},
}

// ErrorCodeOf returns the machine-parseable error code for the given error.
// Returns CodeUnknown if no matching sentinel is found.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeUnknown
}

// Code returns the ErrorCode for this DomainError's underlying sentinel.
func (e *DomainError) Code() ErrorCode {
	return ErrorCodeOf(e.Err)
}
