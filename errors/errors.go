package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Protocol reports whether the error is a violation of the read contract.
func (e *AppError) Protocol() bool { return IsProtocolCode(e.Code) }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// --- Common Error Constructors ---

// ReadPastEnd creates a new AppError for a read issued after end-of-stream.
func ReadPastEnd(stage string, requested int) *AppError {
	return &AppError{
		Code: ErrCodeReadPastEnd, Message: fmt.Sprintf("attempted read past end of %s", stage),
		Details: map[string]any{"stage": stage, "requested": requested},
	}
}

// OverlappingRead creates a new AppError for a read issued while another is in flight.
func OverlappingRead(stage string) *AppError {
	return &AppError{
		Code: ErrCodeOverlappingRead, Message: fmt.Sprintf("%s already has a read in flight", stage),
		Details: map[string]any{"stage": stage},
	}
}

// OversizedChunk creates a new AppError for an upstream chunk longer than requested.
func OversizedChunk(stage string, requested, got int) *AppError {
	return &AppError{
		Code:    ErrCodeOversizedChunk,
		Message: fmt.Sprintf("%s received %d units, requested at most %d", stage, got, requested),
		Details: map[string]any{"stage": stage, "requested": requested, "received": got},
	}
}

// InvalidReadSize creates a new AppError for a negative read size.
func InvalidReadSize(stage string, n int) *AppError {
	return &AppError{
		Code: ErrCodeInvalidReadSize, Message: fmt.Sprintf("read size must be >= 1, got %d", n),
		Details: map[string]any{"stage": stage, "requested": n},
	}
}

// TransformFailed creates a new AppError for a transform function that failed without an error value.
func TransformFailed(stage string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeTransformFailed, Message: fmt.Sprintf("transform %s failed", stage),
		Details: map[string]any{"stage": stage}, Cause: cause,
	}
}

// Stalled creates a new AppError for a sink left running after the scheduler drained.
func Stalled(stage string) *AppError {
	return &AppError{
		Code: ErrCodeStalled, Message: fmt.Sprintf("%s is still running but no work is scheduled", stage),
		Details: map[string]any{"stage": stage},
	}
}

// Stopped creates a new AppError for a sink stopped before it finished.
func Stopped(stage string) *AppError {
	return &AppError{
		Code: ErrCodeStopped, Message: fmt.Sprintf("%s was stopped before end-of-stream", stage),
		Details: map[string]any{"stage": stage},
	}
}

// AlreadySettled creates a new AppError for a promise settled twice.
func AlreadySettled() *AppError {
	return &AppError{Code: ErrCodeAlreadySettled, Message: "promise already settled"}
}

// InvalidConfig creates a new AppError for a configuration that failed validation.
func InvalidConfig(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidConfig, Message: message}
}

// UnknownTransform creates a new AppError for an unregistered transform name.
func UnknownTransform(name string) *AppError {
	return &AppError{
		Code: ErrCodeUnknownTransform, Message: fmt.Sprintf("unknown transform %q", name),
		Details: map[string]any{"transform": name},
	}
}

// Internal creates a new AppError for an unexpected internal error.
func Internal(cause error) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: "an unexpected error occurred", Cause: cause}
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether any AppError in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var appErr *AppError
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return stderrors.As(err, target) }
