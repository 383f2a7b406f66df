package errors

import (
	"errors"
	"fmt"
)

// Common application errors, carried as the Cause of the AppError raised at
// the matching code path so callers can test with errors.Is.
var (
	// Schema errors: per-record rejection reasons (never fatal)
	ErrMissingSensorID    = errors.New("missing sensor id")
	ErrMissingTimestamp   = errors.New("missing timestamp")
	ErrUnparseableTime    = errors.New("timestamp is not parseable")
	ErrUnknownReadingType = errors.New("unknown reading type")
	ErrNonNumericValue    = errors.New("value is not numeric")

	// Configuration errors (fatal, abort the run)
	ErrCalibrationRuleMissing = errors.New("calibration rule missing for reading type")
	ErrRangeRuleMissing       = errors.New("range rule missing for reading type")

	// Storage errors
	ErrUnknownBackend    = errors.New("unknown storage backend")
	ErrCheckpointCorrupt = errors.New("checkpoint state is corrupt")
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeSchema        ErrorType = "schema"
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeStorage       ErrorType = "storage"
	ErrorTypeIngestion     ErrorType = "ingestion"
	ErrorTypeInternal      ErrorType = "internal"
)

// AppError represents an application-specific error with additional context
type AppError struct {
	Type       ErrorType              `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Context    map[string]interface{} `json:"context,omitempty"`
	Fatal      bool                   `json:"fatal"`
	HTTPStatus int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:       errType,
		Code:       code,
		Message:    message,
		Fatal:      errType == ErrorTypeConfiguration,
		HTTPStatus: getDefaultHTTPStatus(errType),
	}
}

// WrapError wraps an existing error with application context
func WrapError(err error, errType ErrorType, code, message string) *AppError {
	e := NewAppError(errType, code, message)
	e.Cause = err
	return e
}

// NewSchemaError creates a record-level schema error. Schema errors degrade
// to exclusion and counting; they never abort a run.
func NewSchemaError(code, message string) *AppError {
	return NewAppError(ErrorTypeSchema, code, message)
}

// NewConfigurationError creates a fatal configuration error. Configuration
// errors abort the run because correctness cannot be guaranteed.
func NewConfigurationError(code, message string) *AppError {
	return NewAppError(ErrorTypeConfiguration, code, message)
}

// NewStorageError creates a storage error
func NewStorageError(code, message string) *AppError {
	return NewAppError(ErrorTypeStorage, code, message)
}

// NewIngestionError creates an ingestion error
func NewIngestionError(code, message string) *AppError {
	return NewAppError(ErrorTypeIngestion, code, message)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		HTTPStatus: 500,
	}
}

// IsFatal reports whether err (or any error it wraps) is a fatal
// configuration error that must abort the pipeline run.
func IsFatal(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Fatal
	}
	return false
}

// getDefaultHTTPStatus returns the default HTTP status for an error type
func getDefaultHTTPStatus(errType ErrorType) int {
	switch errType {
	case ErrorTypeSchema:
		return 400
	case ErrorTypeStorage:
		return 404
	case ErrorTypeConfiguration:
		return 503
	case ErrorTypeIngestion:
		return 422
	default:
		return 500
	}
}
