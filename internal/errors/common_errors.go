package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeSourceNotFound ErrorType = "SOURCE_NOT_FOUND"
	ErrTypeEmptyDataset   ErrorType = "EMPTY_DATASET"
	ErrTypeDelivery       ErrorType = "DELIVERY"
	ErrTypeParsing        ErrorType = "PARSING"
	ErrTypeValidation     ErrorType = "VALIDATION"
	ErrTypeNotFound       ErrorType = "NOT_FOUND"
	ErrTypeConfig         ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError of the same Type, so callers can compare
// against the sentinels below.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type && (t.Message == "" || t.Message == e.Message)
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Sentinels for errors.Is comparisons. Message is left empty so any error
// of the matching type compares equal.
var (
	ErrSourceNotFound = &AppError{Type: ErrTypeSourceNotFound}
	ErrNoData         = &AppError{Type: ErrTypeEmptyDataset}
	ErrDelivery       = &AppError{Type: ErrTypeDelivery}
)

// NewSourceNotFoundError reports a table id that did not resolve
func NewSourceNotFoundError(tableID string) *AppError {
	return NewAppError(ErrTypeSourceNotFound, "Table not found", nil).WithContext("table_id", tableID)
}

// NewEmptyDatasetError reports an export attempted with no rows
func NewEmptyDatasetError() *AppError {
	return NewAppError(ErrTypeEmptyDataset, "No data to export", nil)
}

// NewDeliveryError wraps a failure of the download sink
func NewDeliveryError(filename string, cause error) *AppError {
	return NewAppError(ErrTypeDelivery, "Export failed", cause).WithContext("filename", filename)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// TypeOf returns the ErrorType of the first AppError in err's chain, or ""
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// MessageOf returns the user-facing message of the first AppError in err's
// chain, or err.Error() for other errors.
func MessageOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
