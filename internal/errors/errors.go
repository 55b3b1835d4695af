package errors

import (
	stderrors "errors"
	"fmt"

	"suitecompare/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	switch {
	case e.Cause == nil:
		return e.Message
	case e.Message == "":
		return e.Cause.Error()
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another AppError by code, so errors.Is(err, errors.New(CodeSchema, ""))
// reports whether err belongs to the schema class.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message
func Newf(code, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an error with additional context, keeping the code of the
// innermost AppError.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:  code,
		Cause: err,
	}
}

// GetCode returns the code of the outermost AppError in the chain, or "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// HasCode reports whether any AppError in the chain carries the code
func HasCode(err error, code string) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Code == code {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// Predefined error codes
const (
	CodeConfigInvalid = "CONFIG_INVALID"
	CodeMissingSource = "MISSING_SOURCE"
	CodeSchema        = "SCHEMA"
	CodeNumeric       = "NUMERIC"
	CodeWrite         = "WRITE"
	CodeInternalError = "INTERNAL_ERROR"
)

func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

// MissingSource reports an expected input file or directory that is absent
func MissingSource(path string) *AppError {
	return Newf(CodeMissingSource, "source not found: %s", path)
}

// Schema reports an input that lacks an expected column or holds a value
// of the wrong shape.
func Schema(format string, args ...interface{}) *AppError {
	return Newf(CodeSchema, format, args...)
}

// Numeric reports a statistical routine given too few observations. The
// cause is core.ErrInsufficientData.
func Numeric(format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    CodeNumeric,
		Message: fmt.Sprintf(format, args...),
		Cause:   core.ErrInsufficientData,
	}
}

// Write reports an output artifact that could not be persisted
func Write(path string, cause error) *AppError {
	return &AppError{
		Code:    CodeWrite,
		Message: fmt.Sprintf("failed to write %s", path),
		Cause:   cause,
	}
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

// IsMissingSource reports whether err is a missing-source error
func IsMissingSource(err error) bool { return HasCode(err, CodeMissingSource) }

// IsSchema reports whether err is a schema error
func IsSchema(err error) bool { return HasCode(err, CodeSchema) }

// IsNumeric reports whether err is a numeric error
func IsNumeric(err error) bool { return HasCode(err, CodeNumeric) }

// IsWrite reports whether err is a write error
func IsWrite(err error) bool { return HasCode(err, CodeWrite) }
