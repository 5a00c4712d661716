package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Operational and propagation failures.
var (
	ErrMalformedPayload    = errors.New("malformed extraction payload")
	ErrServiceUnavailable  = errors.New("extraction service unavailable")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrStaleReference      = errors.New("edit target no longer exists")
	ErrDivisionUndefined   = errors.New("division by zero")
)

// Common application errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrValidation   = errors.New("validation failed")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// UserMessage collapses an operational failure into the single message shown
// to the person who uploaded the document.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrServiceUnavailable):
		return "The extraction service is currently overloaded. Please try again later."
	case errors.Is(err, ErrMalformedPayload):
		return "Failed to parse extracted data. The AI response may not be in the expected JSON format."
	case errors.Is(err, ErrUnsupportedFileType):
		return "Unsupported file type. Upload a PDF, an Excel workbook, or a JPEG/PNG image."
	case errors.Is(err, ErrStaleReference):
		return "The record you edited no longer exists. Reload the data and try again."
	default:
		return "Failed to process file. Please check the file and try again."
	}
}

// ToStatus maps an error onto a gRPC status error.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrStaleReference):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrMalformedPayload),
		errors.Is(err, ErrUnsupportedFileType),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrServiceUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}
