package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// DynamoErrorMessage describes DynamoDB related failures.
	DynamoErrorMessage = "dynamodb operation failed"
	// ProviderErrorMessage describes an external data provider that failed after retries.
	ProviderErrorMessage = "provider unavailable"
	// ConfigurationMessage describes missing credentials or endpoints.
	ConfigurationMessage = "configuration missing"
	// ValidationMessage describes user input that did not satisfy a slot.
	ValidationMessage = "validation failed"
)

// Kind classifies an error for recovery decisions in the dialog layer.
type Kind string

const (
	KindUnknown              Kind = "unknown"
	KindValidation           Kind = "validation"
	KindProviderUnavailable  Kind = "provider_unavailable"
	KindConfigurationMissing Kind = "configuration_missing"
	KindInternalFault        Kind = "internal_fault"
	KindStorage              Kind = "storage"
)

// AppError wraps an underlying error with an HTTP status, a kind and a safe message.
type AppError struct {
	Err     error
	Status  int
	Kind    Kind
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Kind:    kindForStatus(status),
		Message: message,
	}
}

// Validation marks user input that failed a slot constraint.
func Validation(err error) *AppError {
	return &AppError{Err: err, Status: http.StatusUnprocessableEntity, Kind: KindValidation, Message: ValidationMessage}
}

// Unavailable marks an external dependency that failed after retries.
func Unavailable(err error) *AppError {
	return &AppError{Err: err, Status: http.StatusServiceUnavailable, Kind: KindProviderUnavailable, Message: ProviderErrorMessage}
}

// Missing marks absent credentials or endpoints for the named dependency.
func Missing(what string) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%s is not configured", what),
		Status:  http.StatusServiceUnavailable,
		Kind:    KindConfigurationMissing,
		Message: ConfigurationMessage,
	}
}

// Fault marks an unexpected failure inside a dialog step.
func Fault(err error) *AppError {
	if err == nil {
		return nil
	}
	var ae *AppError
	if errors.As(err, &ae) && ae.Kind == KindInternalFault {
		return ae
	}
	return &AppError{Err: err, Status: http.StatusInternalServerError, Kind: KindInternalFault, Message: SystemErrorMessage}
}

// KindOf returns the kind of the first AppError in the chain.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnprocessableEntity || status == http.StatusBadRequest:
		return KindValidation
	case status == http.StatusServiceUnavailable || status == http.StatusGatewayTimeout:
		return KindProviderUnavailable
	case status == http.StatusBadGateway:
		return KindStorage
	case status >= http.StatusInternalServerError:
		return KindInternalFault
	default:
		return KindUnknown
	}
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return errors.As(e.Err, target)
}
