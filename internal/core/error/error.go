package errx

import (
	"errors"
	"fmt"
	"net/http"
)

// User-facing messages. These are what the conversational layer is allowed to
// show; raw upstream bodies stay inside the wrapped error.
const (
	SystemErrorMessage     = "internal server error"
	AuthErrorMessage       = "failed to authenticate with the shipping provider"
	UpstreamErrorMessage   = "shipping provider request failed"
	UpstreamTimeoutMessage = "shipping provider did not respond in time"
	OrderNotFoundMessage   = "order not found"
	ExtractionParseMessage = "could not understand the shipment details, please try again"
	ValidationErrorMessage = "shipment is missing required fields"
	RedisErrorMessage      = "redis operation failed"
	RedisNotFoundMessage   = "conversation history not found"
)

// Sentinel kinds for errors.Is checks across package boundaries.
var (
	ErrAuth            = errors.New("provider authentication failed")
	ErrUpstreamTimeout = errors.New("provider request timed out")
	ErrOrderNotFound   = errors.New("order not found")
	ErrExtractionParse = errors.New("extraction output is not valid JSON")
	ErrValidation      = errors.New("shipment validation failed")
)

// AppError wraps an underlying error with an HTTP-ish status and a message
// that is safe to surface to the end user.
type AppError struct {
	Err     error
	Status  int
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

// Is reports whether the target matches the underlying error chain.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// UpstreamError carries the status and body of a non-2xx provider response.
// The body never appears in the user-facing Message.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}

// WrapAuth marks a credential fetch failure.
func WrapAuth(err error) *AppError {
	if err == nil {
		err = ErrAuth
	}
	return New(errors.Join(ErrAuth, err), http.StatusUnauthorized, AuthErrorMessage)
}

// WrapUpstream wraps a non-2xx provider response, preserving status and body
// for diagnostics without exposing them to the user.
func WrapUpstream(status int, body string) *AppError {
	return New(&UpstreamError{StatusCode: status, Body: body}, http.StatusBadGateway, UpstreamErrorMessage)
}

// WrapTimeout marks a provider call that exceeded the outbound deadline.
func WrapTimeout(err error) *AppError {
	return New(errors.Join(ErrUpstreamTimeout, err), http.StatusGatewayTimeout, UpstreamTimeoutMessage)
}

// WrapOrderNotFound marks a lookup miss for the given order number.
func WrapOrderNotFound(orderNumber string) *AppError {
	return New(fmt.Errorf("%w: %s", ErrOrderNotFound, orderNumber), http.StatusNotFound, OrderNotFoundMessage)
}

// WrapExtractionParse marks non-JSON output from the extraction model.
func WrapExtractionParse(err error) *AppError {
	return New(errors.Join(ErrExtractionParse, err), http.StatusUnprocessableEntity, ExtractionParseMessage)
}

// WrapValidation marks a shipment descriptor missing required fields.
func WrapValidation(detail string) *AppError {
	return New(fmt.Errorf("%w: %s", ErrValidation, detail), http.StatusBadRequest, ValidationErrorMessage)
}

// UserMessage returns the safe message for an error chain, falling back to the
// generic system message when no AppError is present.
func UserMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return SystemErrorMessage
}
