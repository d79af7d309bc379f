package errx

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the analysis pipeline. Handlers map these to HTTP
// statuses; everything else is a 500.
var (
	// ErrNotRelevant rejects queries outside the urban-planning domain.
	// This is the only error that aborts a pipeline run outright.
	ErrNotRelevant = errors.New("query not relevant to urban planning")

	// ErrUnknownNeighborhood marks a neighborhood id with no profile.
	ErrUnknownNeighborhood = errors.New("unknown neighborhood")

	// ErrDataUnavailable marks a provider read that failed after retries.
	ErrDataUnavailable = errors.New("neighborhood data unavailable")

	// ErrDeadline marks a pipeline run cut short by its deadline.
	ErrDeadline = errors.New("analysis deadline exceeded")
)

// AppError wraps an underlying error with an HTTP status and a message
// safe to return to clients. RequestID is filled in by the pipeline so
// rejected requests can still be correlated with the logs.
type AppError struct {
	Err       error
	Status    int
	Message   string
	RequestID string
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

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{Err: err, Status: status, Message: message}
}

// NotRelevant builds the 422 returned when the relevance guardrail trips.
func NotRelevant(reason string) *AppError {
	return &AppError{
		Err:     ErrNotRelevant,
		Status:  http.StatusUnprocessableEntity,
		Message: reason,
	}
}

// StatusOf resolves the HTTP status for an error chain. Unknown errors
// map to 500.
func StatusOf(err error) int {
	var app *AppError
	if errors.As(err, &app) {
		return app.Status
	}
	switch {
	case errors.Is(err, ErrNotRelevant):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrUnknownNeighborhood):
		return http.StatusNotFound
	case errors.Is(err, ErrDataUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrDeadline):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
