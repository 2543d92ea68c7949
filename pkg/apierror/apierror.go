// Package apierror classifies the failures a backend call can end in.
package apierror

import (
	"errors"
	"fmt"
)

// Kind is a classification of error type.
type Kind string

const (
	// InvalidConfiguration: an environment key or URL that resolves to nothing usable.
	InvalidConfiguration Kind = "invalid_configuration"
	// Unauthenticated: the backend answered 401; stored credentials were cleared.
	Unauthenticated Kind = "unauthenticated"
	// Application: the backend answered with success=false or an error status.
	Application Kind = "application"
	// Transport: no response was received.
	Transport Kind = "transport"
	// MalformedResponse: the reply was not a valid response envelope.
	MalformedResponse Kind = "malformed_response"
)

// Error is returned by every client operation that fails.
type Error struct {
	Kind Kind
	// Message is the server's message verbatim for Application errors.
	Message string
	// Status is the HTTP status, 0 when no response was received.
	Status int
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case InvalidConfiguration:
		return fmt.Sprintf("invalid configuration: %s", e.Message)
	case Unauthenticated:
		return fmt.Sprintf("unauthenticated: %s", e.Message)
	case Application:
		if e.Status >= 300 {
			return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
		}
		return e.Message
	case Transport:
		return fmt.Sprintf("transport error: %s", e.Err)
	case MalformedResponse:
		if e.Err != nil {
			return fmt.Sprintf("malformed response: %s: %s", e.Message, e.Err)
		}
		return fmt.Sprintf("malformed response: %s", e.Message)
	default:
		return e.Message
	}
}

// Unwrap allows errors.Is / errors.As to work with wrapped errors.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same Kind, so the package-level sentinels
// work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// Sentinels for errors.Is.
var (
	ErrInvalidConfiguration = &Error{Kind: InvalidConfiguration}
	ErrUnauthenticated      = &Error{Kind: Unauthenticated}
	ErrApplication          = &Error{Kind: Application}
	ErrTransport            = &Error{Kind: Transport}
	ErrMalformedResponse    = &Error{Kind: MalformedResponse}
)

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// UserMessage is the text to show a person for err.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "An error occurred. Please try again."
	}

	switch e.Kind {
	case Transport:
		return "Unable to reach the server. Please check your connection or sign in again."
	case Unauthenticated:
		return "Your session has expired. Please sign in again."
	case MalformedResponse:
		return "The server sent an unexpected response. Please try again later."
	default:
		return e.Message
	}
}

// Helper constructors
func NewInvalidConfiguration(msg string) *Error {
	return &Error{Kind: InvalidConfiguration, Message: msg}
}

func NewUnauthenticated(msg string) *Error {
	return &Error{Kind: Unauthenticated, Message: msg, Status: 401}
}

func NewApplication(status int, msg string) *Error {
	return &Error{Kind: Application, Message: msg, Status: status}
}

func NewTransport(err error) *Error {
	return &Error{Kind: Transport, Err: err}
}

func NewMalformedResponse(status int, msg string, err error) *Error {
	return &Error{Kind: MalformedResponse, Message: msg, Status: status, Err: err}
}
