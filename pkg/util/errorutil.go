package util

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError standardizes application errors for the movement-pass wire
// contract: every failure renders as a status code plus an ordered list of
// human-readable messages.
type APIError struct {
	HTTPStatus int
	Messages   []string
	Err        error
}

func (e *APIError) Error() string {
	msg := strings.Join(e.Messages, "; ")
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewValidationError reports one or more 400 validation messages, delivered
// to the client in order.
func NewValidationError(messages ...string) error {
	return &APIError{HTTPStatus: http.StatusBadRequest, Messages: messages}
}

// NewUnauthorized reports a 401.
func NewUnauthorized() error {
	return &APIError{HTTPStatus: http.StatusUnauthorized, Messages: []string{"Unauthorized!"}}
}

// NewNotFound reports a 404.
func NewNotFound() error {
	return &APIError{HTTPStatus: http.StatusNotFound, Messages: []string{"Not found!"}}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(err error) error {
	return &APIError{
		HTTPStatus: http.StatusInternalServerError,
		Messages:   []string{"Internal server error!"},
		Err:        err,
	}
}

// ToAPIError converts generic errors to APIError.
func ToAPIError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if converted, ok := NewInternalError(err).(*APIError); ok {
		return converted
	}
	return &APIError{
		HTTPStatus: http.StatusInternalServerError,
		Messages:   []string{"Internal server error!"},
		Err:        err,
	}
}
