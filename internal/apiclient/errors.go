package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ErlanBelekov/storefront-client/internal/domain"
)

// APIError is a response the backend answered with a non-2xx status.
type APIError struct {
	StatusCode int
	// Message is the body's "message" (or "error") field, if any.
	Message string
	// Response is the body's "response" field; the chatbot reports failures there.
	Response string
	Body     []byte
}

func newAPIError(resp *Response) *APIError {
	e := &APIError{StatusCode: resp.StatusCode, Body: resp.Body}

	var payload struct {
		Message  string `json:"message"`
		Error    string `json:"error"`
		Response string `json:"response"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err == nil {
		e.Message = payload.Message
		if e.Message == "" {
			e.Message = payload.Error
		}
		e.Response = payload.Response
	}
	return e
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("request failed with status code %d", e.StatusCode)
}

// Unwrap maps the status onto the domain failure taxonomy so callers can use
// errors.Is(err, domain.ErrUnauthorized) and friends.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case e.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case e.StatusCode >= 400 && e.StatusCode < 500:
		return domain.ErrValidation
	default:
		return domain.ErrServer
	}
}

// StatusCode returns the HTTP status behind err, or 0 when the backend never
// answered.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Message turns any client failure into the string shown to the user: the
// server's own message when it sent one, the error text otherwise, and
// fallback when there is no error at all.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return fallback
}
