package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the gateway. Reason carries the
// server-provided detail when the body had one, so mutation failures can be
// surfaced to the user verbatim.
type APIError struct {
	StatusCode int
	Reason     string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("gateway returned %d: %s", e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("gateway returned %d", e.StatusCode)
}

// UserMessage is the text shown to the account holder or analyst: the
// server reason when available, a generic message otherwise.
func (e *APIError) UserMessage() string {
	if e.Reason != "" {
		return e.Reason
	}
	return "The request could not be completed. Please try again."
}

// NotFound reports whether the gateway did not know the target id.
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func newAPIError(status int, body []byte) *APIError {
	// FastAPI-style error envelope: {"detail": "..."}; other backends use
	// {"error": "..."}.
	var envelope struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	reason := ""
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Detail != "" {
			reason = envelope.Detail
		} else if envelope.Error != "" {
			reason = envelope.Error
		}
	}
	return &APIError{StatusCode: status, Reason: reason}
}
