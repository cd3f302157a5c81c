package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrSessionExpired matches every *SessionExpiredError
var ErrSessionExpired = errors.New("session expired")

// APIError is a non-2xx response from the backend
type APIError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// FieldErrors decodes the per-field messages the backend attaches to
// validation failures, keeping the first message for each field.
func (e *APIError) FieldErrors() map[string]string {
	var payload struct {
		Details map[string]json.RawMessage `json:"details"`
		Errors  map[string]json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(e.Body, &payload); err != nil {
		return nil
	}

	raw := payload.Details
	if len(raw) == 0 {
		raw = payload.Errors
	}
	if len(raw) == 0 {
		return nil
	}

	out := make(map[string]string, len(raw))
	for field, msg := range raw {
		if m := firstMessage(msg); m != "" {
			out[field] = m
		}
	}
	return out
}

// SessionExpiredError means the refresh credential was missing or rejected.
// The credential store and session have already been cleared.
type SessionExpiredError struct {
	Cause error
}

func (e *SessionExpiredError) Error() string {
	if e.Cause == nil {
		return ErrSessionExpired.Error()
	}
	return fmt.Sprintf("%s: %v", ErrSessionExpired, e.Cause)
}

func (e *SessionExpiredError) Unwrap() error { return e.Cause }

func (e *SessionExpiredError) Is(target error) bool { return target == ErrSessionExpired }

// TransportError covers everything that kept a response from being read:
// timeouts, unreachable hosts, cancelled contexts and undecodable bodies.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("transport error: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("transport error: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// Kind identifies which failure class an error belongs to
type Kind int

const (
	KindNone Kind = iota
	KindAPI
	KindSessionExpired
	KindTransport
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAPI:
		return "api"
	case KindSessionExpired:
		return "session_expired"
	case KindTransport:
		return "transport"
	}
	return "unknown"
}

func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	var (
		apiErr       *APIError
		expiredErr   *SessionExpiredError
		transportErr *TransportError
	)
	switch {
	case errors.As(err, &expiredErr):
		return KindSessionExpired
	case errors.As(err, &apiErr):
		return KindAPI
	case errors.As(err, &transportErr):
		return KindTransport
	}
	return KindUnknown
}

// StatusOf returns the HTTP status carried by an *APIError, or 0
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func newAPIError(status int, body []byte) *APIError {
	return &APIError{Status: status, Message: errorMessage(status, body), Body: body}
}

// errorMessage prefers the body's message (string or list), then the
// error field, then the status text.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Message json.RawMessage `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if m := firstMessage(payload.Message); m != "" {
			return m
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "Unknown error"
}

func firstMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}
