package auth

import (
	"errors"
	"sort"
	"strings"

	"github.com/jrsteele09/go-auth-console/apiclient"
)

// Form field names shared with the UI
const (
	FieldEmail                = "email"
	FieldPassword             = "password"
	FieldConfirmPassword      = "confirmPassword"
	FieldPasswordConfirmation = "passwordConfirmation"
	FieldFirstName            = "firstName"
	FieldLastName             = "lastName"
	FieldPhone                = "phone"
	FieldRole                 = "roleId"
	FieldToken                = "token"
)

const (
	msgGeneric     = "Something went wrong. Please try again."
	msgSelectRole  = "Please select a role"
	msgUnreachable = "Unable to reach the server. Please check your connection and try again."
)

// ValidationError rejects input before it is submitted
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + joinFields(e.Fields)
}

// FormError is a backend rejection mapped onto form fields. Root carries the
// message that belongs to no single field.
type FormError struct {
	Fields map[string]string
	Root   string
	Err    error
}

func (e *FormError) Error() string {
	if e.Root != "" && len(e.Fields) == 0 {
		return e.Root
	}
	if e.Root == "" {
		return joinFields(e.Fields)
	}
	return e.Root + ": " + joinFields(e.Fields)
}

func (e *FormError) Unwrap() error { return e.Err }

// FieldErrors returns the per-field messages carried by err, if any
func FieldErrors(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	var fe *FormError
	if errors.As(err, &fe) {
		return fe.Fields
	}
	return nil
}

// RootError returns the form-level message carried by err
func RootError(err error) string {
	var fe *FormError
	if errors.As(err, &fe) {
		return fe.Root
	}
	var ve *ValidationError
	if errors.As(err, &ve) || err == nil {
		return ""
	}
	return msgGeneric
}

// statusMapping maps a backend status to a form error
type statusMapping map[int]func(apiErr *apiclient.APIError) *FormError

func fieldError(field, msg string) func(*apiclient.APIError) *FormError {
	return func(*apiclient.APIError) *FormError {
		return &FormError{Fields: map[string]string{field: msg}}
	}
}

func rootError(msg string) func(*apiclient.APIError) *FormError {
	return func(*apiclient.APIError) *FormError {
		return &FormError{Root: msg}
	}
}

// backendFields uses the backend's own field messages, falling back to msg
func backendFields(msg string) func(*apiclient.APIError) *FormError {
	return func(apiErr *apiclient.APIError) *FormError {
		if fields := apiErr.FieldErrors(); len(fields) > 0 {
			return &FormError{Fields: fields}
		}
		return &FormError{Root: msg}
	}
}

// mapError turns a client error into a FormError. Session expiry passes
// through untouched so callers can send the user to login.
func (m statusMapping) mapError(err error) error {
	var apiErr *apiclient.APIError
	switch apiclient.Classify(err) {
	case apiclient.KindNone:
		return nil
	case apiclient.KindSessionExpired:
		return err
	case apiclient.KindTransport:
		return &FormError{Root: msgUnreachable, Err: err}
	case apiclient.KindAPI:
		errors.As(err, &apiErr)
		if fn, ok := m[apiErr.Status]; ok {
			fe := fn(apiErr)
			fe.Err = err
			return fe
		}
	}
	return &FormError{Root: msgGeneric, Err: err}
}

func joinFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}
	return strings.Join(parts, "; ")
}
