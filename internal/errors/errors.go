package errors

import (
	"errors"
	"fmt"
)

// Common error types for the console
var (
	// Credential errors
	ErrNoRefreshCredential = errors.New("no refresh credential")
	ErrInvalidToken        = errors.New("invalid token")

	// Storage errors
	ErrInvalidStorageKey = errors.New("invalid storage key")
	ErrCorruptRecord     = errors.New("corrupt record")

	// Session errors
	ErrWorkspaceNotFound = errors.New("workspace not found")

	// Route classification errors
	ErrInvalidClassification = errors.New("invalid route classification")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrRequired = errors.New("value is required")
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
