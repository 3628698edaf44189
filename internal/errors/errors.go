package errors

import (
	"errors"
	"fmt"
)

// Common error types for the web app and its GraphQL collaborator
var (
	// Validation errors: caught before anything reaches the network
	ErrValidation = errors.New("validation failed")

	// Authentication errors: the backend rejected the submitted credentials
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password does not meet requirements")

	// Authorization errors
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrSessionExpired  = errors.New("session expired")
	ErrRefreshFailed   = errors.New("token refresh failed")

	// Network errors
	ErrTransport       = errors.New("transport error")
	ErrRequestRejected = errors.New("request rejected")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")

	// General errors
	ErrNotFound = errors.New("not found")
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

// Join combines errors, see errors.Join
func Join(errs ...error) error {
	return errors.Join(errs...)
}
