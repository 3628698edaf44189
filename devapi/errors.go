package devapi

import (
	apperrors "github.com/jrsteele09/go-web-template/internal/errors"
	"github.com/rs/zerolog/log"
)

// Codes carried in a GraphQL error's extensions.code
const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeBadUserInput    = "BAD_USER_INPUT"
	CodeConflict        = "CONFLICT"
	CodeInternal        = "INTERNAL_SERVER_ERROR"
)

// Error is a resolver error with a code the client can branch on
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.Code}
}

// toGraphQLError converts a service error into the error a resolver returns
func toGraphQLError(operation string, err error) error {
	switch {
	case apperrors.Is(err, apperrors.ErrInvalidCredentials):
		return &Error{Code: CodeBadUserInput, Message: "Invalid email or password"}
	case apperrors.Is(err, apperrors.ErrEmailTaken):
		return &Error{Code: CodeConflict, Message: "Email is already registered"}
	case apperrors.Is(err, apperrors.ErrWeakPassword), apperrors.Is(err, apperrors.ErrValidation):
		return &Error{Code: CodeBadUserInput, Message: validationMessage(err)}
	case apperrors.Is(err, apperrors.ErrUnauthenticated):
		return &Error{Code: CodeUnauthenticated, Message: "Not authenticated"}
	}

	log.Err(err).Str("operation", operation).Msg("Resolver failed")
	return &Error{Code: CodeInternal, Message: "Internal server error"}
}

// validationMessage is the innermost message of a validation error chain
func validationMessage(err error) string {
	var v *validationError
	if apperrors.As(err, &v) {
		return v.message
	}
	return "Invalid input"
}

// validationError carries a user-facing message while matching a sentinel
type validationError struct {
	sentinel error
	message  string
}

func (e *validationError) Error() string {
	return e.message
}

func (e *validationError) Unwrap() error {
	return e.sentinel
}
