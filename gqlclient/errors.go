package gqlclient

import (
	"fmt"

	graphql "github.com/cli/shurcooL-graphql"
	apperrors "github.com/jrsteele09/go-web-template/internal/errors"
)

const (
	codeUnauthenticated = "UNAUTHENTICATED"

	messageSessionExpired = "Your session has expired. Please log in again."
	messageTransport      = "Unable to reach the server. Please try again."
)

type errorKind int

const (
	kindTransport errorKind = iota
	kindRejected
	kindUnauthenticated
)

// classify sorts a transport error. Anything that is not a GraphQL error
// document (network failure, non-200 status, undecodable body) is a transport error.
func classify(err error) errorKind {
	var gqlErrs graphql.Errors
	if !apperrors.As(err, &gqlErrs) {
		return kindTransport
	}
	for _, e := range gqlErrs {
		if code, _ := e.Extensions["code"].(string); code == codeUnauthenticated {
			return kindUnauthenticated
		}
	}
	return kindRejected
}

// ErrorCode returns the extensions.code of the first GraphQL error in err, if any
func ErrorCode(err error) string {
	var gqlErrs graphql.Errors
	if !apperrors.As(err, &gqlErrs) || len(gqlErrs) == 0 {
		return ""
	}
	code, _ := gqlErrs[0].Extensions["code"].(string)
	return code
}

// Message turns a network error into the text shown to the user. Rejections carry
// the server's own message; fallback is used when nothing better is known.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if apperrors.Is(err, apperrors.ErrSessionExpired) {
		return messageSessionExpired
	}

	var gqlErrs graphql.Errors
	if apperrors.As(err, &gqlErrs) && len(gqlErrs) > 0 && gqlErrs[0].Message != "" {
		return gqlErrs[0].Message
	}
	if apperrors.Is(err, apperrors.ErrTransport) {
		return messageTransport
	}
	return fallback
}

func wrapKind(kind errorKind, name string, err error) error {
	switch kind {
	case kindUnauthenticated:
		return fmt.Errorf("[%s] %w: %w", name, apperrors.ErrUnauthenticated, err)
	case kindRejected:
		return fmt.Errorf("[%s] %w: %w", name, apperrors.ErrRequestRejected, err)
	default:
		return fmt.Errorf("[%s] %w: %w", name, apperrors.ErrTransport, err)
	}
}
