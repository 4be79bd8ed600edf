package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrSecretNotFound  = errors.New("secret not found")

	// ErrNotAuthenticated is returned when an operation needs a stored credential
	// and none is present.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrAuthorizationExpired is returned when the backend rejects the access token.
	ErrAuthorizationExpired = errors.New("authorization expired")

	// ErrAuthorizationInvalid is returned when the session could not be recovered:
	// the refresh failed, or the request was rejected again after a refresh.
	// The session has been logged out when this is returned.
	ErrAuthorizationInvalid = errors.New("authorization invalid")

	ErrValidationFailed   = errors.New("validation failed")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrServerFault        = errors.New("server fault")
	ErrUnreachable        = errors.New("backend unreachable")
	ErrUnexpectedResponse = errors.New("unexpected backend response")
)

// APIError is a non-success HTTP response. It matches its Kind with errors.Is;
// ErrForbidden and ErrNotFound additionally match ErrValidationFailed.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
	Body       []byte
	Kind       error
}

func NewAPIError(method, path string, statusCode int, detail string, body []byte) *APIError {
	return &APIError{
		Method:     method,
		Path:       path,
		StatusCode: statusCode,
		Detail:     detail,
		Body:       body,
		Kind:       KindForStatus(statusCode),
	}
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *APIError) Unwrap() []error {
	switch e.Kind {
	case nil:
		return nil
	case ErrForbidden, ErrNotFound:
		return []error{e.Kind, ErrValidationFailed}
	default:
		return []error{e.Kind}
	}
}

func KindForStatus(statusCode int) error {
	switch {
	case statusCode == http.StatusUnauthorized:
		return ErrAuthorizationExpired
	case statusCode == http.StatusForbidden:
		return ErrForbidden
	case statusCode == http.StatusNotFound:
		return ErrNotFound
	case statusCode >= 400 && statusCode < 500:
		return ErrValidationFailed
	case statusCode >= 500:
		return ErrServerFault
	default:
		return ErrUnexpectedResponse
	}
}

// IsAuthorizationFailure reports whether err is a 401 from the backend.
func IsAuthorizationFailure(err error) bool {
	return errors.Is(err, ErrAuthorizationExpired)
}
