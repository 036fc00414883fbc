// Package apperr defines the error taxonomy shared by the session, draft and
// capture layers, and the user-facing message for each kind.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/abdallahh166/Orangesites-sub000/pkg/client"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionExpired     = errors.New("session expired")
	ErrUnauthenticated    = errors.New("not signed in")
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrServerError        = errors.New("server error")
	ErrRejected           = errors.New("request rejected")
	ErrValidationFailed   = errors.New("validation failed")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrSubmissionFailed   = errors.New("submission failed")
)

// kindError pairs a taxonomy sentinel with its underlying cause so that both
// errors.Is(err, sentinel) and errors.Is(err, cause) hold.
type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string {
	if e.cause == nil {
		return e.kind.Error()
	}
	return fmt.Sprintf("%s: %v", e.kind, e.cause)
}

func (e *kindError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

// Wrap tags cause with kind. A nil cause yields kind itself.
func Wrap(kind, cause error) error {
	if cause == nil {
		return kind
	}
	if errors.Is(cause, kind) {
		return cause
	}
	return &kindError{kind: kind, cause: cause}
}

// Classify maps a transport error from pkg/client onto the taxonomy.
// unauthorized is the kind a 401 maps to at this call site: InvalidCredentials
// for login, SessionExpired for protected calls.
func Classify(err error, unauthorized error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{
		ErrInvalidCredentials, ErrSessionExpired, ErrUnauthenticated, ErrNetworkUnavailable,
		ErrServerError, ErrRejected, ErrValidationFailed, ErrStorageUnavailable, ErrSubmissionFailed,
	} {
		if errors.Is(err, known) {
			return err
		}
	}

	switch code := client.StatusCode(err); {
	case code == http.StatusUnauthorized:
		return Wrap(unauthorized, err)
	case code >= 500:
		return Wrap(ErrServerError, err)
	case code >= 400:
		return Wrap(ErrRejected, err)
	}

	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) ||
		errors.Is(err, context.DeadlineExceeded) {
		return Wrap(ErrNetworkUnavailable, err)
	}
	return err
}

// Message returns the line shown to the user for err. Session kinds win over
// the operation kind they are wrapped in.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSessionExpired):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, ErrUnauthenticated):
		return "You are not signed in."
	case errors.Is(err, ErrInvalidCredentials):
		return "Incorrect email or password."
	case errors.Is(err, ErrSubmissionFailed):
		return "Submission failed. Your draft is intact; try again."
	case errors.Is(err, ErrValidationFailed):
		return "Complete this step before continuing."
	case errors.Is(err, ErrStorageUnavailable):
		return "Could not save locally. Your work is kept in memory."
	case errors.Is(err, ErrNetworkUnavailable):
		return "Cannot reach the server. Check your connection and try again."
	case errors.Is(err, ErrServerError):
		return "The server had a problem. Please try again shortly."
	case errors.Is(err, ErrRejected):
		var httpErr *client.HTTPError
		if errors.As(err, &httpErr) && httpErr.Message != "" {
			return httpErr.Message
		}
		return "The request was rejected."
	default:
		return err.Error()
	}
}
