package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/abdallahh166/Orangesites-sub000/pkg/client"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		unauthorized error
		want         error
	}{
		{"401 on login", fmt.Errorf("client.Login: %w", &client.HTTPError{StatusCode: 401}), ErrInvalidCredentials, ErrInvalidCredentials},
		{"401 on protected call", &client.HTTPError{StatusCode: 401}, ErrSessionExpired, ErrSessionExpired},
		{"500", &client.HTTPError{StatusCode: 500}, ErrInvalidCredentials, ErrServerError},
		{"503", &client.HTTPError{StatusCode: 503}, ErrInvalidCredentials, ErrServerError},
		{"422", &client.HTTPError{StatusCode: 422}, ErrInvalidCredentials, ErrRejected},
		{"url error", &url.Error{Op: "Post", URL: "http://x", Err: errors.New("connection refused")}, ErrInvalidCredentials, ErrNetworkUnavailable},
		{"deadline", fmt.Errorf("do request: %w", context.DeadlineExceeded), ErrInvalidCredentials, ErrNetworkUnavailable},
		{"already classified", Wrap(ErrStorageUnavailable, errors.New("disk full")), ErrInvalidCredentials, ErrStorageUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err, tt.unauthorized)
			if !errors.Is(got, tt.want) {
				t.Errorf("Classify() = %v, want kind %v", got, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("Classify() = %v, lost the cause %v", got, tt.err)
			}
		})
	}
}

func TestClassifyNil(t *testing.T) {
	if got := Classify(nil, ErrSessionExpired); got != nil {
		t.Errorf("Classify(nil) = %v, want nil", got)
	}
}

func TestWrapKeepsBothChains(t *testing.T) {
	cause := &client.HTTPError{StatusCode: http.StatusBadGateway, Message: "upstream"}
	err := Wrap(ErrSubmissionFailed, cause)
	if !errors.Is(err, ErrSubmissionFailed) {
		t.Error("errors.Is(err, ErrSubmissionFailed) = false")
	}
	if !client.IsStatus(err, http.StatusBadGateway) {
		t.Error("client.IsStatus(err, 502) = false")
	}
	if Wrap(ErrSubmissionFailed, nil) != ErrSubmissionFailed {
		t.Error("Wrap(kind, nil) should return kind")
	}
}

func TestMessagePrefersSessionKinds(t *testing.T) {
	err := Wrap(ErrSubmissionFailed, Wrap(ErrSessionExpired, errors.New("refresh rejected")))
	if got, want := Message(err), Message(ErrSessionExpired); got != want {
		t.Errorf("Message() = %q, want %q", got, want)
	}
}

func TestMessageRejectedUsesServerText(t *testing.T) {
	err := Wrap(ErrRejected, &client.HTTPError{StatusCode: 409, Message: "email already registered"})
	if got := Message(err); got != "email already registered" {
		t.Errorf("Message() = %q, want server text", got)
	}
}
