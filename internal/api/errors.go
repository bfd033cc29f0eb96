package api

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies backend failures so callers can branch without parsing messages.
type Kind string

const (
	KindNetwork      Kind = "network"
	KindUnauthorized Kind = "unauthorized"
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindShape        Kind = "shape"
	KindServer       Kind = "server"
	KindUnavailable  Kind = "unavailable"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
	ErrShape        = errors.New("unexpected response shape")
	ErrUnavailable  = errors.New("backend unavailable")
)

type APIError struct {
	Kind    Kind
	Status  int
	Method  string
	Path    string
	Message string
	Err     error

	// callerDone marks a call abandoned because the caller's own context
	// ended. It says nothing about backend health.
	callerDone bool
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: %s (%d): %s", e.Method, e.Path, e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s %s: %s: %s", e.Method, e.Path, e.Kind, msg)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is matches the package sentinels by kind. Network, server and open-breaker
// failures all match ErrUnavailable.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrShape:
		return e.Kind == KindShape
	case ErrUnavailable:
		return e.Kind == KindNetwork || e.Kind == KindServer || e.Kind == KindUnavailable
	}
	return false
}

// KindOf returns the kind of err, or "" when err is not an *APIError.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// countsAsFailure decides what trips the circuit breaker: only failures that
// say something about backend health.
func countsAsFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.callerDone {
		return false
	}
	k := KindOf(err)
	return k == KindNetwork || k == KindServer || k == KindUnavailable
}

func kindForStatus(status int) Kind {
	switch {
	case status == 401 || status == 403:
		return KindUnauthorized
	case status == 404 || status == 410:
		return KindNotFound
	case status == 400 || status == 409 || status == 422:
		return KindValidation
	case status == 429 || status == 502 || status == 503 || status == 504:
		return KindUnavailable
	case status >= 500:
		return KindServer
	default:
		return KindValidation
	}
}
