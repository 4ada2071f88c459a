package service

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError is a caller mistake the checkout page can show as-is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AuthError means the credential exchange with the gateway failed.
// StatusCode is zero when no response was received.
type AuthError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth error: %d %s: %v", e.StatusCode, e.Body, e.Err)
	}
	return fmt.Sprintf("auth error: %d %s", e.StatusCode, e.Body)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// UpstreamError means a cash-in or transaction call failed. StatusCode is the
// gateway's HTTP status, or zero when the request never got a response.
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s error: %d %s", e.Op, e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Unauthorized reports whether the gateway rejected the bearer token or credentials.
func (e *UpstreamError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// StatusCode returns the upstream status carried by err, or zero.
func StatusCode(err error) int {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.StatusCode
	}
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr.StatusCode
	}
	return 0
}
