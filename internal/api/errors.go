// Package api provides error types for StructSim platform API responses.
package api

import (
	"errors"
	"fmt"
	nethttp "net/http"
	"strings"
)

var (
	// ErrUnauthorized is returned when the backend rejects the bearer token (HTTP 401).
	ErrUnauthorized = errors.New("unauthorized: session is missing or invalid")

	// ErrSessionExpired is returned before a request when the saved token's exp claim has passed.
	ErrSessionExpired = errors.New("session expired: please log in again")
)

// APIError is a failed platform call: either a non-2xx HTTP status or a
// 2xx envelope whose code is non-zero.
type APIError struct {
	Status  int    // HTTP status, 0 when the failure came from the envelope only
	Code    int    // envelope code
	Message string // envelope msg, or the raw body for non-envelope failures
	TraceID string
	Method  string
	Path    string

	// Fields holds per-field validation messages when the backend sends them
	// as data.errors.
	Fields map[string]string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = nethttp.StatusText(e.Status)
	}
	if msg == "" {
		msg = "request failed"
	}
	var b strings.Builder
	if e.Method != "" {
		fmt.Fprintf(&b, "%s %s: ", e.Method, e.Path)
	}
	b.WriteString(msg)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d", e.Status)
		if e.Code != 0 {
			fmt.Fprintf(&b, ", code %d", e.Code)
		}
		b.WriteString(")")
	} else if e.Code != 0 {
		fmt.Fprintf(&b, " (code %d)", e.Code)
	}
	if e.TraceID != "" {
		fmt.Fprintf(&b, " [trace %s]", e.TraceID)
	}
	return b.String()
}

// HTTPStatus lets the retry classifier look at the status code.
func (e *APIError) HTTPStatus() int { return e.Status }

// FieldErrors returns per-field messages, if any.
func (e *APIError) FieldErrors() map[string]string { return e.Fields }

// UserMessage is the text shown in a toast: the backend message when there
// is one, otherwise a short description of the status.
func (e *APIError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if t := nethttp.StatusText(e.Status); t != "" {
		return t
	}
	return "request failed"
}

// Unwrap maps a 401 onto ErrUnauthorized so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	if e.Status == nethttp.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// IsUnauthorized reports whether err means the session is gone.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrSessionExpired)
}

// IsNotFound reports whether err is an HTTP 404 from the platform.
func IsNotFound(err error) bool {
	return statusOf(err) == nethttp.StatusNotFound
}

// IsConflict checks if an error indicates a duplicate entity.
//
// Detected from:
//  1. HTTP 409 Conflict status code
//  2. Error messages containing "already exists", "duplicate" or "conflict"
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	if statusOf(err) == nethttp.StatusConflict {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, indicator := range []string{"already exists", "duplicate", "conflict", "已存在"} {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

// FieldErrors extracts per-field messages from err, or nil.
func FieldErrors(err error) map[string]string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Fields
	}
	return nil
}

// Message returns the text to show the user for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return err.Error()
}

func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
