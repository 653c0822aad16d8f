// Package autherrs defines the auth error taxonomy, the transient/permanent
// classifier used by the retry policy, and the mapping from internal error
// kinds to non-leaking user-facing messages.
package autherrs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Kind identifies the failure category for logging and user-message mapping.
type Kind string

const (
	KindSignInFailed       Kind = "SIGNIN_FAILED"
	KindOAuthFailed        Kind = "OAUTH_FAILED"
	KindDatabaseError      Kind = "DATABASE_ERROR"
	KindSessionError       Kind = "SESSION_ERROR"
	KindJWTError           Kind = "JWT_ERROR"
	KindCredentialsInvalid Kind = "CREDENTIALS_INVALID"
	KindEmailNotVerified   Kind = "EMAIL_NOT_VERIFIED"
	KindRoleAssignment     Kind = "ROLE_ASSIGNMENT_FAILED"
	KindMiddlewareError    Kind = "MIDDLEWARE_ERROR"
	KindCallbackError      Kind = "CALLBACK_ERROR"
)

// Error carries a classified auth failure plus optional structured context.
// The context fields are for logging only and never reach the client.
type Error struct {
	Kind     Kind
	Message  string
	Err      error
	UserID   string
	Email    string
	Provider string
	Route    string
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error without an underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Log emits the error with its structured context at ERROR level. The PG
// slog handler picks these attribute keys up into auth_logs columns.
func (e *Error) Log() {
	attrs := []any{"kind", string(e.Kind)}
	if e.UserID != "" {
		attrs = append(attrs, "user_id", e.UserID)
	}
	if e.Email != "" {
		attrs = append(attrs, "email", e.Email)
	}
	if e.Provider != "" {
		attrs = append(attrs, "provider", e.Provider)
	}
	if e.Route != "" {
		attrs = append(attrs, "route", e.Route)
	}
	if e.Err != nil {
		attrs = append(attrs, "error", e.Err.Error())
	}
	slog.Error(e.Message, attrs...)
}

// UserMessage maps an error kind to a generic client-safe message. Messages
// never reveal whether an email exists or any storage/provider detail.
func UserMessage(kind Kind) string {
	switch kind {
	case KindCredentialsInvalid, KindSignInFailed, KindEmailNotVerified:
		return "Invalid email or password"
	case KindOAuthFailed, KindCallbackError:
		return "Sign-in with the selected provider failed. Please try again."
	case KindSessionError, KindJWTError:
		return "Your session could not be validated. Please sign in again."
	case KindRoleAssignment:
		return "The role change could not be applied."
	default:
		return "Something went wrong. Please try again."
	}
}

// transientMarkers are matched case-insensitively against the error chain's
// messages. Anything not matched is permanent.
var transientMarkers = []string{
	"connection refused",
	"connection reset",
	"econnrefused",
	"etimedout",
	"timeout",
	"timed out",
	"no such host",
	"dns",
	"eai_again",
	"network error",
	"rate limit",
	"too many requests",
	"temporarily unavailable",
}

// IsTransient reports whether err is expected to be resolved by retrying
// with unchanged inputs. Caller-imposed deadline expiry counts as transient;
// explicit cancellation does not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
