// Package errorx is the closed error taxonomy shared by the remote client,
// the retry wrapper and the tool handlers.
//
// Every failure is one of three kinds:
//
//   - KindRetryable: the remote API refused the request because the caller is
//     rate limited. Safe to retry after a delay.
//   - KindTerminal: any other remote or transport failure (authentication,
//     request validation, server errors).
//   - KindLocal: failures that never reached the remote API (argument
//     coercion, reading or writing image files).
package errorx

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies an error for retry and reporting purposes.
type Kind int32

const (
	// KindTerminal is the zero value: unclassified errors are never retried.
	KindTerminal  Kind = 0
	KindRetryable Kind = 1
	KindLocal     Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindTerminal:
		return "terminal"
	case KindRetryable:
		return "retryable"
	case KindLocal:
		return "local"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Error is a classified error. Message is what the caller sees; Op and
// StatusCode are context for logs.
type Error struct {
	Kind Kind `json:"kind"`

	// Op names the operation that failed, e.g. "rotate" or "save image".
	Op string `json:"op,omitempty"`

	// StatusCode is the HTTP status returned by the remote API, if any.
	StatusCode int `json:"status_code,omitempty"`

	// Message is the human-readable description.
	Message string `json:"message"`

	Cause error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Kind.String() + " error"
}

// Unwrap implements Go's error unwrapping.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches a target *Error that carries only a Kind, so callers can write
// errors.Is(err, &errorx.Error{Kind: errorx.KindRetryable}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Op == "" && t.Message == "" && t.StatusCode == 0 && t.Cause == nil {
		return e.Kind == t.Kind
	}
	return false
}

// New creates an error of the given kind.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind. The message becomes "msg: cause" when msg
// is non-empty and the cause text otherwise.
func Wrap(kind Kind, op string, err error, msg string) *Error {
	if err == nil {
		return nil
	}
	message := err.Error()
	if msg != "" {
		message = msg + ": " + message
	}
	return &Error{Kind: kind, Op: op, Message: message, Cause: err}
}

// Local wraps a failure that happened before or after the remote call.
func Local(op string, err error, msg string) *Error {
	return Wrap(KindLocal, op, err, msg)
}

// FromStatus maps a remote HTTP status and its detail text to an Error.
func FromStatus(op string, status int, detail string) *Error {
	kind := KindTerminal
	message := detail
	switch {
	case status == http.StatusTooManyRequests:
		kind = KindRetryable
		if message == "" {
			message = "rate limited by remote API"
		}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		if message == "" {
			message = "authentication failed: check the API secret"
		}
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		if message == "" {
			message = "request validation failed"
		}
	default:
		if message == "" {
			message = http.StatusText(status)
		}
	}
	if isRateLimitMessage(message) {
		kind = KindRetryable
	}
	return &Error{Kind: kind, Op: op, StatusCode: status, Message: message}
}

// KindOf classifies any error. The lookup is layered:
//
//  1. an *Error anywhere in the chain decides;
//  2. an error exposing StatusCode() int is mapped by status (429 retryable);
//  3. the message is matched against known rate-limit phrases.
//
// Anything else is terminal. Layer 3 exists because the remote API reports
// some rate limits only in prose; prefer a status code when one is available.
func KindOf(err error) Kind {
	if err == nil {
		return KindTerminal
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	var sc statusCodeCarrier
	if errors.As(err, &sc) && sc.StatusCode() == http.StatusTooManyRequests {
		return KindRetryable
	}

	if isRateLimitMessage(err.Error()) {
		return KindRetryable
	}
	return KindTerminal
}

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	return KindOf(err) == KindRetryable
}

// IsLocal reports whether err never reached the remote API.
func IsLocal(err error) bool {
	return KindOf(err) == KindLocal
}

type statusCodeCarrier interface {
	StatusCode() int
}

var rateLimitPatterns = []string{
	"wait longer between generations",
	"rate limit",
	"rate_limit",
	"too many requests",
}

func isRateLimitMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, p := range rateLimitPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
