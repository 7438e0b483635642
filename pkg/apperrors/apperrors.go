package apperrors

import (
	"errors"
	"fmt"
)

// Kind discriminates failure classes so callers can branch on the
// category of an error without matching message strings.
type Kind string

const (
	// KindNetwork is a connectivity or otherwise unstructured failure.
	// The only retryable kind.
	KindNetwork Kind = "network"

	// KindRateLimit means too many attempts; the caller must back off
	// and retry manually.
	KindRateLimit Kind = "rate_limit"

	// KindValidation means the field content was rejected, either
	// locally or by the backend.
	KindValidation Kind = "validation"

	// KindConflict means a booking race was lost: the chosen slot was
	// taken by another party between fetch and submit.
	KindConflict Kind = "conflict"

	// KindInvalid covers programmer errors and bad input that is not
	// user-correctable form content.
	KindInvalid Kind = "invalid"
)

// Sentinel errors for errors.Is checks on wrapped chains.
var (
	ErrNetwork    = errors.New("network error")
	ErrRateLimit  = errors.New("rate limited")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrInvalid    = errors.New("invalid input")
)

// Error is a classified application error. Message is safe to surface
// to the user verbatim.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return sentinel(e.Kind)
}

// Is lets errors.Is match both the wrapped cause and the kind sentinel.
func (e *Error) Is(target error) bool {
	return target == sentinel(e.Kind)
}

func sentinel(k Kind) error {
	switch k {
	case KindNetwork:
		return ErrNetwork
	case KindRateLimit:
		return ErrRateLimit
	case KindValidation:
		return ErrValidation
	case KindConflict:
		return ErrConflict
	default:
		return ErrInvalid
	}
}

// New creates a classified error with a user-facing message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a classified error around an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Network wraps a transport-level failure with the generic connectivity
// message shown to users.
func Network(err error) *Error {
	return Wrap(KindNetwork, "Unable to reach the server. Please check your connection and try again.", err)
}

// KindOf extracts the kind of an error chain. Unclassified errors
// report KindNetwork: anything we cannot interpret is treated as an
// unstructured transport failure.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindNetwork
}

// UserMessage extracts a user-presentable message from an error chain.
func UserMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "Something went wrong. Please try again."
}

// IsRetryable reports whether an operation that failed with err may be
// retried automatically. Only network-class failures qualify.
func IsRetryable(err error) bool {
	return KindOf(err) == KindNetwork
}
