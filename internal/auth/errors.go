package auth

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an AuthError so callers can choose user messaging
// without inspecting strings.
type ErrorKind int

const (
	KindPortUnavailable ErrorKind = iota + 1
	KindAcquisitionInProgress
	KindDenied
	KindTimedOut
	KindCancelled
	KindExchange
	KindInvalidToken
	KindStore
)

func (k ErrorKind) String() string {
	switch k {
	case KindPortUnavailable:
		return "port_unavailable"
	case KindAcquisitionInProgress:
		return "acquisition_in_progress"
	case KindDenied:
		return "denied"
	case KindTimedOut:
		return "timed_out"
	case KindCancelled:
		return "cancelled"
	case KindExchange:
		return "exchange"
	case KindInvalidToken:
		return "invalid_token"
	case KindStore:
		return "store"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// AuthError is returned by every SessionManager operation that fails.
// Reason carries the provider's error code for KindDenied.
type AuthError struct {
	Kind   ErrorKind
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	msg := "auth: " + e.Kind.String()
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is matches any AuthError of the same kind, so the sentinels below work with
// errors.Is regardless of Reason or the wrapped cause.
func (e *AuthError) Is(target error) bool {
	var other *AuthError
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

var (
	ErrPortUnavailable       = &AuthError{Kind: KindPortUnavailable}
	ErrAcquisitionInProgress = &AuthError{Kind: KindAcquisitionInProgress}
	ErrDenied                = &AuthError{Kind: KindDenied}
	ErrTimedOut              = &AuthError{Kind: KindTimedOut}
	ErrCancelled             = &AuthError{Kind: KindCancelled}
	ErrExchange              = &AuthError{Kind: KindExchange}
	ErrInvalidToken          = &AuthError{Kind: KindInvalidToken}
	ErrStore                 = &AuthError{Kind: KindStore}
)

// ExchangeErrorKind separates transport failures from protocol failures.
type ExchangeErrorKind int

const (
	ExchangeNetwork ExchangeErrorKind = iota + 1
	ExchangeHTTP
	ExchangeMalformed
)

func (k ExchangeErrorKind) String() string {
	switch k {
	case ExchangeNetwork:
		return "network"
	case ExchangeHTTP:
		return "http"
	case ExchangeMalformed:
		return "malformed_response"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// ExchangeError describes a failed code-for-token exchange. Status and Body
// are populated for protocol failures so they can be surfaced for diagnosis.
type ExchangeError struct {
	Kind   ExchangeErrorKind
	Status int
	Body   string
	Err    error
}

func (e *ExchangeError) Error() string {
	switch e.Kind {
	case ExchangeNetwork:
		return fmt.Sprintf("token exchange: network error: %v", e.Err)
	case ExchangeHTTP:
		return fmt.Sprintf("token exchange: status %d: %s", e.Status, e.Body)
	default:
		if e.Err != nil {
			return fmt.Sprintf("token exchange: malformed response: %v: %s", e.Err, e.Body)
		}
		return fmt.Sprintf("token exchange: malformed response: %s", e.Body)
	}
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// ErrUnauthorized is returned by identity verification when the provider
// rejects the token.
var ErrUnauthorized = errors.New("auth: token rejected by provider")
