package auth

import (
	"errors"
	"fmt"
)

var (
	ErrParse         = errors.New("malformed authorization response")
	ErrStateMismatch = errors.New("state token does not match the expected state")
	ErrTimeout       = errors.New("timed out waiting for the authorization response")
	ErrCancelled     = errors.New("authorization cancelled")
	ErrNoCredentials = errors.New("no stored credentials")
)

// BindError is returned when the local callback address can not be bound.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("listen on %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// ParseError is returned when the inbound request does not carry a
// `GET /?<query>` request line. It matches ErrParse with errors.Is.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrParse, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrParse, e.Reason)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MissingCodeError is returned when the provider redirected back without a
// code. Reason holds the provider's error parameter, or "unknown".
type MissingCodeError struct {
	Reason string
}

func (e *MissingCodeError) Error() string {
	return fmt.Sprintf("failed to retrieve authorization code: %s", e.Reason)
}

// AuthorizationError wraps a failure of the redirect leg.
type AuthorizationError struct {
	Err error
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("authorization failed: %v", e.Err)
}

func (e *AuthorizationError) Unwrap() error {
	return e.Err
}

// TokenExchangeError wraps a rejected code-for-token exchange.
type TokenExchangeError struct {
	Err error
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("exchanging authorization code: %v", e.Err)
}

func (e *TokenExchangeError) Unwrap() error {
	return e.Err
}
