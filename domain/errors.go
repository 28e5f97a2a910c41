package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// UnauthorizedMarker is the marker carried by confirmed-unauthorized failures
const UnauthorizedMarker = "UNAUTHORIZED"

// Session errors
var (
	ErrUnauthorized       = errors.New(UnauthorizedMarker)
	ErrCredentialNotFound = errors.New("credential not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session has expired")
)

// Flow errors
var (
	ErrPollTimeout    = errors.New("verification timed out")
	ErrFlowCancelled  = errors.New("verification flow cancelled")
	ErrFlowNotStarted = errors.New("verification flow not started")
	ErrInvalidPhone   = errors.New("invalid phone number")
	ErrUnknownCountry = errors.New("unknown phone country")
	ErrMissingToken   = errors.New("login response did not include a token")
)

// Backend errors
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserInactive         = errors.New("user account is inactive")
	ErrVerificationNotFound = errors.New("verification not found")
	ErrVerificationPending  = errors.New("verification pending")
	ErrOTPInvalid           = errors.New("invalid otp code")
	ErrOTPMaxAttempts       = errors.New("maximum otp attempts exceeded")
	ErrOTPResendLimit       = errors.New("otp resend limit exceeded")
	ErrTokenInvalid         = errors.New("invalid token")
	ErrTokenExpired         = errors.New("token has expired")
	ErrTokenMalformed       = errors.New("malformed token")
)

// ValidationError carries field-level messages returned by the server
type ValidationError struct {
	Message string
	Fields  map[string][]string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if msgs := e.Messages(); len(msgs) > 0 {
		return strings.Join(msgs, "; ")
	}
	return "validation failed"
}

// Messages returns every field message ordered by field name
func (e *ValidationError) Messages() []string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var out []string
	for _, f := range fields {
		out = append(out, e.Fields[f]...)
	}
	return out
}

// ServerError is a 4xx/5xx response with a body
type ServerError struct {
	Status  int
	Message string
	Errors  map[string][]string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server error %d", e.Status)
}

// NetworkError means no response was received
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsUnauthorized reports whether err confirms the credential is invalid
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsTransient reports whether err must not clear a session
func IsTransient(err error) bool {
	return err != nil && !IsUnauthorized(err)
}
