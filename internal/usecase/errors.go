package usecase

import (
	"errors"
	"fmt"
)

// Outcome taxonomy shared by the issuer and the verifier. The adaptor maps
// each one to a response with errors.Is; nothing else leaks to callers.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrAlreadyRegistered = errors.New("user already registered")
	ErrResendTooSoon     = errors.New("resend too soon")
	ErrDeliveryFailed    = errors.New("delivery failed")
	ErrNotFound          = errors.New("no verification request found")
	ErrAlreadyVerified   = errors.New("email already verified")
	ErrExpired           = errors.New("otp expired")
	ErrTooManyAttempts   = errors.New("too many failed attempts")
	ErrInvalidCode       = errors.New("invalid otp")
	ErrUnavailable       = errors.New("service unavailable")
)

// unavailable tags an infrastructure failure so that both ErrUnavailable and
// the cause stay reachable through errors.Is.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// resultLabel names an outcome for metrics.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrAlreadyRegistered):
		return "already_registered"
	case errors.Is(err, ErrResendTooSoon):
		return "resend_too_soon"
	case errors.Is(err, ErrDeliveryFailed):
		return "delivery_failed"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyVerified):
		return "already_verified"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrTooManyAttempts):
		return "too_many_attempts"
	case errors.Is(err, ErrInvalidCode):
		return "invalid_code"
	default:
		return "unavailable"
	}
}
