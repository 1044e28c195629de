package auth

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"
)

// ValidationError reports malformed client input. All instances match ErrValidation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

var (
	ErrValidation = errors.New("validation failed")

	ErrEmailInvalid     = &ValidationError{Message: "invalid email format"}
	ErrEmailTooLong     = &ValidationError{Message: "email exceeds maximum length of 256 characters"}
	ErrPasswordTooShort = &ValidationError{Message: "password must be at least 10 characters"}
	ErrPasswordTooLong  = &ValidationError{Message: "password exceeds maximum length of 256 characters"}
	ErrBadRequest       = &ValidationError{Message: "invalid request body"}

	ErrUserExists         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrCSRF               = errors.New("CSRF token invalid or missing")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAuthRequired       = errors.New("authentication required")
	ErrForbidden          = errors.New("forbidden")
)

// LockedError is returned while an account is locked after repeated failures.
type LockedError struct {
	RetryAfter time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account is locked, try again in %d seconds", e.Seconds())
}

// Seconds is the remaining lock time rounded up to whole seconds.
func (e *LockedError) Seconds() int {
	return int(math.Ceil(e.RetryAfter.Seconds()))
}

// StatusCode maps an error onto its HTTP status.
func StatusCode(err error) int {
	var locked *LockedError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &locked):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrCSRF), errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the client-facing message for an error. Unexpected
// errors collapse to a generic message so internals never leak.
func PublicMessage(err error) string {
	var validation *ValidationError
	var locked *LockedError
	switch {
	case errors.As(err, &validation):
		return validation.Message
	case errors.As(err, &locked):
		return locked.Error()
	case errors.Is(err, ErrUserExists),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrCSRF),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrAuthRequired),
		errors.Is(err, ErrForbidden):
		return rootMessage(err)
	default:
		return "internal error"
	}
}

// rootMessage returns the sentinel's text rather than any wrapped detail.
func rootMessage(err error) string {
	for _, sentinel := range []error{ErrUserExists, ErrInvalidCredentials, ErrCSRF, ErrInvalidToken, ErrAuthRequired, ErrForbidden} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "internal error"
}
