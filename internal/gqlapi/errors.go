package gqlapi

import (
	"errors"

	"analyzeit.org/internal/auth"
	"analyzeit.org/internal/obs"
	"analyzeit.org/internal/predict"
	"analyzeit.org/internal/stats"
)

// Stable machine-readable error codes surfaced in GraphQL error extensions.
const (
	codeUnauthenticated    = "UNAUTHENTICATED"
	codeInvalidCredentials = "INVALID_CREDENTIALS"
	codeUserAlreadyExists  = "USER_ALREADY_EXISTS"
	codeUpstreamPrediction = "UPSTREAM_PREDICTION_ERROR"
	codeValidation         = "VALIDATION_ERROR"
	codeInternal           = "INTERNAL"
)

// Error is a resolver error carrying a stable code. graphql-go picks the
// Extensions method up when formatting, so the code lands in
// errors[i].extensions.code on the wire.
type Error struct {
	code    string
	message string
}

func (e *Error) Error() string { return e.message }

func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.code}
}

func newValidationError(message string) *Error {
	return &Error{code: codeValidation, message: message}
}

// mapError translates domain errors into coded GraphQL errors. Anything
// unrecognized is logged server-side and replaced with a generic message so
// repository and upstream internals never leak to the caller.
func mapError(operation string, err error) error {
	var coded *Error
	if errors.As(err, &coded) {
		return coded
	}
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return &Error{code: codeUnauthenticated, message: "you must be logged in"}
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &Error{code: codeInvalidCredentials, message: "invalid email or password"}
	case errors.Is(err, auth.ErrEmailTaken):
		return &Error{code: codeUserAlreadyExists, message: "a user with this email already exists"}
	case errors.Is(err, auth.ErrInvalidInput):
		return &Error{code: codeValidation, message: "a valid email and a non-empty password are required"}
	case errors.Is(err, predict.ErrUpstream):
		return &Error{code: codeUpstreamPrediction, message: "prediction service unavailable"}
	case errors.Is(err, stats.ErrInvalidInput):
		return &Error{code: codeValidation, message: "invalid input"}
	default:
		obs.Error("resolver failed", map[string]any{
			"operation": operation,
			"cause":     err.Error(),
		})
		return &Error{code: codeInternal, message: "internal server error"}
	}
}
