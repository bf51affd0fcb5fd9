package types

import "errors"

// Domain sentinel errors. Handlers translate these to HTTP status codes;
// anything else is treated as an internal failure and kept server-side.
var (
	ErrNotFound          = errors.New("requested item not found")
	ErrDuplicateUsername = errors.New("username already taken")
	ErrUnauthenticated   = errors.New("invalid credentials")
	ErrTooManyAttempts   = errors.New("too many failed login attempts")
	ErrValidation        = errors.New("invalid input")
	ErrInternal          = errors.New("internal error")
)
