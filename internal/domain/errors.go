package domain

import (
	"errors"
	"fmt"
)

// Error classes. Every specific error below wraps exactly one of them so
// callers can branch with errors.Is on the class alone.
var (
	ErrValidation       = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("store unavailable")
)

var (
	ErrInvalidEmail   = fmt.Errorf("%w: email is not valid", ErrValidation)
	ErrWeakPassword   = fmt.Errorf("%w: password length is invalid", ErrValidation)
	ErrDuplicateEmail = fmt.Errorf("%w: email already in use", ErrValidation)
	ErrInvalidTodo    = fmt.Errorf("%w: todo text is required", ErrValidation)
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrMissingToken       = fmt.Errorf("%w: token missing", ErrUnauthorized)
	ErrInvalidSignature   = fmt.Errorf("%w: token signature invalid", ErrUnauthorized)
	ErrUnknownUser        = fmt.Errorf("%w: token subject unknown", ErrUnauthorized)
	ErrTokenRevoked       = fmt.Errorf("%w: token revoked", ErrUnauthorized)
)
