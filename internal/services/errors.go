package services

import "errors"

// Validation failures: the connection stays open, the caller gets the
// text back verbatim.
var (
	ErrHandleTaken   = errors.New("this handle is already taken")
	ErrInvalidHandle = errors.New("handle must be 3-16 letters, digits or underscores")
	ErrWeakPassword  = errors.New("password must be 3-16 characters")
)

// Auth failures.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrWrongPassword    = errors.New("wrong password")
	ErrInvalidToken     = errors.New("invalid token")
	ErrNotAuthenticated = errors.New("authentication required")
)

// ErrStorageUnavailable is reported to the caller instead of crashing
// the session when the store cannot be reached.
var ErrStorageUnavailable = errors.New("storage temporarily unavailable")

// IsValidationError reports whether err is a bad-input failure rather
// than an auth or infrastructure one.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrHandleTaken) ||
		errors.Is(err, ErrInvalidHandle) ||
		errors.Is(err, ErrWeakPassword)
}

// IsAuthError reports whether err is a credential or token failure.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrWrongPassword) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrNotAuthenticated)
}
