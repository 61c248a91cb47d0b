package hr

import "errors"

var (
	// ErrNotFound is returned by mutations that target an unknown record, user or attachment.
	// Single-item reads return nil, nil instead.
	ErrNotFound = errors.New("not found")

	// ErrInvalidFormat marks a malformed backup bundle, data URI or field bag.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrStoreUnavailable is returned by an attachment store that has not been opened
	// or whose connection has been closed.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrWriteFailure wraps any error from the underlying collection store on write.
	// Callers must treat it as "nothing happened".
	ErrWriteFailure = errors.New("write failure")

	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserInactive       = errors.New("user account is deactivated")
)
