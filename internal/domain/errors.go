package domain

import "errors"

// Session errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrStaleToken         = errors.New("token superseded by a later logout")
	ErrWrongOldPassword   = errors.New("incorrect old password")
	ErrAccountDeactivated = errors.New("account is deactivated")
)

// Identity errors
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailExists     = errors.New("email already in use")
	ErrMissingField    = errors.New("required field missing")
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

// Story errors
var (
	ErrStoryNotFound = errors.New("story not found")
	ErrEmptyStory    = errors.New("story needs text or media")
	ErrUnauthorized  = errors.New("only the story owner can perform this action")
)

// ErrStoreUnavailable marks a transient infrastructure failure.
var ErrStoreUnavailable = errors.New("store unavailable")
