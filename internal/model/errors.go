package model

import "errors"

var (
	// User related errors
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")

	// Credential errors. All of these collapse to the same generic 401
	// body at the HTTP boundary; they stay distinct for logs and audit.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrTokenWrongKind     = errors.New("token kind mismatch")

	// Session related errors
	ErrSessionNotFound = errors.New("session not found")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
