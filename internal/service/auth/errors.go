package auth

import "errors"

var (
	// ErrUnauthenticated covers malformed, forged, and expired access tokens.
	ErrUnauthenticated = errors.New("auth: invalid authentication credentials")
	// ErrUserNotFound means a token subject no longer resolves to a user.
	ErrUserNotFound = errors.New("auth: user not found")
	// ErrEmailTaken rejects duplicate registration.
	ErrEmailTaken = errors.New("auth: email already registered")
	// ErrInvalidCredentials rejects a login with a wrong email or password.
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	// ErrInvalidResetToken rejects malformed, forged, and expired reset tokens.
	ErrInvalidResetToken = errors.New("auth: invalid reset token")
	// ErrUnsupportedAvatarType rejects non-image avatar uploads.
	ErrUnsupportedAvatarType = errors.New("auth: unsupported avatar content type")
)
