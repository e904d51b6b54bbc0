package store

import "errors"

var (
	ErrNoDSN              = errors.New("DB_DSN is not set")
	ErrNotFound           = errors.New("not found")
	ErrUserExists         = errors.New("user already exists")
	ErrUsernameRequired   = errors.New("username required")
	ErrPasswordTooShort   = errors.New("password too short (min 6)")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
