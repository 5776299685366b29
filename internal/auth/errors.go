package auth

import "errors"

var (
	ErrNotFound           = errors.New("auth: not found")
	ErrEmailTaken         = errors.New("auth: email already registered")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrInvalidInput       = errors.New("auth: invalid input")
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrUnauthenticated    = errors.New("auth: unauthenticated")
)
