package auth

import "errors"

var (
	ErrMissingToken = errors.New("auth: missing bearer token")
	ErrInvalidToken = errors.New("auth: invalid token")
	ErrExpiredToken = errors.New("auth: token has expired")
	ErrEmptySecret  = errors.New("auth: signing secret is empty")
)
