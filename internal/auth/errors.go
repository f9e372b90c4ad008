package auth

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidToken       = errors.New("invalid token")
)

// ErrPasswordTooLong matches ErrInvalidInput as well.
var ErrPasswordTooLong = fmt.Errorf("%w: password longer than %d bytes", ErrInvalidInput, maxPasswordBytes)
