package api

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest indicates a malformed or incomplete request body.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrMethodNotAllowed indicates an unsupported HTTP method on a route.
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// Wrap annotates err with a handler-local message.
func Wrap(err error, msg string) error {
	return fmt.Errorf("%s: %w", msg, err)
}
