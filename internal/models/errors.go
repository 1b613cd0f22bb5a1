package models

import "github.com/pkg/errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
)

// Invalid wraps msg as a validation error.
func Invalid(msg string) error {
	return errors.Wrap(ErrValidation, msg)
}
