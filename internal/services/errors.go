package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("conflict")

	ErrInvalidCredentials  = errors.New("invalid password")
	ErrServerMisconfigured = errors.New("server configuration error")

	// ErrSaveFailed is returned together with a SaveResult describing every key
	ErrSaveFailed = errors.New("failed to save categorizations")
)

// NotFoundError names the missing resource and what exists instead.
type NotFoundError struct {
	Resource  string
	Value     string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.Value)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func newValidationError(err error) error {
	return errors.Join(ErrValidationFailed, err)
}
