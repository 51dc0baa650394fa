package models

import "errors"

// Sentinel errors shared by repositories, services and handlers. Wrap them with
// fmt.Errorf("...: %w", err) and match with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrRateLimited     = errors.New("commenting too fast")
	ErrDuplicate       = errors.New("duplicate comment")
	ErrConflict        = errors.New("concurrent update conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrExternalService = errors.New("external service unavailable")
)
