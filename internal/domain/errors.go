package domain

import "errors"

var (
	// ErrValidation marks caller-correctable input errors.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks lookups for records that do not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks writes that collide with existing state.
	ErrConflict = errors.New("conflict")
)
