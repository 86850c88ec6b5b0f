// Package apperr defines sentinel errors shared across doclife packages.
package apperr

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrInvalidDirectory = errors.New("invalid directory")
	ErrNoRoots          = errors.New("no document roots configured")
	ErrInvalidRange     = errors.New("invalid revision range")
	ErrInvalidPath      = errors.New("invalid path")
	ErrEphemeral        = errors.New("ephemeral document")
)
