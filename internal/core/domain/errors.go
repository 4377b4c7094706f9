package domain

import "errors"

// Common domain errors.
var (
	// Scope errors
	ErrEmptyScope    = errors.New("scope cannot be empty")
	ErrInvalidTarget = errors.New("invalid target")

	// Pipeline errors
	ErrUnknownStage       = errors.New("unknown stage")
	ErrUnknownAdapter     = errors.New("unknown adapter")
	ErrCircularDependency = errors.New("circular stage dependency")
)
