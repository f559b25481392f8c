package entity

import "errors"

// Domain errors for publishing
var (
	// Configuration errors, raised before any adapter is invoked
	ErrNoTargets     = errors.New("at least one publish target is required")
	ErrInvalidTarget = errors.New("unregistered publish target")

	// Validation errors
	ErrEmptyBody = errors.New("content body is required")
)
