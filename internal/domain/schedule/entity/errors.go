package entity

import "errors"

// Domain errors for scheduled posts
var (
	// Validation errors
	ErrNegativeDelay = errors.New("delay must be positive")
	ErrInvalidStatus = errors.New("invalid scheduled post status")

	// Business logic errors
	ErrPostNotFound       = errors.New("scheduled post not found")
	ErrPostNotCancellable = errors.New("only pending posts can be cancelled")
	ErrPostNotClaimed     = errors.New("scheduled post is not being processed")
)
