package service

import "errors"

// Sentinel errors for planner operations.
var (
	// ErrValidation is returned when input to a command is malformed.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a task id does not exist.
	ErrNotFound = errors.New("task not found")

	// ErrQuotaExceeded is returned when the daily generation limit is used up.
	ErrQuotaExceeded = errors.New("daily generation limit reached")
)
