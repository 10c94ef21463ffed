package apperrors

import "errors"

var (
	ErrInvalidInput             = errors.New("invalid input")
	ErrNotFound                 = errors.New("not found")
	ErrNoActiveSession          = errors.New("no active session")
	ErrActiveSessionExists      = errors.New("an active session already exists, complete or delete it first")
	ErrAllocatorUnavailable     = errors.New("allocator is not running or not accessible")
	ErrAllocatorInvalidResponse = errors.New("allocator returned an invalid response")
)
