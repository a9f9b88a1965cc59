package checkpoint

import "errors"

var (
	// ErrRepositoryRequired is returned when no checkpoint repository is provided.
	ErrRepositoryRequired = errors.New("checkpoint repository required")

	// ErrThreadIDRequired is returned when an operation has no thread id.
	ErrThreadIDRequired = errors.New("thread id required")
)
