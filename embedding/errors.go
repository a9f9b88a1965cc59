package embedding

import "errors"

var (
	// ErrEmbedderRequired is returned when a client is built without a backend.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrResultMismatch is returned when the backend returns a different number
	// of vectors than texts it was given.
	ErrResultMismatch = errors.New("embedding result mismatch")
)
