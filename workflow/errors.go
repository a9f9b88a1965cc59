package workflow

import "errors"

var (
	// ErrTopicRepositoryRequired is returned when a topic repository is not provided.
	ErrTopicRepositoryRequired = errors.New("topic repository required")

	// ErrSessionRepositoryRequired is returned when a session repository is not provided.
	ErrSessionRepositoryRequired = errors.New("session repository required")

	// ErrSubtopicRepositoryRequired is returned when a subtopic repository is not provided.
	ErrSubtopicRepositoryRequired = errors.New("subtopic repository required")

	// ErrCheckpointStoreRequired is returned when a checkpoint store is not provided.
	ErrCheckpointStoreRequired = errors.New("checkpoint store required")

	// ErrRetrieverRequired is returned when a retriever is not provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrConversationRequired is returned when a conversation manager is not provided.
	ErrConversationRequired = errors.New("conversation manager required")

	// ErrGeneratorRequired is returned when a generator is not provided.
	ErrGeneratorRequired = errors.New("generator required")

	// ErrMissingHandler is returned when an action has no handler.
	ErrMissingHandler = errors.New("no handler for action")

	// ErrUnexpectedHandler is returned when a handler is registered for an
	// action outside the non-terminal action set.
	ErrUnexpectedHandler = errors.New("handler registered for non-routable action")

	// ErrMaxStepsExceeded is returned when an invocation does not reach the
	// terminal action within the step limit.
	ErrMaxStepsExceeded = errors.New("workflow did not terminate within the step limit")

	// ErrSessionCancelled is returned when a cancelled session is invoked.
	ErrSessionCancelled = errors.New("session has been cancelled")

	// ErrSessionMismatch is returned when a trigger names a session and a
	// thread that do not belong together.
	ErrSessionMismatch = errors.New("thread does not belong to session")

	// ErrAlreadyStarted is returned by Begin when the thread already has checkpoints.
	ErrAlreadyStarted = errors.New("generation already started")

	// ErrNoCheckpoint is returned by Resume when the thread has never run.
	ErrNoCheckpoint = errors.New("no checkpoint for thread")

	// ErrDescriptionRequired is returned when a session is started without a topic description.
	ErrDescriptionRequired = errors.New("topic description required")
)
