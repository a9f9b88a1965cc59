package ai

import (
	"context"

	"github.com/poiesic/syllabus/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in one call.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces course material with a chat model.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// PlanSubtopics asks the model for an ordered list of subtopic titles
	// covering a topic. The result is never empty on success.
	PlanSubtopics(ctx context.Context, req PlanRequest) ([]string, error)

	// GenerateSubtopic writes the content of one subtopic, optionally with a
	// quiz produced by the same model call.
	// Context from earlier lessons is supplied pre-formatted in req.Context.
	GenerateSubtopic(ctx context.Context, req SubtopicRequest) (*SubtopicDraft, error)

	// SuggestImprovements reviews the current subtopic in light of the
	// conversation so far and returns concrete suggestions.
	SuggestImprovements(ctx context.Context, history []ChatMessage, req ConsultRequest) (*core.Suggestions, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and Generator instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Generator returns the content generation service.
	// The returned Generator is safe for concurrent use.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
