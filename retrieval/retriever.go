package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/syllabus/chunking"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/embedding"
	"github.com/poiesic/syllabus/metrics"
	"github.com/poiesic/syllabus/storage"
)

// DefaultLimit is the number of chunks returned when a lookup does not set one.
const DefaultLimit = 7

// Retriever is the vector store over content chunks.
type Retriever struct {
	subtopics storage.SubtopicRepository
	chunks    storage.ChunkRepository
	client    *embedding.Client
	chunker   *chunking.Chunker
	metrics   *metrics.Collector
	logger    *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithChunker sets the chunker used by IndexSubtopic.
func WithChunker(chunker *chunking.Chunker) Option {
	return func(r *Retriever) error {
		if chunker == nil {
			return errors.New("chunker must not be nil")
		}
		r.chunker = chunker
		return nil
	}
}

// WithMetrics records retrieval sizes on collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(r *Retriever) error {
		r.metrics = collector
		return nil
	}
}

// NewRetriever creates a new retriever.
func NewRetriever(
	subtopics storage.SubtopicRepository,
	chunks storage.ChunkRepository,
	client *embedding.Client,
	opts ...Option,
) (*Retriever, error) {
	if subtopics == nil {
		return nil, ErrSubtopicRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if client == nil {
		return nil, ErrEmbeddingClientRequired
	}

	r := &Retriever{
		subtopics: subtopics,
		chunks:    chunks,
		client:    client,
		chunker:   chunking.New(),
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "retrieval")

	return r, nil
}

// embed fills in the vector of every chunk.
func (r *Retriever) embed(ctx context.Context, chunks []*core.ContentChunk) error {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}
	vectors, err := r.client.Embed(ctx, texts)
	if err != nil {
		return err
	}
	for i := range chunks {
		chunks[i].Vector = vectors[i]
	}
	return nil
}

// Store embeds chunks and adds them to the subtopic's existing chunks.
func (r *Retriever) Store(ctx context.Context, subtopicID core.ID, chunks []*core.ContentChunk) ([]*core.ContentChunk, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	if err := r.embed(ctx, chunks); err != nil {
		r.logger.Error("error embedding chunks", "subtopic", subtopicID, "err", err)
		return nil, err
	}

	stored, err := r.chunks.AddChunks(ctx, subtopicID, chunks...)
	if err != nil {
		r.logger.Error("error storing chunks", "subtopic", subtopicID, "err", err)
		return nil, err
	}
	r.logger.Info("stored content chunks", "subtopic", subtopicID, "count", len(stored))
	return stored, nil
}

// Replace embeds chunks and swaps them in for the subtopic's current set.
// Embedding happens first, so a model failure leaves the old set in place.
func (r *Retriever) Replace(ctx context.Context, subtopicID core.ID, chunks []*core.ContentChunk) ([]*core.ContentChunk, error) {
	if len(chunks) > 0 {
		if err := r.embed(ctx, chunks); err != nil {
			r.logger.Error("error embedding chunks", "subtopic", subtopicID, "err", err)
			return nil, err
		}
	}

	stored, err := r.chunks.ReplaceChunks(ctx, subtopicID, chunks...)
	if err != nil {
		r.logger.Error("error replacing chunks", "subtopic", subtopicID, "err", err)
		return nil, err
	}
	r.logger.Info("replaced content chunks", "subtopic", subtopicID, "count", len(stored))
	return stored, nil
}

// IndexSubtopic chunks a subtopic's content and replaces its stored chunks.
func (r *Retriever) IndexSubtopic(ctx context.Context, subtopic *core.Subtopic) ([]*core.ContentChunk, error) {
	chunks := r.chunker.Chunk(subtopic.Content, subtopic.Title)
	return r.Replace(ctx, subtopic.Id, chunks)
}

// FindRelevantContext returns the chunks of earlier published subtopics most
// similar to query. currentIndex is the 0-based index of the subtopic being
// written; a limit <= 0 uses DefaultLimit.
func (r *Retriever) FindRelevantContext(ctx context.Context, topicID core.ID, query string, currentIndex, limit int) ([]*core.RelevantChunk, error) {
	return r.FindRelevantContextWithMonitor(ctx, topicID, query, currentIndex, limit, nil)
}

// FindRelevantContextWithMonitor is FindRelevantContext with monitoring.
// The monitor receives callbacks at each stage of the lookup.
func (r *Retriever) FindRelevantContextWithMonitor(ctx context.Context, topicID core.ID, query string, currentIndex, limit int, monitor Monitor) ([]*core.RelevantChunk, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if currentIndex < 0 {
		return nil, core.NewValidationError("find relevant context", fmt.Errorf("%w: %d", core.ErrIndexOutOfRange, currentIndex))
	}

	monitor.Start(query, currentIndex)

	// Nothing precedes the first subtopic.
	if currentIndex == 0 {
		monitor.Finish(nil)
		return nil, nil
	}

	vector, err := r.client.EmbedOne(ctx, query)
	if err != nil {
		r.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}
	monitor.AfterQueryEmbedding(len(vector))

	// Order is 1-based, so order < currentIndex+1 is order <= currentIndex.
	maxOrder := currentIndex
	hits, err := r.chunks.FindSimilarChunks(ctx, topicID, vector, maxOrder, limit)
	if err != nil {
		r.logger.Error("error querying for similar chunks", "err", err)
		return nil, err
	}
	monitor.AfterSearch(hits)

	allowed, err := r.publishedOrders(ctx, topicID, maxOrder)
	if err != nil {
		return nil, err
	}
	results := make([]*core.RelevantChunk, 0, len(hits))
	for _, hit := range hits {
		if !allowed[hit.SubtopicOrder] {
			r.logger.Error("dropping chunk outside retrieval window",
				"order", hit.SubtopicOrder, "current_index", currentIndex, "err", ErrIsolationViolated)
			monitor.Rejected(hit, ErrIsolationViolated)
			continue
		}
		results = append(results, hit)
	}

	r.metrics.RecordRetrieval(len(results))
	r.logger.Debug("found relevant chunks", "count", len(results), "current_index", currentIndex)
	monitor.Finish(results)
	return results, nil
}

// publishedOrders returns the set of published orders no greater than maxOrder.
func (r *Retriever) publishedOrders(ctx context.Context, topicID core.ID, maxOrder int) (map[int]bool, error) {
	subtopics, err := r.subtopics.ListSubtopics(ctx, topicID)
	if err != nil {
		r.logger.Error("error listing subtopics", "topic", topicID, "err", err)
		return nil, err
	}
	allowed := make(map[int]bool, len(subtopics))
	for _, st := range subtopics {
		if st.IsPublished && st.Order <= maxOrder {
			allowed[st.Order] = true
		}
	}
	return allowed, nil
}

// PreviousContent returns the content of the published subtopic immediately
// before currentIndex, or "" if there is none.
func (r *Retriever) PreviousContent(ctx context.Context, topicID core.ID, currentIndex int) (string, error) {
	if currentIndex <= 0 {
		return "", nil
	}

	// The previous subtopic's 1-based order equals the current 0-based index.
	st, err := r.subtopics.GetSubtopicByOrder(ctx, topicID, currentIndex)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if !st.IsPublished {
		return "", nil
	}
	return st.Content, nil
}

// BuildContext runs a lookup for the subtopic at currentIndex and formats the
// result for a generation prompt.
func (r *Retriever) BuildContext(ctx context.Context, topicID core.ID, query string, currentIndex, limit int) (string, []*core.RelevantChunk, error) {
	hits, err := r.FindRelevantContext(ctx, topicID, query, currentIndex, limit)
	if err != nil {
		return "", nil, err
	}
	previous, err := r.PreviousContent(ctx, topicID, currentIndex)
	if err != nil {
		return "", nil, err
	}
	return FormatContext(hits, previous), hits, nil
}
