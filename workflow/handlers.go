package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/syllabus/ai"
	"github.com/poiesic/syllabus/conversation"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/storage"
)

// fail logs a handler failure and returns the terminal failed state.
func (e *Engine) fail(state core.GenerationState, action core.Action, err error) (core.GenerationState, error) {
	e.logger.Error("action failed", "action", action, "thread", state.ThreadId,
		"subtopic", state.CurrentOrder(), "kind", core.Kind(err), "err", err)
	return state.Failed(failureMessage(action, err)), err
}

// generate writes the current subtopic with context retrieved from earlier
// published subtopics, stores it unpublished and indexes its chunks.
func (e *Engine) generate(ctx context.Context, state core.GenerationState) (core.GenerationState, error) {
	const action = core.ActionGenerate
	if err := core.ValidateIndex(state.CurrentIndex, state.Total); err != nil {
		return e.fail(state, action, core.NewValidationError("generate", err))
	}
	index := state.CurrentIndex
	order := state.CurrentOrder()
	title := state.CurrentTitle()

	query := state.TopicTitle + " " + title
	contextText, hits, err := e.retriever.BuildContext(ctx, state.TopicId, query, index, e.retrievalLimit)
	if err != nil {
		return e.fail(state, action, err)
	}
	e.logger.Debug("retrieved context", "subtopic", order, "hits", len(hits), "context_chars", len(contextText))

	upcoming := state.SubtopicTitles[index+1 : min(index+1+upcomingTitles, state.Total)]
	draft, err := e.generator.GenerateSubtopic(ctx, ai.SubtopicRequest{
		TopicTitle:       state.TopicTitle,
		TopicDescription: state.TopicDescription,
		SubtopicTitle:    title,
		Level:            state.Level,
		Order:            order,
		Total:            state.Total,
		Context:          contextText,
		UpcomingTitles:   upcoming,
		IncludeQuiz:      e.includeQuiz,
		QuizQuestions:    e.quizQuestions,
	})
	if err != nil {
		return e.fail(state, action, err)
	}

	// A regenerated draft has not been reviewed, so it loses any earlier
	// publication until it is published again.
	subtopic, err := e.subtopics.UpsertDraft(ctx, &core.Subtopic{
		TopicId: state.TopicId,
		Order:   order,
		Title:   title,
		Content: draft.Content,
		Quiz:    draft.Quiz,
	})
	if err != nil {
		return e.fail(state, action, err)
	}

	if _, err := e.conversation.Add(ctx, state.SessionId, core.RoleUser, conversation.GenerationRequest(order, title), index); err != nil {
		return e.fail(state, action, err)
	}
	if _, err := e.conversation.Add(ctx, state.SessionId, core.RoleAssistant, draft.Content, index); err != nil {
		return e.fail(state, action, err)
	}

	chunks, err := e.retriever.IndexSubtopic(ctx, subtopic)
	if err != nil {
		return e.fail(state, action, err)
	}

	e.logger.Info("generated subtopic", "thread", state.ThreadId, "subtopic", order,
		"title", title, "chunks", len(chunks), "quiz", len(draft.Quiz))
	return state.WithContent(draft.Content, draft.Quiz).WithSuggestions(nil).WithUnpublished().Succeeded(), nil
}

// edit replaces the current subtopic with hand-written content.
func (e *Engine) edit(ctx context.Context, state core.GenerationState) (core.GenerationState, error) {
	const action = core.ActionEdit
	if state.EditData == nil || strings.TrimSpace(state.EditData.Content) == "" {
		return e.fail(state, action, core.NewValidationError("edit", core.ErrMissingEditData))
	}
	if err := core.ValidateIndex(state.CurrentIndex, state.Total); err != nil {
		return e.fail(state, action, core.NewValidationError("edit", err))
	}

	index := state.CurrentIndex
	order := state.CurrentOrder()
	content := state.EditData.Content
	title := strings.TrimSpace(state.EditData.Title)
	if title == "" {
		title = state.CurrentTitle()
	}
	next := state.WithTitle(title)

	subtopic, err := e.subtopics.UpsertSubtopic(ctx, &core.Subtopic{
		TopicId: state.TopicId,
		Order:   order,
		Title:   title,
		Content: content,
		Quiz:    state.Quiz,
	})
	if err != nil {
		return e.fail(state, action, err)
	}

	if title != state.CurrentTitle() {
		if err := e.renameSubtopic(ctx, state.TopicId, index, title); err != nil {
			return e.fail(state, action, err)
		}
	}

	notice := conversation.EditNotice(order, title) + "\n\n" + content
	if _, err := e.conversation.Add(ctx, state.SessionId, core.RoleUser, notice, index); err != nil {
		return e.fail(state, action, err)
	}

	if _, err := e.retriever.IndexSubtopic(ctx, subtopic); err != nil {
		return e.fail(state, action, err)
	}

	e.logger.Info("edited subtopic", "thread", state.ThreadId, "subtopic", order, "title", title)
	return next.WithContent(content, state.Quiz).WithEditData(nil).Succeeded(), nil
}

// renameSubtopic keeps the topic's planned titles in step with edits.
func (e *Engine) renameSubtopic(ctx context.Context, topicID core.ID, index int, title string) error {
	topic, err := e.topics.GetTopic(ctx, topicID)
	if err != nil {
		return storageError("rename subtopic", "topic", fmt.Sprint(topicID), err)
	}
	if index >= len(topic.SubtopicTitles) {
		return nil
	}
	topic.SubtopicTitles[index] = title
	_, err = e.topics.UpdateTopic(ctx, topic)
	return err
}

// consult asks the model for suggestions on the current subtopic. Nothing
// but the conversation is written.
func (e *Engine) consult(ctx context.Context, state core.GenerationState) (core.GenerationState, error) {
	const action = core.ActionConsult
	request := strings.TrimSpace(state.ConsultRequest)
	if request == "" || state.CurrentContent == "" {
		return e.fail(state, action, core.NewValidationError("consult", core.ErrMissingConsultRequest))
	}

	history, err := e.conversation.History(ctx, state.SessionId)
	if err != nil {
		return e.fail(state, action, err)
	}

	suggestions, err := e.generator.SuggestImprovements(ctx, history, ai.ConsultRequest{
		SubtopicTitle: state.CurrentTitle(),
		Content:       state.CurrentContent,
		Request:       request,
	})
	if err != nil {
		return e.fail(state, action, err)
	}

	index := state.CurrentIndex
	if _, err := e.conversation.Add(ctx, state.SessionId, core.RoleUser, request, index); err != nil {
		return e.fail(state, action, err)
	}
	if _, err := e.conversation.Add(ctx, state.SessionId, core.RoleAssistant, suggestions.Summary, index); err != nil {
		return e.fail(state, action, err)
	}

	e.logger.Info("consulted on subtopic", "thread", state.ThreadId, "subtopic", state.CurrentOrder(),
		"changes", len(suggestions.Changes))
	return state.WithSuggestions(suggestions).Succeeded(), nil
}

// publish makes the stored current subtopic visible to later retrievals.
func (e *Engine) publish(ctx context.Context, state core.GenerationState) (core.GenerationState, error) {
	const action = core.ActionPublish
	order := state.CurrentOrder()

	stored, err := e.subtopics.GetSubtopicByOrder(ctx, state.TopicId, order)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return e.fail(state, action, core.NewValidationError("publish", core.ErrNoContent))
		}
		return e.fail(state, action, err)
	}
	if strings.TrimSpace(stored.Content) == "" {
		return e.fail(state, action, core.NewValidationError("publish", core.ErrNoContent))
	}

	if _, err := e.subtopics.PublishSubtopic(ctx, state.TopicId, order, time.Now().UTC()); err != nil {
		return e.fail(state, action, storageError("publish", "subtopic", fmt.Sprint(order), err))
	}

	e.logger.Info("published subtopic", "thread", state.ThreadId, "subtopic", order, "total", state.Total)
	return state.WithPublished().Succeeded(), nil
}

// next moves the pointer to the following subtopic. It never generates.
func (e *Engine) next(_ context.Context, state core.GenerationState) (core.GenerationState, error) {
	const action = core.ActionNext
	if state.CurrentIndex >= state.Total-1 {
		return e.fail(state, action, core.NewValidationError("next", core.ErrLastSubtopic))
	}
	advanced := state.Advanced()
	e.logger.Debug("advanced to next subtopic", "thread", state.ThreadId, "subtopic", advanced.CurrentOrder())
	return advanced.Succeeded(), nil
}
