package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/poiesic/syllabus/ai"
	"github.com/poiesic/syllabus/checkpoint"
	"github.com/poiesic/syllabus/core"
)

const (
	maxTitleLength = 100
	defaultLevel   = "beginner"
)

// StartSession plans a new course: the model proposes subtopic titles, then
// the topic, its session and the session's conversation are created. No
// content is generated until Begin.
func (e *Engine) StartSession(ctx context.Context, req StartRequest) (*Plan, error) {
	const op = "start session"
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, core.NewValidationError(op, ErrDescriptionRequired)
	}
	if req.Count < 0 {
		return nil, core.NewValidationError(op, fmt.Errorf("subtopic count cannot be negative: %d", req.Count))
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = truncateRunes(description, maxTitleLength)
	}
	level := strings.TrimSpace(req.Level)
	if level == "" {
		level = defaultLevel
	}
	count := req.Count
	if count == 0 {
		count = e.subtopicCount
	}

	titles, err := e.generator.PlanSubtopics(ctx, ai.PlanRequest{
		TopicTitle:       title,
		TopicDescription: description,
		Level:            level,
		Count:            count,
	})
	if err != nil {
		e.logger.Error("error planning subtopics", "topic", title, "err", err)
		return nil, err
	}

	topic, err := e.topics.AddTopic(ctx, &core.Topic{
		Title:          title,
		Description:    description,
		Level:          level,
		SubtopicTitles: titles,
	})
	if err != nil {
		return nil, err
	}

	session, err := e.sessions.AddSession(ctx, &core.Session{
		TopicId:  topic.Id,
		ThreadId: newThreadID(topic.Id),
		Status:   core.SessionStatusPlanning,
	})
	if err != nil {
		return nil, err
	}

	if err := e.conversation.Initialize(ctx, session.Id, topic); err != nil {
		return nil, err
	}

	e.metrics.ThreadStarted()
	e.logger.Info("started session", "session", session.Id, "thread", session.ThreadId,
		"topic", topic.Id, "subtopics", len(titles))
	return &Plan{
		SessionID:      session.Id,
		TopicID:        topic.Id,
		ThreadID:       session.ThreadId,
		SubtopicTitles: titles,
	}, nil
}

// Begin generates the first subtopic of a thread that has not run yet.
// Of several concurrent Begin calls on one thread exactly one runs.
func (e *Engine) Begin(ctx context.Context, threadID string) (*Result, error) {
	tr := Trigger{ThreadID: threadID, Action: core.ActionGenerate}
	return e.invoke(ctx, tr, func(ctx context.Context, threadID string) error {
		snap, err := e.latest(ctx, threadID)
		if err != nil {
			return err
		}
		if snap != nil {
			return core.NewValidationError("begin", fmt.Errorf("%w: thread %s", ErrAlreadyStarted, threadID))
		}
		return nil
	})
}

// Resume runs action on a thread that has at least one checkpoint.
func (e *Engine) Resume(ctx context.Context, threadID string, action core.Action) (*Result, error) {
	tr := Trigger{ThreadID: threadID, Action: action}
	return e.invoke(ctx, tr, func(ctx context.Context, threadID string) error {
		snap, err := e.latest(ctx, threadID)
		if err != nil {
			return err
		}
		if snap == nil {
			return core.NewNotFoundError("resume", "checkpoint", threadID, ErrNoCheckpoint)
		}
		return nil
	})
}

// State returns the newest checkpoint of a thread.
func (e *Engine) State(ctx context.Context, threadID string) (*checkpoint.Snapshot, error) {
	snap, err := e.latest(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, core.NewNotFoundError("state", "checkpoint", threadID, ErrNoCheckpoint)
	}
	return snap, nil
}

// History returns a thread's checkpoints newest first, older than before
// when it is set. A limit <= 0 returns every checkpoint.
func (e *Engine) History(ctx context.Context, threadID, before string, limit int) ([]*checkpoint.Snapshot, error) {
	if threadID == "" {
		return nil, core.NewValidationError("history", core.ErrMissingThreadID)
	}
	return e.checkpoints.List(ctx, threadID, before, limit)
}

// Cancel deletes every checkpoint of a thread and marks its session
// cancelled. Calls already running on the thread finish first. It reports
// whether any checkpoints were deleted.
func (e *Engine) Cancel(ctx context.Context, threadID string) (bool, error) {
	const op = "cancel"
	if threadID == "" {
		return false, core.NewValidationError(op, core.ErrMissingThreadID)
	}
	session, err := e.sessions.GetSessionByThread(ctx, threadID)
	if err != nil {
		return false, storageError(op, "thread", threadID, err)
	}

	unlock := e.locks.lock(threadID)
	defer unlock()

	deleted, err := e.checkpoints.Delete(ctx, threadID)
	if err != nil {
		return false, err
	}

	// Re-read under the lock; an invocation may have updated the session.
	sessionID := session.Id
	session, err = e.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return false, storageError(op, "session", fmt.Sprint(sessionID), err)
	}
	wasOpen := session.Status == core.SessionStatusPlanning || session.Status == core.SessionStatusGenerating
	session.Status = core.SessionStatusCancelled
	if _, err := e.sessions.UpdateSession(ctx, session); err != nil {
		return false, err
	}
	if wasOpen {
		e.metrics.ThreadFinished()
	}

	e.logger.Info("cancelled session", "thread", threadID, "checkpoints_deleted", deleted)
	return deleted, nil
}

func (e *Engine) latest(ctx context.Context, threadID string) (*checkpoint.Snapshot, error) {
	if threadID == "" {
		return nil, core.NewValidationError("load checkpoint", core.ErrMissingThreadID)
	}
	return e.checkpoints.Latest(ctx, threadID)
}

// newThreadID returns "gen_{topic id}_{8 hex chars}".
func newThreadID(topicID core.ID) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("gen_%d_%s", topicID, suffix)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n]))
}
