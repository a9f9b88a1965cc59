// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package workflow drives course generation one action at a time.
//
// An Engine owns a transition table mapping every non-terminal action to a
// handler. Each invocation loads the newest checkpoint of a thread, applies
// the trigger, runs handlers until the state reaches the terminal action and
// writes a new checkpoint. Handlers never mutate state in place; they return
// a new GenerationState whose Action is none, with ErrorMessage set when they
// fail. Invocations on the same thread are serialized.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/syllabus/ai"
	"github.com/poiesic/syllabus/checkpoint"
	"github.com/poiesic/syllabus/conversation"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/metrics"
	"github.com/poiesic/syllabus/retrieval"
	"github.com/poiesic/syllabus/storage"
)

const (
	// DefaultMaxSteps bounds the handler runs of a single invocation.
	DefaultMaxSteps = 10
	// DefaultQuizQuestions is the quiz size used when quizzes are enabled.
	DefaultQuizQuestions = 5
	// upcomingTitles is how many following subtopic titles a generation sees.
	upcomingTitles = 2
)

// Handler runs one action against a state. It must return a state whose
// Action is terminal. On failure it returns the failed state together with
// the typed error.
type Handler func(ctx context.Context, state core.GenerationState) (core.GenerationState, error)

// Dependencies are the collaborators an Engine needs. Every field is required.
type Dependencies struct {
	Topics       storage.TopicRepository
	Sessions     storage.SessionRepository
	Subtopics    storage.SubtopicRepository
	Checkpoints  *checkpoint.Store
	Retriever    *retrieval.Retriever
	Conversation *conversation.Manager
	Generator    ai.Generator
}

func (d Dependencies) validate() error {
	switch {
	case d.Topics == nil:
		return ErrTopicRepositoryRequired
	case d.Sessions == nil:
		return ErrSessionRepositoryRequired
	case d.Subtopics == nil:
		return ErrSubtopicRepositoryRequired
	case d.Checkpoints == nil:
		return ErrCheckpointStoreRequired
	case d.Retriever == nil:
		return ErrRetrieverRequired
	case d.Conversation == nil:
		return ErrConversationRequired
	case d.Generator == nil:
		return ErrGeneratorRequired
	}
	return nil
}

// Engine runs the generation workflow.
type Engine struct {
	topics       storage.TopicRepository
	sessions     storage.SessionRepository
	subtopics    storage.SubtopicRepository
	checkpoints  *checkpoint.Store
	retriever    *retrieval.Retriever
	conversation *conversation.Manager
	generator    ai.Generator

	handlers  map[core.Action]Handler
	overrides map[core.Action]Handler
	locks     *threadLocks

	subtopicCount  int
	includeQuiz    bool
	quizQuestions  int
	retrievalLimit int
	maxSteps       int
	metrics        *metrics.Collector
	logger         *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics records action durations and thread counts on collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(e *Engine) {
		e.metrics = collector
	}
}

// WithSubtopicCount sets how many subtopics StartSession plans when the
// request does not say. Zero lets the model choose.
func WithSubtopicCount(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.subtopicCount = n
		}
	}
}

// WithQuiz makes generate request a quiz of n questions with every subtopic.
func WithQuiz(n int) Option {
	return func(e *Engine) {
		e.includeQuiz = n > 0
		if n > 0 {
			e.quizQuestions = n
		}
	}
}

// WithRetrievalLimit sets how many chunks generate retrieves.
// Default is retrieval.DefaultLimit.
func WithRetrievalLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.retrievalLimit = n
		}
	}
}

// WithMaxSteps bounds the handler runs of one invocation.
// Default is DefaultMaxSteps.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// WithHandler replaces the handler of an action. A nil handler removes it,
// which makes NewEngine fail.
func WithHandler(action core.Action, h Handler) Option {
	return func(e *Engine) {
		e.overrides[action] = h
	}
}

// NewEngine creates an Engine and validates its transition table.
// A table that does not cover every non-terminal action is a
// ConfigurationError.
func NewEngine(deps Dependencies, opts ...Option) (*Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, core.NewConfigurationError("new engine", err)
	}

	e := &Engine{
		topics:         deps.Topics,
		sessions:       deps.Sessions,
		subtopics:      deps.Subtopics,
		checkpoints:    deps.Checkpoints,
		retriever:      deps.Retriever,
		conversation:   deps.Conversation,
		generator:      deps.Generator,
		overrides:      make(map[core.Action]Handler),
		locks:          newThreadLocks(),
		quizQuestions:  DefaultQuizQuestions,
		retrievalLimit: retrieval.DefaultLimit,
		maxSteps:       DefaultMaxSteps,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "workflow-engine")

	e.handlers = map[core.Action]Handler{
		core.ActionGenerate: e.generate,
		core.ActionEdit:     e.edit,
		core.ActionConsult:  e.consult,
		core.ActionPublish:  e.publish,
		core.ActionNext:     e.next,
	}
	for action, h := range e.overrides {
		if h == nil {
			delete(e.handlers, action)
			continue
		}
		e.handlers[action] = h
	}
	e.overrides = nil

	if err := validateTable(e.handlers); err != nil {
		return nil, err
	}
	return e, nil
}

// validateTable checks that exactly the non-terminal actions are routable.
func validateTable(handlers map[core.Action]Handler) error {
	for _, action := range core.Actions {
		if handlers[action] == nil {
			return core.NewConfigurationError("validate transition table", fmt.Errorf("%w: %s", ErrMissingHandler, action))
		}
	}
	for action := range handlers {
		if action.IsTerminal() || !action.IsValid() {
			return core.NewConfigurationError("validate transition table", fmt.Errorf("%w: %s", ErrUnexpectedHandler, action))
		}
	}
	return nil
}

// Invoke runs one trigger against its thread and checkpoints the outcome.
//
// The returned Result reflects the checkpointed state even when an action
// fails; the error carries the failure's kind for callers that dispatch on it.
func (e *Engine) Invoke(ctx context.Context, tr Trigger) (*Result, error) {
	return e.invoke(ctx, tr, nil)
}

// invoke is Invoke with a guard that runs once the thread lock is held, so a
// check of the thread's checkpoints cannot race another call on the thread.
func (e *Engine) invoke(ctx context.Context, tr Trigger, guard func(ctx context.Context, threadID string) error) (*Result, error) {
	const op = "invoke"
	if tr.ThreadID == "" && tr.SessionID == 0 {
		return nil, core.NewValidationError(op, core.ErrMissingThreadID)
	}
	if !tr.Action.IsValid() {
		return nil, core.NewValidationError(op, fmt.Errorf("%w: %s", core.ErrUnknownAction, tr.Action))
	}

	session, err := e.resolveSession(ctx, tr)
	if err != nil {
		return nil, err
	}
	if session.Status == core.SessionStatusCancelled {
		return nil, core.NewValidationError(op, ErrSessionCancelled)
	}

	unlock := e.locks.lock(session.ThreadId)
	defer unlock()

	if guard != nil {
		if err := guard(ctx, session.ThreadId); err != nil {
			return nil, err
		}
	}

	state, err := e.loadState(ctx, session)
	if err != nil {
		return nil, err
	}
	if tr.Action.IsTerminal() {
		return newResult(state, tr.Action, "", session.Status == core.SessionStatusCompleted), nil
	}

	state = applyTrigger(state, tr)
	state, runErr := e.run(ctx, state)

	checkpointID, err := e.checkpoints.Put(ctx, "", state, checkpointMetadata(tr.Action, runErr))
	if err != nil {
		if runErr != nil {
			e.logger.Error("action failed before checkpoint write failed", "thread", session.ThreadId, "err", runErr)
		}
		return nil, err
	}

	completed, err := e.syncSession(ctx, session.Id, state, tr.Action, runErr)
	if err != nil {
		return nil, err
	}
	return newResult(state, tr.Action, checkpointID, completed), runErr
}

// run routes the state through handlers until it reaches the terminal action.
func (e *Engine) run(ctx context.Context, state core.GenerationState) (core.GenerationState, error) {
	for step := 0; !state.Action.IsTerminal(); step++ {
		if step >= e.maxSteps {
			err := core.NewConfigurationError("run workflow", fmt.Errorf("%w: %d", ErrMaxStepsExceeded, e.maxSteps))
			return state.Failed(err.Error()), err
		}
		action := state.Action
		h, ok := e.handlers[action]
		if !ok {
			err := core.NewConfigurationError("route", fmt.Errorf("%w: %s", ErrMissingHandler, action))
			return state.Failed(err.Error()), err
		}

		start := time.Now()
		next, err := h(ctx, state)
		e.metrics.RecordAction(action.String(), time.Since(start), err == nil)
		if err != nil {
			if !next.Action.IsTerminal() || next.ErrorMessage == "" {
				next = next.Failed(failureMessage(action, err))
			}
			return next, err
		}
		state = next
	}
	return state, nil
}

// resolveSession finds the session a trigger addresses.
func (e *Engine) resolveSession(ctx context.Context, tr Trigger) (*core.Session, error) {
	const op = "resolve session"
	if tr.ThreadID != "" {
		session, err := e.sessions.GetSessionByThread(ctx, tr.ThreadID)
		if err != nil {
			return nil, storageError(op, "thread", tr.ThreadID, err)
		}
		if tr.SessionID != 0 && tr.SessionID != session.Id {
			return nil, core.NewValidationError(op, fmt.Errorf("%w: thread %s, session %d", ErrSessionMismatch, tr.ThreadID, tr.SessionID))
		}
		return session, nil
	}
	session, err := e.sessions.GetSession(ctx, tr.SessionID)
	if err != nil {
		return nil, storageError(op, "session", fmt.Sprint(tr.SessionID), err)
	}
	return session, nil
}

// loadState returns the newest checkpointed state of the session's thread,
// or the initial state built from its topic when the thread has not run.
func (e *Engine) loadState(ctx context.Context, session *core.Session) (core.GenerationState, error) {
	snap, err := e.checkpoints.Latest(ctx, session.ThreadId)
	if err != nil {
		return core.GenerationState{}, err
	}
	if snap != nil {
		return snap.State, nil
	}

	topic, err := e.topics.GetTopic(ctx, session.TopicId)
	if err != nil {
		return core.GenerationState{}, storageError("load topic", "topic", fmt.Sprint(session.TopicId), err)
	}
	state := core.GenerationState{
		SessionId:        session.Id,
		ThreadId:         session.ThreadId,
		TopicId:          topic.Id,
		TopicTitle:       topic.Title,
		TopicDescription: topic.Description,
		Level:            topic.Level,
		SubtopicTitles:   topic.SubtopicTitles,
		CurrentIndex:     0,
		Total:            topic.Total(),
		Action:           core.ActionNone,
	}
	if err := core.ValidateState(state); err != nil {
		return core.GenerationState{}, core.NewValidationError("initial state", err)
	}
	return state, nil
}

// applyTrigger copies the trigger's action and payload into the state.
func applyTrigger(state core.GenerationState, tr Trigger) core.GenerationState {
	next := state.WithAction(tr.Action).WithEditData(nil)
	switch tr.Action {
	case core.ActionEdit:
		next = next.WithEditData(tr.EditData)
	case core.ActionConsult:
		next = next.WithConsultRequest(tr.ConsultRequest)
	}
	return next
}

// syncSession copies the state's pointer into the session and reports
// whether the session is complete. Publishing the last subtopic completes it.
func (e *Engine) syncSession(ctx context.Context, sessionID core.ID, state core.GenerationState, action core.Action, runErr error) (bool, error) {
	// Re-read: the conversation manager updates the token count during handlers.
	session, err := e.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return false, storageError("sync session", "session", fmt.Sprint(sessionID), err)
	}

	wasOpen := session.Status != core.SessionStatusCompleted
	session.CurrentSubtopic = state.CurrentOrder()
	if session.Status == core.SessionStatusPlanning {
		session.Status = core.SessionStatusGenerating
	}
	if action == core.ActionPublish && runErr == nil && state.CurrentIndex == state.Total-1 {
		session.Status = core.SessionStatusCompleted
	}
	if _, err := e.sessions.UpdateSession(ctx, session); err != nil {
		return false, storageError("sync session", "session", fmt.Sprint(sessionID), err)
	}

	completed := session.Status == core.SessionStatusCompleted
	if completed && wasOpen {
		e.metrics.ThreadFinished()
		e.logger.Info("session completed", "thread", session.ThreadId, "total", state.Total)
	}
	return completed, nil
}

func checkpointMetadata(action core.Action, runErr error) map[string]string {
	meta := map[string]string{
		"source": "invoke",
		"action": action.String(),
	}
	if runErr != nil {
		meta["error_kind"] = core.Kind(runErr).String()
	}
	return meta
}

func failureMessage(action core.Action, err error) string {
	return fmt.Sprintf("%s failed: %v", action, err)
}

// storageError translates storage.ErrNotFound into a NotFoundError.
func storageError(op, resource, key string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return core.NewNotFoundError(op, resource, key, err)
	}
	return err
}
