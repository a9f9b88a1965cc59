// Package conversation keeps the per-session chat history used when the model
// is consulted, trimmed to a token budget.
package conversation

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/syllabus/ai"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/storage"
)

// DefaultTokenBudget is the most tokens a conversation may hold before the
// oldest turns are evicted.
const DefaultTokenBudget = 4000

var (
	// ErrSessionRepositoryRequired is returned when a session repository is not provided.
	ErrSessionRepositoryRequired = errors.New("session repository required")

	// ErrMessageRepositoryRequired is returned when a message repository is not provided.
	ErrMessageRepositoryRequired = errors.New("message repository required")
)

// Manager persists conversation turns and keeps them within a token budget.
type Manager struct {
	sessions storage.SessionRepository
	messages storage.MessageRepository
	counter  TokenCounter
	budget   int
	logger   *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithTokenCounter replaces the tiktoken counter.
func WithTokenCounter(counter TokenCounter) Option {
	return func(m *Manager) {
		if counter != nil {
			m.counter = counter
		}
	}
}

// WithTokenBudget sets the token budget.
func WithTokenBudget(budget int) Option {
	return func(m *Manager) {
		if budget > 0 {
			m.budget = budget
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a conversation manager.
func NewManager(sessions storage.SessionRepository, messages storage.MessageRepository, opts ...Option) (*Manager, error) {
	if sessions == nil {
		return nil, ErrSessionRepositoryRequired
	}
	if messages == nil {
		return nil, ErrMessageRepositoryRequired
	}

	m := &Manager{
		sessions: sessions,
		messages: messages,
		budget:   DefaultTokenBudget,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "conversation")
	if m.counter == nil {
		m.counter = NewTiktokenCounter(DefaultEncoding, m.logger)
	}
	return m, nil
}

// Budget returns the token budget.
func (m *Manager) Budget() int {
	return m.budget
}

// CountTokens counts the tokens of text.
func (m *Manager) CountTokens(text string) int {
	return m.counter.Count(text)
}

// Initialize starts a session's conversation with a system message describing the course.
func (m *Manager) Initialize(ctx context.Context, sessionID core.ID, topic *core.Topic) error {
	if _, err := m.Add(ctx, sessionID, core.RoleSystem, SystemPrompt(topic), -1); err != nil {
		return err
	}
	m.logger.Info("initialized conversation", "session", sessionID)
	return nil
}

// Add persists a message, adds its tokens to the session's running count and
// then trims the conversation to the budget. subtopicIndex is -1 when the
// message is not about a particular subtopic.
func (m *Manager) Add(ctx context.Context, sessionID core.ID, role core.Role, content string, subtopicIndex int) (*core.Message, error) {
	session, err := m.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	msg := &core.Message{
		SessionId:     sessionID,
		Role:          role,
		Content:       content,
		SubtopicIndex: subtopicIndex,
		TokenCount:    m.counter.Count(content),
	}
	added, err := m.messages.AddMessages(ctx, msg)
	if err != nil {
		m.logger.Error("error storing message", "session", sessionID, "err", err)
		return nil, err
	}

	session.ConversationTokens += msg.TokenCount
	if _, err := m.sessions.UpdateSession(ctx, session); err != nil {
		return nil, err
	}

	if _, err := m.Truncate(ctx, sessionID); err != nil {
		return nil, err
	}
	return added[0], nil
}

// Truncate evicts the oldest non-system messages while the conversation is
// over budget. System messages are always kept. It returns how many messages
// were evicted.
func (m *Manager) Truncate(ctx context.Context, sessionID core.ID) (int, error) {
	messages, err := m.messages.ListMessages(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, msg := range messages {
		total += msg.TokenCount
	}
	if total <= m.budget {
		return 0, nil
	}

	var evict []core.ID
	for _, msg := range messages {
		if total <= m.budget {
			break
		}
		if msg.Role == core.RoleSystem {
			continue
		}
		evict = append(evict, msg.Id)
		total -= msg.TokenCount
	}

	if len(evict) > 0 {
		if err := m.messages.DeleteMessages(ctx, sessionID, evict...); err != nil {
			return 0, err
		}
	}

	session, err := m.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	session.ConversationTokens = total
	if _, err := m.sessions.UpdateSession(ctx, session); err != nil {
		return 0, err
	}

	m.logger.Info("truncated conversation", "session", sessionID,
		"evicted", len(evict), "kept", len(messages)-len(evict), "tokens", total)
	return len(evict), nil
}

// History returns the session's messages oldest first in chat form.
func (m *Manager) History(ctx context.Context, sessionID core.ID) ([]ai.ChatMessage, error) {
	messages, err := m.messages.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	history := make([]ai.ChatMessage, len(messages))
	for i, msg := range messages {
		history[i] = ai.ChatMessage{Role: msg.Role, Content: msg.Content}
	}
	return history, nil
}
