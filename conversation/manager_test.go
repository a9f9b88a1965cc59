package conversation

import (
	"context"
	"strings"
	"testing"

	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordCounter counts one token per whitespace separated word.
var wordCounter = TokenCounterFunc(func(text string) int {
	return len(strings.Fields(text))
})

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func newTestManager(t *testing.T, opts ...Option) (*Manager, *badger.Repositories, *core.Session) {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	session, err := repos.Sessions.AddSession(context.Background(), &core.Session{
		TopicId:  1,
		ThreadId: "gen_1_abcdef12",
		Status:   core.SessionStatusPlanning,
	})
	require.NoError(t, err)

	opts = append([]Option{WithTokenCounter(wordCounter)}, opts...)
	m, err := NewManager(repos.Sessions, repos.Messages, opts...)
	require.NoError(t, err)
	return m, repos, session
}

func TestNewManager(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	_, err = NewManager(nil, repos.Messages)
	assert.Equal(t, ErrSessionRepositoryRequired, err)

	_, err = NewManager(repos.Sessions, nil)
	assert.Equal(t, ErrMessageRepositoryRequired, err)

	m, err := NewManager(repos.Sessions, repos.Messages, WithTokenBudget(0))
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenBudget, m.Budget())
}

func TestManager_Initialize(t *testing.T) {
	m, repos, session := newTestManager(t)
	ctx := context.Background()

	topic := &core.Topic{
		Title:          "Graph theory",
		Description:    "Graphs from first principles",
		Level:          "undergraduate",
		SubtopicTitles: []string{"Vertices", "Edges"},
	}
	require.NoError(t, m.Initialize(ctx, session.Id, topic))

	history, err := m.History(ctx, session.Id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, core.RoleSystem, history[0].Role)
	assert.Contains(t, history[0].Content, `a course on "Graph theory" at the undergraduate level`)
	assert.Contains(t, history[0].Content, "1. Vertices\n2. Edges")

	stored, err := repos.Sessions.GetSession(ctx, session.Id)
	require.NoError(t, err)
	assert.Equal(t, wordCounter.Count(history[0].Content), stored.ConversationTokens)
}

func TestManager_AddTracksTokens(t *testing.T) {
	m, repos, session := newTestManager(t)
	ctx := context.Background()

	msg, err := m.Add(ctx, session.Id, core.RoleUser, words(10), 0)
	require.NoError(t, err)
	assert.NotZero(t, msg.Id)
	assert.Equal(t, 10, msg.TokenCount)

	_, err = m.Add(ctx, session.Id, core.RoleAssistant, words(5), 0)
	require.NoError(t, err)

	stored, err := repos.Sessions.GetSession(ctx, session.Id)
	require.NoError(t, err)
	assert.Equal(t, 15, stored.ConversationTokens)
}

func TestManager_TruncateKeepsSystemMessages(t *testing.T) {
	m, repos, session := newTestManager(t, WithTokenBudget(100))
	ctx := context.Background()

	_, err := m.Add(ctx, session.Id, core.RoleSystem, words(30), -1)
	require.NoError(t, err)
	_, err = m.Add(ctx, session.Id, core.RoleUser, "oldest "+words(29), 0)
	require.NoError(t, err)
	_, err = m.Add(ctx, session.Id, core.RoleAssistant, "middle "+words(29), 0)
	require.NoError(t, err)

	// 90 tokens so far; this pushes the total to 120.
	_, err = m.Add(ctx, session.Id, core.RoleUser, "newest "+words(29), 1)
	require.NoError(t, err)

	history, err := m.History(ctx, session.Id)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, core.RoleSystem, history[0].Role)
	assert.True(t, strings.HasPrefix(history[1].Content, "middle"))
	assert.True(t, strings.HasPrefix(history[2].Content, "newest"))

	stored, err := repos.Sessions.GetSession(ctx, session.Id)
	require.NoError(t, err)
	assert.Equal(t, 90, stored.ConversationTokens)
}

func TestManager_TruncateUnderBudgetIsNoop(t *testing.T) {
	m, _, session := newTestManager(t)
	ctx := context.Background()

	_, err := m.Add(ctx, session.Id, core.RoleUser, words(3), 0)
	require.NoError(t, err)

	evicted, err := m.Truncate(ctx, session.Id)
	require.NoError(t, err)
	assert.Zero(t, evicted)
}

func TestManager_SystemOverBudget(t *testing.T) {
	m, _, session := newTestManager(t, WithTokenBudget(10))
	ctx := context.Background()

	_, err := m.Add(ctx, session.Id, core.RoleSystem, words(20), -1)
	require.NoError(t, err)
	_, err = m.Add(ctx, session.Id, core.RoleUser, words(2), 0)
	require.NoError(t, err)

	history, err := m.History(ctx, session.Id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, core.RoleSystem, history[0].Role)
}

func TestManager_AddUnknownSession(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, err := m.Add(context.Background(), 999, core.RoleUser, "hi", 0)
	assert.Error(t, err)
}

func TestApproximateCount(t *testing.T) {
	assert.Equal(t, 0, ApproximateCount(""))
	assert.Equal(t, 1, ApproximateCount("abc"))
	assert.Equal(t, 1, ApproximateCount("abcd"))
	assert.Equal(t, 2, ApproximateCount("abcde"))
	assert.Equal(t, 1, ApproximateCount("éééé"))
}
