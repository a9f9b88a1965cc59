package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "syllabus.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "syllabus.db", cfg.Database.Path)
	assert.Equal(t, "embeddinggemma", cfg.AI.EmbeddingModel)
	assert.Equal(t, 20, cfg.Embedding.BatchSize)
	assert.Equal(t, 7, cfg.Retrieval.Limit)
	assert.Equal(t, 4000, cfg.Conversation.TokenBudget)
	assert.Equal(t, "cl100k_base", cfg.Conversation.Encoding)
	assert.Equal(t, 3, cfg.Checkpoint.RetryAttempts)
	assert.Equal(t, 200*time.Millisecond, cfg.RetryBaseDelay())
	assert.Equal(t, 10, cfg.Workflow.MaxSteps)
	assert.False(t, cfg.Workflow.IncludeQuiz)
	assert.Empty(t, cfg.Metrics.Addr)
	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Setenv(TokenEnv, "")
	t.Setenv(FallbackTokenEnv, "")

	path := writeConfig(t, `
[database]
path = "/var/lib/syllabus"

[ai]
generation_host = "http://gpu:8000"
generation_model = "llama3"
temperature = 0.3
requests_per_minute = -1

[retrieval]
limit = 4

[conversation]
token_budget = 2000

[workflow]
subtopic_count = 6
include_quiz = true
quiz_questions = 3

[metrics]
addr = ":9090"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/syllabus", cfg.Database.Path)
	assert.Equal(t, "llama3", cfg.AI.GenerationModel)
	assert.Equal(t, "embeddinggemma", cfg.AI.EmbeddingModel, "unset fields keep defaults")
	assert.Equal(t, 4, cfg.Retrieval.Limit)
	assert.Equal(t, 2000, cfg.Conversation.TokenBudget)
	assert.Equal(t, 6, cfg.Workflow.SubtopicCount)
	assert.True(t, cfg.Workflow.IncludeQuiz)
	assert.Equal(t, 3, cfg.Workflow.QuizQuestions)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)

	aiCfg := cfg.AIConfig()
	assert.Equal(t, "http://gpu:8000", aiCfg.GenerationHost)
	assert.Equal(t, 0.3, aiCfg.Temperature)
	assert.Equal(t, 0, aiCfg.RequestsPerMinute, "negative rate disables limiting")
}

func TestLoad_TokenFromEnvironment(t *testing.T) {
	t.Run("primary variable", func(t *testing.T) {
		t.Setenv(TokenEnv, "sk-primary")
		t.Setenv(FallbackTokenEnv, "sk-fallback")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "sk-primary", cfg.AI.Token)
	})

	t.Run("fallback variable", func(t *testing.T) {
		t.Setenv(TokenEnv, "")
		t.Setenv(FallbackTokenEnv, "sk-fallback")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "sk-fallback", cfg.AI.Token)
	})

	t.Run("file wins", func(t *testing.T) {
		t.Setenv(TokenEnv, "sk-primary")

		cfg, err := Load(writeConfig(t, "[ai]\ntoken = \"sk-file\"\n"))
		require.NoError(t, err)
		assert.Equal(t, "sk-file", cfg.AI.Token)
	})
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed toml", "[ai\nmodel = ", "failed to parse"},
		{"negative batch size", "[embedding]\nbatch_size = -1\n", "embedding.batch_size"},
		{"negative subtopic count", "[workflow]\nsubtopic_count = -2\n", "workflow.subtopic_count"},
		{"bad temperature", "[ai]\ntemperature = 3.5\n", "Temperature"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read")
	})
}
