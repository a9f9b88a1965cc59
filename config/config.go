// Package config loads syllabus settings from a TOML file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/poiesic/syllabus/ai"
)

// Config represents the complete application configuration
type Config struct {
	Database     DatabaseConfig     `toml:"database"`
	AI           AIConfig           `toml:"ai"`
	Embedding    EmbeddingConfig    `toml:"embedding"`
	Retrieval    RetrievalConfig    `toml:"retrieval"`
	Conversation ConversationConfig `toml:"conversation"`
	Checkpoint   CheckpointConfig   `toml:"checkpoint"`
	Workflow     WorkflowConfig     `toml:"workflow"`
	Metrics      MetricsConfig      `toml:"metrics"`
}

// DatabaseConfig locates the BadgerDB directory
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// AIConfig holds model endpoint settings
type AIConfig struct {
	EmbeddingHost     string  `toml:"embedding_host"`
	GenerationHost    string  `toml:"generation_host"`
	EmbeddingModel    string  `toml:"embedding_model"`
	GenerationModel   string  `toml:"generation_model"`
	Token             string  `toml:"token"` // Usually supplied through the environment
	Temperature       float64 `toml:"temperature"`
	MaxOutputTokens   int     `toml:"max_output_tokens"`
	RequestsPerMinute int     `toml:"requests_per_minute"` // Per model; -1 disables limiting
}

// EmbeddingConfig holds embedding client settings
type EmbeddingConfig struct {
	BatchSize int `toml:"batch_size"`
}

// RetrievalConfig holds vector retrieval settings
type RetrievalConfig struct {
	Limit int `toml:"limit"` // Chunks retrieved per generation (default 7)
}

// ConversationConfig holds context window settings
type ConversationConfig struct {
	TokenBudget int    `toml:"token_budget"`
	Encoding    string `toml:"encoding"` // tiktoken encoding name
}

// CheckpointConfig holds checkpoint retry settings
type CheckpointConfig struct {
	RetryAttempts    int `toml:"retry_attempts"`
	RetryBaseDelayMs int `toml:"retry_base_delay_ms"`
}

// WorkflowConfig holds workflow engine settings
type WorkflowConfig struct {
	SubtopicCount int  `toml:"subtopic_count"` // 0 lets the model choose
	IncludeQuiz   bool `toml:"include_quiz"`
	QuizQuestions int  `toml:"quiz_questions"`
	MaxSteps      int  `toml:"max_steps"`
}

// MetricsConfig holds the Prometheus endpoint settings
type MetricsConfig struct {
	Addr string `toml:"addr"` // Empty disables the endpoint
}

// Environment variables consulted for the API token when the file has none.
const (
	TokenEnv         = "SYLLABUS_API_KEY"
	FallbackTokenEnv = "OPENAI_API_KEY"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and parses the configuration file.
// An empty path returns the defaults.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		cfg := Default()
		loadSecrets(cfg)
		return cfg, cfg.Validate()
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse TOML
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	aiDefaults := ai.DefaultConfig()
	if cfg.Database.Path == "" {
		cfg.Database.Path = "syllabus.db"
	}
	if cfg.AI.EmbeddingHost == "" {
		cfg.AI.EmbeddingHost = aiDefaults.EmbeddingHost
	}
	if cfg.AI.GenerationHost == "" {
		cfg.AI.GenerationHost = aiDefaults.GenerationHost
	}
	if cfg.AI.EmbeddingModel == "" {
		cfg.AI.EmbeddingModel = aiDefaults.EmbeddingModel
	}
	if cfg.AI.GenerationModel == "" {
		cfg.AI.GenerationModel = aiDefaults.GenerationModel
	}
	if cfg.AI.Temperature == 0 {
		cfg.AI.Temperature = aiDefaults.Temperature
	}
	if cfg.AI.MaxOutputTokens == 0 {
		cfg.AI.MaxOutputTokens = aiDefaults.MaxOutputTokens
	}
	// In TOML we can't distinguish 0 from unset, so -1 disables rate limiting
	if cfg.AI.RequestsPerMinute == 0 {
		cfg.AI.RequestsPerMinute = aiDefaults.RequestsPerMinute
	}

	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 20
	}
	if cfg.Retrieval.Limit == 0 {
		cfg.Retrieval.Limit = 7
	}
	if cfg.Conversation.TokenBudget == 0 {
		cfg.Conversation.TokenBudget = 4000
	}
	if cfg.Conversation.Encoding == "" {
		cfg.Conversation.Encoding = "cl100k_base"
	}
	if cfg.Checkpoint.RetryAttempts == 0 {
		cfg.Checkpoint.RetryAttempts = 3
	}
	if cfg.Checkpoint.RetryBaseDelayMs == 0 {
		cfg.Checkpoint.RetryBaseDelayMs = 200
	}
	if cfg.Workflow.QuizQuestions == 0 {
		cfg.Workflow.QuizQuestions = 5
	}
	if cfg.Workflow.MaxSteps == 0 {
		cfg.Workflow.MaxSteps = 10
	}
}

func loadSecrets(cfg *Config) {
	if cfg.AI.Token != "" {
		return
	}
	if token := os.Getenv(TokenEnv); token != "" {
		cfg.AI.Token = token
		return
	}
	cfg.AI.Token = os.Getenv(FallbackTokenEnv)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Embedding.BatchSize < 1 {
		return fmt.Errorf("embedding.batch_size must be at least 1, got %d", c.Embedding.BatchSize)
	}
	if c.Retrieval.Limit < 1 {
		return fmt.Errorf("retrieval.limit must be at least 1, got %d", c.Retrieval.Limit)
	}
	if c.Conversation.TokenBudget < 1 {
		return fmt.Errorf("conversation.token_budget must be at least 1, got %d", c.Conversation.TokenBudget)
	}
	if c.Checkpoint.RetryAttempts < 1 {
		return fmt.Errorf("checkpoint.retry_attempts must be at least 1, got %d", c.Checkpoint.RetryAttempts)
	}
	if c.Checkpoint.RetryBaseDelayMs < 0 {
		return fmt.Errorf("checkpoint.retry_base_delay_ms cannot be negative, got %d", c.Checkpoint.RetryBaseDelayMs)
	}
	if c.Workflow.SubtopicCount < 0 {
		return fmt.Errorf("workflow.subtopic_count cannot be negative, got %d", c.Workflow.SubtopicCount)
	}
	if c.Workflow.QuizQuestions < 1 {
		return fmt.Errorf("workflow.quiz_questions must be at least 1, got %d", c.Workflow.QuizQuestions)
	}
	if c.Workflow.MaxSteps < 1 {
		return fmt.Errorf("workflow.max_steps must be at least 1, got %d", c.Workflow.MaxSteps)
	}
	if err := c.AIConfig().Validate(); err != nil {
		return fmt.Errorf("ai: %w", err)
	}
	return nil
}

// AIConfig converts the [ai] section into an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	rpm := c.AI.RequestsPerMinute
	if rpm < 0 {
		rpm = 0
	}
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithGenerationHost(c.AI.GenerationHost),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithGenerationModel(c.AI.GenerationModel),
		ai.WithToken(c.AI.Token),
		ai.WithTemperature(c.AI.Temperature),
		ai.WithMaxOutputTokens(c.AI.MaxOutputTokens),
		ai.WithRequestsPerMinute(rpm),
	)
}

// RetryBaseDelay returns the checkpoint retry base delay as a duration.
func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.Checkpoint.RetryBaseDelayMs) * time.Millisecond
}
