// Package config reads service configuration from the environment,
// with defaults that work for local development.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/parker-estes/bankdocs/internal/answer"
	"github.com/parker-estes/bankdocs/internal/chunk"
	"github.com/parker-estes/bankdocs/internal/conversation"
	"github.com/parker-estes/bankdocs/internal/embedding"
	"github.com/parker-estes/bankdocs/internal/llm"
	"github.com/parker-estes/bankdocs/internal/storage"
)

// Backend selects the vector index implementation.
type Backend string

const (
	BackendQdrant Backend = "qdrant"
	BackendSQLite Backend = "sqlite"
	BackendMemory Backend = "memory"
)

// Config is the full runtime configuration.
type Config struct {
	// OpenAI
	OpenAIKey      string
	OpenAIBaseURL  string
	EmbeddingModel string
	ChatModel      string
	Temperature    float64

	// Vector index
	Backend    Backend
	QdrantHost string
	QdrantPort int
	Collection string
	SQLitePath string

	// Retrieval
	ChunkSize    int
	ChunkOverlap int
	TopK         int
	HistoryLimit int

	// Transport
	HTTPPort       int
	RequestTimeout time.Duration

	// GitHub sync
	GitHubToken string
}

// Load reads the configuration from environment variables.
func Load() Config {
	return Config{
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:  os.Getenv("OPENAI_BASE_URL"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", embedding.DefaultModel),
		ChatModel:      getEnv("CHAT_MODEL", llm.DefaultModel),
		Temperature:    getEnvFloat("TEMPERATURE", llm.DefaultTemperature),

		Backend:    Backend(getEnv("STORAGE_BACKEND", string(BackendQdrant))),
		QdrantHost: getEnv("QDRANT_HOST", "localhost"),
		QdrantPort: getEnvInt("QDRANT_PORT", 6334),
		Collection: getEnv("COLLECTION_NAME", storage.DefaultCollection),
		SQLitePath: getEnv("SQLITE_PATH", "bankdocs.db"),

		ChunkSize:    getEnvInt("CHUNK_SIZE", chunk.DefaultSize),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", chunk.DefaultOverlap),
		TopK:         getEnvInt("RETRIEVAL_TOP_K", answer.DefaultTopK),
		HistoryLimit: getEnvInt("HISTORY_LIMIT", conversation.DefaultMaxTurns),

		HTTPPort:       getEnvInt("PORT", 8080),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 60*time.Second),

		GitHubToken: os.Getenv("GITHUB_TOKEN"),
	}
}

// Validate checks value ranges. It does not require the OpenAI key:
// commands that never call the API (stats, delete, reset) work without
// one.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendQdrant, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q (expected qdrant, sqlite, or memory)", c.Backend)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size %d must be positive", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk overlap %d must be in [0, %d)", c.ChunkOverlap, c.ChunkSize)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("retrieval top-k %d must be positive", c.TopK)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history limit %d must be positive", c.HistoryLimit)
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("port %d out of range", c.HTTPPort)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		var f float64
		if _, err := fmt.Sscanf(v, "%g", &f); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
