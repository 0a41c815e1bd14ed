// Package main provides the banking document assistant CLI.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/parker-estes/bankdocs/internal/config"
)

var logJSON bool

var rootCmd = &cobra.Command{
	Use:   "bankdocs",
	Short: "Banking document assistant",
	Long: `bankdocs indexes banking documents (rate sheets, policy documents,
compliance manuals) into a vector store and answers questions grounded
in their content.

Environment variables:
  OPENAI_API_KEY    OpenAI API key (required except for stats/delete/reset)
  OPENAI_BASE_URL   Alternate OpenAI-compatible endpoint (optional)
  EMBEDDING_MODEL   Embedding model (default: text-embedding-3-small)
  CHAT_MODEL        Chat model (default: gpt-4o-mini)
  STORAGE_BACKEND   qdrant, sqlite, or memory (default: qdrant)
  QDRANT_HOST       Qdrant hostname (default: localhost)
  QDRANT_PORT       Qdrant gRPC port (default: 6334)
  COLLECTION_NAME   Collection name (default: banking_documents)
  SQLITE_PATH       SQLite database path (default: bankdocs.db)
  GITHUB_TOKEN      GitHub token for sync (optional, raises rate limits)`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit logs as JSON instead of text")
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Cancel on SIGTERM/SIGINT so serve and mcp shut down cleanly
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newLogger builds the process logger. Logs go to stderr so the mcp
// command keeps stdout free for the protocol stream.
func newLogger() *slog.Logger {
	if logJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func loadConfig() (config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
