package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/parker-estes/bankdocs/internal/api"
	"github.com/parker-estes/bankdocs/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and MCP server",
	Long: `Starts the HTTP server with the JSON API under /api, the MCP
endpoint at /mcp, a health check at /health, and a landing page at /.

Environment variables:
  PORT             HTTP port (default: 8080)
  REQUEST_TIMEOUT  Per-request timeout (default: 60s)`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()

	comps, err := buildComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer comps.Close()

	mcpServer := mcp.NewServer(comps.svc)
	server := api.NewServer(comps.svc, api.Options{
		Port:    cfg.HTTPPort,
		Timeout: cfg.RequestTimeout,
		MCP:     mcpServer.HTTPHandler(),
		Logger:  logger,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()
	logger.Info("http server started", "port", cfg.HTTPPort, "backend", string(cfg.Backend))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	}
}
