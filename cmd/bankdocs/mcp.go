package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/parker-estes/bankdocs/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server on stdin/stdout",
	Long: `Serves the MCP tools (ask_question, search_documents, get_stats,
list_documents) over stdio for local MCP clients such as editor
integrations. For remote clients use "bankdocs serve", which mounts the
same tools at /mcp.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
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

	log.Println("Starting banking document MCP server (stdio mode)...")
	return mcp.NewServer(comps.svc).Run(ctx)
}
