package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/parker-estes/bankdocs/internal/conversation"
	"github.com/parker-estes/bankdocs/internal/service"
)

var askHistoryFile string

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question against the indexed documents",
	Long: `Answers a question using only the indexed document content. With
--history, prior turns are replayed from a JSON file holding an array of
{"question": ..., "answer": ...} objects before the question is asked.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askHistoryFile, "history", "", "JSON file with prior conversation turns")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	question := strings.Join(args, " ")

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

	var resp service.AskResponse
	if askHistoryFile != "" {
		data, err := os.ReadFile(askHistoryFile)
		if err != nil {
			return fmt.Errorf("read history file: %w", err)
		}
		var turns []conversation.Turn
		if err := json.Unmarshal(data, &turns); err != nil {
			return fmt.Errorf("parse history file: %w", err)
		}
		resp = comps.svc.AskWithHistory(ctx, question, turns)
	} else {
		resp = comps.svc.Ask(ctx, question)
	}

	if !resp.Success {
		return errors.New(resp.Error)
	}

	fmt.Println(resp.Answer)
	fmt.Println()
	fmt.Printf("Confidence: %s\n", resp.Confidence)
	if len(resp.Sources) > 0 {
		fmt.Println("Sources:")
		for _, src := range resp.Sources {
			fmt.Printf("  - %s (chunk %d)\n", src.SourceLabel(), src.ChunkIndex)
		}
	}
	return nil
}
