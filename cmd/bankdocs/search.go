package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed documents by similarity",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 5, "maximum number of results")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := strings.Join(args, " ")

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

	resp := comps.svc.Search(ctx, query, searchLimit)
	if !resp.Success {
		return errors.New(resp.Error)
	}

	if resp.Count == 0 {
		fmt.Println("No matching documents found.")
		return nil
	}
	for i, hit := range resp.Results {
		fmt.Printf("%d. %s (score %.3f)\n", i+1, hit.Metadata.SourceLabel(), hit.Score)
		fmt.Printf("   %s\n", hit.Content)
		fmt.Println()
	}
	return nil
}
