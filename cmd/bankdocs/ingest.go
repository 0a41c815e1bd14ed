package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>...",
	Short: "Index local documents into the knowledge base",
	Long: `Loads the given files or directories (txt, md, csv, pdf), splits
them into chunks, and indexes them. Re-ingesting a path replaces the
chunks indexed for it earlier.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
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

	fmt.Printf("Indexing %d path(s)...\n", len(args))
	resp := comps.svc.LoadDocuments(ctx, args)

	fmt.Println()
	fmt.Println("Ingestion complete!")
	fmt.Printf("  Documents: %d\n", resp.DocumentsIndexed)
	fmt.Printf("  Chunks: %d\n", resp.ChunksIndexed)

	if len(resp.Failed) > 0 {
		fmt.Println()
		fmt.Println("Failed documents:")
		for _, failed := range resp.Failed {
			fmt.Printf("  - %s: %s\n", failed.Path, failed.Reason)
		}
	}

	if !resp.Success {
		return errors.New(resp.Error)
	}
	return nil
}
