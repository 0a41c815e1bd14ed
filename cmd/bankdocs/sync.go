package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/parker-estes/bankdocs/internal/source"
)

var (
	syncOwner string
	syncRepo  string
	syncPath  string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Index documents from a GitHub repository",
	Long: `Fetches text documents (md, txt, csv) from a GitHub repository and
indexes them.

This command:
1. Connects to the storage backend
2. Lists documents under the repository path
3. Fetches each document and splits it into chunks
4. Replaces previously synced chunks for the same document
5. Records the repository commit the sync ran against

Environment variables:
  GITHUB_TOKEN   GitHub token for higher rate limits (optional)`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncOwner, "owner", "", "GitHub repository owner")
	syncCmd.Flags().StringVar(&syncRepo, "repo", "", "GitHub repository name")
	syncCmd.Flags().StringVar(&syncPath, "path", "", "path within the repository (default: repository root)")
	_ = syncCmd.MarkFlagRequired("owner")
	_ = syncCmd.MarkFlagRequired("repo")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	start := time.Now()

	fmt.Println("Starting sync...")
	fmt.Println()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()

	// 1. Connect storage, embeddings, and chunking
	comps, err := buildComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer comps.Close()

	// 2. Initialize GitHub client
	client, err := source.NewClient(cfg.GitHubToken)
	if err != nil {
		return fmt.Errorf("create GitHub client: %w", err)
	}
	fetcher := source.NewFetcher(client, syncOwner, syncRepo, syncPath)

	// 3. List documents under the repository path
	fmt.Printf("Listing documents in %s/%s...\n", syncOwner, syncRepo)
	paths, err := fetcher.List(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	fmt.Printf("Found %d documents\n", len(paths))

	// 4. Fetch and index each document
	fmt.Println()
	var (
		indexed int
		chunks  int
		failed  []string
	)
	for i, relPath := range paths {
		doc, err := fetcher.Fetch(ctx, relPath)
		if err != nil {
			logger.Warn("fetch failed", "path", relPath, "error", err)
			failed = append(failed, fmt.Sprintf("%s: %v", relPath, err))
			continue
		}
		n, err := comps.pipeline.IngestText(ctx, doc.Content, fetcher.Metadata(doc))
		if err != nil {
			logger.Warn("index failed", "path", relPath, "error", err)
			failed = append(failed, fmt.Sprintf("%s: %v", relPath, err))
			continue
		}
		indexed++
		chunks += n
		fmt.Printf("  [%d/%d] %s (%d chunks)\n", i+1, len(paths), relPath, n)
	}

	// 5. Record which commit the sync ran against
	commitSHA, err := fetcher.LatestCommitSHA(ctx)
	if err != nil {
		logger.Warn("could not resolve latest commit", "error", err)
		commitSHA = "unknown"
	}

	fmt.Println()
	fmt.Println("Sync complete!")
	fmt.Printf("  Documents: %d/%d\n", indexed, len(paths))
	fmt.Printf("  Chunks: %d\n", chunks)
	fmt.Printf("  Commit: %s\n", commitSHA)
	fmt.Printf("  Duration: %s\n", time.Since(start).Round(time.Second))

	if len(failed) > 0 {
		fmt.Println()
		fmt.Println("Failed documents:")
		for _, f := range failed {
			fmt.Printf("  - %s\n", f)
		}
	}
	return nil
}
