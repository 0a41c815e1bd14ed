package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parker-estes/bankdocs/internal/storage"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show knowledge base statistics",
	RunE:  runStats,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <source>",
	Short: "Remove a document's chunks by source path",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every entry in the knowledge base",
	RunE:  runReset,
}

func init() {
	rootCmd.AddCommand(statsCmd, deleteCmd, resetCmd)
}

// adminStore opens the backend without an embedder; stats, delete, and
// reset never embed anything, so no OpenAI key is required.
func adminStore() (storage.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openStore(cfg, nil)
}

func runStats(cmd *cobra.Command, args []string) error {
	store, err := adminStore()
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}
	fmt.Printf("Entries: %d\n", stats.EntryCount)
	fmt.Printf("Collection: %s\n", stats.CollectionName)
	fmt.Printf("Location: %s\n", stats.StorageLocation)

	sources, err := store.ListSources(cmd.Context())
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}
	if len(sources) > 0 {
		fmt.Println()
		fmt.Println("Documents:")
		for _, src := range sources {
			fmt.Printf("  - %s (%d chunks)\n", src.SourcePath, src.Chunks)
		}
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	store, err := adminStore()
	if err != nil {
		return err
	}
	defer store.Close()

	deleted, err := store.DeleteBySource(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	fmt.Printf("Deleted %d chunks from %s\n", deleted, args[0])
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	store, err := adminStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Reset(cmd.Context()); err != nil {
		return fmt.Errorf("reset knowledge base: %w", err)
	}
	fmt.Println("Knowledge base cleared")
	return nil
}
