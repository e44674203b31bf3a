package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"linkdedup/internal/hash"
	"linkdedup/internal/storage"
)

var (
	listBatch      string
	listShowHashes bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List duplicate groups from a stored batch",
	Long: `List the duplicate groups of a stored batch (the most recent
one unless --batch is given). Each group shows the primary item first,
then its duplicates in discovery order.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listBatch, "batch", "", "Batch ID (defaults to the most recent)")
	listCmd.Flags().BoolVar(&listShowHashes, "show-hashes", false, "Print fingerprint values")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	store, err := storage.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	batchID := listBatch
	if batchID == "" {
		batchID, err = store.LatestBatchID()
		if err != nil {
			return err
		}
	}

	batch, err := store.Batch(batchID)
	if err != nil {
		return err
	}

	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	dim := color.New(color.Faint)

	bold.Printf("Batch %s (%s)\n", batch.BatchID, batch.Source)
	fmt.Printf("Items: %d  Groups with dups: %d  Duplicates: %d\n",
		batch.TotalItems, batch.Stats.NumWithDups, batch.Stats.TotalDups)

	shown := 0
	for _, g := range batch.Groups {
		if g.DupCount() == 0 {
			continue
		}
		shown++
		fmt.Println()
		green.Printf("[%d] %s", shown, g.Primary.Handle)
		if g.Primary.URL != "" {
			dim.Printf("  %s", g.Primary.URL)
		}
		if listShowHashes && g.Primary.HasHash {
			fmt.Printf("  [%s]", hash.Format(g.Primary.Hash))
		}
		fmt.Println()
		for _, d := range g.Duplicates {
			fmt.Printf("    - %s", d.Handle)
			if d.URL != "" {
				dim.Printf("  %s", d.URL)
			}
			if listShowHashes && d.HasHash {
				fmt.Printf("  [%s]", hash.Format(d.Hash))
			}
			fmt.Println()
		}
	}

	if shown == 0 {
		fmt.Println("\nNo duplicate groups in this batch.")
	}
	return nil
}
