package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/levels"
	"github.com/spf13/cobra"
)

var (
	dbPath     string
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "linkdedup",
	Short: "Find and group duplicate links by URL and thumbnail similarity",
	Long: `linkdedup detects duplicate items within a batch of records.

Two items are duplicates when they share a URL, or when the perceptual
hashes of their thumbnails are within a configurable Hamming distance.
Each duplicate group keeps the earliest item as its primary and lists
the rest in discovery order.

Example usage:
  linkdedup scan ./thumbs               # Deduplicate a folder of images
  linkdedup scan batch.jsonl            # Deduplicate a record manifest
  linkdedup list                        # Show groups from the last batch
  linkdedup serve                       # Browse results over a local API`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			gologger.DefaultLogger.SetMaxLevel(levels.LevelVerbose)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	homeDir, _ := os.UserHomeDir()
	defaultDB := filepath.Join(homeDir, ".linkdedup", "results.db")

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "Path to SQLite results database")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML settings file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
}
