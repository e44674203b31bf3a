package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/projectdiscovery/gologger"
	"github.com/spf13/cobra"

	"linkdedup/internal/config"
	"linkdedup/internal/dedup"
	"linkdedup/internal/hash"
	"linkdedup/internal/models"
	"linkdedup/internal/scan"
	"linkdedup/internal/storage"
)

var (
	scanHashFunction string
	scanMaxDistance  int
	scanPartition    bool
	scanURLOnly      bool
	scanShowHashes   bool
	scanWorkers      int
)

var scanCmd = &cobra.Command{
	Use:   "scan <folder|manifest.jsonl>",
	Short: "Deduplicate a batch of records",
	Long: `Deduplicate one batch of records and store the result.

The input is either a folder of thumbnail images (one item per file) or
a JSON-lines manifest with one record per line:

  {"id":"t3_abc","url":"https://example.com/a","thumb":"thumbs/a.jpg"}

Fingerprinting runs in parallel; clustering then runs as a single
ordered pass, merging items that share a URL or whose fingerprints fall
within the configured Hamming distance.

Example:
  linkdedup scan ./thumbs
  linkdedup scan batch.jsonl --hash-function waveletHash --max-distance 6`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanHashFunction, "hash-function", "",
		"Hash algorithm: differenceHash, dctHash or waveletHash")
	scanCmd.Flags().IntVar(&scanMaxDistance, "max-distance", -1,
		"Max Hamming distance for near matches (0 = exact fingerprints only)")
	scanCmd.Flags().BoolVar(&scanPartition, "partition-by-domain", false,
		"Only match thumbnails within the same domain")
	scanCmd.Flags().BoolVar(&scanURLOnly, "url-only", false,
		"Skip thumbnail matching entirely")
	scanCmd.Flags().BoolVar(&scanShowHashes, "show-hashes", false,
		"Print each group's fingerprint values")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "Number of parallel hashing workers")
	rootCmd.AddCommand(scanCmd)
}

// loadSettings layers command-line flags over the config file (or the
// defaults when no file is given).
func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	settings := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		settings = loaded
	}

	if cmd.Flags().Changed("hash-function") {
		settings.HashFunction = scanHashFunction
	}
	if cmd.Flags().Changed("max-distance") {
		settings.MaxHammingDistance = scanMaxDistance
	}
	if cmd.Flags().Changed("partition-by-domain") {
		settings.PartitionByDomain = scanPartition
	}
	if scanURLOnly {
		settings.DeduplicateThumbs = false
	}
	if cmd.Flags().Changed("show-hashes") {
		settings.ShowHashValues = scanShowHashes
	}
	if cmd.Flags().Changed("workers") {
		settings.Workers = scanWorkers
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

func runScan(cmd *cobra.Command, args []string) error {
	source := args[0]

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	records, err := loadRecords(source)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No records found.")
		return nil
	}

	gologger.Verbose().Msgf("Hashing %d records with %s (workers=%d)",
		len(records), settings.HashFunction, settings.Workers)

	lastLine := ""
	pipeline := scan.NewPipeline(settings.Kind(),
		scan.WithWorkers(settings.Workers),
		scan.WithProgress(func(done, total int, current string) {
			if lastLine != "" {
				fmt.Print("\r" + strings.Repeat(" ", len(lastLine)) + "\r")
			}
			short := current
			if len(short) > 50 {
				short = "..." + short[len(short)-47:]
			}
			lastLine = fmt.Sprintf("Progress: %d/%d  %s", done, total, short)
			fmt.Print(lastLine)
		}),
	)
	items := pipeline.Run(records)
	if lastLine != "" {
		fmt.Print("\r" + strings.Repeat(" ", len(lastLine)) + "\r")
	}

	engine := dedup.New(dedup.Config{
		MaxHammingDistance: settings.MaxHammingDistance,
		PartitionByDomain:  settings.PartitionByDomain,
		DeduplicateThumbs:  settings.DeduplicateThumbs,
	})
	groups, stats := engine.ProcessBatch(items)
	if err := engine.VerifyStats(); err != nil {
		return fmt.Errorf("clustering produced inconsistent results: %w", err)
	}

	store, err := storage.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	batchID, err := store.SaveBatch(source, items, groups, stats)
	if err != nil {
		return fmt.Errorf("failed to save batch: %w", err)
	}

	printSummary(items, groups, stats, settings)
	gologger.Verbose().Msgf("Saved batch %s", batchID)
	return nil
}

func loadRecords(source string) ([]*models.Record, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("input not found: %w", err)
	}
	if info.IsDir() {
		abs, err := filepath.Abs(source)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path: %w", err)
		}
		return scan.LoadFolder(abs)
	}
	return scan.LoadManifest(source)
}

func printSummary(items []*models.Item, groups []*models.DuplicateGroup, stats models.Stats, settings *config.Settings) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)

	fmt.Println()
	bold.Println("=== Scan Complete ===")
	fmt.Printf("Total items:          %d\n", len(items))
	fmt.Printf("Groups with dups:     %d\n", stats.NumWithDups)
	fmt.Printf("Duplicates found:     %d\n", stats.TotalDups)

	for _, g := range groups {
		if g.DupCount() == 0 {
			continue
		}
		fmt.Println()
		green.Printf("%s", g.Primary.Handle)
		if settings.ShowHashValues && g.Primary.HasHash {
			fmt.Printf("  [%s]", hash.Format(g.Primary.Hash))
		}
		fmt.Printf("  (+%d)\n", g.DupCount())
		for _, d := range g.Duplicates {
			fmt.Printf("  - %s", d.Handle)
			if settings.ShowHashValues && d.HasHash {
				fmt.Printf("  [%s]", hash.Format(d.Hash))
			}
			fmt.Println()
		}
	}

	if stats.NumWithDups > 0 {
		fmt.Println()
		fmt.Println("Run 'linkdedup list' to see duplicate groups again")
	}
}
