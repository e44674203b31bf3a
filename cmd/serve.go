package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"linkdedup/internal/server"
)

var (
	servePort    int
	serveTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored results as a local JSON API",
	Long: `Start a local server exposing stored deduplication results:

  GET /api/batches          All stored batches
  GET /api/groups?batch=ID  Duplicate groups of a batch (default: latest)
  GET /api/stats?batch=ID   Aggregate stats of a batch

The server shuts down after the idle timeout or on Ctrl+C.

Example:
  linkdedup serve              # Start on default port 8080
  linkdedup serve -p 3000      # Use custom port
  linkdedup serve --timeout 10m`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "Port to listen on")
	serveCmd.Flags().DurationVar(&serveTimeout, "timeout", 5*time.Minute, "Idle timeout (0 to disable)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	srv, err := server.New(dbPath, servePort, serveTimeout)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	fmt.Printf("Starting server at http://localhost:%d\n", servePort)
	fmt.Printf("Idle timeout: %v\n", serveTimeout)
	fmt.Println("Press Ctrl+C to stop")

	return srv.Start()
}
