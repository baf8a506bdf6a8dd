package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ca-srg/workgate/internal/metrics"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cumulative gateway invocation counts",
	Long: `
Show how many tool calls, REST searches, and token exchanges this gateway has
served, read from the local statistics database.`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	if err := metrics.InitWithPath(os.Getenv("STATS_DB_PATH")); err != nil {
		return fmt.Errorf("failed to open statistics database: %w", err)
	}
	defer func() { _ = metrics.Close() }()

	stats := metrics.GetStats()
	if stats == nil {
		return fmt.Errorf("statistics are unavailable")
	}

	fmt.Printf("%-12s %s\n", "MODE", "TOTAL")
	for _, mode := range []metrics.Mode{metrics.ModeToolCall, metrics.ModeSearch, metrics.ModeExchange} {
		fmt.Printf("%-12s %d\n", mode, stats[mode])
	}
	return nil
}
