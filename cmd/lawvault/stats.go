package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lawvault/lawvault/internal/archive"
	"github.com/lawvault/lawvault/internal/queue"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show queue and archive statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, appLogger, err := setup()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client, store, docs, err := openStores(ctx, cfg, appLogger)
			if err != nil {
				return err
			}
			defer client.Close()

			return printStats(ctx, store, docs)
		},
	}
}

// printStats renders the queue and archive snapshot used by every command
// that finishes with a summary.
func printStats(ctx context.Context, store *queue.Store, docs *archive.Store) error {
	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}

	counts, err := docs.Counts(ctx)
	if err != nil {
		return err
	}

	rule := strings.Repeat("=", 60)
	fmt.Println()
	fmt.Println(rule)
	fmt.Println("LAWVAULT ARCHIVE - STATISTICS")
	fmt.Println(rule)
	fmt.Println("\nJob Queue Status:")
	fmt.Printf("  Pending:    %d\n", stats.ByStatus[queue.StatusPending])
	fmt.Printf("  Processing: %d\n", stats.ByStatus[queue.StatusProcessing])
	fmt.Printf("  Completed:  %d\n", stats.ByStatus[queue.StatusCompleted])
	fmt.Printf("  Failed:     %d\n", stats.ByStatus[queue.StatusFailed])
	fmt.Println("\nDocuments Archived:")
	fmt.Printf("  US Code Sections:      %d\n", counts.USCode)
	fmt.Printf("  CFR Sections:          %d\n", counts.CFR)
	fmt.Printf("  Supreme Court Cases:   %d\n", counts.SupremeCourtCases)
	fmt.Printf("  Constitution:          %d\n", counts.Constitution)
	fmt.Printf("  Federal Rules:         %d\n", counts.FederalRules)
	fmt.Printf("  Other Documents:       %d\n", counts.Documents)
	fmt.Printf("  Total:                 %d\n", counts.Total)
	fmt.Println(rule)
	fmt.Println()

	return nil
}
