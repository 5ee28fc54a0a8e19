package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newResetCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset stuck jobs to pending status",
		Long: `Requeues jobs stuck in processing, typically left behind by a
crashed worker. Jobs that already used their last attempt are marked failed
instead of requeued. By default every processing job is reset; --older-than
restricts the sweep to jobs claimed before the given age.`,
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

			reset, failed, err := store.ResetStuck(ctx, time.Now().UTC().Add(-olderThan))
			if err != nil {
				return err
			}

			fmt.Printf("Reset %d stuck jobs to pending status\n", reset)
			if failed > 0 {
				fmt.Printf("Marked %d exhausted jobs as failed\n", failed)
			}

			return printStats(ctx, store, docs)
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "only reset jobs claimed more than this long ago (0 resets all)")

	return cmd
}
