package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lawvault/lawvault/internal/handlers"
)

func newSeedCmd() *cobra.Command {
	var all, uscode, cfr, scotus, constitution, federalRules bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the job queue with initial discovery jobs",
		Long: `Enqueues the top-level discovery jobs for the selected content types.
Seeding is idempotent: running it again skips jobs that already exist.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var contentTypes []string
			if all {
				contentTypes = append(contentTypes, handlers.ContentAll)
			} else {
				if uscode {
					contentTypes = append(contentTypes, handlers.ContentUSCode)
				}
				if cfr {
					contentTypes = append(contentTypes, handlers.ContentCFR)
				}
				if scotus {
					contentTypes = append(contentTypes, handlers.ContentSupremeCourt)
				}
				if constitution {
					contentTypes = append(contentTypes, handlers.ContentConstitution)
				}
				if federalRules {
					contentTypes = append(contentTypes, handlers.ContentFederalRules)
				}
			}

			if len(contentTypes) == 0 {
				return errors.New("no content types specified, use --all or specific flags")
			}

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

			created, err := handlers.Seed(ctx, store, cfg.Crawler.BaseURL, contentTypes, appLogger.Logger)
			if err != nil {
				appLogger.Error("Seeding failed",
					slog.Int("jobs_created", created),
					slog.String("error", err.Error()))
				return err
			}

			return printStats(ctx, store, docs)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "seed all content types")
	cmd.Flags().BoolVar(&uscode, "uscode", false, "seed US Code")
	cmd.Flags().BoolVar(&cfr, "cfr", false, "seed Code of Federal Regulations")
	cmd.Flags().BoolVar(&scotus, "scotus", false, "seed Supreme Court cases")
	cmd.Flags().BoolVar(&constitution, "constitution", false, "seed US Constitution")
	cmd.Flags().BoolVar(&federalRules, "federal-rules", false, "seed Federal Rules of Procedure")

	return cmd
}
