package main

import (
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lawvault/lawvault/internal/config"
	"github.com/lawvault/lawvault/internal/handlers"
	"github.com/lawvault/lawvault/internal/ratelimit"
	"github.com/lawvault/lawvault/internal/scraper"
	"github.com/lawvault/lawvault/internal/worker"
)

// idlePollInterval is how often run checks whether the queue has drained
const idlePollInterval = 10 * time.Second

func newRunCmd() *cobra.Command {
	var workers int
	var delay float64
	var untilIdle bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the worker pool",
		Long: `Starts the worker pool and processes jobs until interrupted. With
--until-idle the pool exits on its own once no pending or in-flight work
remains. Interrupting is always graceful: in-flight jobs finish and
everything else stays queued.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, appLogger, err := setup()
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("workers") {
				cfg.Worker.Count = workers
			}
			if cmd.Flags().Changed("delay") {
				cfg.Crawler.MinInterval = config.Duration(time.Duration(delay * float64(time.Second)))
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if cfg.Worker.Count > 3 {
				appLogger.Warn("Using more than 3 workers may violate rate limits, consider 1-2 workers with the 10-second delay",
					slog.Int("workers", cfg.Worker.Count))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, store, docs, err := openStores(ctx, cfg, appLogger)
			if err != nil {
				return err
			}
			defer client.Close()

			publisher, err := newEventsPublisher(cfg, appLogger)
			if err != nil {
				return err
			}
			defer publisher.Close()

			fetcher := scraper.NewFetcher(
				cfg.Crawler.BaseURL,
				cfg.Crawler.UserAgent,
				cfg.Crawler.FetchTimeout.Std(),
				appLogger.Logger,
			)
			registry := handlers.NewRegistry(fetcher, docs, appLogger.Logger)
			limiter := ratelimit.New(cfg.Crawler.MinInterval.Std())

			pool := worker.NewPool(worker.Config{
				Workers:           cfg.Worker.Count,
				EmptyPollInterval: cfg.Worker.EmptyPollInterval.Std(),
				StatsInterval:     cfg.Worker.StatsInterval.Std(),
				StuckAfter:        cfg.Worker.StuckAfter.Std(),
				ReapInterval:      cfg.Worker.ReapInterval.Std(),
				ShutdownTimeout:   cfg.Worker.ShutdownTimeout.Std(),
			}, store, registry, limiter, publisher, appLogger.Logger)

			pool.Start(ctx)

			if untilIdle {
				if err := pool.WaitForIdle(ctx, idlePollInterval); err != nil {
					appLogger.Info("Interrupted, shutting down")
				} else {
					appLogger.Info("Queue drained, shutting down")
				}
			} else {
				<-ctx.Done()
				appLogger.Info("Interrupted, shutting down")
			}
			pool.Stop()

			return printStats(cmd.Context(), store, docs)
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 1, "number of workers (recommended 1-2 due to rate limits)")
	cmd.Flags().Float64Var(&delay, "delay", 10.0, "delay between requests in seconds (10s per robots.txt)")
	cmd.Flags().BoolVar(&untilIdle, "until-idle", false, "exit once the queue is fully drained")

	return cmd
}
