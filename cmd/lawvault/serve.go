package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/lawvault/lawvault/internal/api/handler"
	"github.com/lawvault/lawvault/internal/api/router"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Starts the inspection API: job lookup, queue statistics, manual
enqueueing, health, and Prometheus metrics. The server never schedules
work itself; run the worker pool separately.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, appLogger, err := setup()
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, store, docs, err := openStores(ctx, cfg, appLogger)
			if err != nil {
				return err
			}
			defer client.Close()

			// Set Gin mode based on environment
			if cfg.App.Environment == "production" {
				gin.SetMode(gin.ReleaseMode)
			} else {
				gin.SetMode(gin.DebugMode)
			}

			r := router.SetupRouter(&handler.Dependencies{
				Logger:  appLogger.Logger,
				Queue:   store,
				Archive: docs,
			})

			addr := fmt.Sprintf(":%d", cfg.Server.Port)
			srv := &http.Server{
				Addr:         addr,
				Handler:      r,
				ReadTimeout:  cfg.Server.ReadTimeout.Std(),
				WriteTimeout: cfg.Server.WriteTimeout.Std(),
				IdleTimeout:  cfg.Server.IdleTimeout.Std(),
			}

			appLogger.Info("Starting HTTP server",
				slog.String("address", addr),
				slog.Duration("read_timeout", cfg.Server.ReadTimeout.Std()),
				slog.Duration("write_timeout", cfg.Server.WriteTimeout.Std()),
			)

			errChan := make(chan error, 1)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errChan <- err
				}
			}()

			select {
			case err := <-errChan:
				appLogger.Error("Server failed to start",
					slog.String("error", err.Error()))
				return err
			case <-ctx.Done():
			}

			appLogger.Info("Shutting down server...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				appLogger.Error("Server forced to shutdown",
					slog.String("error", err.Error()))
				return err
			}

			appLogger.Info("Server shutdown complete")
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on")

	return cmd
}
