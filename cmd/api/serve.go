package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"exapi-service/internal/infrastructure/logging"
	"exapi-service/internal/infrastructure/web/server"
	"exapi-service/pkg/utils"

	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the REST facade with graceful shutdown support.

SIGINT or SIGTERM stops accepting connections and waits up to
server.shutdown_timeout for in-flight requests.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			if err := initLogging(cfg, os.Stdout); err != nil {
				return err
			}

			ctx := context.Background()
			a, err := buildApp(cfg, utils.SystemClock{})
			if err != nil {
				logging.ErrorWithError(ctx, "Failed to initialize service", err, nil)
				return err
			}

			logging.Info(ctx, "Service components initialized", logging.Fields{
				"exchanges":      a.sources.Names(),
				"cache_ttl":      cfg.Cache.TTL.String(),
				"governor_tries": a.governor.MaxAttempts(),
				"rate_limit":     cfg.RateLimit.Enabled,
				"auth":           cfg.Auth.Enabled,
				"mock_mode":      cfg.Development.MockMode,
			})

			router := server.NewRouter(server.Dependencies{
				Config:   cfg,
				Prices:   a.prices,
				Markets:  a.markets,
				Sources:  a.sources,
				Governor: a.governor,
				Clock:    a.clock,
			})
			srv := server.NewServer(router, cfg.Server)

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			select {
			case err := <-errCh:
				if err != nil {
					logging.ErrorWithError(ctx, "HTTP server failed", err, nil)
				}
				return err
			case sig := <-quit:
				logging.Info(ctx, "Shutdown signal received", logging.Fields{"signal": sig.String()})
			}

			shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := srv.Stop(shutdownCtx); err != nil {
				logging.ErrorWithError(ctx, "Server forced to shutdown", err, nil)
				return err
			}

			logging.Info(ctx, "Server shutdown completed", nil)
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override server.port")

	return cmd
}
