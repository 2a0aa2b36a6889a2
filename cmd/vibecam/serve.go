package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/vibecam/internal/cli"
	httpAdapter "github.com/aretw0/vibecam/pkg/adapters/http"
)

const shutdownGrace = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves the chat and generation API over HTTP, with session endpoints,
a WebSocket chat, Server-Sent Events for session changes and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := cli.Build(ctx, cfg)
		if err != nil {
			return fmt.Errorf("error initializing vibecam: %w", err)
		}
		defer app.Close()

		handler := httpAdapter.NewHandler(app.Engine,
			httpAdapter.WithSessions(app.Sessions),
			httpAdapter.WithMetricsHandler(app.MetricsHandler()),
			httpAdapter.WithSanitizer(app.Sanitizer),
			httpAdapter.WithLogger(app.Logger),
		)

		srv := &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			app.Logger.Info("starting vibecam server",
				"address", srv.Addr,
				"provider", cfg.Provider,
				"store", cfg.Store.Type,
			)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			app.Logger.Info("shutdown signal received")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				app.Logger.Warn("graceful shutdown did not complete", "grace", shutdownGrace, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			app.Logger.Info("vibecam server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()
	flags.String("host", "0.0.0.0", "Interface to listen on")
	flags.IntP("port", "p", 8000, "Port to listen on")
	flags.Bool("metrics", true, "Expose Prometheus metrics on /metrics")
	bind("server.host", flags.Lookup("host"))
	bind("server.port", flags.Lookup("port"))
	bind("server.metrics", flags.Lookup("metrics"))
}
