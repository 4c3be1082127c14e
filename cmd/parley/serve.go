package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	parleyhttp "github.com/aretw0/parley/pkg/adapters/http"
	"github.com/aretw0/parley/pkg/observability"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long:  `Serves the seeded objects as a JSON API over HTTP, with Prometheus metrics on /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			port, _ := cmd.Flags().GetString("port")

			handler, a, err := newServeHandler(cmd, prometheus.DefaultRegisterer, promhttp.Handler())
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              ":" + port,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			serverErrors := make(chan error, 1)
			go func() {
				a.logger.Info("starting parley server", "addr", srv.Addr, "objects", len(a.seeds))
				serverErrors <- srv.ListenAndServe()
			}()

			select {
			case err := <-serverErrors:
				return fmt.Errorf("server error: %w", err)
			case <-ctx.Done():
				a.logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					_ = srv.Close()
					return fmt.Errorf("graceful shutdown did not complete: %w", err)
				}
				if err := <-serverErrors; err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				a.logger.Info("server stopped gracefully")
				return nil
			}
		},
	}
	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	return cmd
}

// newServeHandler mounts the object API next to the metrics endpoint.
func newServeHandler(cmd *cobra.Command, reg prometheus.Registerer, metricsHandler http.Handler) (http.Handler, *app, error) {
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		return nil, nil, err
	}
	a, err := loadApp(cmd, metrics.Hooks())
	if err != nil {
		return nil, nil, err
	}

	r := chi.NewRouter()
	r.Handle("/metrics", metricsHandler)
	r.Mount("/", parleyhttp.NewHandler(a.framework.Env(), parleyhttp.WithLogger(a.logger)))
	return r, a, nil
}
