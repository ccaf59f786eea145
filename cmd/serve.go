package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"suggest-combiner/internal/observe"
)

const (
	keyAddr         = "addr"
	shutdownTimeout = 10 * time.Second
	serviceVersion  = "dev"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local HTTP server with a Prometheus /metrics endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v)
		},
	}
	cmd.Flags().String("addr", ":5000", "listen address (env ADDR)")
	_ = v.BindPFlag(keyAddr, cmd.Flags().Lookup("addr"))
	return cmd
}

func runServe(parent context.Context, v *viper.Viper) error {
	if parent == nil {
		parent = context.Background()
	}
	setupLogger(v, false)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mp, shutdownMetrics, err := observe.InitProvider("suggest-combiner", serviceVersion)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownMetrics(flushCtx); err != nil {
			slog.Warn("metrics shutdown failed", "err", err)
		}
	}()

	metrics, err := observe.NewMetrics(mp)
	if err != nil {
		return fmt.Errorf("create metrics: %w", err)
	}

	h, err := buildHandler(ctx, v, metrics)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              v.GetString(keyAddr),
		Handler:           newServeMux(h),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newServeMux mounts the Prometheus scrape endpoint next to the service routes.
func newServeMux(h http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", h)
	return mux
}
