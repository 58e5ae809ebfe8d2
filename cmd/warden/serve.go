// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/wardenauth/warden/internal/observability"
)

// shutdownTimeout bounds the graceful stop of long-running commands.
const shutdownTimeout = 5 * time.Second

func (a *app) newTokensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Token housekeeping",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete remember-me tokens older than the remember lifetime",
		Long: `Delete remember-me tokens older than the remember lifetime. Bans and
attempt counters are never touched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withEngine(cmd, func(ctx context.Context, e *engine) error {
				n, err := e.tokens.PurgeExpiredRememberTokens(ctx)
				if err != nil {
					return err
				}
				cmd.Printf("Purged %d expired remember-me token(s)\n", n)
				return nil
			})
		},
	})

	return cmd
}

func (a *app) newServeMetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve-metrics",
		Short: "Serve Prometheus metrics and health probes",
		Long: `Serve /metrics, /healthz/liveness and /healthz/readiness. Readiness
pings the database. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: a.runServeMetrics,
	}
}

func (a *app) runServeMetrics(cmd *cobra.Command, _ []string) error {
	if a.cfg.Metrics.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("metrics address is empty")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, a.timeout)
	backend, err := a.deps.BackendFactory(openCtx, a.cfg, a.logger)
	cancel()
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "open credential store").Wrap(err)
	}
	if backend.Close != nil {
		defer backend.Close()
	}

	opts := []observability.Option{
		observability.WithVersion(version),
		observability.WithLogger(a.logger),
	}
	if backend.Pool != nil {
		opts = append(opts, observability.WithPoolStats(backend.Pool))
	}
	var ready observability.ReadinessChecker
	if backend.Ping != nil {
		ready = observability.PingChecker(pingFunc(backend.Ping))
	}

	server := a.deps.ObservabilityServerFactory(a.cfg.Metrics.Addr, ready, opts...)
	errCh, err := server.Start()
	if err != nil {
		return oops.Code("OBSERVABILITY_START_FAILED").With("addr", a.cfg.Metrics.Addr).Wrap(err)
	}
	cmd.Printf("Serving metrics on %s\n", server.Addr())

	var serveErr error
	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok && err != nil {
			serveErr = oops.Code("OBSERVABILITY_SERVE_FAILED").Wrap(err)
		}
	}

	stopCtx, cancelStop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelStop()
	if err := server.Stop(stopCtx); err != nil && serveErr == nil {
		serveErr = err
	}
	return serveErr
}

// pingFunc adapts a ping function to the Ping method set.
type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }
