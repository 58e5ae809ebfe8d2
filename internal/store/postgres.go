// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

// Package store opens the PostgreSQL pool and manages the schema.
package store

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Default connection retry policy.
const (
	DefaultConnectAttempts = 5
	DefaultConnectBackoff  = 200 * time.Millisecond
	maxConnectBackoff      = 5 * time.Second
)

// pinger is satisfied by *pgxpool.Pool.
type pinger interface {
	Ping(ctx context.Context) error
}

type openOptions struct {
	attempts uint64
	backoff  time.Duration
	maxConns int32
	logger   *slog.Logger
}

// OpenOption configures Open.
type OpenOption func(*openOptions)

// WithConnectAttempts sets how many times the initial ping is retried.
func WithConnectAttempts(n uint64) OpenOption {
	return func(o *openOptions) { o.attempts = n }
}

// WithConnectBackoff sets the base delay between ping attempts.
func WithConnectBackoff(d time.Duration) OpenOption {
	return func(o *openOptions) { o.backoff = d }
}

// WithMaxConns caps the pool size. Zero keeps the pgx default.
func WithMaxConns(n int32) OpenOption {
	return func(o *openOptions) { o.maxConns = n }
}

// WithLogger sets the logger used to report retries.
func WithLogger(logger *slog.Logger) OpenOption {
	return func(o *openOptions) { o.logger = logger }
}

// Open creates a pool for dsn and waits until the database answers a ping.
// Pings are retried with exponential backoff so the service can start
// alongside its database.
func Open(ctx context.Context, dsn string, opts ...OpenOption) (*pgxpool.Pool, error) {
	o := openOptions{
		attempts: DefaultConnectAttempts,
		backoff:  DefaultConnectBackoff,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, oops.Code("STORE_INVALID_DSN").With("operation", "parse database url").Wrap(err)
	}
	if o.maxConns > 0 {
		cfg.MaxConns = o.maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("STORE_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	if err := waitForDatabase(ctx, pool, o); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func waitForDatabase(ctx context.Context, db pinger, o openOptions) error {
	retries := uint64(0)
	if o.attempts > 1 {
		retries = o.attempts - 1
	}
	backoff := retry.WithMaxRetries(retries,
		retry.WithCappedDuration(maxConnectBackoff, retry.NewExponential(o.backoff)))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := db.Ping(ctx); err != nil {
			o.logger.WarnContext(ctx, "database not ready",
				"attempt", attempt,
				"max_attempts", o.attempts,
				"error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("STORE_CONNECT_FAILED").
			With("operation", "ping database").
			With("attempts", attempt).
			Wrap(err)
	}
	return nil
}

// RedactURL masks the password of a database URL for display. Strings that
// are not URLs are returned unchanged.
func RedactURL(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}
