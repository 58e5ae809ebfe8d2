// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-envconfig"

	"github.com/wardenauth/warden/internal/auth"
	"github.com/wardenauth/warden/internal/auth/postgres"
	"github.com/wardenauth/warden/internal/config"
	"github.com/wardenauth/warden/internal/observability"
	"github.com/wardenauth/warden/internal/store"
)

// Backend bundles the repositories a command works against.
type Backend struct {
	Accounts       auth.AccountRepository
	Origins        auth.OriginAttemptRepository
	RememberTokens auth.RememberTokenRepository
	Groups         auth.GroupRepository
	Privileges     auth.PrivilegeRepository

	// Pool is set for PostgreSQL backends and exported as metrics.
	Pool *pgxpool.Pool
	// Ping reports database health. Nil means always healthy.
	Ping func(ctx context.Context) error
	// Close releases the backend. May be nil.
	Close func()
}

// Migrator is the subset of store.Migrator used by the migrate command.
type Migrator interface {
	Up() error
	Steps(n int) error
	Down() error
	Force(version int) error
	Status() (store.MigrationStatus, error)
	Close() error
}

// ObservabilityServer is the subset of observability.Server used by serve-metrics.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

// Deps contains injectable dependencies for the CLI.
// All fields with nil values will use their default implementations.
type Deps struct {
	// BackendFactory opens the credential store.
	// Default: store.Open + postgres.NewRepositories
	BackendFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error)

	// MigratorFactory creates a schema migrator for a database URL.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)

	// ObservabilityServerFactory creates the metrics and health server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, ready observability.ReadinessChecker, opts ...observability.Option) ObservabilityServer

	// Env is the environment variable source for configuration.
	// Default: the process environment
	Env envconfig.Lookuper

	// Clock stamps entities and checks token expiry.
	// Default: auth.SystemClock
	Clock auth.Clock
}

func (d *Deps) withDefaults() *Deps {
	out := Deps{}
	if d != nil {
		out = *d
	}
	if out.BackendFactory == nil {
		out.BackendFactory = openPostgresBackend
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(databaseURL string) (Migrator, error) {
			return store.NewMigrator(databaseURL)
		}
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker, opts ...observability.Option) ObservabilityServer {
			return observability.NewServer(addr, ready, opts...)
		}
	}
	if out.Env == nil {
		out.Env = envconfig.OsLookuper()
	}
	if out.Clock == nil {
		out.Clock = auth.SystemClock{}
	}
	return &out
}

func openPostgresBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	pool, err := store.Open(ctx, cfg.Database.URL, cfg.StoreOptions(logger)...)
	if err != nil {
		return nil, err
	}
	repos := postgres.NewRepositories(pool)
	return &Backend{
		Accounts:       repos.Accounts,
		Origins:        repos.Origins,
		RememberTokens: repos.RememberTokens,
		Groups:         repos.Groups,
		Privileges:     repos.Privileges,
		Pool:           pool,
		Ping:           pool.Ping,
		Close:          pool.Close,
	}, nil
}
