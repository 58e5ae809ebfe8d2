// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/wardenauth/warden/internal/access"
	"github.com/wardenauth/warden/internal/auth"
	"github.com/wardenauth/warden/internal/config"
	"github.com/wardenauth/warden/internal/logging"
	"github.com/wardenauth/warden/internal/xdg"
)

// defaultTimeout bounds the database work of a single command.
const defaultTimeout = 30 * time.Second

// app is the state shared by every subcommand of one invocation.
type app struct {
	deps       *Deps
	configFile string
	timeout    time.Duration
	cfg        *config.Config
	logger     *slog.Logger
}

// NewRootCmd creates the root command for the warden CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

func newRootCmd(deps *Deps) *cobra.Command {
	a := &app{deps: deps.withDefaults()}

	cmd := &cobra.Command{
		Use:   "warden",
		Short: "Warden - account authentication and access control",
		Long: `Warden manages accounts, login throttling, remember-me and reset tokens,
and the group/privilege authorization model backed by PostgreSQL.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.configFile, "config", "", "config file path (default $XDG_CONFIG_HOME/warden/config.yaml when present)")
	cmd.PersistentFlags().DurationVar(&a.timeout, "timeout", defaultTimeout, "timeout for database operations (e.g., 30s, 1m)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(a.newMigrateCmd())
	cmd.AddCommand(a.newAccountCmd())
	cmd.AddCommand(a.newGroupCmd())
	cmd.AddCommand(a.newPrivilegeCmd())
	cmd.AddCommand(a.newTokensCmd())
	cmd.AddCommand(a.newServeMetricsCmd())
	cmd.AddCommand(a.newConfigCmd())

	return cmd
}

// configPath returns --config, or the XDG default file when it exists.
func (a *app) configPath() string {
	if a.configFile != "" {
		return a.configFile
	}
	if path, ok := xdg.ExistingConfigFile(a.deps.Env); ok {
		return path
	}
	return ""
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Context(),
		config.WithFile(a.configPath()),
		config.WithFlags(cmd.Flags()),
		config.WithLookuper(a.deps.Env),
	)
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("operation", "load configuration").Wrap(err)
	}
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.Setup(logging.Options{
		Version: version,
		Format:  cfg.Log.Format,
		Level:   level,
		Writer:  cmd.ErrOrStderr(),
	})
	return nil
}

func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, a.timeout)
}

// engine holds the services built over one backend.
type engine struct {
	backend  *Backend
	tokens   *auth.TokenManager
	accounts *auth.AccountService
	access   *access.Service
}

func (e *engine) Close() {
	if e.backend.Close != nil {
		e.backend.Close()
	}
}

func (a *app) openEngine(ctx context.Context) (*engine, error) {
	backend, err := a.deps.BackendFactory(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "open credential store").Wrap(err)
	}
	e, err := newEngine(a.cfg.Auth, backend, a.deps.Clock, a.logger)
	if err != nil {
		if backend.Close != nil {
			backend.Close()
		}
		return nil, err
	}
	return e, nil
}

func newEngine(settings auth.Settings, backend *Backend, clock auth.Clock, logger *slog.Logger) (*engine, error) {
	hasher, err := auth.NewPasswordHasher(settings)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenManager(backend.Accounts, backend.RememberTokens, hasher, settings, clock,
		auth.WithTokenLogger(logger))
	if err != nil {
		return nil, err
	}
	accounts, err := auth.NewAccountService(backend.Accounts, tokens, hasher, settings, clock,
		auth.WithAccountLogger(logger))
	if err != nil {
		return nil, err
	}
	accessSvc, err := access.NewService(backend.Accounts, backend.Groups, backend.Privileges,
		access.WithClock(clock), access.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &engine{
		backend:  backend,
		tokens:   tokens,
		accounts: accounts,
		access:   accessSvc,
	}, nil
}

// resolveAccount accepts an account ID or an email address.
func (e *engine) resolveAccount(ctx context.Context, ref string) (*auth.Account, error) {
	if id, err := ulid.ParseStrict(ref); err == nil {
		account, err := e.backend.Accounts.GetByID(ctx, id)
		if err != nil {
			return nil, oops.Code("ACCOUNT_LOOKUP_FAILED").With("account", ref).Wrap(err)
		}
		return account, nil
	}
	account, err := e.backend.Accounts.GetByEmail(ctx, auth.NormalizeEmail(ref))
	if err != nil {
		return nil, oops.Code("ACCOUNT_LOOKUP_FAILED").With("account", ref).Wrap(err)
	}
	return account, nil
}

// withEngine runs fn with a bounded context and an open engine.
func (a *app) withEngine(cmd *cobra.Command, fn func(ctx context.Context, e *engine) error) error {
	ctx, cancel := a.context(cmd)
	defer cancel()

	e, err := a.openEngine(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	return fn(ctx, e)
}
