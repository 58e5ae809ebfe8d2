// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

//go:build integration

// Package integration runs the authentication and access-control flows end
// to end against a PostgreSQL container.
package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"

	"github.com/wardenauth/warden/internal/access"
	"github.com/wardenauth/warden/internal/auth"
	"github.com/wardenauth/warden/internal/auth/authtest"
	authpg "github.com/wardenauth/warden/internal/auth/postgres"
	"github.com/wardenauth/warden/internal/store"
)

func TestIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Warden Integration Suite")
}

// testEnv holds the resources shared by the suite.
type testEnv struct {
	ctx       context.Context
	pool      *pgxpool.Pool
	container testcontainers.Container
	connStr   string
}

var env *testEnv

var _ = BeforeSuite(func() {
	var err error
	env, err = setupTestEnv()
	Expect(err).NotTo(HaveOccurred())
})

var _ = AfterSuite(func() {
	if env != nil {
		env.cleanup()
	}
})

func setupTestEnv() (*testEnv, error) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("warden_test"),
		postgres.WithUsername("warden"),
		postgres.WithPassword("warden"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		_ = container.Terminate(ctx)
		return nil, err
	}
	_ = migrator.Close()

	pool, err := store.Open(ctx, connStr, store.WithMaxConns(8))
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	return &testEnv{
		ctx:       ctx,
		pool:      pool,
		container: container,
		connStr:   connStr,
	}, nil
}

func (e *testEnv) cleanup() {
	if e.pool != nil {
		e.pool.Close()
	}
	if e.container != nil {
		_ = e.container.Terminate(e.ctx)
	}
}

// truncateAll empties every table between specs.
func truncateAll(ctx context.Context, pool *pgxpool.Pool) {
	_, err := pool.Exec(ctx, `TRUNCATE account_privileges, group_privileges, remember_tokens,
		origin_attempts, accounts, privileges, groups CASCADE`)
	Expect(err).NotTo(HaveOccurred())
}

// engine wires every service over the PostgreSQL repositories.
type engine struct {
	repos         *authpg.Repositories
	clock         *authtest.FakeClock
	settings      auth.Settings
	limiter       *auth.Limiter
	tokens        *auth.TokenManager
	authenticator *auth.Authenticator
	accounts      *auth.AccountService
	access        *access.Service
}

func newEngine(mutate func(*auth.Settings)) *engine {
	settings := auth.DefaultSettings()
	settings.BcryptCost = bcrypt.MinCost
	settings.IdentityLoginLimit = 3
	settings.OriginLoginLimit = 3
	settings.BanDuration = time.Minute
	if mutate != nil {
		mutate(&settings)
	}

	repos := authpg.NewRepositories(env.pool)
	clock := authtest.NewFakeClock(time.Now().UTC().Truncate(time.Microsecond))

	hasher, err := auth.NewPasswordHasher(settings)
	Expect(err).NotTo(HaveOccurred())
	limiter, err := auth.NewLimiter(repos.Accounts, repos.Origins, settings, clock)
	Expect(err).NotTo(HaveOccurred())
	tokens, err := auth.NewTokenManager(repos.Accounts, repos.RememberTokens, hasher, settings, clock)
	Expect(err).NotTo(HaveOccurred())
	authenticator, err := auth.NewAuthenticator(auth.AuthenticatorConfig{
		Accounts: repos.Accounts,
		Groups:   repos.Groups,
		Limiter:  limiter,
		Tokens:   tokens,
		Hasher:   hasher,
		Settings: settings,
	})
	Expect(err).NotTo(HaveOccurred())
	accounts, err := auth.NewAccountService(repos.Accounts, tokens, hasher, settings, clock)
	Expect(err).NotTo(HaveOccurred())
	accessSvc, err := access.NewService(repos.Accounts, repos.Groups, repos.Privileges, access.WithClock(clock))
	Expect(err).NotTo(HaveOccurred())

	return &engine{
		repos:         repos,
		clock:         clock,
		settings:      settings,
		limiter:       limiter,
		tokens:        tokens,
		authenticator: authenticator,
		accounts:      accounts,
		access:        accessSvc,
	}
}

// register creates an active account.
func (e *engine) register(ctx context.Context, email, password string) *auth.Account {
	account, _, err := e.accounts.CreateAccount(ctx, auth.NewAccount{
		Email:    email,
		Password: password,
		Active:   true,
	})
	Expect(err).NotTo(HaveOccurred())
	return account
}

func (e *engine) login(ctx context.Context, req auth.LoginRequest) (*auth.Session, *authtest.MapSession, *authtest.CookieJar, error) {
	sessions := authtest.NewMapSession()
	cookies := authtest.NewCookieJar()
	session, err := e.authenticator.Login(ctx, req, sessions, cookies)
	return session, sessions, cookies, err
}
