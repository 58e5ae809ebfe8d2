// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

//go:build integration

package integration_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/wardenauth/warden/internal/auth"
	"github.com/wardenauth/warden/internal/auth/authtest"
)

var _ = Describe("Login", func() {
	var (
		ctx context.Context
		e   *engine
	)

	BeforeEach(func() {
		ctx = context.Background()
		truncateAll(ctx, env.pool)
		e = newEngine(nil)
	})

	Describe("password login", func() {
		It("writes a password session for valid credentials", func() {
			account := e.register(ctx, "alice@example.com", "correct horse")

			session, sessions, _, err := e.login(ctx, auth.LoginRequest{
				Email:    " ALICE@example.com",
				Password: "correct horse",
				Origin:   "192.0.2.10",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(session.AccountID).To(Equal(account.ID))
			Expect(session.ViaPassword).To(BeTrue())
			id, ok := auth.CurrentAccountID(sessions)
			Expect(ok).To(BeTrue())
			Expect(id).To(Equal(account.ID))
		})

		It("rejects an unknown email with invalid credentials", func() {
			_, _, _, err := e.login(ctx, auth.LoginRequest{Email: "ghost@example.com", Password: "x"})

			Expect(err).To(MatchError(auth.ErrInvalidCredentials))
		})

		It("resets the failure counter after a successful login", func() {
			account := e.register(ctx, "bob@example.com", "pw")
			_, _, _, err := e.login(ctx, auth.LoginRequest{Email: "bob@example.com", Password: "wrong"})
			Expect(err).To(MatchError(auth.ErrInvalidCredentials))

			stored, err := e.repos.Accounts.GetByID(ctx, account.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.FailedLogins).To(Equal(1))

			_, _, _, err = e.login(ctx, auth.LoginRequest{Email: "bob@example.com", Password: "pw"})
			Expect(err).NotTo(HaveOccurred())

			stored, err = e.repos.Accounts.GetByID(ctx, account.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.FailedLogins).To(BeZero())
		})

		It("rejects inactive accounts when activity is required", func() {
			e = newEngine(func(s *auth.Settings) { s.RequireActive = true })
			_, _, err := e.accounts.CreateAccount(ctx, auth.NewAccount{Email: "carol@example.com", Password: "pw"})
			Expect(err).NotTo(HaveOccurred())

			_, _, _, err = e.login(ctx, auth.LoginRequest{Email: "carol@example.com", Password: "pw"})

			Expect(err).To(MatchError(auth.ErrInvalidCredentials))
		})
	})

	Describe("identity lockout", func() {
		It("bans the account once the limit is reached and lifts the ban later", func() {
			e.register(ctx, "dave@example.com", "pw")
			for range e.settings.IdentityLoginLimit {
				_, _, _, err := e.login(ctx, auth.LoginRequest{Email: "dave@example.com", Password: "wrong"})
				Expect(err).To(MatchError(auth.ErrInvalidCredentials))
			}

			_, _, _, err := e.login(ctx, auth.LoginRequest{Email: "dave@example.com", Password: "pw"})
			Expect(err).To(MatchError(auth.ErrBanned))

			e.clock.Advance(e.settings.BanDuration + time.Second)
			_, _, _, err = e.login(ctx, auth.LoginRequest{Email: "dave@example.com", Password: "pw"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("bans under concurrent failures without losing updates", func() {
			e.register(ctx, "erin@example.com", "pw")

			var wg sync.WaitGroup
			for range 10 {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					_, _, _, err := e.login(ctx, auth.LoginRequest{Email: "erin@example.com", Password: "wrong"})
					Expect(err).To(Or(MatchError(auth.ErrInvalidCredentials), MatchError(auth.ErrBanned)))
				}()
			}
			wg.Wait()

			_, _, _, err := e.login(ctx, auth.LoginRequest{Email: "erin@example.com", Password: "pw"})
			Expect(err).To(MatchError(auth.ErrBanned))
		})
	})

	Describe("origin lockout", func() {
		It("bans an origin across accounts", func() {
			e.register(ctx, "frank@example.com", "pw")
			e.register(ctx, "gina@example.com", "pw")
			for range e.settings.OriginLoginLimit {
				_, _, _, err := e.login(ctx, auth.LoginRequest{
					Email: "frank@example.com", Password: "wrong", Origin: "198.51.100.7",
				})
				Expect(err).To(MatchError(auth.ErrInvalidCredentials))
			}

			_, _, _, err := e.login(ctx, auth.LoginRequest{
				Email: "gina@example.com", Password: "pw", Origin: "198.51.100.7",
			})
			Expect(err).To(MatchError(auth.ErrBanned))

			_, _, _, err = e.login(ctx, auth.LoginRequest{
				Email: "gina@example.com", Password: "pw", Origin: "198.51.100.8",
			})
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("remember me", func() {
		It("restores a session from the cookie and rotates it", func() {
			account := e.register(ctx, "hank@example.com", "pw")
			_, _, cookies, err := e.login(ctx, auth.LoginRequest{
				Email: "hank@example.com", Password: "pw", Remember: true,
			})
			Expect(err).NotTo(HaveOccurred())
			first, ok := cookies.Cookie(e.settings.RememberCookieName)
			Expect(ok).To(BeTrue())

			fresh := authtest.NewMapSession()
			state, err := e.authenticator.ResolveSession(ctx, fresh, cookies)
			Expect(err).NotTo(HaveOccurred())
			Expect(state.Kind).To(Equal(auth.SessionRemembered))
			Expect(state.Session.AccountID).To(Equal(account.ID))
			Expect(auth.ViaPassword(fresh)).To(BeFalse())

			second, ok := cookies.Cookie(e.settings.RememberCookieName)
			Expect(ok).To(BeTrue())
			Expect(second).NotTo(Equal(first))

			replay := authtest.NewCookieJar()
			replay.SetCookie(e.settings.RememberCookieName, first, e.settings.RememberLifetime)
			state, err = e.authenticator.ResolveSession(ctx, authtest.NewMapSession(), replay)
			Expect(err).NotTo(HaveOccurred())
			Expect(state.Kind).To(Equal(auth.SessionAnonymous))
			_, ok = replay.Cookie(e.settings.RememberCookieName)
			Expect(ok).To(BeFalse())
		})

		It("forgets the token on logout", func() {
			account := e.register(ctx, "ivy@example.com", "pw")
			_, sessions, cookies, err := e.login(ctx, auth.LoginRequest{
				Email: "ivy@example.com", Password: "pw", Remember: true,
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(e.authenticator.Logout(ctx, sessions, cookies)).To(Succeed())

			tokens, err := e.repos.RememberTokens.ListByAccount(ctx, account.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(tokens).To(BeEmpty())
		})

		It("purges tokens older than the remember lifetime", func() {
			e.register(ctx, "jack@example.com", "pw")
			_, _, _, err := e.login(ctx, auth.LoginRequest{
				Email: "jack@example.com", Password: "pw", Remember: true,
			})
			Expect(err).NotTo(HaveOccurred())

			e.clock.Advance(e.settings.RememberLifetime + time.Hour)
			n, err := e.tokens.PurgeExpiredRememberTokens(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeEquivalentTo(1))
		})
	})

	Describe("password reset", func() {
		It("changes the password and revokes remember tokens", func() {
			account := e.register(ctx, "kate@example.com", "old")
			_, _, _, err := e.login(ctx, auth.LoginRequest{
				Email: "kate@example.com", Password: "old", Remember: true,
			})
			Expect(err).NotTo(HaveOccurred())

			id, token, err := e.accounts.RequestPasswordReset(ctx, "kate@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal(account.ID))
			Expect(e.accounts.ResetPassword(ctx, account.ID, token, "new")).To(Succeed())

			tokens, err := e.repos.RememberTokens.ListByAccount(ctx, account.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(tokens).To(BeEmpty())

			_, _, _, err = e.login(ctx, auth.LoginRequest{Email: "kate@example.com", Password: "old"})
			Expect(err).To(MatchError(auth.ErrInvalidCredentials))
			_, _, _, err = e.login(ctx, auth.LoginRequest{Email: "kate@example.com", Password: "new"})
			Expect(err).NotTo(HaveOccurred())

			Expect(e.accounts.ResetPassword(ctx, account.ID, token, "again")).NotTo(Succeed())
		})
	})
})
