// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/wardenauth/warden/internal/store"
)

var _ = Describe("Migrator against PostgreSQL", Ordered, func() {
	var (
		ctx       context.Context
		container *postgres.PostgresContainer
		connStr   string
		migrator  *store.Migrator
	)

	BeforeAll(func() {
		ctx = context.Background()
		var err error
		container, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("warden_test"),
			postgres.WithUsername("warden"),
			postgres.WithPassword("warden"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		Expect(err).NotTo(HaveOccurred())

		connStr, err = container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())

		migrator, err = store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if migrator != nil {
			_ = migrator.Close()
		}
		if container != nil {
			_ = container.Terminate(ctx)
		}
	})

	It("starts at version zero with every migration pending", func() {
		status, err := migrator.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(status.Current).To(BeZero())
		Expect(status.Dirty).To(BeFalse())
		Expect(status.Pending).To(ContainElement(uint(1)))
	})

	It("applies every migration", func() {
		Expect(migrator.Up()).To(Succeed())
		status, err := migrator.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(status.Pending).To(BeEmpty())
		Expect(status.Current).To(BeNumerically(">=", 2))
	})

	It("opens a pool that sees the schema", func() {
		pool, err := store.Open(ctx, connStr, store.WithConnectAttempts(3))
		Expect(err).NotTo(HaveOccurred())
		defer pool.Close()

		var count int
		err = pool.QueryRow(ctx, `
			SELECT COUNT(*) FROM information_schema.tables
			WHERE table_name IN ('accounts', 'groups', 'privileges', 'origin_attempts', 'remember_tokens')
		`).Scan(&count)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(5))
	})

	It("steps back and forward one migration", func() {
		before, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())

		Expect(migrator.Steps(-1)).To(Succeed())
		version, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(before - 1))

		Expect(migrator.Steps(1)).To(Succeed())
		version, _, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(before))
	})

	It("rolls everything back and forces a version", func() {
		Expect(migrator.Down()).To(Succeed())
		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
		Expect(dirty).To(BeFalse())

		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Force(1)).To(Succeed())
		version, dirty, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(1)))
		Expect(dirty).To(BeFalse())
	})
})
