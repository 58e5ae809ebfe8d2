// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/wardenauth/warden/internal/store"
)

func (a *app) newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long:  `Apply, roll back and inspect the embedded PostgreSQL schema migrations.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withMigrator(cmd, func(m Migrator) error {
				cmd.Println("Running migrations...")
				if err := m.Up(); err != nil {
					return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
				}
				return printMigrationStatus(cmd, m)
			})
		},
	})

	var downAll bool
	var downSteps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations (one step by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !downAll && downSteps <= 0 {
				return oops.Code("INVALID_STEPS").Errorf("--steps must be positive, got %d", downSteps)
			}
			return a.withMigrator(cmd, func(m Migrator) error {
				var err error
				if downAll {
					cmd.Println("Rolling back all migrations...")
					err = m.Down()
				} else {
					cmd.Printf("Rolling back %d migration(s)...\n", downSteps)
					err = m.Steps(-downSteps)
				}
				if err != nil {
					return oops.Code("MIGRATION_FAILED").With("operation", "roll back migrations").Wrap(err)
				}
				return printMigrationStatus(cmd, m)
			})
		},
	}
	down.Flags().BoolVar(&downAll, "all", false, "roll back every migration")
	down.Flags().IntVar(&downSteps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withMigrator(cmd, func(m Migrator) error {
				return printMigrationStatus(cmd, m)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withMigrator(cmd, func(m Migrator) error {
				status, err := m.Status()
				if err != nil {
					return err
				}
				if status.Dirty {
					cmd.Printf("%d (dirty)\n", status.Current)
					return nil
				}
				cmd.Println(status.Current)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force <version>",
		Short: "Mark a version as applied without running it (dirty recovery)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return a.withMigrator(cmd, func(m Migrator) error {
				if err := m.Force(v); err != nil {
					return err
				}
				cmd.Printf("Forced schema version to %d\n", v)
				return nil
			})
		},
	})

	return cmd
}

func (a *app) withMigrator(cmd *cobra.Command, fn func(Migrator) error) error {
	if err := a.cfg.RequireDatabase(); err != nil {
		return err
	}
	m, err := a.deps.MigratorFactory(a.cfg.Database.URL)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			a.logger.Warn("failed to close migrator", "error", closeErr)
		}
	}()
	return fn(m)
}

func printMigrationStatus(cmd *cobra.Command, m Migrator) error {
	status, err := m.Status()
	if err != nil {
		return err
	}
	dirty := ""
	if status.Dirty {
		dirty = " (dirty)"
	}
	cmd.Printf("Current version: %d%s\n", status.Current, dirty)
	for _, v := range status.Applied {
		cmd.Printf("  [x] %s\n", migrationLabel(v))
	}
	for _, v := range status.Pending {
		cmd.Printf("  [ ] %s\n", migrationLabel(v))
	}
	return nil
}

func migrationLabel(v uint) string {
	name, err := store.MigrationName(v)
	if err != nil || name == "" {
		return fmt.Sprintf("%06d", v)
	}
	return name
}

// parseForceVersion parses a non-negative schema version.
func parseForceVersion(s string) (int, error) {
	var v int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &v); err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Errorf("version must be an integer")
	}
	if v < 0 {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Errorf("version must be non-negative, got %d", v)
	}
	return v, nil
}
