// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package store

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenauth/warden/pkg/errutil"
)

type fakeMigrate struct {
	upErr, downErr, stepsErr, forceErr error
	version                            uint
	dirty                              bool
	versionErr                         error
	closeSourceErr, closeDBErr         error
	forced                             int
	steps                              int
}

func (f *fakeMigrate) Up() error         { return f.upErr }
func (f *fakeMigrate) Down() error       { return f.downErr }
func (f *fakeMigrate) Steps(n int) error { f.steps = n; return f.stepsErr }
func (f *fakeMigrate) Version() (uint, bool, error) {
	return f.version, f.dirty, f.versionErr
}
func (f *fakeMigrate) Force(v int) error     { f.forced = v; return f.forceErr }
func (f *fakeMigrate) Close() (error, error) { return f.closeSourceErr, f.closeDBErr }

func TestNewMigrator_InvalidURL(t *testing.T) {
	_, err := NewMigrator("badscheme://localhost:5432/warden")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_INIT_FAILED")
}

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgres://u:p@db:5432/warden", "pgx5://u:p@db:5432/warden"},
		{"postgresql://u:p@db:5432/warden", "pgx5://u:p@db:5432/warden"},
		{"pgx5://u:p@db:5432/warden", "pgx5://u:p@db:5432/warden"},
		{"mysql://db/warden", "mysql://db/warden"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, migrateURL(tt.in))
		})
	}
}

func TestMigrator_ErrNoChangeIsSuccess(t *testing.T) {
	m := &Migrator{m: &fakeMigrate{
		upErr:    migrate.ErrNoChange,
		downErr:  migrate.ErrNoChange,
		stepsErr: migrate.ErrNoChange,
	}}
	require.NoError(t, m.Up())
	require.NoError(t, m.Down())
	require.NoError(t, m.Steps(0))
}

func TestMigrator_Failures(t *testing.T) {
	boom := errors.New("database locked")
	tests := []struct {
		name string
		call func(*Migrator) error
		code string
	}{
		{"up", func(m *Migrator) error { return m.Up() }, "MIGRATION_UP_FAILED"},
		{"down", func(m *Migrator) error { return m.Down() }, "MIGRATION_DOWN_FAILED"},
		{"steps", func(m *Migrator) error { return m.Steps(-1) }, "MIGRATION_STEPS_FAILED"},
		{"force", func(m *Migrator) error { return m.Force(1) }, "MIGRATION_FORCE_FAILED"},
		{"version", func(m *Migrator) error { _, _, err := m.Version(); return err }, "MIGRATION_VERSION_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Migrator{m: &fakeMigrate{
				upErr: boom, downErr: boom, stepsErr: boom, forceErr: boom, versionErr: boom,
			}}
			err := tt.call(m)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, tt.code)
			assert.ErrorIs(t, err, boom)
		})
	}
}

func TestMigrator_StepsPassesCount(t *testing.T) {
	fake := &fakeMigrate{}
	m := &Migrator{m: fake}
	require.NoError(t, m.Steps(-2))
	assert.Equal(t, -2, fake.steps)
}

func TestMigrator_Version(t *testing.T) {
	t.Run("reports dirty state", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{version: 2, dirty: true}}
		version, dirty, err := m.Version()
		require.NoError(t, err)
		assert.Equal(t, uint(2), version)
		assert.True(t, dirty)
	})

	t.Run("empty database is version zero", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{versionErr: migrate.ErrNilVersion}}
		version, dirty, err := m.Version()
		require.NoError(t, err)
		assert.Zero(t, version)
		assert.False(t, dirty)
	})
}

func TestMigrator_Force(t *testing.T) {
	fake := &fakeMigrate{}
	m := &Migrator{m: fake}

	require.NoError(t, m.Force(1))
	assert.Equal(t, 1, fake.forced)

	err := m.Force(-1)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "INVALID_VERSION")
}

func TestMigrator_Status(t *testing.T) {
	all, err := migrationVersions()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(all), 2)

	t.Run("fresh database has everything pending", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{versionErr: migrate.ErrNilVersion}}
		status, err := m.Status()
		require.NoError(t, err)
		assert.Zero(t, status.Current)
		assert.Empty(t, status.Applied)
		assert.Equal(t, all, status.Pending)
	})

	t.Run("partially migrated database splits versions", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{version: 1}}
		status, err := m.Status()
		require.NoError(t, err)
		assert.Equal(t, []uint{1}, status.Applied)
		assert.Equal(t, all[1:], status.Pending)
	})

	t.Run("fully migrated database has nothing pending", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{version: all[len(all)-1]}}
		status, err := m.Status()
		require.NoError(t, err)
		assert.Equal(t, all, status.Applied)
		assert.Empty(t, status.Pending)
	})

	t.Run("version failure carries operation", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{versionErr: errors.New("connection lost")}}
		_, err := m.Status()
		require.Error(t, err)
		errutil.AssertErrorContext(t, err, "operation", "migration status")
	})
}

func TestMigrator_Close(t *testing.T) {
	tests := []struct {
		name      string
		fake      *fakeMigrate
		component string
	}{
		{"source", &fakeMigrate{closeSourceErr: errors.New("source close failed")}, "source"},
		{"database", &fakeMigrate{closeDBErr: errors.New("db close failed")}, "database"},
		{"both", &fakeMigrate{
			closeSourceErr: errors.New("source close failed"),
			closeDBErr:     errors.New("db close failed"),
		}, "both"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&Migrator{m: tt.fake}).Close()
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "MIGRATION_CLOSE_FAILED")
			errutil.AssertErrorContext(t, err, "component", tt.component)
		})
	}

	require.NoError(t, (&Migrator{m: &fakeMigrate{}}).Close())
}

func TestMigrationName(t *testing.T) {
	name, err := MigrationName(1)
	require.NoError(t, err)
	assert.Equal(t, "000001_initial", name)

	name, err = MigrationName(2)
	require.NoError(t, err)
	assert.Equal(t, "000002_grant_indexes", name)

	name, err = MigrationName(999)
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestMigrationVersions_ReturnsCopy(t *testing.T) {
	first, err := migrationVersions()
	require.NoError(t, err)
	require.NotEmpty(t, first)

	original := first[0]
	first[0] = 99999

	second, err := migrationVersions()
	require.NoError(t, err)
	assert.Equal(t, original, second[0])
}
