// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenauth/warden/pkg/errutil"
)

type flakyPinger struct {
	failures int
	calls    int
}

func (p *flakyPinger) Ping(context.Context) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("connection refused")
	}
	return nil
}

func testOptions(attempts uint64, logger *slog.Logger) openOptions {
	return openOptions{attempts: attempts, backoff: time.Millisecond, logger: logger}
}

func TestWaitForDatabase_SucceedsAfterRetries(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	db := &flakyPinger{failures: 2}

	err := waitForDatabase(context.Background(), db, testOptions(5, logger))
	require.NoError(t, err)
	assert.Equal(t, 3, db.calls)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "database not ready", entry["msg"])
	assert.InDelta(t, 1, entry["attempt"], 0)
}

func TestWaitForDatabase_GivesUp(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	db := &flakyPinger{failures: 100}

	err := waitForDatabase(context.Background(), db, testOptions(3, logger))
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "STORE_CONNECT_FAILED")
	errutil.AssertErrorContext(t, err, "attempts", 3)
	assert.Equal(t, 3, db.calls)
}

func TestWaitForDatabase_SingleAttempt(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	db := &flakyPinger{failures: 1}

	err := waitForDatabase(context.Background(), db, testOptions(1, logger))
	require.Error(t, err)
	assert.Equal(t, 1, db.calls)
}

func TestWaitForDatabase_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	db := &flakyPinger{failures: 100}

	opts := testOptions(10, logger)
	opts.backoff = time.Hour
	err := waitForDatabase(ctx, db, opts)
	require.Error(t, err)
	assert.LessOrEqual(t, db.calls, 1)
}

func TestOpen_InvalidDSN(t *testing.T) {
	_, err := Open(context.Background(), "postgres://%zz")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "STORE_INVALID_DSN")
}
