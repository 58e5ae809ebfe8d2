// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package access

import (
	"strings"
	"sync"

	"github.com/gobwas/glob"
	"github.com/samber/oops"

	"github.com/wardenauth/warden/internal/auth"
)

const (
	// privilegeSeparator splits privilege names into segments ("reports.view").
	privilegeSeparator = '.'

	maxPatternLen     = 256
	maxCachedPatterns = 512
)

// patternCache memoizes compiled privilege patterns. Once it holds
// maxCachedPatterns entries, further patterns are compiled on demand and
// not stored.
type patternCache struct {
	mu    sync.RWMutex
	globs map[string]glob.Glob
	limit int
}

func newPatternCache(limit int) *patternCache {
	return &patternCache{globs: make(map[string]glob.Glob), limit: limit}
}

func (c *patternCache) compile(pattern string) (glob.Glob, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, oops.Code("ACCESS_INVALID_PATTERN").
			With("pattern", pattern).
			Wrapf(auth.ErrInvalidArgument, "privilege pattern is empty")
	}
	if len(pattern) > maxPatternLen {
		return nil, oops.Code("ACCESS_INVALID_PATTERN").
			With("length", len(pattern)).
			Wrapf(auth.ErrInvalidArgument, "privilege pattern exceeds %d bytes", maxPatternLen)
	}

	c.mu.RLock()
	g, ok := c.globs[pattern]
	c.mu.RUnlock()
	if ok {
		return g, nil
	}

	g, err := glob.Compile(pattern, privilegeSeparator)
	if err != nil {
		return nil, oops.Code("ACCESS_INVALID_PATTERN").
			With("pattern", pattern).
			Wrapf(auth.ErrInvalidArgument, "invalid privilege pattern: %v", err)
	}

	c.mu.Lock()
	if len(c.globs) < c.limit {
		c.globs[pattern] = g
	}
	c.mu.Unlock()
	return g, nil
}

func (c *patternCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.globs)
}
