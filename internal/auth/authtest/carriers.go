// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package authtest

import (
	"sync"
	"time"
)

// FakeClock is a Clock whose time only moves when told to.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a FakeClock set to start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the clock's current time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// MapSession is a map-backed SessionCarrier.
type MapSession struct {
	Values    map[string]any
	Destroyed bool
}

// NewMapSession creates an empty MapSession.
func NewMapSession() *MapSession {
	return &MapSession{Values: make(map[string]any)}
}

// Get returns the value stored under key.
func (s *MapSession) Get(key string) (any, bool) {
	v, ok := s.Values[key]
	return v, ok
}

// Set stores value under key.
func (s *MapSession) Set(key string, value any) {
	s.Values[key] = value
}

// Destroy removes every value.
func (s *MapSession) Destroy() {
	s.Values = make(map[string]any)
	s.Destroyed = true
}

// CookieJar is a map-backed CookieCarrier that also remembers max-ages.
type CookieJar struct {
	Values  map[string]string
	MaxAges map[string]time.Duration
}

// NewCookieJar creates an empty CookieJar.
func NewCookieJar() *CookieJar {
	return &CookieJar{
		Values:  make(map[string]string),
		MaxAges: make(map[string]time.Duration),
	}
}

// Cookie returns the value of the named cookie.
func (j *CookieJar) Cookie(name string) (string, bool) {
	v, ok := j.Values[name]
	return v, ok
}

// SetCookie stores a cookie.
func (j *CookieJar) SetCookie(name, value string, maxAge time.Duration) {
	j.Values[name] = value
	j.MaxAges[name] = maxAge
}

// ClearCookie removes a cookie.
func (j *CookieJar) ClearCookie(name string) {
	delete(j.Values, name)
	delete(j.MaxAges, name)
}
