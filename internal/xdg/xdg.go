// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

// Package xdg resolves the XDG Base Directory locations used by warden.
package xdg

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"github.com/sethvargo/go-envconfig"
)

const appName = "warden"

// ConfigFileName is the file looked up inside ConfigDir.
const ConfigFileName = "config.yaml"

// ConfigDir returns the XDG config directory for warden.
// Checks XDG_CONFIG_HOME first, falls back to $HOME/.config.
func ConfigDir(env envconfig.Lookuper) (string, error) {
	if env == nil {
		env = envconfig.OsLookuper()
	}
	if base, ok := env.Lookup("XDG_CONFIG_HOME"); ok && base != "" {
		return filepath.Join(base, appName), nil
	}
	home, ok := env.Lookup("HOME")
	if !ok || home == "" {
		return "", oops.Code("XDG_NO_HOME").Errorf("neither XDG_CONFIG_HOME nor HOME is set")
	}
	return filepath.Join(home, ".config", appName), nil
}

// ConfigFile returns the default config file path.
func ConfigFile(env envconfig.Lookuper) (string, error) {
	dir, err := ConfigDir(env)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// ExistingConfigFile returns the default config file path when the file
// exists. A missing file or unresolvable directory reports false.
func ExistingConfigFile(env envconfig.Lookuper) (string, bool) {
	path, err := ConfigFile(env)
	if err != nil {
		return "", false
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

// Exists reports whether path exists.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, oops.With("path", path).Wrap(err)
}

// EnsureDir creates a directory and all parent directories if they don't exist.
// Directories are created with 0700 permissions.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return oops.Code("XDG_MKDIR_FAILED").With("path", path).Wrap(err)
	}
	return nil
}
