// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package main

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/wardenauth/warden/internal/config"
	"github.com/wardenauth/warden/internal/xdg"
)

func (a *app) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Long: `Print the configuration after defaults, the config file, the environment
and flags are applied. The database password is masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.cfg.Write(cmd.OutOrStdout())
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Long: `Write the default configuration to --config, or to
$XDG_CONFIG_HOME/warden/config.yaml when --config is not given.`,
		Args: cobra.NoArgs,
		// The target file may not exist or parse yet, so skip loading it.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runConfigInit(cmd, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)

	cmd.AddCommand(&cobra.Command{
		Use:               "schema",
		Short:             "Print the JSON Schema of the config file",
		Args:              cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := config.Schema()
			if err != nil {
				return err
			}
			cmd.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate [file]",
		Short: "Check a config file against the schema and the setting rules",
		Long: `Check a config file. Without an argument the --config file, or the XDG
default file, is checked.`,
		Args:              cobra.MaximumNArgs(1),
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath()
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return oops.Code("CONFIG_NO_FILE").Errorf("no config file given and none found")
			}
			if _, err := config.Load(cmd.Context(), config.WithFile(path), config.WithLookuper(emptyLookuper{})); err != nil {
				return err
			}
			cmd.Printf("%s is valid\n", path)
			return nil
		},
	})

	return cmd
}

// emptyLookuper hides the environment so only the file is checked.
type emptyLookuper struct{}

func (emptyLookuper) Lookup(string) (string, bool) { return "", false }

func (a *app) runConfigInit(cmd *cobra.Command, force bool) error {
	path := a.configFile
	if path == "" {
		var err error
		if path, err = xdg.ConfigFile(a.deps.Env); err != nil {
			return err
		}
	}

	exists, err := xdg.Exists(path)
	if err != nil {
		return err
	}
	if exists && !force {
		return oops.Code("CONFIG_EXISTS").With("path", path).Errorf("config file already exists (use --force to overwrite)")
	}
	if err := xdg.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return oops.Code("CONFIG_WRITE_FAILED").With("path", path).Wrap(err)
	}
	defaults := config.Default()
	if err := defaults.Write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return oops.Code("CONFIG_WRITE_FAILED").With("path", path).Wrap(err)
	}

	cmd.Printf("Wrote default configuration to %s\n", path)
	return nil
}
