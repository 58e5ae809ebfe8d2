// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package main

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/wardenauth/warden/internal/auth"
)

type accountCreateConfig struct {
	email    string
	password string
	group    string
	active   bool
}

func (a *app) newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
		Long: `Create accounts, toggle activation, and drive the email verification
and password reset flows. Accounts are named by ID or email address.`,
	}

	cfg := &accountCreateConfig{}
	create := &cobra.Command{
		Use:   "create",
		Short: "Register a new account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withEngine(cmd, func(ctx context.Context, e *engine) error {
				return runAccountCreate(ctx, cmd, e, cfg)
			})
		},
	}
	create.Flags().StringVar(&cfg.email, "email", "", "email address (required)")
	create.Flags().StringVar(&cfg.password, "password", "", "initial password (required)")
	create.Flags().StringVar(&cfg.group, "group", "", "group name to join")
	create.Flags().BoolVar(&cfg.active, "active", false, "create the account already active")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "activate <account>",
		Short: "Activate an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, e *engine) error {
				return setActive(ctx, cmd, e, args[0], true)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "deactivate <account>",
		Short: "Deactivate an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, e *engine) error {
				return setActive(ctx, cmd, e, args[0], false)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "verify-request <account>",
		Short: "Issue an email verification token and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, e *engine) error {
				account, err := e.resolveAccount(ctx, args[0])
				if err != nil {
					return err
				}
				token, err := e.accounts.RequestEmailVerification(ctx, account.ID)
				if err != nil {
					return err
				}
				cmd.Printf("Verification token for %s: %s\n", account.Email, token)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "verify <account> <token>",
		Short: "Confirm an email address and activate the account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, e *engine) error {
				account, err := e.resolveAccount(ctx, args[0])
				if err != nil {
					return err
				}
				if err := e.accounts.ConfirmEmail(ctx, account.ID, args[1]); err != nil {
					return err
				}
				cmd.Printf("Email confirmed for %s\n", account.Email)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset-request <email>",
		Short: "Issue a password reset token and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, e *engine) error {
				accountID, token, err := e.accounts.RequestPasswordReset(ctx, args[0])
				if err != nil {
					return err
				}
				cmd.Printf("Reset token for %s: %s\n", accountID, token)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset <account> <token> <new-password>",
		Short: "Reset a password with a reset token",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, e *engine) error {
				account, err := e.resolveAccount(ctx, args[0])
				if err != nil {
					return err
				}
				if err := e.accounts.ResetPassword(ctx, account.ID, args[1], args[2]); err != nil {
					return err
				}
				cmd.Printf("Password reset for %s; remember-me sessions revoked\n", account.Email)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "passwd <account> <new-password>",
		Short: "Set a password without a reset token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, e *engine) error {
				account, err := e.resolveAccount(ctx, args[0])
				if err != nil {
					return err
				}
				if err := e.accounts.ChangePassword(ctx, account.ID, args[1]); err != nil {
					return err
				}
				cmd.Printf("Password changed for %s\n", account.Email)
				return nil
			})
		},
	})

	return cmd
}

func runAccountCreate(ctx context.Context, cmd *cobra.Command, e *engine, cfg *accountCreateConfig) error {
	var groupID *ulid.ULID
	if cfg.group != "" {
		group, err := e.access.GroupByName(ctx, cfg.group)
		if err != nil {
			return err
		}
		groupID = &group.ID
	}

	account, token, err := e.accounts.CreateAccount(ctx, auth.NewAccount{
		Email:    cfg.email,
		Password: cfg.password,
		GroupID:  groupID,
		Active:   cfg.active,
	})
	if err != nil {
		return oops.With("operation", "create account").Wrap(err)
	}

	cmd.Printf("Created account %s (%s)\n", account.ID, account.Email)
	if token != "" {
		cmd.Printf("Verification token: %s\n", token)
	}
	return nil
}

func setActive(ctx context.Context, cmd *cobra.Command, e *engine, ref string, active bool) error {
	account, err := e.resolveAccount(ctx, ref)
	if err != nil {
		return err
	}
	if active {
		err = e.accounts.Activate(ctx, account.ID)
	} else {
		err = e.accounts.Deactivate(ctx, account.ID)
	}
	if err != nil {
		return err
	}
	state := "deactivated"
	if active {
		state = "activated"
	}
	cmd.Printf("Account %s %s\n", account.Email, state)
	return nil
}
