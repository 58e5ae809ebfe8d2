// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wardenauth/warden/internal/access"
	"github.com/wardenauth/warden/internal/auth"
)

func (a *app) newPrivilegeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "privilege",
		Short: "Manage privileges and direct grants to accounts",
	}

	var description string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a privilege",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, e *engine) error {
				privilege, err := e.access.CreatePrivilege(ctx, args[0], description)
				if err != nil {
					return err
				}
				cmd.Printf("Created privilege %s (%s)\n", privilege.Name, privilege.ID)
				return nil
			})
		},
	}
	create.Flags().StringVar(&description, "description", "", "privilege description")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List privileges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withEngine(cmd, func(ctx context.Context, e *engine) error {
				privileges, err := e.access.ListPrivileges(ctx)
				if err != nil {
					return err
				}
				return writePrivileges(cmd.OutOrStdout(), privileges)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "grant <account> <privilege>",
		Short: "Grant a privilege directly to an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, e *engine) error {
				account, privilege, err := accountAndPrivilege(ctx, e, args[0], args[1])
				if err != nil {
					return err
				}
				if err := e.access.GrantAccountPrivilege(ctx, account.ID, privilege.ID); err != nil {
					return err
				}
				cmd.Printf("Granted %s to %s\n", privilege.Name, account.Email)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "revoke <account> <privilege>",
		Short: "Revoke a direct privilege from an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, e *engine) error {
				account, privilege, err := accountAndPrivilege(ctx, e, args[0], args[1])
				if err != nil {
					return err
				}
				if err := e.access.RevokeAccountPrivilege(ctx, account.ID, privilege.ID); err != nil {
					return err
				}
				cmd.Printf("Revoked %s from %s\n", privilege.Name, account.Email)
				return nil
			})
		},
	})

	var dedupe bool
	listAccount := &cobra.Command{
		Use:   "list-account <account>",
		Short: "List the effective privileges of an account",
		Long: `List the privileges an account holds through its group followed by
its direct grants. A privilege held both ways is listed twice unless
--dedupe is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, e *engine) error {
				account, err := e.resolveAccount(ctx, args[0])
				if err != nil {
					return err
				}
				privileges, err := e.access.EffectivePrivileges(ctx, account.ID)
				if err != nil {
					return err
				}
				if dedupe {
					privileges = access.Dedupe(privileges)
				}
				return writePrivileges(cmd.OutOrStdout(), privileges)
			})
		},
	}
	listAccount.Flags().BoolVar(&dedupe, "dedupe", false, "list each privilege once")
	cmd.AddCommand(listAccount)

	cmd.AddCommand(&cobra.Command{
		Use:   "check <account> <pattern>",
		Short: "Check whether an account holds a privilege matching a glob pattern",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, e *engine) error {
				account, err := e.resolveAccount(ctx, args[0])
				if err != nil {
					return err
				}
				ok, err := e.access.HasPrivilege(ctx, account.ID, args[1])
				if err != nil {
					return err
				}
				if ok {
					cmd.Printf("%s holds %s\n", account.Email, args[1])
				} else {
					cmd.Printf("%s does not hold %s\n", account.Email, args[1])
				}
				return nil
			})
		},
	})

	return cmd
}

func accountAndPrivilege(ctx context.Context, e *engine, accountRef, privilegeName string) (*auth.Account, *auth.Privilege, error) {
	account, err := e.resolveAccount(ctx, accountRef)
	if err != nil {
		return nil, nil, err
	}
	privilege, err := e.access.PrivilegeByName(ctx, privilegeName)
	if err != nil {
		return nil, nil, err
	}
	return account, privilege, nil
}

func writePrivileges(w io.Writer, privileges []*auth.Privilege) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tID\tDESCRIPTION")
	for _, p := range privileges {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, p.ID, p.Description)
	}
	//nolint:wrapcheck // plain write error
	return tw.Flush()
}
