// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wardenauth/warden/internal/auth"
)

func (a *app) newGroupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage groups and their privileges",
	}

	var description string
	var admin bool
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, e *engine) error {
				group, err := e.access.CreateGroup(ctx, args[0], description, admin)
				if err != nil {
					return err
				}
				cmd.Printf("Created group %s (%s)\n", group.Name, group.ID)
				return nil
			})
		},
	}
	create.Flags().StringVar(&description, "description", "", "group description")
	create.Flags().BoolVar(&admin, "admin", false, "members of this group are administrators")
	cmd.AddCommand(create)

	var withPrivileges bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withEngine(cmd, func(ctx context.Context, e *engine) error {
				if withPrivileges {
					grants, err := e.access.ListGroupPrivileges(ctx)
					if err != nil {
						return err
					}
					return writeGroupGrants(cmd.OutOrStdout(), grants)
				}
				groups, err := e.access.ListGroups(ctx)
				if err != nil {
					return err
				}
				return writeGroups(cmd.OutOrStdout(), groups)
			})
		},
	}
	list.Flags().BoolVar(&withPrivileges, "privileges", false, "list group/privilege pairs instead")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "assign <account> <group>",
		Short: "Move an account into a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, e *engine) error {
				account, err := e.resolveAccount(ctx, args[0])
				if err != nil {
					return err
				}
				group, err := e.access.GroupByName(ctx, args[1])
				if err != nil {
					return err
				}
				if err := e.access.AssignGroup(ctx, account.ID, &group.ID); err != nil {
					return err
				}
				cmd.Printf("Account %s is now in group %s\n", account.Email, group.Name)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "unassign <account>",
		Short: "Remove an account from its group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, e *engine) error {
				account, err := e.resolveAccount(ctx, args[0])
				if err != nil {
					return err
				}
				if err := e.access.AssignGroup(ctx, account.ID, nil); err != nil {
					return err
				}
				cmd.Printf("Account %s no longer has a group\n", account.Email)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "grant <group> <privilege>",
		Short: "Grant a privilege to a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, e *engine) error {
				group, privilege, err := groupAndPrivilege(ctx, e, args[0], args[1])
				if err != nil {
					return err
				}
				if err := e.access.GrantGroupPrivilege(ctx, group.ID, privilege.ID); err != nil {
					return err
				}
				cmd.Printf("Granted %s to group %s\n", privilege.Name, group.Name)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "revoke <group> <privilege>",
		Short: "Revoke a privilege from a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, e *engine) error {
				group, privilege, err := groupAndPrivilege(ctx, e, args[0], args[1])
				if err != nil {
					return err
				}
				if err := e.access.RevokeGroupPrivilege(ctx, group.ID, privilege.ID); err != nil {
					return err
				}
				cmd.Printf("Revoked %s from group %s\n", privilege.Name, group.Name)
				return nil
			})
		},
	})

	return cmd
}

func groupAndPrivilege(ctx context.Context, e *engine, groupName, privilegeName string) (*auth.Group, *auth.Privilege, error) {
	group, err := e.access.GroupByName(ctx, groupName)
	if err != nil {
		return nil, nil, err
	}
	privilege, err := e.access.PrivilegeByName(ctx, privilegeName)
	if err != nil {
		return nil, nil, err
	}
	return group, privilege, nil
}

func writeGroups(w io.Writer, groups []*auth.Group) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tADMIN\tID\tDESCRIPTION")
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\t%t\t%s\t%s\n", g.Name, g.IsAdmin, g.ID, g.Description)
	}
	//nolint:wrapcheck // plain write error
	return tw.Flush()
}

func writeGroupGrants(w io.Writer, grants []auth.GroupGrant) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tPRIVILEGE")
	for _, g := range grants {
		fmt.Fprintf(tw, "%s\t%s\n", g.GroupName, g.PrivilegeName)
	}
	//nolint:wrapcheck // plain write error
	return tw.Flush()
}
