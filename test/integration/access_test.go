// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

//go:build integration

package integration_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/wardenauth/warden/internal/access"
	"github.com/wardenauth/warden/internal/auth"
)

func privilegeNames(privileges []*auth.Privilege) []string {
	names := make([]string, 0, len(privileges))
	for _, p := range privileges {
		names = append(names, p.Name)
	}
	return names
}

var _ = Describe("Access control", func() {
	var (
		ctx context.Context
		e   *engine
	)

	BeforeEach(func() {
		ctx = context.Background()
		truncateAll(ctx, env.pool)
		e = newEngine(nil)
	})

	It("marks sessions of admin group members", func() {
		admins, err := e.access.CreateGroup(ctx, "admins", "", true)
		Expect(err).NotTo(HaveOccurred())
		account := e.register(ctx, "root@example.com", "pw")
		Expect(e.access.AssignGroup(ctx, account.ID, &admins.ID)).To(Succeed())

		session, sessions, _, err := e.login(ctx, auth.LoginRequest{Email: "root@example.com", Password: "pw"})

		Expect(err).NotTo(HaveOccurred())
		Expect(session.IsAdmin).To(BeTrue())
		Expect(auth.IsAdmin(sessions)).To(BeTrue())
	})

	It("combines group and direct privileges", func() {
		staff, err := e.access.CreateGroup(ctx, "staff", "", false)
		Expect(err).NotTo(HaveOccurred())
		view, err := e.access.CreatePrivilege(ctx, "reports.sales.view", "")
		Expect(err).NotTo(HaveOccurred())
		edit, err := e.access.CreatePrivilege(ctx, "reports.sales.edit", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(e.access.GrantGroupPrivilege(ctx, staff.ID, view.ID)).To(Succeed())

		account := e.register(ctx, "lee@example.com", "pw")
		Expect(e.access.AssignGroup(ctx, account.ID, &staff.ID)).To(Succeed())
		Expect(e.access.GrantAccountPrivilege(ctx, account.ID, view.ID)).To(Succeed())
		Expect(e.access.GrantAccountPrivilege(ctx, account.ID, edit.ID)).To(Succeed())

		privileges, err := e.access.EffectivePrivileges(ctx, account.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(privilegeNames(privileges)).To(Equal([]string{
			"reports.sales.view", "reports.sales.view", "reports.sales.edit",
		}))
		Expect(privilegeNames(access.Dedupe(privileges))).To(Equal([]string{
			"reports.sales.view", "reports.sales.edit",
		}))

		ok, err := e.access.HasPrivilege(ctx, account.ID, "reports.*.edit")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		ok, err = e.access.HasPrivilege(ctx, account.ID, "billing.**")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())

		inGroup, err := e.access.InGroup(ctx, account.ID, staff.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(inGroup).To(BeTrue())
	})

	It("rejects duplicate grants and revoking missing grants", func() {
		staff, err := e.access.CreateGroup(ctx, "staff", "", false)
		Expect(err).NotTo(HaveOccurred())
		view, err := e.access.CreatePrivilege(ctx, "reports.view", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(e.access.GrantGroupPrivilege(ctx, staff.ID, view.ID)).To(Succeed())

		Expect(e.access.GrantGroupPrivilege(ctx, staff.ID, view.ID)).To(MatchError(auth.ErrConflict))
		Expect(e.access.RevokeGroupPrivilege(ctx, staff.ID, view.ID)).To(Succeed())
		Expect(e.access.RevokeGroupPrivilege(ctx, staff.ID, view.ID)).To(MatchError(auth.ErrNotFound))
	})

	It("lists the group/privilege relation with names", func() {
		staff, err := e.access.CreateGroup(ctx, "staff", "", false)
		Expect(err).NotTo(HaveOccurred())
		view, err := e.access.CreatePrivilege(ctx, "reports.view", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(e.access.GrantGroupPrivilege(ctx, staff.ID, view.ID)).To(Succeed())

		grants, err := e.access.ListGroupPrivileges(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(grants).To(HaveLen(1))
		Expect(grants[0].GroupName).To(Equal("staff"))
		Expect(grants[0].PrivilegeName).To(Equal("reports.view"))
	})
})
