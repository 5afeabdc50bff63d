package server

import (
	"context"

	"github.com/sirupsen/logrus"

	corepersistence "github.com/helioshr/helios/modules/core/infrastructure/persistence"
	"github.com/helioshr/helios/modules/core/domain/entities/userscope"
	"github.com/helioshr/helios/modules/org/domain/aggregates/department"
	"github.com/helioshr/helios/modules/org/domain/aggregates/employee"
	"github.com/helioshr/helios/modules/org/domain/entities/branch"
	"github.com/helioshr/helios/modules/org/domain/entities/businessgroup"
	"github.com/helioshr/helios/modules/org/domain/entities/company"
	orgpersistence "github.com/helioshr/helios/modules/org/infrastructure/persistence"
	"github.com/helioshr/helios/pkg/accesscontrol"
	"github.com/helioshr/helios/pkg/composables"
)

// Seed populates an empty database with a small demonstration org: one
// business group, one company with a headquarters branch, a three-level
// department tree and a short reporting chain. User 1 gets a company scope.
func Seed(ctx context.Context, logger *logrus.Logger) error {
	groups := orgpersistence.NewBusinessGroupRepository()
	companies := orgpersistence.NewCompanyRepository()
	branches := orgpersistence.NewBranchRepository()
	departments := orgpersistence.NewDepartmentRepository()
	employees := orgpersistence.NewEmployeeRepository()
	scopes := corepersistence.NewUserScopeRepository()

	return composables.InTx(ctx, func(txCtx context.Context) error {
		group, err := groups.Create(txCtx, businessgroup.New("ACME", "Acme Group"))
		if err != nil {
			return err
		}
		co, err := companies.Create(txCtx, company.New(group.ID(), "ACME-TECH", "Acme Technologies"))
		if err != nil {
			return err
		}
		hq, err := branches.Create(txCtx, branch.New(
			group.ID(), co.ID(), "HQ", "Headquarters",
			branch.WithIsHeadquarters(true),
		))
		if err != nil {
			return err
		}

		eng, err := departments.Create(txCtx, department.New(group.ID(), co.ID(), "ENG", "Engineering"))
		if err != nil {
			return err
		}
		platform, err := departments.Create(txCtx, department.New(
			group.ID(), co.ID(), "ENG-PLAT", "Platform",
			department.WithParentID(eng.ID()),
			department.WithBranchID(hq.ID()),
		))
		if err != nil {
			return err
		}
		if _, err := departments.Create(txCtx, department.New(
			group.ID(), co.ID(), "ENG-PLAT-SRE", "Site Reliability",
			department.WithParentID(platform.ID()),
			department.WithBranchID(hq.ID()),
		)); err != nil {
			return err
		}

		head, err := employees.Create(txCtx, employee.New(
			group.ID(), co.ID(), "E-0001", "Dana", "Reyes",
			employee.WithUserID(1),
			employee.WithDepartmentID(eng.ID()),
			employee.WithPosition("Head of Engineering"),
		))
		if err != nil {
			return err
		}
		lead, err := employees.Create(txCtx, employee.New(
			group.ID(), co.ID(), "E-0002", "Ilya", "Petrov",
			employee.WithDepartmentID(platform.ID()),
			employee.WithBranchID(hq.ID()),
			employee.WithSupervisorID(head.ID()),
			employee.WithPosition("Platform Lead"),
		))
		if err != nil {
			return err
		}
		if _, err := employees.Create(txCtx, employee.New(
			group.ID(), co.ID(), "E-0003", "Mira", "Okafor",
			employee.WithDepartmentID(platform.ID()),
			employee.WithBranchID(hq.ID()),
			employee.WithSupervisorID(lead.ID()),
			employee.WithPosition("Engineer"),
		)); err != nil {
			return err
		}

		if _, err := scopes.Create(txCtx, userscope.New(
			1, accesscontrol.ScopeCompany, co.ID(),
		)); err != nil {
			return err
		}

		logger.WithFields(logrus.Fields{
			"business_group": group.ID(),
			"company":        co.ID(),
		}).Info("seed data created")
		return nil
	})
}
