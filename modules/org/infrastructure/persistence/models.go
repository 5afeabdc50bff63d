package persistence

import (
	"time"

	"github.com/helioshr/helios/modules/org/domain/aggregates/department"
	"github.com/helioshr/helios/modules/org/domain/aggregates/employee"
	"github.com/helioshr/helios/modules/org/domain/entities/branch"
	"github.com/helioshr/helios/modules/org/domain/entities/businessgroup"
	"github.com/helioshr/helios/modules/org/domain/entities/company"
)

// Row models mirror the table shapes. Optional edges are pointers because
// the columns are nullable; the domain uses 0 for absence.

type businessGroupRow struct {
	ID        int64
	Code      string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type companyRow struct {
	ID              int64
	BusinessGroupID int64
	Code            string
	Name            string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type branchRow struct {
	ID              int64
	BusinessGroupID int64
	CompanyID       int64
	Code            string
	Name            string
	IsHeadquarters  bool
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type departmentRow struct {
	ID              int64
	BusinessGroupID int64
	CompanyID       int64
	BranchID        *int64
	ParentID        *int64
	Code            string
	Name            string
	Description     string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type employeeRow struct {
	ID              int64
	UserID          *int64
	BusinessGroupID int64
	CompanyID       int64
	BranchID        *int64
	DepartmentID    *int64
	SupervisorID    *int64
	Code            string
	FirstName       string
	LastName        string
	Email           string
	Position        string
	HiredAt         *time.Time
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func deref(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

// nullable maps the domain's zero-means-absent convention onto NULL.
func nullable(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func toDomainBusinessGroup(row *businessGroupRow) *businessgroup.BusinessGroup {
	return businessgroup.New(
		row.Code,
		row.Name,
		businessgroup.WithID(row.ID),
		businessgroup.WithIsActive(row.IsActive),
		businessgroup.WithCreatedAt(row.CreatedAt),
		businessgroup.WithUpdatedAt(row.UpdatedAt),
	)
}

func toDomainCompany(row *companyRow) *company.Company {
	return company.New(
		row.BusinessGroupID,
		row.Code,
		row.Name,
		company.WithID(row.ID),
		company.WithIsActive(row.IsActive),
		company.WithCreatedAt(row.CreatedAt),
		company.WithUpdatedAt(row.UpdatedAt),
	)
}

func toDomainBranch(row *branchRow) *branch.Branch {
	return branch.New(
		row.BusinessGroupID,
		row.CompanyID,
		row.Code,
		row.Name,
		branch.WithID(row.ID),
		branch.WithIsHeadquarters(row.IsHeadquarters),
		branch.WithIsActive(row.IsActive),
		branch.WithCreatedAt(row.CreatedAt),
		branch.WithUpdatedAt(row.UpdatedAt),
	)
}

func toDomainDepartment(row *departmentRow) *department.Department {
	return department.New(
		row.BusinessGroupID,
		row.CompanyID,
		row.Code,
		row.Name,
		department.WithID(row.ID),
		department.WithBranchID(deref(row.BranchID)),
		department.WithParentID(deref(row.ParentID)),
		department.WithDescription(row.Description),
		department.WithIsActive(row.IsActive),
		department.WithCreatedAt(row.CreatedAt),
		department.WithUpdatedAt(row.UpdatedAt),
	)
}

func toDomainEmployee(row *employeeRow) *employee.Employee {
	opts := []employee.Option{
		employee.WithID(row.ID),
		employee.WithUserID(deref(row.UserID)),
		employee.WithBranchID(deref(row.BranchID)),
		employee.WithDepartmentID(deref(row.DepartmentID)),
		employee.WithSupervisorID(deref(row.SupervisorID)),
		employee.WithEmail(row.Email),
		employee.WithPosition(row.Position),
		employee.WithIsActive(row.IsActive),
		employee.WithCreatedAt(row.CreatedAt),
		employee.WithUpdatedAt(row.UpdatedAt),
	}
	if row.HiredAt != nil {
		opts = append(opts, employee.WithHiredAt(*row.HiredAt))
	}
	return employee.New(
		row.BusinessGroupID,
		row.CompanyID,
		row.Code,
		row.FirstName,
		row.LastName,
		opts...,
	)
}
