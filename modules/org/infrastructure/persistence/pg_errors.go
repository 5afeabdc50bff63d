package persistence

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/helioshr/helios/pkg/serrors"
)

var (
	ErrBusinessGroupNotFound = serrors.NewError("BUSINESS_GROUP_NOT_FOUND", "business group not found")
	ErrCompanyNotFound       = serrors.NewError("COMPANY_NOT_FOUND", "company not found")
	ErrBranchNotFound        = serrors.NewError("BRANCH_NOT_FOUND", "branch not found")
	ErrDepartmentNotFound    = serrors.NewError("DEPARTMENT_NOT_FOUND", "department not found")
	ErrEmployeeNotFound      = serrors.NewError("EMPLOYEE_NOT_FOUND", "employee not found")

	ErrDepartmentCodeTaken = serrors.NewError("DEPARTMENT_CODE_TAKEN", "department code already used in this company")
	ErrEmployeeCodeTaken   = serrors.NewError("EMPLOYEE_CODE_TAKEN", "employee code already used in this company")
	ErrHeadquartersExists  = serrors.NewError("HEADQUARTERS_EXISTS", "company already has a headquarters branch")
	ErrRelatedNotFound     = serrors.NewError("RELATED_ENTITY_NOT_FOUND", "referenced entity does not exist")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// mapPgError translates database constraint violations into stable service
// errors keyed by constraint name, so callers never parse driver messages.
func mapPgError(err error, notFound *serrors.BaseError) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		switch pgErr.ConstraintName {
		case "departments_company_id_code_key":
			return ErrDepartmentCodeTaken
		case "employees_company_id_code_key":
			return ErrEmployeeCodeTaken
		case "branches_company_headquarters_idx":
			return ErrHeadquartersExists
		}
	case pgForeignKeyViolation:
		return ErrRelatedNotFound
	}
	return err
}
