package services

import (
	"github.com/go-faster/errors"

	"github.com/helioshr/helios/modules/org/hierarchy"
	"github.com/helioshr/helios/pkg/serrors"
)

var (
	ErrHierarchyCycle = serrors.NewError(
		"HIERARCHY_CYCLE",
		"the assignment would create a cycle",
	)
	ErrHierarchyTenantMismatch = serrors.NewError(
		"HIERARCHY_TENANT_MISMATCH",
		"the nodes belong to different organizations",
	)
	ErrHierarchyTooDeep = serrors.NewError(
		"HIERARCHY_DEPTH_EXCEEDED",
		"the chain would exceed the allowed depth",
	)
	ErrDepartmentHasChildren = serrors.NewError(
		"DEPARTMENT_HAS_ACTIVE_CHILDREN",
		"department still has active child departments",
	)
	ErrEmployeeHasSubordinates = serrors.NewError(
		"EMPLOYEE_HAS_ACTIVE_SUBORDINATES",
		"employee still has active subordinates",
	)
	ErrHierarchyParentInactive = serrors.NewError(
		"HIERARCHY_PARENT_INACTIVE",
		"the proposed parent is inactive",
	)
	ErrBranchCompanyConflict = serrors.NewError(
		"BRANCH_COMPANY_CONFLICT",
		"the branch belongs to a different company",
	)
)

// mapHierarchyError converts validator verdicts into stable service errors
// while passing everything else through untouched.
func mapHierarchyError(err error) error {
	if err == nil {
		return nil
	}
	var cycleErr *hierarchy.CycleError
	if errors.As(err, &cycleErr) {
		return ErrHierarchyCycle
	}
	var tenantErr *hierarchy.TenantMismatchError
	if errors.As(err, &tenantErr) {
		return ErrHierarchyTenantMismatch
	}
	var depthErr *hierarchy.DepthExceededError
	if errors.As(err, &depthErr) {
		return ErrHierarchyTooDeep
	}
	var inactiveErr *hierarchy.InactiveNodeError
	if errors.As(err, &inactiveErr) {
		return ErrHierarchyParentInactive
	}
	return err
}
