package accesscontrol_test

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helioshr/helios/pkg/accesscontrol"
)

type fakeGrants struct {
	grants map[string]bool
}

func (f *fakeGrants) Lookup(_ context.Context, userID int64, path, method string) (*bool, error) {
	allowed, ok := f.grants[path+" "+method]
	if !ok {
		return nil, nil
	}
	return &allowed, nil
}

type fakeHierarchy struct {
	paths    map[int64][]int64
	subtrees map[int64][]int64
}

func (f *fakeHierarchy) DepartmentPath(_ context.Context, id int64) ([]int64, error) {
	return f.paths[id], nil
}

func (f *fakeHierarchy) DepartmentSubtree(_ context.Context, id int64) ([]int64, error) {
	return f.subtrees[id], nil
}

func newEngine(t *testing.T, grants accesscontrol.GrantStore, hierarchy accesscontrol.HierarchySource) *accesscontrol.Engine {
	t.Helper()
	engine, err := accesscontrol.NewEngine(accesscontrol.Config{
		Matrix:    accesscontrol.DefaultMatrix(),
		Grants:    grants,
		Hierarchy: hierarchy,
	})
	require.NoError(t, err)
	return engine
}

func scoped(userID int64, tier accesscontrol.RoleTier, scopeType accesscontrol.ScopeType, scopeID int64) accesscontrol.Principal {
	return accesscontrol.Principal{
		UserID: userID,
		Tier:   tier,
		Scope:  &accesscontrol.Scope{Type: scopeType, ID: scopeID},
	}
}

func TestAuthorize_AdminUnrestricted(t *testing.T) {
	engine := newEngine(t, nil, nil)
	admin := accesscontrol.Principal{UserID: 1, Tier: 1}

	for _, action := range []accesscontrol.Action{
		accesscontrol.ActionRead,
		accesscontrol.ActionCreate,
		accesscontrol.ActionUpdate,
		accesscontrol.ActionDelete,
	} {
		require.NoError(t, engine.Authorize(context.Background(), accesscontrol.Request{
			Principal: admin,
			Action:    action,
			Target:    accesscontrol.Coordinates{CompanyID: 42},
		}))
	}
}

func TestAuthorize_GuestDenied(t *testing.T) {
	engine := newEngine(t, nil, nil)

	err := engine.Authorize(context.Background(), accesscontrol.Request{
		Principal: accesscontrol.Principal{UserID: 9, Tier: 5},
		Action:    accesscontrol.ActionRead,
	})
	assert.ErrorIs(t, err, accesscontrol.ErrForbidden)
}

func TestAuthorize_UnknownTierDenied(t *testing.T) {
	engine := newEngine(t, nil, nil)

	err := engine.Authorize(context.Background(), accesscontrol.Request{
		Principal: accesscontrol.Principal{UserID: 9, Tier: 42},
		Action:    accesscontrol.ActionRead,
	})
	assert.ErrorIs(t, err, accesscontrol.ErrForbidden)
}

func TestAuthorize_CompanyScopeContainment(t *testing.T) {
	engine := newEngine(t, nil, nil)
	manager := scoped(2, 2, accesscontrol.ScopeCompany, 10)

	require.NoError(t, engine.Authorize(context.Background(), accesscontrol.Request{
		Principal: manager,
		Action:    accesscontrol.ActionUpdate,
		Target:    accesscontrol.Coordinates{CompanyID: 10, DepartmentID: 7},
	}))

	err := engine.Authorize(context.Background(), accesscontrol.Request{
		Principal: manager,
		Action:    accesscontrol.ActionUpdate,
		Target:    accesscontrol.Coordinates{CompanyID: 11},
	})
	assert.ErrorIs(t, err, accesscontrol.ErrForbidden)
}

func TestAuthorize_ScopeDeniesUnpermittedAction(t *testing.T) {
	engine := newEngine(t, nil, nil)
	manager := scoped(2, 2, accesscontrol.ScopeCompany, 10)

	// Managers may not delete even inside their own scope.
	err := engine.Authorize(context.Background(), accesscontrol.Request{
		Principal: manager,
		Action:    accesscontrol.ActionDelete,
		Target:    accesscontrol.Coordinates{CompanyID: 10},
	})
	assert.ErrorIs(t, err, accesscontrol.ErrForbidden)
}

func TestAuthorize_BranchScopeExcludesCorporate(t *testing.T) {
	engine := newEngine(t, nil, nil)
	manager := scoped(2, 2, accesscontrol.ScopeBranch, 3)

	require.NoError(t, engine.Authorize(context.Background(), accesscontrol.Request{
		Principal: manager,
		Action:    accesscontrol.ActionRead,
		Target:    accesscontrol.Coordinates{CompanyID: 10, BranchID: 3},
	}))

	// A corporate department has no branch coordinate.
	err := engine.Authorize(context.Background(), accesscontrol.Request{
		Principal: manager,
		Action:    accesscontrol.ActionRead,
		Target:    accesscontrol.Coordinates{CompanyID: 10, DepartmentID: 8},
	})
	assert.ErrorIs(t, err, accesscontrol.ErrForbidden)
}

func TestAuthorize_DepartmentScopeSubtree(t *testing.T) {
	hierarchy := &fakeHierarchy{paths: map[int64][]int64{
		7: {7, 5, 1},
		9: {9, 2},
	}}
	engine := newEngine(t, nil, hierarchy)
	manager := scoped(2, 2, accesscontrol.ScopeDepartment, 5)

	// 7 sits under 5, 9 does not.
	require.NoError(t, engine.Authorize(context.Background(), accesscontrol.Request{
		Principal: manager,
		Action:    accesscontrol.ActionRead,
		Target:    accesscontrol.Coordinates{DepartmentID: 7},
	}))

	err := engine.Authorize(context.Background(), accesscontrol.Request{
		Principal: manager,
		Action:    accesscontrol.ActionRead,
		Target:    accesscontrol.Coordinates{DepartmentID: 9},
	})
	assert.ErrorIs(t, err, accesscontrol.ErrForbidden)
}

func TestAuthorize_SelfOnlyTier(t *testing.T) {
	engine := newEngine(t, nil, nil)
	collaborator := accesscontrol.Principal{UserID: 30, Tier: 3}

	require.NoError(t, engine.Authorize(context.Background(), accesscontrol.Request{
		Principal: collaborator,
		Action:    accesscontrol.ActionUpdate,
		Target:    accesscontrol.Coordinates{OwnerUserID: 30},
	}))

	err := engine.Authorize(context.Background(), accesscontrol.Request{
		Principal: collaborator,
		Action:    accesscontrol.ActionUpdate,
		Target:    accesscontrol.Coordinates{OwnerUserID: 31},
	})
	assert.ErrorIs(t, err, accesscontrol.ErrForbidden)

	err = engine.Authorize(context.Background(), accesscontrol.Request{
		Principal: collaborator,
		Action:    accesscontrol.ActionRead,
		Target:    accesscontrol.Coordinates{OwnerUserID: 30},
	})
	assert.ErrorIs(t, err, accesscontrol.ErrForbidden)
}

func TestAuthorize_OverrideDenyBeatsRoleAllow(t *testing.T) {
	grants := &fakeGrants{grants: map[string]bool{
		"/api/v1/departments GET": false,
	}}
	engine := newEngine(t, grants, nil)

	err := engine.Authorize(context.Background(), accesscontrol.Request{
		Principal: accesscontrol.Principal{UserID: 1, Tier: 1},
		Action:    accesscontrol.ActionRead,
		Path:      "/api/v1/departments",
		Method:    "GET",
	})
	assert.ErrorIs(t, err, accesscontrol.ErrForbidden)
}

func TestAuthorize_OverrideAllowBeatsRoleDeny(t *testing.T) {
	grants := &fakeGrants{grants: map[string]bool{
		"/api/v1/departments GET": true,
	}}
	engine := newEngine(t, grants, nil)

	require.NoError(t, engine.Authorize(context.Background(), accesscontrol.Request{
		Principal: accesscontrol.Principal{UserID: 9, Tier: 5},
		Action:    accesscontrol.ActionRead,
		Path:      "/api/v1/departments",
		Method:    "GET",
	}))
}

func TestAuthorize_OverrideBasePathFallback(t *testing.T) {
	grants := &fakeGrants{grants: map[string]bool{
		"/api/v1/departments GET": true,
	}}
	engine := newEngine(t, grants, nil)

	// No exact grant for the detail path; the base-path grant applies.
	require.NoError(t, engine.Authorize(context.Background(), accesscontrol.Request{
		Principal: accesscontrol.Principal{UserID: 9, Tier: 5},
		Action:    accesscontrol.ActionRead,
		Path:      "/api/v1/departments/123",
		Method:    "GET",
	}))
}

func TestAuthorize_ExactGrantBeatsBaseGrant(t *testing.T) {
	grants := &fakeGrants{grants: map[string]bool{
		"/api/v1/departments GET":     true,
		"/api/v1/departments/123 GET": false,
	}}
	engine := newEngine(t, grants, nil)

	err := engine.Authorize(context.Background(), accesscontrol.Request{
		Principal: accesscontrol.Principal{UserID: 1, Tier: 1},
		Action:    accesscontrol.ActionRead,
		Path:      "/api/v1/departments/123",
		Method:    "GET",
	})
	assert.ErrorIs(t, err, accesscontrol.ErrForbidden)
}

func TestNewEngine_RejectsInvalidMatrix(t *testing.T) {
	_, err := accesscontrol.NewEngine(accesscontrol.Config{Matrix: accesscontrol.Matrix{}})
	require.Error(t, err)
	assert.False(t, errors.Is(err, accesscontrol.ErrForbidden))
}
