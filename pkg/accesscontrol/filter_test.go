package accesscontrol_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helioshr/helios/pkg/accesscontrol"
)

var testColumns = map[accesscontrol.Field]string{
	accesscontrol.FieldBusinessGroup: "business_group_id",
	accesscontrol.FieldCompany:       "company_id",
	accesscontrol.FieldBranch:        "branch_id",
	accesscontrol.FieldDepartment:    "department_id",
	accesscontrol.FieldOwnerUser:     "user_id",
}

func TestFilter_MatchAllRendersNothing(t *testing.T) {
	f := accesscontrol.MatchAll()
	assert.True(t, f.IsUnrestricted())

	conditions, args, err := f.ToSQL(testColumns, 1)
	require.NoError(t, err)
	assert.Empty(t, conditions)
	assert.Empty(t, args)
}

func TestFilter_MatchNoneRendersFalse(t *testing.T) {
	f := accesscontrol.MatchNone()
	assert.True(t, f.MatchesNothing())

	conditions, _, err := f.ToSQL(testColumns, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"FALSE"}, conditions)
	assert.False(t, f.Matches(accesscontrol.Coordinates{CompanyID: 1}))
}

func TestFilter_ToSQL(t *testing.T) {
	f := accesscontrol.MatchAll().
		And(accesscontrol.Constraint{Field: accesscontrol.FieldCompany, Values: []int64{10}}).
		And(accesscontrol.Constraint{Field: accesscontrol.FieldDepartment, Values: []int64{5, 6, 7}})

	conditions, args, err := f.ToSQL(testColumns, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"company_id = $3", "department_id = ANY($4)"}, conditions)
	require.Len(t, args, 2)
	assert.Equal(t, int64(10), args[0])
	assert.Equal(t, []int64{5, 6, 7}, args[1])
}

func TestFilter_ToSQLUnknownField(t *testing.T) {
	f := accesscontrol.MatchAll().
		And(accesscontrol.Constraint{Field: accesscontrol.FieldBranch, Values: []int64{1}})

	_, _, err := f.ToSQL(map[accesscontrol.Field]string{}, 1)
	require.Error(t, err)
}

func TestFilter_AndOnlyNarrows(t *testing.T) {
	f := accesscontrol.MatchAll().
		And(accesscontrol.Constraint{Field: accesscontrol.FieldCompany, Values: []int64{10}})

	// An empty constraint is a no-op, never a widening.
	f = f.And(accesscontrol.Constraint{Field: accesscontrol.FieldBranch})

	assert.True(t, f.Matches(accesscontrol.Coordinates{CompanyID: 10}))
	assert.False(t, f.Matches(accesscontrol.Coordinates{CompanyID: 11}))

	f = f.And(accesscontrol.Constraint{Field: accesscontrol.FieldBranch, Values: []int64{2}})
	assert.False(t, f.Matches(accesscontrol.Coordinates{CompanyID: 10, BranchID: 3}))
	assert.True(t, f.Matches(accesscontrol.Coordinates{CompanyID: 10, BranchID: 2}))
}

func TestBuildFilter_Unrestricted(t *testing.T) {
	engine := newEngine(t, nil, nil)

	f, err := engine.BuildFilter(context.Background(), accesscontrol.Principal{UserID: 1, Tier: 1})
	require.NoError(t, err)
	assert.True(t, f.IsUnrestricted())
}

func TestBuildFilter_SelfOnly(t *testing.T) {
	engine := newEngine(t, nil, nil)

	f, err := engine.BuildFilter(context.Background(), accesscontrol.Principal{UserID: 30, Tier: 3})
	require.NoError(t, err)
	assert.True(t, f.Matches(accesscontrol.Coordinates{OwnerUserID: 30}))
	assert.False(t, f.Matches(accesscontrol.Coordinates{OwnerUserID: 31}))
}

func TestBuildFilter_ScopedTierWithoutScope(t *testing.T) {
	engine := newEngine(t, nil, nil)

	f, err := engine.BuildFilter(context.Background(), accesscontrol.Principal{UserID: 2, Tier: 2})
	require.NoError(t, err)
	assert.True(t, f.MatchesNothing())
}

func TestBuildFilter_UnknownTier(t *testing.T) {
	engine := newEngine(t, nil, nil)

	f, err := engine.BuildFilter(context.Background(), accesscontrol.Principal{UserID: 2, Tier: 42})
	require.NoError(t, err)
	assert.True(t, f.MatchesNothing())
}

func TestBuildFilter_CompanyScope(t *testing.T) {
	engine := newEngine(t, nil, nil)

	f, err := engine.BuildFilter(context.Background(), scoped(2, 2, accesscontrol.ScopeCompany, 10))
	require.NoError(t, err)

	conditions, args, err := f.ToSQL(testColumns, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"company_id = $1"}, conditions)
	assert.Equal(t, []any{int64(10)}, args)
}

func TestBuildFilter_DepartmentScopeExpandsSubtree(t *testing.T) {
	hierarchy := &fakeHierarchy{subtrees: map[int64][]int64{
		5: {5, 7, 8},
	}}
	engine := newEngine(t, nil, hierarchy)

	f, err := engine.BuildFilter(context.Background(), scoped(2, 2, accesscontrol.ScopeDepartment, 5))
	require.NoError(t, err)

	assert.True(t, f.Matches(accesscontrol.Coordinates{DepartmentID: 7}))
	assert.False(t, f.Matches(accesscontrol.Coordinates{DepartmentID: 9}))
}
