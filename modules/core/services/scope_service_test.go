package services_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helioshr/helios/modules/core/domain/entities/permissiongrant"
	"github.com/helioshr/helios/modules/core/domain/entities/userscope"
	"github.com/helioshr/helios/modules/core/services"
	"github.com/helioshr/helios/pkg/accesscontrol"
	"github.com/helioshr/helios/pkg/composables"
	"github.com/helioshr/helios/pkg/eventbus"
)

type fakeTx struct {
	pgx.Tx
}

func testContext(p accesscontrol.Principal) context.Context {
	ctx := composables.WithTx(context.Background(), fakeTx{})
	return composables.WithPrincipal(ctx, p)
}

var admin = accesscontrol.Principal{UserID: 1, Tier: 1}

type mockScopeRepo struct {
	seq   int64
	items map[int64]*userscope.UserScope
}

func newMockScopeRepo() *mockScopeRepo {
	return &mockScopeRepo{items: map[int64]*userscope.UserScope{}}
}

func (m *mockScopeRepo) GetByID(_ context.Context, id int64) (*userscope.UserScope, error) {
	s, ok := m.items[id]
	if !ok {
		return nil, assert.AnError
	}
	return s, nil
}

func (m *mockScopeRepo) GetActiveByUser(_ context.Context, userID int64) ([]*userscope.UserScope, error) {
	var out []*userscope.UserScope
	for _, s := range m.items {
		if s.UserID() == userID && s.IsActive() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockScopeRepo) Create(_ context.Context, data *userscope.UserScope) (*userscope.UserScope, error) {
	m.seq++
	stored := userscope.New(
		data.UserID(),
		data.ScopeType(),
		data.ScopeID(),
		userscope.WithID(m.seq),
		userscope.WithAssignedBy(data.AssignedBy()),
	)
	m.items[m.seq] = stored
	return stored, nil
}

func (m *mockScopeRepo) Deactivate(_ context.Context, id int64) error {
	s, ok := m.items[id]
	if !ok {
		return assert.AnError
	}
	s.Deactivate()
	return nil
}

type fakeHierarchy struct {
	paths map[int64][]int64
}

func (f *fakeHierarchy) DepartmentPath(_ context.Context, id int64) ([]int64, error) {
	return f.paths[id], nil
}

func (f *fakeHierarchy) DepartmentSubtree(_ context.Context, id int64) ([]int64, error) {
	return nil, nil
}

func newScopeService(t *testing.T, repo userscope.Repository, hierarchy accesscontrol.HierarchySource) *services.ScopeService {
	t.Helper()
	engine, err := accesscontrol.NewEngine(accesscontrol.Config{
		Matrix:    accesscontrol.DefaultMatrix(),
		Hierarchy: hierarchy,
	})
	require.NoError(t, err)
	return services.NewScopeService(repo, engine, eventbus.NewEventPublisher(logrus.New()))
}

func TestScopeService_AdminAssignsAnywhere(t *testing.T) {
	repo := newMockScopeRepo()
	svc := newScopeService(t, repo, nil)

	created, err := svc.Assign(testContext(admin), &userscope.CreateDTO{
		UserID:    7,
		ScopeType: "company",
		ScopeID:   42,
	})
	require.NoError(t, err)
	assert.Equal(t, accesscontrol.ScopeCompany, created.ScopeType())
	assert.Equal(t, int64(1), created.AssignedBy())
}

func TestScopeService_ManagerDelegatesWithinOwnCompany(t *testing.T) {
	repo := newMockScopeRepo()
	svc := newScopeService(t, repo, nil)

	manager := accesscontrol.Principal{
		UserID: 2,
		Tier:   2,
		Scope:  &accesscontrol.Scope{Type: accesscontrol.ScopeCompany, ID: 10},
	}

	_, err := svc.Assign(testContext(manager), &userscope.CreateDTO{
		UserID:    7,
		ScopeType: "company",
		ScopeID:   10,
	})
	require.NoError(t, err)

	_, err = svc.Assign(testContext(manager), &userscope.CreateDTO{
		UserID:    7,
		ScopeType: "company",
		ScopeID:   11,
	})
	assert.ErrorIs(t, err, accesscontrol.ErrForbidden)
}

func TestScopeService_DepartmentManagerDelegatesSubtreeOnly(t *testing.T) {
	repo := newMockScopeRepo()
	hierarchy := &fakeHierarchy{paths: map[int64][]int64{
		7: {7, 5},
		9: {9, 2},
	}}
	svc := newScopeService(t, repo, hierarchy)

	manager := accesscontrol.Principal{
		UserID: 2,
		Tier:   2,
		Scope:  &accesscontrol.Scope{Type: accesscontrol.ScopeDepartment, ID: 5},
	}

	_, err := svc.Assign(testContext(manager), &userscope.CreateDTO{
		UserID:    7,
		ScopeType: "department",
		ScopeID:   7,
	})
	require.NoError(t, err)

	_, err = svc.Assign(testContext(manager), &userscope.CreateDTO{
		UserID:    7,
		ScopeType: "department",
		ScopeID:   9,
	})
	assert.ErrorIs(t, err, accesscontrol.ErrForbidden)
}

func TestScopeService_ViewerCannotAssign(t *testing.T) {
	repo := newMockScopeRepo()
	svc := newScopeService(t, repo, nil)

	viewer := accesscontrol.Principal{
		UserID: 4,
		Tier:   4,
		Scope:  &accesscontrol.Scope{Type: accesscontrol.ScopeCompany, ID: 10},
	}
	_, err := svc.Assign(testContext(viewer), &userscope.CreateDTO{
		UserID:    7,
		ScopeType: "company",
		ScopeID:   10,
	})
	assert.ErrorIs(t, err, accesscontrol.ErrForbidden)
	assert.Empty(t, repo.items)
}

func TestScopeService_AssignRejectsInvalidDTO(t *testing.T) {
	repo := newMockScopeRepo()
	svc := newScopeService(t, repo, nil)

	_, err := svc.Assign(testContext(admin), &userscope.CreateDTO{
		UserID:    7,
		ScopeType: "region",
		ScopeID:   10,
	})
	require.Error(t, err)
	assert.Empty(t, repo.items)
}

func TestScopeService_ExplicitDenyOverridesRole(t *testing.T) {
	repo := newMockScopeRepo()
	grants := &mockGrantRepo{}
	_, err := grants.Create(context.Background(), permissiongrant.New(1, "/api/v1/user-scopes", "POST", false))
	require.NoError(t, err)

	engine, err := accesscontrol.NewEngine(accesscontrol.Config{
		Matrix: accesscontrol.DefaultMatrix(),
		Grants: grants,
	})
	require.NoError(t, err)
	svc := services.NewScopeService(repo, engine, eventbus.NewEventPublisher(logrus.New()))

	ctx := composables.WithEndpoint(testContext(admin), composables.Endpoint{
		Path:   "/api/v1/user-scopes",
		Method: "POST",
	})
	_, err = svc.Assign(ctx, &userscope.CreateDTO{
		UserID:    7,
		ScopeType: "company",
		ScopeID:   1,
	})
	assert.ErrorIs(t, err, accesscontrol.ErrForbidden)
	assert.Empty(t, repo.items)
}

func TestScopeService_Revoke(t *testing.T) {
	repo := newMockScopeRepo()
	svc := newScopeService(t, repo, nil)

	created, err := svc.Assign(testContext(admin), &userscope.CreateDTO{
		UserID:    7,
		ScopeType: "branch",
		ScopeID:   3,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(testContext(admin), created.ID()))
	assert.False(t, repo.items[created.ID()].IsActive())
}
