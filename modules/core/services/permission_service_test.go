package services_test

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helioshr/helios/modules/core/domain/entities/permissiongrant"
	"github.com/helioshr/helios/modules/core/services"
	"github.com/helioshr/helios/pkg/accesscontrol"
	"github.com/helioshr/helios/pkg/eventbus"
)

// mockGrantRepo stores grants in memory and doubles as the engine's grant
// store, the same dual role the persistence implementation plays.
type mockGrantRepo struct {
	seq   int64
	items []*permissiongrant.PermissionGrant
}

func (m *mockGrantRepo) GetActiveByUser(_ context.Context, userID int64) ([]*permissiongrant.PermissionGrant, error) {
	var out []*permissiongrant.PermissionGrant
	for _, g := range m.items {
		if g.UserID() == userID && g.IsActive() {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *mockGrantRepo) Lookup(_ context.Context, userID int64, endpoint, method string) (*bool, error) {
	for i := len(m.items) - 1; i >= 0; i-- {
		g := m.items[i]
		if g.UserID() == userID && g.IsActive() && g.Endpoint() == endpoint && g.Method() == method {
			allowed := g.IsAllowed()
			return &allowed, nil
		}
	}
	return nil, nil
}

func (m *mockGrantRepo) Create(_ context.Context, grant *permissiongrant.PermissionGrant) (*permissiongrant.PermissionGrant, error) {
	m.seq++
	stored := permissiongrant.New(
		grant.UserID(),
		grant.Endpoint(),
		grant.Method(),
		grant.IsAllowed(),
		permissiongrant.WithID(m.seq),
		permissiongrant.WithGrantedBy(grant.GrantedBy()),
	)
	m.items = append(m.items, stored)
	return stored, nil
}

func (m *mockGrantRepo) DeactivateAllByUser(_ context.Context, userID int64) error {
	for _, g := range m.items {
		if g.UserID() == userID && g.IsActive() {
			g.Deactivate()
		}
	}
	return nil
}

func newPermissionService(t *testing.T, repo *mockGrantRepo) (*services.PermissionService, *accesscontrol.Engine, eventbus.EventBus) {
	t.Helper()
	matrix := accesscontrol.DefaultMatrix()
	engine, err := accesscontrol.NewEngine(accesscontrol.Config{
		Matrix: matrix,
		Grants: repo,
	})
	require.NoError(t, err)
	publisher := eventbus.NewEventPublisher(logrus.New())
	return services.NewPermissionService(repo, matrix, engine, publisher), engine, publisher
}

func TestPermissionService_ReplaceAsAdmin(t *testing.T) {
	repo := &mockGrantRepo{}
	svc, _, publisher := newPermissionService(t, repo)
	ctx := testContext(admin)

	var events []*permissiongrant.ReplacedEvent
	publisher.Subscribe(func(e *permissiongrant.ReplacedEvent) { events = append(events, e) })

	_, err := repo.Create(ctx, permissiongrant.New(7, "/api/v1/departments", "GET", true))
	require.NoError(t, err)

	created, err := svc.Replace(ctx, 7, []*permissiongrant.GrantDTO{
		{Endpoint: "/api/v1/employees", Method: "GET", IsAllowed: true},
		{Endpoint: "/api/v1/departments", Method: "DELETE", IsAllowed: false},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, int64(1), created[0].GrantedBy())

	active, err := repo.GetActiveByUser(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, active, 2)
	for _, g := range active {
		assert.NotEqual(t, "/api/v1/departments GET", g.Endpoint()+" "+g.Method())
	}

	require.Len(t, events, 1)
	assert.Equal(t, int64(7), events[0].UserID)
}

func TestPermissionService_ReplaceDeniedForScopedManager(t *testing.T) {
	repo := &mockGrantRepo{}
	svc, _, _ := newPermissionService(t, repo)

	manager := accesscontrol.Principal{
		UserID: 2,
		Tier:   2,
		Scope:  &accesscontrol.Scope{Type: accesscontrol.ScopeCompany, ID: 10},
	}
	_, err := svc.Replace(testContext(manager), 7, []*permissiongrant.GrantDTO{
		{Endpoint: "/api/v1/employees", Method: "GET", IsAllowed: true},
	})
	assert.ErrorIs(t, err, accesscontrol.ErrForbidden)
	assert.Empty(t, repo.items)
}

func TestPermissionService_ReplaceRejectsInvalidGrant(t *testing.T) {
	repo := &mockGrantRepo{}
	svc, _, _ := newPermissionService(t, repo)
	ctx := testContext(admin)

	existing, err := repo.Create(ctx, permissiongrant.New(7, "/api/v1/departments", "GET", true))
	require.NoError(t, err)

	_, err = svc.Replace(ctx, 7, []*permissiongrant.GrantDTO{
		{Endpoint: "api/v1/employees", Method: "GET", IsAllowed: true},
	})
	require.Error(t, err)
	assert.True(t, existing.IsActive())
}

func TestPermissionService_ReplacedGrantsDriveDecisions(t *testing.T) {
	repo := &mockGrantRepo{}
	svc, engine, _ := newPermissionService(t, repo)
	ctx := testContext(admin)

	_, err := svc.Replace(ctx, 9, []*permissiongrant.GrantDTO{
		{Endpoint: "/api/v1/departments", Method: "GET", IsAllowed: true},
	})
	require.NoError(t, err)

	// A guest is denied everywhere except the explicitly granted endpoint.
	guestPrincipal := accesscontrol.Principal{UserID: 9, Tier: 5}
	err = engine.Authorize(ctx, accesscontrol.Request{
		Principal: guestPrincipal,
		Action:    accesscontrol.ActionRead,
		Path:      "/api/v1/departments",
		Method:    "GET",
	})
	assert.NoError(t, err)

	err = engine.Authorize(ctx, accesscontrol.Request{
		Principal: guestPrincipal,
		Action:    accesscontrol.ActionRead,
		Path:      "/api/v1/employees",
		Method:    "GET",
	})
	assert.ErrorIs(t, err, accesscontrol.ErrForbidden)
}

func TestPermissionService_GetActiveByUser(t *testing.T) {
	repo := &mockGrantRepo{}
	svc, _, _ := newPermissionService(t, repo)
	ctx := testContext(admin)

	_, err := repo.Create(ctx, permissiongrant.New(7, "/api/v1/departments", "GET", true))
	require.NoError(t, err)

	grants, err := svc.GetActiveByUser(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, grants, 1)

	viewer := accesscontrol.Principal{
		UserID: 4,
		Tier:   4,
		Scope:  &accesscontrol.Scope{Type: accesscontrol.ScopeCompany, ID: 10},
	}
	_, err = svc.GetActiveByUser(testContext(viewer), 7)
	assert.ErrorIs(t, err, accesscontrol.ErrForbidden)
}
