package services_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helioshr/helios/modules/org/domain/aggregates/department"
	"github.com/helioshr/helios/modules/org/domain/entities/branch"
	"github.com/helioshr/helios/modules/org/hierarchy"
	"github.com/helioshr/helios/modules/org/services"
	"github.com/helioshr/helios/pkg/accesscontrol"
	"github.com/helioshr/helios/pkg/composables"
	"github.com/helioshr/helios/pkg/eventbus"
)

// fakeTx satisfies the transaction assertion in composables.InTx so service
// flows run without a database. Nothing ever calls through it because the
// repositories below are in-memory.
type fakeTx struct {
	pgx.Tx
}

func testContext(p accesscontrol.Principal) context.Context {
	ctx := composables.WithTx(context.Background(), fakeTx{})
	return composables.WithPrincipal(ctx, p)
}

var (
	admin = accesscontrol.Principal{UserID: 1, Tier: 1}
	guest = accesscontrol.Principal{UserID: 9, Tier: 5}
)

type mockDepartmentRepo struct {
	seq        int64
	items      map[int64]*department.Department
	lastParams *department.FindParams
}

func newMockDepartmentRepo() *mockDepartmentRepo {
	return &mockDepartmentRepo{items: map[int64]*department.Department{}}
}

func (m *mockDepartmentRepo) add(d *department.Department) *department.Department {
	m.seq++
	stored := department.New(
		d.BusinessGroupID(),
		d.CompanyID(),
		d.Code(),
		d.Name(),
		department.WithID(m.seq),
		department.WithBranchID(d.BranchID()),
		department.WithParentID(d.ParentID()),
		department.WithDescription(d.Description()),
		department.WithIsActive(d.IsActive()),
	)
	m.items[m.seq] = stored
	return stored
}

func (m *mockDepartmentRepo) Count(_ context.Context, params *department.FindParams) (int64, error) {
	m.lastParams = params
	return int64(len(m.items)), nil
}

func (m *mockDepartmentRepo) GetPaginated(_ context.Context, params *department.FindParams) ([]*department.Department, error) {
	m.lastParams = params
	if params.Visibility != nil && params.Visibility.MatchesNothing() {
		return nil, nil
	}
	out := make([]*department.Department, 0, len(m.items))
	for _, d := range m.items {
		if params.Visibility == nil || params.Visibility.Matches(d.Coordinates()) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockDepartmentRepo) GetByID(_ context.Context, id int64) (*department.Department, error) {
	d, ok := m.items[id]
	if !ok {
		return nil, assert.AnError
	}
	return d, nil
}

func (m *mockDepartmentRepo) GetByIDForUpdate(ctx context.Context, id int64) (*department.Department, error) {
	return m.GetByID(ctx, id)
}

func (m *mockDepartmentRepo) GetChildren(_ context.Context, parentID int64, activeOnly bool) ([]*department.Department, error) {
	var out []*department.Department
	for _, d := range m.items {
		if d.ParentID() == parentID && (!activeOnly || d.IsActive()) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockDepartmentRepo) CountActiveChildren(_ context.Context, parentID int64) (int64, error) {
	var count int64
	for _, d := range m.items {
		if d.ParentID() == parentID && d.IsActive() {
			count++
		}
	}
	return count, nil
}

func (m *mockDepartmentRepo) Create(_ context.Context, data *department.Department) (*department.Department, error) {
	return m.add(data), nil
}

func (m *mockDepartmentRepo) Update(_ context.Context, data *department.Department) (*department.Department, error) {
	if _, ok := m.items[data.ID()]; !ok {
		return nil, assert.AnError
	}
	m.items[data.ID()] = data
	return data, nil
}

func (m *mockDepartmentRepo) Delete(_ context.Context, id int64) error {
	delete(m.items, id)
	return nil
}

type fakeBranchRepo struct {
	items map[int64]*branch.Branch
}

func newFakeBranchRepo(branches ...*branch.Branch) *fakeBranchRepo {
	f := &fakeBranchRepo{items: map[int64]*branch.Branch{}}
	for _, b := range branches {
		f.items[b.ID()] = b
	}
	return f
}

func (f *fakeBranchRepo) GetByID(_ context.Context, id int64) (*branch.Branch, error) {
	b, ok := f.items[id]
	if !ok {
		return nil, assert.AnError
	}
	return b, nil
}

func (f *fakeBranchRepo) GetByCompany(_ context.Context, companyID int64, activeOnly bool) ([]*branch.Branch, error) {
	var out []*branch.Branch
	for _, b := range f.items {
		if b.CompanyID() == companyID && (!activeOnly || b.IsActive()) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBranchRepo) Create(_ context.Context, b *branch.Branch) (*branch.Branch, error) {
	f.items[b.ID()] = b
	return b, nil
}

// staticGrants answers every override lookup with the same verdict.
type staticGrants struct {
	allowed *bool
}

func (g *staticGrants) Lookup(_ context.Context, _ int64, _, _ string) (*bool, error) {
	return g.allowed, nil
}

// departmentNodes adapts the mock repository to the hierarchy interfaces.
type departmentNodes struct {
	repo *mockDepartmentRepo
}

func (n *departmentNodes) Node(_ context.Context, id int64) (hierarchy.Node, error) {
	d, ok := n.repo.items[id]
	if !ok {
		return hierarchy.Node{}, assert.AnError
	}
	return hierarchy.Node{
		ID:              d.ID(),
		ParentID:        d.ParentID(),
		BusinessGroupID: d.BusinessGroupID(),
		CompanyID:       d.CompanyID(),
		Active:          d.IsActive(),
	}, nil
}

func (n *departmentNodes) Children(_ context.Context, id int64) ([]int64, error) {
	var out []int64
	for _, d := range n.repo.items {
		if d.ParentID() == id {
			out = append(out, d.ID())
		}
	}
	return out, nil
}

func newDepartmentService(t *testing.T, repo *mockDepartmentRepo) (*services.DepartmentService, eventbus.EventBus) {
	t.Helper()
	engine, err := accesscontrol.NewEngine(accesscontrol.Config{Matrix: accesscontrol.DefaultMatrix()})
	require.NoError(t, err)
	publisher := eventbus.NewEventPublisher(logrus.New())
	svc := services.NewDepartmentService(repo, &departmentNodes{repo: repo}, newFakeBranchRepo(), engine, publisher)
	return svc, publisher
}

func TestDepartmentService_CreateAsAdmin(t *testing.T) {
	repo := newMockDepartmentRepo()
	svc, publisher := newDepartmentService(t, repo)

	var events []*department.CreatedEvent
	publisher.Subscribe(func(e *department.CreatedEvent) { events = append(events, e) })

	created, err := svc.Create(testContext(admin), &department.CreateDTO{
		BusinessGroupID: 1,
		CompanyID:       1,
		Code:            "ENG",
		Name:            "Engineering",
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID())
	assert.True(t, created.IsCorporate())
	require.Len(t, events, 1)
	assert.Equal(t, created.ID(), events[0].Result.ID())
}

func TestDepartmentService_CreateDeniedForGuest(t *testing.T) {
	repo := newMockDepartmentRepo()
	svc, _ := newDepartmentService(t, repo)

	_, err := svc.Create(testContext(guest), &department.CreateDTO{
		BusinessGroupID: 1,
		CompanyID:       1,
		Code:            "ENG",
		Name:            "Engineering",
	})
	assert.ErrorIs(t, err, accesscontrol.ErrForbidden)
	assert.Empty(t, repo.items)
}

func TestDepartmentService_CreateDeniedOutsideManagerScope(t *testing.T) {
	repo := newMockDepartmentRepo()
	svc, _ := newDepartmentService(t, repo)

	manager := accesscontrol.Principal{
		UserID: 2,
		Tier:   2,
		Scope:  &accesscontrol.Scope{Type: accesscontrol.ScopeCompany, ID: 1},
	}
	_, err := svc.Create(testContext(manager), &department.CreateDTO{
		BusinessGroupID: 1,
		CompanyID:       2,
		Code:            "ENG",
		Name:            "Engineering",
	})
	assert.ErrorIs(t, err, accesscontrol.ErrForbidden)
}

func TestDepartmentService_MoveRejectsCycle(t *testing.T) {
	repo := newMockDepartmentRepo()
	svc, _ := newDepartmentService(t, repo)
	ctx := testContext(admin)

	root := repo.add(department.New(1, 1, "A", "Alpha"))
	child := repo.add(department.New(1, 1, "B", "Beta", department.WithParentID(root.ID())))

	parentID := child.ID()
	_, err := svc.Update(ctx, root.ID(), &department.UpdateDTO{ParentID: &parentID})
	assert.ErrorIs(t, err, services.ErrHierarchyCycle)
}

func TestDepartmentService_MoveRejectsExcessiveDepth(t *testing.T) {
	repo := newMockDepartmentRepo()
	svc, _ := newDepartmentService(t, repo)
	ctx := testContext(admin)

	// Build a chain of five edges, the maximum.
	prev := repo.add(department.New(1, 1, "D1", "Level 1"))
	for i := 2; i <= 6; i++ {
		prev = repo.add(department.New(1, 1, "D"+string(rune('0'+i)), "Level", department.WithParentID(prev.ID())))
	}
	leaf := repo.add(department.New(1, 1, "LEAF", "Leaf"))

	parentID := prev.ID()
	_, err := svc.Update(ctx, leaf.ID(), &department.UpdateDTO{ParentID: &parentID})
	assert.ErrorIs(t, err, services.ErrHierarchyTooDeep)
}

func TestDepartmentService_MoveAcrossCompaniesRejected(t *testing.T) {
	repo := newMockDepartmentRepo()
	svc, _ := newDepartmentService(t, repo)
	ctx := testContext(admin)

	ours := repo.add(department.New(1, 1, "A", "Alpha"))
	theirs := repo.add(department.New(1, 2, "B", "Beta"))
	_ = ours

	parentID := theirs.ID()
	_, err := svc.Update(ctx, ours.ID(), &department.UpdateDTO{ParentID: &parentID})
	assert.ErrorIs(t, err, services.ErrHierarchyTenantMismatch)
}

func TestDepartmentService_DeactivateWithActiveChildren(t *testing.T) {
	repo := newMockDepartmentRepo()
	svc, _ := newDepartmentService(t, repo)
	ctx := testContext(admin)

	root := repo.add(department.New(1, 1, "A", "Alpha"))
	repo.add(department.New(1, 1, "B", "Beta", department.WithParentID(root.ID())))

	_, err := svc.Deactivate(ctx, root.ID())
	assert.ErrorIs(t, err, services.ErrDepartmentHasChildren)
	assert.True(t, repo.items[root.ID()].IsActive())
}

func TestDepartmentService_DeactivateLeaf(t *testing.T) {
	repo := newMockDepartmentRepo()
	svc, publisher := newDepartmentService(t, repo)
	ctx := testContext(admin)

	var events []*department.DeactivatedEvent
	publisher.Subscribe(func(e *department.DeactivatedEvent) { events = append(events, e) })

	leaf := repo.add(department.New(1, 1, "A", "Alpha"))
	deactivated, err := svc.Deactivate(ctx, leaf.ID())
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive())
	assert.Len(t, events, 1)
}

func TestDepartmentService_ListAppliesVisibility(t *testing.T) {
	repo := newMockDepartmentRepo()
	svc, _ := newDepartmentService(t, repo)

	repo.add(department.New(1, 1, "A", "Alpha"))
	repo.add(department.New(1, 2, "B", "Beta"))

	manager := accesscontrol.Principal{
		UserID: 2,
		Tier:   2,
		Scope:  &accesscontrol.Scope{Type: accesscontrol.ScopeCompany, ID: 1},
	}
	visible, err := svc.GetPaginated(testContext(manager), &department.FindParams{})
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "A", visible[0].Code())

	none, err := svc.GetPaginated(testContext(guest), &department.FindParams{})
	require.NoError(t, err)
	assert.Empty(t, none)
	require.NotNil(t, repo.lastParams.Visibility)
	assert.True(t, repo.lastParams.Visibility.MatchesNothing())
}

func TestDepartmentService_ExplicitDenyOverridesRole(t *testing.T) {
	repo := newMockDepartmentRepo()
	deny := false
	engine, err := accesscontrol.NewEngine(accesscontrol.Config{
		Matrix: accesscontrol.DefaultMatrix(),
		Grants: &staticGrants{allowed: &deny},
	})
	require.NoError(t, err)
	svc := services.NewDepartmentService(repo, &departmentNodes{repo: repo}, newFakeBranchRepo(), engine, eventbus.NewEventPublisher(logrus.New()))

	leaf := repo.add(department.New(1, 1, "A", "Alpha"))
	ctx := composables.WithEndpoint(testContext(admin), composables.Endpoint{
		Path:   "/api/v1/departments/1",
		Method: "DELETE",
	})

	// The per-endpoint deny wins even against the unrestricted tier.
	_, err = svc.Deactivate(ctx, leaf.ID())
	assert.ErrorIs(t, err, accesscontrol.ErrForbidden)
	assert.True(t, repo.items[leaf.ID()].IsActive())
}

func TestDepartmentService_ExplicitAllowOverridesRole(t *testing.T) {
	repo := newMockDepartmentRepo()
	allow := true
	engine, err := accesscontrol.NewEngine(accesscontrol.Config{
		Matrix: accesscontrol.DefaultMatrix(),
		Grants: &staticGrants{allowed: &allow},
	})
	require.NoError(t, err)
	svc := services.NewDepartmentService(repo, &departmentNodes{repo: repo}, newFakeBranchRepo(), engine, eventbus.NewEventPublisher(logrus.New()))

	leaf := repo.add(department.New(1, 1, "A", "Alpha"))
	ctx := composables.WithEndpoint(testContext(guest), composables.Endpoint{
		Path:   "/api/v1/departments/1",
		Method: "GET",
	})

	got, err := svc.GetByID(ctx, leaf.ID())
	require.NoError(t, err)
	assert.Equal(t, leaf.ID(), got.ID())

	// Without the endpoint in context the override layer abstains and the
	// guest tier is denied as usual.
	_, err = svc.GetByID(testContext(guest), leaf.ID())
	assert.ErrorIs(t, err, accesscontrol.ErrForbidden)
}

func TestDepartmentService_BranchMustBelongToCompany(t *testing.T) {
	repo := newMockDepartmentRepo()
	branches := newFakeBranchRepo(
		branch.New(1, 1, "HQ", "Headquarters", branch.WithID(1)),
		branch.New(1, 2, "OTH", "Other Company", branch.WithID(2)),
	)
	engine, err := accesscontrol.NewEngine(accesscontrol.Config{Matrix: accesscontrol.DefaultMatrix()})
	require.NoError(t, err)
	svc := services.NewDepartmentService(repo, &departmentNodes{repo: repo}, branches, engine, eventbus.NewEventPublisher(logrus.New()))
	ctx := testContext(admin)

	_, err = svc.Create(ctx, &department.CreateDTO{
		BusinessGroupID: 1,
		CompanyID:       1,
		BranchID:        2,
		Code:            "OPS",
		Name:            "Operations",
	})
	assert.ErrorIs(t, err, services.ErrBranchCompanyConflict)
	assert.Empty(t, repo.items)

	created, err := svc.Create(ctx, &department.CreateDTO{
		BusinessGroupID: 1,
		CompanyID:       1,
		BranchID:        1,
		Code:            "OPS",
		Name:            "Operations",
	})
	require.NoError(t, err)

	// Moving the department to another company's branch is rejected too.
	branchID := int64(2)
	_, err = svc.Update(ctx, created.ID(), &department.UpdateDTO{BranchID: &branchID})
	assert.ErrorIs(t, err, services.ErrBranchCompanyConflict)
}

func TestDepartmentService_InactiveParentRejected(t *testing.T) {
	repo := newMockDepartmentRepo()
	svc, _ := newDepartmentService(t, repo)
	ctx := testContext(admin)

	parent := repo.add(department.New(1, 1, "A", "Alpha", department.WithIsActive(false)))

	_, err := svc.Create(ctx, &department.CreateDTO{
		BusinessGroupID: 1,
		CompanyID:       1,
		ParentID:        parent.ID(),
		Code:            "B",
		Name:            "Beta",
	})
	assert.ErrorIs(t, err, services.ErrHierarchyParentInactive)
}

func TestDepartmentService_SubtreeIDs(t *testing.T) {
	repo := newMockDepartmentRepo()
	svc, _ := newDepartmentService(t, repo)
	ctx := testContext(admin)

	root := repo.add(department.New(1, 1, "A", "Alpha"))
	child := repo.add(department.New(1, 1, "B", "Beta", department.WithParentID(root.ID())))
	grandchild := repo.add(department.New(1, 1, "C", "Gamma", department.WithParentID(child.ID())))

	ids, err := svc.SubtreeIDs(ctx, root.ID())
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{child.ID(), grandchild.ID()}, ids)
}
