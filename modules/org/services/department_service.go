package services

import (
	"context"

	"github.com/helioshr/helios/modules/org/domain/aggregates/department"
	"github.com/helioshr/helios/modules/org/domain/entities/branch"
	"github.com/helioshr/helios/modules/org/hierarchy"
	"github.com/helioshr/helios/pkg/accesscontrol"
	"github.com/helioshr/helios/pkg/composables"
	"github.com/helioshr/helios/pkg/eventbus"
)

// DepartmentService guards every department operation with an authorization
// decision and every edge write with a hierarchy walk. Edge writes lock the
// affected row and validate inside the same transaction, so two concurrent
// moves cannot stitch a cycle together.
type DepartmentService struct {
	repo      department.Repository
	branches  branch.Repository
	nodes     interface {
		hierarchy.NodeSource
		hierarchy.ChildSource
	}
	validator *hierarchy.Validator
	engine    *accesscontrol.Engine
	publisher eventbus.EventBus
}

func NewDepartmentService(
	repo department.Repository,
	nodes interface {
		hierarchy.NodeSource
		hierarchy.ChildSource
	},
	branches branch.Repository,
	engine *accesscontrol.Engine,
	publisher eventbus.EventBus,
) *DepartmentService {
	return &DepartmentService{
		repo:      repo,
		branches:  branches,
		nodes:     nodes,
		validator: hierarchy.NewValidator(nodes, hierarchy.WithMaxDepth(department.MaxChainDepth)),
		engine:    engine,
		publisher: publisher,
	}
}

func (s *DepartmentService) Count(ctx context.Context, params *department.FindParams) (int64, error) {
	if err := s.applyVisibility(ctx, params); err != nil {
		return 0, err
	}
	return s.repo.Count(ctx, params)
}

func (s *DepartmentService) GetPaginated(ctx context.Context, params *department.FindParams) ([]*department.Department, error) {
	if err := s.applyVisibility(ctx, params); err != nil {
		return nil, err
	}
	return s.repo.GetPaginated(ctx, params)
}

func (s *DepartmentService) GetByID(ctx context.Context, id int64) (*department.Department, error) {
	entity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, accesscontrol.ActionRead, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

func (s *DepartmentService) GetChildren(ctx context.Context, parentID int64, activeOnly bool) ([]*department.Department, error) {
	if _, err := s.GetByID(ctx, parentID); err != nil {
		return nil, err
	}
	return s.repo.GetChildren(ctx, parentID, activeOnly)
}

// HierarchyPath returns the chain from the department up to its corporate
// root, the department itself first.
func (s *DepartmentService) HierarchyPath(ctx context.Context, id int64) ([]*department.Department, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	nodes, err := s.validator.AncestorPath(ctx, id)
	if err != nil {
		return nil, mapHierarchyError(err)
	}
	out := make([]*department.Department, 0, len(nodes))
	for _, node := range nodes {
		entity, err := s.repo.GetByID(ctx, node.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}

// SubtreeIDs returns every descendant of the department in breadth-first
// order, the department itself excluded.
func (s *DepartmentService) SubtreeIDs(ctx context.Context, id int64) ([]int64, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return hierarchy.CollectDescendants(ctx, s.nodes, id)
}

func (s *DepartmentService) Create(ctx context.Context, dto *department.CreateDTO) (*department.Department, error) {
	entity, err := dto.ToEntity()
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, accesscontrol.ActionCreate, entity); err != nil {
		return nil, err
	}

	created, err := composables.InTxResult(ctx, func(txCtx context.Context) (*department.Department, error) {
		if err := s.validateBranch(txCtx, entity); err != nil {
			return nil, err
		}
		if entity.ParentID() != 0 {
			if err := s.validateParent(txCtx, entity, entity.ParentID()); err != nil {
				return nil, err
			}
		}
		return s.repo.Create(txCtx, entity)
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(department.NewCreatedEvent(created))
	return created, nil
}

func (s *DepartmentService) Update(ctx context.Context, id int64, dto *department.UpdateDTO) (*department.Department, error) {
	var moved bool
	var oldParentID int64

	updated, err := composables.InTxResult(ctx, func(txCtx context.Context) (*department.Department, error) {
		entity, err := s.repo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return nil, err
		}
		if err := s.authorize(txCtx, accesscontrol.ActionUpdate, entity); err != nil {
			return nil, err
		}

		oldParentID = entity.ParentID()
		oldBranchID := entity.BranchID()
		if err := dto.Apply(entity); err != nil {
			return nil, err
		}

		if entity.BranchID() != oldBranchID {
			if err := s.validateBranch(txCtx, entity); err != nil {
				return nil, err
			}
		}
		if entity.ParentID() != oldParentID && entity.ParentID() != 0 {
			if err := s.validateParent(txCtx, entity, entity.ParentID()); err != nil {
				return nil, err
			}
		}
		moved = entity.ParentID() != oldParentID
		return s.repo.Update(txCtx, entity)
	})
	if err != nil {
		return nil, err
	}

	if moved {
		s.publisher.Publish(department.NewMovedEvent(updated, oldParentID))
	} else {
		s.publisher.Publish(department.NewUpdatedEvent(updated))
	}
	return updated, nil
}

// Deactivate soft-deletes the department. It refuses while active children
// remain so the tree never silently orphans a subtree.
func (s *DepartmentService) Deactivate(ctx context.Context, id int64) (*department.Department, error) {
	deactivated, err := composables.InTxResult(ctx, func(txCtx context.Context) (*department.Department, error) {
		entity, err := s.repo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return nil, err
		}
		if err := s.authorize(txCtx, accesscontrol.ActionDelete, entity); err != nil {
			return nil, err
		}

		children, err := s.repo.CountActiveChildren(txCtx, id)
		if err != nil {
			return nil, err
		}
		if children > 0 {
			return nil, ErrDepartmentHasChildren
		}

		entity.Deactivate()
		return s.repo.Update(txCtx, entity)
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(department.NewDeactivatedEvent(deactivated))
	return deactivated, nil
}

func (s *DepartmentService) authorize(ctx context.Context, action accesscontrol.Action, entity *department.Department) error {
	principal, err := composables.UsePrincipal(ctx)
	if err != nil {
		return err
	}
	endpoint := composables.UseEndpoint(ctx)
	return s.engine.Authorize(ctx, accesscontrol.Request{
		Principal: principal,
		Action:    action,
		Target:    entity.Coordinates(),
		Path:      endpoint.Path,
		Method:    endpoint.Method,
	})
}

func (s *DepartmentService) applyVisibility(ctx context.Context, params *department.FindParams) error {
	principal, err := composables.UsePrincipal(ctx)
	if err != nil {
		return err
	}
	filter, err := s.engine.BuildFilter(ctx, principal)
	if err != nil {
		return err
	}
	params.Visibility = filter
	return nil
}

// validateBranch enforces that a branch-level department files under a
// branch of its own company. Corporate departments (branch id zero) skip the
// check.
func (s *DepartmentService) validateBranch(ctx context.Context, entity *department.Department) error {
	if entity.BranchID() == 0 {
		return nil
	}
	b, err := s.branches.GetByID(ctx, entity.BranchID())
	if err != nil {
		return err
	}
	if b.CompanyID() != entity.CompanyID() {
		return ErrBranchCompanyConflict
	}
	return nil
}

func (s *DepartmentService) validateParent(ctx context.Context, entity *department.Department, parentID int64) error {
	child := hierarchy.Node{
		ID:              entity.ID(),
		BusinessGroupID: entity.BusinessGroupID(),
		CompanyID:       entity.CompanyID(),
		Active:          entity.IsActive(),
	}
	return mapHierarchyError(s.validator.ValidateEdge(ctx, child, parentID))
}
