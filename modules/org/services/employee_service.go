package services

import (
	"context"

	"github.com/helioshr/helios/modules/org/domain/aggregates/employee"
	"github.com/helioshr/helios/modules/org/domain/entities/branch"
	"github.com/helioshr/helios/modules/org/hierarchy"
	"github.com/helioshr/helios/pkg/accesscontrol"
	"github.com/helioshr/helios/pkg/composables"
	"github.com/helioshr/helios/pkg/eventbus"
)

// EmployeeService mirrors DepartmentService for people: the supervisor edge
// is the parent edge, reporting chains have no depth cap, and supervisors
// must live in the same company as their reports.
type EmployeeService struct {
	repo      employee.Repository
	branches  branch.Repository
	nodes     interface {
		hierarchy.NodeSource
		hierarchy.ChildSource
	}
	validator *hierarchy.Validator
	engine    *accesscontrol.Engine
	publisher eventbus.EventBus
}

func NewEmployeeService(
	repo employee.Repository,
	nodes interface {
		hierarchy.NodeSource
		hierarchy.ChildSource
	},
	branches branch.Repository,
	engine *accesscontrol.Engine,
	publisher eventbus.EventBus,
) *EmployeeService {
	return &EmployeeService{
		repo:      repo,
		branches:  branches,
		nodes:     nodes,
		validator: hierarchy.NewValidator(nodes),
		engine:    engine,
		publisher: publisher,
	}
}

func (s *EmployeeService) Count(ctx context.Context, params *employee.FindParams) (int64, error) {
	if err := s.applyVisibility(ctx, params); err != nil {
		return 0, err
	}
	return s.repo.Count(ctx, params)
}

func (s *EmployeeService) GetPaginated(ctx context.Context, params *employee.FindParams) ([]*employee.Employee, error) {
	if err := s.applyVisibility(ctx, params); err != nil {
		return nil, err
	}
	return s.repo.GetPaginated(ctx, params)
}

func (s *EmployeeService) GetByID(ctx context.Context, id int64) (*employee.Employee, error) {
	entity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, accesscontrol.ActionRead, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// GetByUserID serves the "my record" lookup for the calling user's linked
// account.
func (s *EmployeeService) GetByUserID(ctx context.Context, userID int64) (*employee.Employee, error) {
	entity, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, accesscontrol.ActionRead, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

func (s *EmployeeService) GetSubordinates(ctx context.Context, supervisorID int64, activeOnly bool) ([]*employee.Employee, error) {
	if _, err := s.GetByID(ctx, supervisorID); err != nil {
		return nil, err
	}
	return s.repo.GetSubordinates(ctx, supervisorID, activeOnly)
}

// TeamTreeIDs returns every transitive report of the employee in
// breadth-first order, the employee excluded.
func (s *EmployeeService) TeamTreeIDs(ctx context.Context, id int64) ([]int64, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return hierarchy.CollectDescendants(ctx, s.nodes, id)
}

// ReportingChain returns the employee followed by each supervisor up to the
// top of the chain.
func (s *EmployeeService) ReportingChain(ctx context.Context, id int64) ([]*employee.Employee, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	nodes, err := s.validator.AncestorPath(ctx, id)
	if err != nil {
		return nil, mapHierarchyError(err)
	}
	out := make([]*employee.Employee, 0, len(nodes))
	for _, node := range nodes {
		entity, err := s.repo.GetByID(ctx, node.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}

func (s *EmployeeService) Create(ctx context.Context, dto *employee.CreateDTO) (*employee.Employee, error) {
	entity, err := dto.ToEntity()
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, accesscontrol.ActionCreate, entity); err != nil {
		return nil, err
	}

	created, err := composables.InTxResult(ctx, func(txCtx context.Context) (*employee.Employee, error) {
		if err := s.validateBranch(txCtx, entity); err != nil {
			return nil, err
		}
		if entity.SupervisorID() != 0 {
			if err := s.validateSupervisor(txCtx, entity, entity.SupervisorID()); err != nil {
				return nil, err
			}
		}
		return s.repo.Create(txCtx, entity)
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(employee.NewCreatedEvent(created))
	return created, nil
}

func (s *EmployeeService) Update(ctx context.Context, id int64, dto *employee.UpdateDTO) (*employee.Employee, error) {
	var reassigned bool
	var oldSupervisorID int64

	updated, err := composables.InTxResult(ctx, func(txCtx context.Context) (*employee.Employee, error) {
		entity, err := s.repo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return nil, err
		}
		if err := s.authorize(txCtx, accesscontrol.ActionUpdate, entity); err != nil {
			return nil, err
		}

		oldSupervisorID = entity.SupervisorID()
		oldBranchID := entity.BranchID()
		if err := dto.Apply(entity); err != nil {
			return nil, err
		}

		if entity.BranchID() != oldBranchID {
			if err := s.validateBranch(txCtx, entity); err != nil {
				return nil, err
			}
		}
		if entity.SupervisorID() != oldSupervisorID && entity.SupervisorID() != 0 {
			if err := s.validateSupervisor(txCtx, entity, entity.SupervisorID()); err != nil {
				return nil, err
			}
		}
		reassigned = entity.SupervisorID() != oldSupervisorID
		return s.repo.Update(txCtx, entity)
	})
	if err != nil {
		return nil, err
	}

	if reassigned {
		s.publisher.Publish(employee.NewReassignedEvent(updated, oldSupervisorID))
	} else {
		s.publisher.Publish(employee.NewUpdatedEvent(updated))
	}
	return updated, nil
}

// Deactivate soft-deletes the employee. It refuses while active
// subordinates remain; reassign the team first.
func (s *EmployeeService) Deactivate(ctx context.Context, id int64) (*employee.Employee, error) {
	deactivated, err := composables.InTxResult(ctx, func(txCtx context.Context) (*employee.Employee, error) {
		entity, err := s.repo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return nil, err
		}
		if err := s.authorize(txCtx, accesscontrol.ActionDelete, entity); err != nil {
			return nil, err
		}

		subordinates, err := s.repo.CountActiveSubordinates(txCtx, id)
		if err != nil {
			return nil, err
		}
		if subordinates > 0 {
			return nil, ErrEmployeeHasSubordinates
		}

		entity.Deactivate()
		return s.repo.Update(txCtx, entity)
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(employee.NewDeactivatedEvent(deactivated))
	return deactivated, nil
}

func (s *EmployeeService) authorize(ctx context.Context, action accesscontrol.Action, entity *employee.Employee) error {
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

func (s *EmployeeService) applyVisibility(ctx context.Context, params *employee.FindParams) error {
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

// validateBranch enforces that an employee's branch belongs to the
// employee's company. A zero branch id means no branch assignment.
func (s *EmployeeService) validateBranch(ctx context.Context, entity *employee.Employee) error {
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

func (s *EmployeeService) validateSupervisor(ctx context.Context, entity *employee.Employee, supervisorID int64) error {
	child := hierarchy.Node{
		ID:              entity.ID(),
		BusinessGroupID: entity.BusinessGroupID(),
		CompanyID:       entity.CompanyID(),
		Active:          entity.IsActive(),
	}
	return mapHierarchyError(s.validator.ValidateEdge(ctx, child, supervisorID))
}
