package services

import (
	"context"

	"github.com/helioshr/helios/modules/core/domain/entities/userscope"
	"github.com/helioshr/helios/pkg/accesscontrol"
	"github.com/helioshr/helios/pkg/composables"
	"github.com/helioshr/helios/pkg/eventbus"
)

// ScopeService manages scope assignments. Granting a scope requires
// authority over the target node itself: a manager can delegate only within
// their own subtree, never sideways or upward.
type ScopeService struct {
	repo      userscope.Repository
	engine    *accesscontrol.Engine
	publisher eventbus.EventBus
}

func NewScopeService(repo userscope.Repository, engine *accesscontrol.Engine, publisher eventbus.EventBus) *ScopeService {
	return &ScopeService{
		repo:      repo,
		engine:    engine,
		publisher: publisher,
	}
}

func (s *ScopeService) GetActiveByUser(ctx context.Context, userID int64) ([]*userscope.UserScope, error) {
	if err := s.authorize(ctx, accesscontrol.ActionRead, accesscontrol.Coordinates{OwnerUserID: userID}); err != nil {
		return nil, err
	}
	return s.repo.GetActiveByUser(ctx, userID)
}

func (s *ScopeService) Assign(ctx context.Context, dto *userscope.CreateDTO) (*userscope.UserScope, error) {
	if err := dto.Ok(); err != nil {
		return nil, err
	}
	principal, err := composables.UsePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	scope := accesscontrol.Scope{Type: accesscontrol.ScopeType(dto.ScopeType), ID: dto.ScopeID}
	if err := s.authorize(ctx, accesscontrol.ActionCreate, scopeCoordinates(ctx, scope)); err != nil {
		return nil, err
	}

	entity := userscope.New(
		dto.UserID,
		scope.Type,
		scope.ID,
		userscope.WithAssignedBy(principal.UserID),
	)
	created, err := composables.InTxResult(ctx, func(txCtx context.Context) (*userscope.UserScope, error) {
		return s.repo.Create(txCtx, entity)
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(userscope.NewAssignedEvent(created))
	return created, nil
}

func (s *ScopeService) Revoke(ctx context.Context, id int64) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.authorize(ctx, accesscontrol.ActionDelete, scopeCoordinates(ctx, existing.Scope())); err != nil {
		return err
	}

	if err := composables.InTx(ctx, func(txCtx context.Context) error {
		return s.repo.Deactivate(txCtx, id)
	}); err != nil {
		return err
	}
	existing.Deactivate()
	s.publisher.Publish(userscope.NewRevokedEvent(existing))
	return nil
}

func (s *ScopeService) authorize(ctx context.Context, action accesscontrol.Action, target accesscontrol.Coordinates) error {
	principal, err := composables.UsePrincipal(ctx)
	if err != nil {
		return err
	}
	endpoint := composables.UseEndpoint(ctx)
	return s.engine.Authorize(ctx, accesscontrol.Request{
		Principal: principal,
		Action:    action,
		Target:    target,
		Path:      endpoint.Path,
		Method:    endpoint.Method,
	})
}

// scopeCoordinates projects a scope node onto target coordinates so the
// engine's containment check decides whether the actor's own scope covers
// it.
func scopeCoordinates(_ context.Context, scope accesscontrol.Scope) accesscontrol.Coordinates {
	switch scope.Type {
	case accesscontrol.ScopeBusinessGroup:
		return accesscontrol.Coordinates{BusinessGroupID: scope.ID}
	case accesscontrol.ScopeCompany:
		return accesscontrol.Coordinates{CompanyID: scope.ID}
	case accesscontrol.ScopeBranch:
		return accesscontrol.Coordinates{BranchID: scope.ID}
	case accesscontrol.ScopeDepartment:
		return accesscontrol.Coordinates{DepartmentID: scope.ID}
	default:
		return accesscontrol.Coordinates{}
	}
}
