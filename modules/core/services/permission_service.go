package services

import (
	"context"

	"github.com/helioshr/helios/modules/core/domain/entities/permissiongrant"
	"github.com/helioshr/helios/pkg/accesscontrol"
	"github.com/helioshr/helios/pkg/composables"
	"github.com/helioshr/helios/pkg/eventbus"
)

// PermissionService manages per-endpoint overrides. Replacing a user's grant
// set is all-or-nothing: the old set is deactivated and the new one written
// inside one transaction, so a failure never leaves the user half-granted.
type PermissionService struct {
	repo      permissiongrant.Repository
	matrix    accesscontrol.Matrix
	engine    *accesscontrol.Engine
	publisher eventbus.EventBus
}

func NewPermissionService(
	repo permissiongrant.Repository,
	matrix accesscontrol.Matrix,
	engine *accesscontrol.Engine,
	publisher eventbus.EventBus,
) *PermissionService {
	return &PermissionService{
		repo:      repo,
		matrix:    matrix,
		engine:    engine,
		publisher: publisher,
	}
}

// Matrix exposes the role policy table for administrative display.
func (s *PermissionService) Matrix() accesscontrol.Matrix {
	return s.matrix
}

func (s *PermissionService) GetActiveByUser(ctx context.Context, userID int64) ([]*permissiongrant.PermissionGrant, error) {
	if err := s.authorize(ctx, accesscontrol.ActionRead, accesscontrol.Coordinates{OwnerUserID: userID}); err != nil {
		return nil, err
	}
	return s.repo.GetActiveByUser(ctx, userID)
}

func (s *PermissionService) authorize(ctx context.Context, action accesscontrol.Action, target accesscontrol.Coordinates) error {
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

// Replace swaps the user's entire grant set. Grants target arbitrary
// endpoints, so the target coordinates are empty and only unrestricted
// tiers (or an explicit override) pass the gate.
func (s *PermissionService) Replace(ctx context.Context, userID int64, dtos []*permissiongrant.GrantDTO) ([]*permissiongrant.PermissionGrant, error) {
	principal, err := composables.UsePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, accesscontrol.ActionUpdate, accesscontrol.Coordinates{}); err != nil {
		return nil, err
	}
	for _, dto := range dtos {
		if err := dto.Ok(); err != nil {
			return nil, err
		}
	}

	created, err := composables.InTxResult(ctx, func(txCtx context.Context) ([]*permissiongrant.PermissionGrant, error) {
		if err := s.repo.DeactivateAllByUser(txCtx, userID); err != nil {
			return nil, err
		}
		out := make([]*permissiongrant.PermissionGrant, 0, len(dtos))
		for _, dto := range dtos {
			grant := permissiongrant.New(
				userID,
				dto.Endpoint,
				dto.Method,
				dto.IsAllowed,
				permissiongrant.WithGrantedBy(principal.UserID),
			)
			saved, err := s.repo.Create(txCtx, grant)
			if err != nil {
				return nil, err
			}
			out = append(out, saved)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(permissiongrant.NewReplacedEvent(userID, created))
	return created, nil
}
