package services

import (
	"context"

	"github.com/helioshr/helios/modules/org/domain/entities/branch"
	"github.com/helioshr/helios/modules/org/domain/entities/businessgroup"
	"github.com/helioshr/helios/modules/org/domain/entities/company"
	"github.com/helioshr/helios/pkg/accesscontrol"
	"github.com/helioshr/helios/pkg/composables"
	"github.com/helioshr/helios/pkg/eventbus"
)

// OrgUnitService covers the reference entities above departments: business
// groups, companies and branches. They change rarely, so the surface is
// deliberately small.
type OrgUnitService struct {
	groups    businessgroup.Repository
	companies company.Repository
	branches  branch.Repository
	engine    *accesscontrol.Engine
	publisher eventbus.EventBus
}

func NewOrgUnitService(
	groups businessgroup.Repository,
	companies company.Repository,
	branches branch.Repository,
	engine *accesscontrol.Engine,
	publisher eventbus.EventBus,
) *OrgUnitService {
	return &OrgUnitService{
		groups:    groups,
		companies: companies,
		branches:  branches,
		engine:    engine,
		publisher: publisher,
	}
}

func (s *OrgUnitService) GetBusinessGroups(ctx context.Context, activeOnly bool) ([]*businessgroup.BusinessGroup, error) {
	if err := s.authorize(ctx, accesscontrol.ActionRead, accesscontrol.Coordinates{}); err != nil {
		return nil, err
	}
	return s.groups.GetAll(ctx, activeOnly)
}

func (s *OrgUnitService) GetBusinessGroup(ctx context.Context, id int64) (*businessgroup.BusinessGroup, error) {
	entity, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, accesscontrol.ActionRead, accesscontrol.Coordinates{BusinessGroupID: id}); err != nil {
		return nil, err
	}
	return entity, nil
}

func (s *OrgUnitService) CreateBusinessGroup(ctx context.Context, code, name string) (*businessgroup.BusinessGroup, error) {
	if err := s.authorize(ctx, accesscontrol.ActionCreate, accesscontrol.Coordinates{}); err != nil {
		return nil, err
	}
	created, err := composables.InTxResult(ctx, func(txCtx context.Context) (*businessgroup.BusinessGroup, error) {
		return s.groups.Create(txCtx, businessgroup.New(code, name))
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(created)
	return created, nil
}

func (s *OrgUnitService) GetCompanies(ctx context.Context, businessGroupID int64, activeOnly bool) ([]*company.Company, error) {
	if err := s.authorize(ctx, accesscontrol.ActionRead, accesscontrol.Coordinates{BusinessGroupID: businessGroupID}); err != nil {
		return nil, err
	}
	return s.companies.GetByBusinessGroup(ctx, businessGroupID, activeOnly)
}

func (s *OrgUnitService) GetCompany(ctx context.Context, id int64) (*company.Company, error) {
	entity, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	target := accesscontrol.Coordinates{
		BusinessGroupID: entity.BusinessGroupID(),
		CompanyID:       entity.ID(),
	}
	if err := s.authorize(ctx, accesscontrol.ActionRead, target); err != nil {
		return nil, err
	}
	return entity, nil
}

func (s *OrgUnitService) CreateCompany(ctx context.Context, businessGroupID int64, code, name string) (*company.Company, error) {
	if err := s.authorize(ctx, accesscontrol.ActionCreate, accesscontrol.Coordinates{BusinessGroupID: businessGroupID}); err != nil {
		return nil, err
	}
	created, err := composables.InTxResult(ctx, func(txCtx context.Context) (*company.Company, error) {
		return s.companies.Create(txCtx, company.New(businessGroupID, code, name))
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(created)
	return created, nil
}

func (s *OrgUnitService) GetBranches(ctx context.Context, companyID int64, activeOnly bool) ([]*branch.Branch, error) {
	if err := s.authorize(ctx, accesscontrol.ActionRead, accesscontrol.Coordinates{CompanyID: companyID}); err != nil {
		return nil, err
	}
	return s.branches.GetByCompany(ctx, companyID, activeOnly)
}

func (s *OrgUnitService) GetBranch(ctx context.Context, id int64) (*branch.Branch, error) {
	entity, err := s.branches.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	target := accesscontrol.Coordinates{
		BusinessGroupID: entity.BusinessGroupID(),
		CompanyID:       entity.CompanyID(),
		BranchID:        entity.ID(),
	}
	if err := s.authorize(ctx, accesscontrol.ActionRead, target); err != nil {
		return nil, err
	}
	return entity, nil
}

func (s *OrgUnitService) CreateBranch(ctx context.Context, businessGroupID, companyID int64, code, name string, headquarters bool) (*branch.Branch, error) {
	target := accesscontrol.Coordinates{
		BusinessGroupID: businessGroupID,
		CompanyID:       companyID,
	}
	if err := s.authorize(ctx, accesscontrol.ActionCreate, target); err != nil {
		return nil, err
	}
	created, err := composables.InTxResult(ctx, func(txCtx context.Context) (*branch.Branch, error) {
		entity := branch.New(businessGroupID, companyID, code, name, branch.WithIsHeadquarters(headquarters))
		return s.branches.Create(txCtx, entity)
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(created)
	return created, nil
}

func (s *OrgUnitService) authorize(ctx context.Context, action accesscontrol.Action, target accesscontrol.Coordinates) error {
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
