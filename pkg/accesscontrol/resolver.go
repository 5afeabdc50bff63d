package accesscontrol

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/helioshr/helios/pkg/routing"
)

// GrantStore answers per-endpoint permission overrides. Lookup returns nil
// when no grant exists for the exact (path, method) pair.
type GrantStore interface {
	Lookup(ctx context.Context, userID int64, path, method string) (*bool, error)
}

// HierarchySource provides the two hierarchy lookups the engine needs:
// the upward path for containment checks and the subtree for filters. Both
// are point lookups against already-persisted edges; the engine holds no
// hierarchy state of its own.
type HierarchySource interface {
	// DepartmentPath returns department ids ordered from the node to its
	// corporate root, the node itself included.
	DepartmentPath(ctx context.Context, departmentID int64) ([]int64, error)
	// DepartmentSubtree returns the node's id followed by all of its
	// descendants.
	DepartmentSubtree(ctx context.Context, departmentID int64) ([]int64, error)
}

// Resolver is one layer of the decision chain. Returning Abstain defers to
// the next layer.
type Resolver interface {
	Resolve(ctx context.Context, req Request) (Effect, error)
	Name() string
}

type Config struct {
	Matrix    Matrix
	Grants    GrantStore
	Hierarchy HierarchySource
	Logger    *logrus.Entry
}

// Engine evaluates authorization requests through a fixed-precedence chain:
// explicit override, then scope containment, then the role default. The
// first non-Abstain effect wins. Decisions are pure reads; the engine is
// safe for concurrent use.
type Engine struct {
	matrix    Matrix
	chain     []Resolver
	hierarchy HierarchySource
	logger    *logrus.Entry
}

func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Matrix.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logrus.WithField("component", "accesscontrol")
	}

	e := &Engine{
		matrix:    cfg.Matrix,
		hierarchy: cfg.Hierarchy,
		logger:    logger,
	}
	if cfg.Grants != nil {
		e.chain = append(e.chain, &overrideResolver{grants: cfg.Grants})
	}
	e.chain = append(e.chain,
		&scopeResolver{matrix: cfg.Matrix, hierarchy: cfg.Hierarchy},
		&roleResolver{matrix: cfg.Matrix},
	)
	return e, nil
}

// Authorize returns nil when the request is allowed and an ErrForbidden-coded
// error otherwise.
func (e *Engine) Authorize(ctx context.Context, req Request) error {
	started := time.Now()
	for _, resolver := range e.chain {
		effect, err := resolver.Resolve(ctx, req)
		if err != nil {
			return err
		}
		if effect == Abstain {
			continue
		}
		recordDecision(resolver.Name(), effect, time.Since(started))
		if effect == Deny {
			e.logger.WithContext(ctx).WithFields(logrus.Fields{
				"resolver": resolver.Name(),
				"user":     req.Principal.UserID,
				"tier":     req.Principal.Tier,
				"action":   req.Action,
				"path":     req.Path,
			}).Warn("access denied")
			return forbiddenError(req)
		}
		return nil
	}

	// The role resolver is terminal, so an all-Abstain chain means a
	// miswired engine. Fail closed.
	recordDecision("none", Deny, time.Since(started))
	return forbiddenError(req)
}

// overrideResolver consults explicit per-endpoint grants. Precedence is
// documented here once so call sites cannot get it backward: the exact
// (path, method) entry wins; failing that, the base-path entry; failing
// that, the resolver abstains.
type overrideResolver struct {
	grants GrantStore
}

func (r *overrideResolver) Name() string { return "override" }

func (r *overrideResolver) Resolve(ctx context.Context, req Request) (Effect, error) {
	if req.Path == "" || req.Method == "" {
		return Abstain, nil
	}

	allowed, err := r.grants.Lookup(ctx, req.Principal.UserID, req.Path, req.Method)
	if err != nil {
		return Abstain, err
	}
	if allowed == nil {
		base := routing.NormalizeEndpoint(req.Path)
		if base != req.Path {
			allowed, err = r.grants.Lookup(ctx, req.Principal.UserID, base, req.Method)
			if err != nil {
				return Abstain, err
			}
		}
	}
	if allowed == nil {
		return Abstain, nil
	}
	if *allowed {
		return Allow, nil
	}
	return Deny, nil
}

// scopeResolver decides by organizational containment when the principal
// carries a scope. Without one it abstains and the role default applies.
type scopeResolver struct {
	matrix    Matrix
	hierarchy HierarchySource
}

func (r *scopeResolver) Name() string { return "scope" }

func (r *scopeResolver) Resolve(ctx context.Context, req Request) (Effect, error) {
	scope := req.Principal.Scope
	if scope == nil {
		return Abstain, nil
	}

	policy, ok := r.matrix.Policy(req.Principal.Tier)
	if !ok {
		return Deny, nil
	}
	if !policy.PermitsScopeType(scope.Type) || !policy.Permits(req.Action) {
		return Deny, nil
	}

	contained, err := r.contains(ctx, *scope, req.Target)
	if err != nil {
		return Abstain, err
	}
	if contained {
		return Allow, nil
	}
	return Deny, nil
}

// contains reports whether the target's coordinate chain passes through the
// scope node. Branch scopes deliberately exclude corporate-level departments
// (those have no branch coordinate); deployments that want corporate
// visibility assign a company scope instead.
func (r *scopeResolver) contains(ctx context.Context, scope Scope, target Coordinates) (bool, error) {
	switch scope.Type {
	case ScopeBusinessGroup:
		return target.BusinessGroupID == scope.ID, nil
	case ScopeCompany:
		return target.CompanyID == scope.ID, nil
	case ScopeBranch:
		return target.BranchID != 0 && target.BranchID == scope.ID, nil
	case ScopeDepartment:
		if target.DepartmentID == 0 {
			return false, nil
		}
		if target.DepartmentID == scope.ID {
			return true, nil
		}
		if r.hierarchy == nil {
			return false, fmt.Errorf("accesscontrol: department scope requires a hierarchy source")
		}
		path, err := r.hierarchy.DepartmentPath(ctx, target.DepartmentID)
		if err != nil {
			return false, err
		}
		for _, id := range path {
			if id == scope.ID {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, nil
	}
}

// roleResolver is the terminal layer: the tier's default grant with no
// organizational narrowing.
type roleResolver struct {
	matrix Matrix
}

func (r *roleResolver) Name() string { return "role" }

func (r *roleResolver) Resolve(_ context.Context, req Request) (Effect, error) {
	policy, ok := r.matrix.Policy(req.Principal.Tier)
	if !ok {
		return Deny, nil
	}

	switch {
	case policy.Unrestricted:
		if policy.Permits(req.Action) {
			return Allow, nil
		}
		return Deny, nil
	case policy.SelfOnly:
		if req.Target.OwnerUserID != 0 &&
			req.Target.OwnerUserID == req.Principal.UserID &&
			policy.Permits(req.Action) {
			return Allow, nil
		}
		return Deny, nil
	default:
		// A scoped tier without an assigned scope has no visibility.
		return Deny, nil
	}
}
