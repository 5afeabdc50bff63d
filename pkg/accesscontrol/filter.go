package accesscontrol

import (
	"context"
	"fmt"

	"github.com/helioshr/helios/pkg/repo"
)

// Field names a logical coordinate column. Repositories map fields onto
// their own column names when rendering SQL.
type Field string

const (
	FieldBusinessGroup Field = "business_group_id"
	FieldCompany       Field = "company_id"
	FieldBranch        Field = "branch_id"
	FieldDepartment    Field = "department_id"
	FieldOwnerUser     Field = "user_id"
)

// Constraint restricts one coordinate field to a value set.
type Constraint struct {
	Field  Field
	Values []int64
}

// Filter is a conjunctive predicate over coordinate fields. The zero-
// constraint filter matches everything; a matchNone filter matches nothing.
// Callers may only ever narrow it further (And), never widen it, so a
// caller-supplied search filter cannot escape the authorization boundary.
type Filter struct {
	matchNone   bool
	constraints []Constraint
}

// MatchAll is the predicate handed to unrestricted principals.
func MatchAll() *Filter { return &Filter{} }

// MatchNone fails closed: it renders as a false clause.
func MatchNone() *Filter { return &Filter{matchNone: true} }

func (f *Filter) And(c Constraint) *Filter {
	if len(c.Values) == 0 {
		return f
	}
	f.constraints = append(f.constraints, c)
	return f
}

func (f *Filter) IsUnrestricted() bool {
	return !f.matchNone && len(f.constraints) == 0
}

func (f *Filter) MatchesNothing() bool { return f.matchNone }

// Matches evaluates the predicate in memory. Used by tests and by callers
// that already hold the record.
func (f *Filter) Matches(target Coordinates) bool {
	if f.matchNone {
		return false
	}
	for _, c := range f.constraints {
		value := coordinateValue(target, c.Field)
		found := false
		for _, v := range c.Values {
			if v == value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// ToSQL renders the predicate as WHERE conditions. columns maps logical
// fields to concrete column names; argIndex is the first free placeholder.
// The returned conditions are always ANDed by the caller via repo.JoinWhere.
func (f *Filter) ToSQL(columns map[Field]string, argIndex int) ([]string, []any, error) {
	if f.matchNone {
		return []string{"FALSE"}, nil, nil
	}

	conditions := make([]string, 0, len(f.constraints))
	args := make([]any, 0, len(f.constraints))
	for _, c := range f.constraints {
		column, ok := columns[c.Field]
		if !ok {
			return nil, nil, fmt.Errorf("accesscontrol: no column mapping for field %q", c.Field)
		}
		if len(c.Values) == 1 {
			conditions = append(conditions, repo.Eq(column, argIndex))
			args = append(args, c.Values[0])
		} else {
			conditions = append(conditions, repo.In(column, argIndex))
			args = append(args, c.Values)
		}
		argIndex++
	}
	return conditions, args, nil
}

// BuildFilter compiles the principal's visibility into a query predicate so
// listings are restricted before any row leaves the database.
func (e *Engine) BuildFilter(ctx context.Context, p Principal) (*Filter, error) {
	policy, ok := e.matrix.Policy(p.Tier)
	if !ok {
		return MatchNone(), nil
	}

	if p.Scope != nil {
		if !policy.PermitsScopeType(p.Scope.Type) {
			return MatchNone(), nil
		}
		return e.scopeFilter(ctx, *p.Scope)
	}

	switch {
	case policy.Unrestricted:
		return MatchAll(), nil
	case policy.SelfOnly:
		return MatchAll().And(Constraint{Field: FieldOwnerUser, Values: []int64{p.UserID}}), nil
	default:
		return MatchNone(), nil
	}
}

func (e *Engine) scopeFilter(ctx context.Context, scope Scope) (*Filter, error) {
	switch scope.Type {
	case ScopeBusinessGroup:
		return MatchAll().And(Constraint{Field: FieldBusinessGroup, Values: []int64{scope.ID}}), nil
	case ScopeCompany:
		return MatchAll().And(Constraint{Field: FieldCompany, Values: []int64{scope.ID}}), nil
	case ScopeBranch:
		return MatchAll().And(Constraint{Field: FieldBranch, Values: []int64{scope.ID}}), nil
	case ScopeDepartment:
		if e.hierarchy == nil {
			return nil, fmt.Errorf("accesscontrol: department scope requires a hierarchy source")
		}
		subtree, err := e.hierarchy.DepartmentSubtree(ctx, scope.ID)
		if err != nil {
			return nil, err
		}
		return MatchAll().And(Constraint{Field: FieldDepartment, Values: subtree}), nil
	default:
		return MatchNone(), nil
	}
}

func coordinateValue(c Coordinates, f Field) int64 {
	switch f {
	case FieldBusinessGroup:
		return c.BusinessGroupID
	case FieldCompany:
		return c.CompanyID
	case FieldBranch:
		return c.BranchID
	case FieldDepartment:
		return c.DepartmentID
	case FieldOwnerUser:
		return c.OwnerUserID
	default:
		return 0
	}
}
