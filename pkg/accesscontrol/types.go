package accesscontrol

import (
	"net/http"
	"strings"
)

// Action classifies what a request wants to do with a resource. Create and
// update are distinct on purpose: some tiers may modify existing records but
// never add or remove them.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ActionFromMethod maps an HTTP method onto an action class.
func ActionFromMethod(method string) Action {
	switch strings.ToUpper(strings.TrimSpace(method)) {
	case http.MethodPost:
		return ActionCreate
	case http.MethodPut, http.MethodPatch:
		return ActionUpdate
	case http.MethodDelete:
		return ActionDelete
	default:
		return ActionRead
	}
}

// ScopeType names a level of the organizational tree. The set is closed.
type ScopeType string

const (
	ScopeBusinessGroup ScopeType = "business_group"
	ScopeCompany       ScopeType = "company"
	ScopeBranch        ScopeType = "branch"
	ScopeDepartment    ScopeType = "department"
)

func ValidScopeType(t ScopeType) bool {
	switch t {
	case ScopeBusinessGroup, ScopeCompany, ScopeBranch, ScopeDepartment:
		return true
	}
	return false
}

// Scope restricts a principal to the subtree rooted at the referenced node.
type Scope struct {
	Type ScopeType
	ID   int64
}

// Coordinates locate a resource in the organizational tree. A zero value
// means the coordinate is absent (e.g. a corporate department has no
// branch). OwnerUserID links the record to a user for self-access checks.
type Coordinates struct {
	BusinessGroupID int64
	CompanyID       int64
	BranchID        int64
	DepartmentID    int64
	OwnerUserID     int64
}

// Principal is the already-authenticated caller. Token verification happens
// upstream; by the time a Principal reaches this package its identity is a
// given.
type Principal struct {
	UserID int64
	Tier   RoleTier
	Scope  *Scope
}

// Request carries everything needed for one authorization decision. Path and
// Method are optional; when set they enable per-endpoint overrides.
type Request struct {
	Principal Principal
	Action    Action
	Target    Coordinates
	Path      string
	Method    string
}

// Effect is a single resolver's verdict. Abstain defers to the next resolver
// in the chain.
type Effect int

const (
	Abstain Effect = iota
	Allow
	Deny
)

func (e Effect) String() string {
	switch e {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "abstain"
	}
}
