package permissiongrant

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// PermissionGrant is an explicit per-endpoint exception that takes
// precedence over scope and role decisions. A deny grant revokes something
// the role would allow; an allow grant extends beyond it.
type PermissionGrant struct {
	id        int64
	userID    int64
	endpoint  string
	method    string
	isAllowed bool
	grantedBy int64
	isActive  bool
	createdAt time.Time
	updatedAt time.Time
}

type Option func(*PermissionGrant)

func WithID(id int64) Option {
	return func(g *PermissionGrant) { g.id = id }
}

func WithGrantedBy(userID int64) Option {
	return func(g *PermissionGrant) { g.grantedBy = userID }
}

func WithIsActive(isActive bool) Option {
	return func(g *PermissionGrant) { g.isActive = isActive }
}

func WithCreatedAt(t time.Time) Option {
	return func(g *PermissionGrant) { g.createdAt = t }
}

func WithUpdatedAt(t time.Time) Option {
	return func(g *PermissionGrant) { g.updatedAt = t }
}

func New(userID int64, endpoint, method string, isAllowed bool, opts ...Option) *PermissionGrant {
	g := &PermissionGrant{
		userID:    userID,
		endpoint:  endpoint,
		method:    strings.ToUpper(method),
		isAllowed: isAllowed,
		isActive:  true,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *PermissionGrant) ID() int64            { return g.id }
func (g *PermissionGrant) UserID() int64        { return g.userID }
func (g *PermissionGrant) Endpoint() string     { return g.endpoint }
func (g *PermissionGrant) Method() string       { return g.method }
func (g *PermissionGrant) IsAllowed() bool      { return g.isAllowed }
func (g *PermissionGrant) GrantedBy() int64     { return g.grantedBy }
func (g *PermissionGrant) IsActive() bool       { return g.isActive }
func (g *PermissionGrant) CreatedAt() time.Time { return g.createdAt }
func (g *PermissionGrant) UpdatedAt() time.Time { return g.updatedAt }

func (g *PermissionGrant) Deactivate() {
	g.isActive = false
	g.updatedAt = time.Now()
}

type GrantDTO struct {
	Endpoint  string `json:"endpoint"`
	Method    string `json:"method"`
	IsAllowed bool   `json:"is_allowed"`
}

func (d *GrantDTO) Ok() error {
	if !strings.HasPrefix(d.Endpoint, "/") {
		return fmt.Errorf("permission grant: endpoint must start with /")
	}
	switch strings.ToUpper(d.Method) {
	case "GET", "POST", "PUT", "PATCH", "DELETE":
		return nil
	}
	return fmt.Errorf("permission grant: unsupported method %q", d.Method)
}

type Repository interface {
	GetActiveByUser(ctx context.Context, userID int64) ([]*PermissionGrant, error)
	// Lookup returns the grant verdict for the exact (endpoint, method)
	// pair, or nil when no active grant exists.
	Lookup(ctx context.Context, userID int64, endpoint, method string) (*bool, error)
	Create(ctx context.Context, grant *PermissionGrant) (*PermissionGrant, error)
	// DeactivateAllByUser soft-deletes every active grant of the user.
	// Callers pair it with Create inside one transaction to replace the
	// whole grant set atomically.
	DeactivateAllByUser(ctx context.Context, userID int64) error
}
