package userscope

import (
	"context"
	"fmt"
	"time"

	"github.com/helioshr/helios/pkg/accesscontrol"
)

// UserScope binds a user to one node of the organizational tree. A user's
// effective visibility is the subtree below that node; revocation is a soft
// deactivation so assignment history survives.
type UserScope struct {
	id         int64
	userID     int64
	scopeType  accesscontrol.ScopeType
	scopeID    int64
	assignedBy int64
	isActive   bool
	createdAt  time.Time
	updatedAt  time.Time
}

type Option func(*UserScope)

func WithID(id int64) Option {
	return func(s *UserScope) { s.id = id }
}

func WithAssignedBy(userID int64) Option {
	return func(s *UserScope) { s.assignedBy = userID }
}

func WithIsActive(isActive bool) Option {
	return func(s *UserScope) { s.isActive = isActive }
}

func WithCreatedAt(t time.Time) Option {
	return func(s *UserScope) { s.createdAt = t }
}

func WithUpdatedAt(t time.Time) Option {
	return func(s *UserScope) { s.updatedAt = t }
}

func New(userID int64, scopeType accesscontrol.ScopeType, scopeID int64, opts ...Option) *UserScope {
	s := &UserScope{
		userID:    userID,
		scopeType: scopeType,
		scopeID:   scopeID,
		isActive:  true,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *UserScope) ID() int64                           { return s.id }
func (s *UserScope) UserID() int64                       { return s.userID }
func (s *UserScope) ScopeType() accesscontrol.ScopeType  { return s.scopeType }
func (s *UserScope) ScopeID() int64                      { return s.scopeID }
func (s *UserScope) AssignedBy() int64                   { return s.assignedBy }
func (s *UserScope) IsActive() bool                      { return s.isActive }
func (s *UserScope) CreatedAt() time.Time                { return s.createdAt }
func (s *UserScope) UpdatedAt() time.Time                { return s.updatedAt }

func (s *UserScope) Scope() accesscontrol.Scope {
	return accesscontrol.Scope{Type: s.scopeType, ID: s.scopeID}
}

func (s *UserScope) Deactivate() {
	s.isActive = false
	s.updatedAt = time.Now()
}

type CreateDTO struct {
	UserID    int64  `json:"user_id"`
	ScopeType string `json:"scope_type"`
	ScopeID   int64  `json:"scope_id"`
}

func (d *CreateDTO) Ok() error {
	if d.UserID <= 0 {
		return fmt.Errorf("user scope: user id is required")
	}
	if !accesscontrol.ValidScopeType(accesscontrol.ScopeType(d.ScopeType)) {
		return fmt.Errorf("user scope: unknown scope type %q", d.ScopeType)
	}
	if d.ScopeID <= 0 {
		return fmt.Errorf("user scope: scope id is required")
	}
	return nil
}

type Repository interface {
	GetByID(ctx context.Context, id int64) (*UserScope, error)
	// GetActiveByUser returns the user's active scope assignments, newest
	// first. The first entry is the one principals carry.
	GetActiveByUser(ctx context.Context, userID int64) ([]*UserScope, error)
	Create(ctx context.Context, scope *UserScope) (*UserScope, error)
	Deactivate(ctx context.Context, id int64) error
}
