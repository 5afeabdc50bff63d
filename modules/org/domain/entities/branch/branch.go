package branch

import (
	"context"
	"time"
)

// Branch is a physical location of a company. At most one branch per
// company is the headquarters; the database enforces that atomically with a
// partial unique index, not a pre-check.
type Branch struct {
	id              int64
	businessGroupID int64
	companyID       int64
	code            string
	name            string
	isHeadquarters  bool
	isActive        bool
	createdAt       time.Time
	updatedAt       time.Time
}

type Option func(*Branch)

func WithID(id int64) Option {
	return func(b *Branch) { b.id = id }
}

func WithIsHeadquarters(hq bool) Option {
	return func(b *Branch) { b.isHeadquarters = hq }
}

func WithIsActive(isActive bool) Option {
	return func(b *Branch) { b.isActive = isActive }
}

func WithCreatedAt(t time.Time) Option {
	return func(b *Branch) { b.createdAt = t }
}

func WithUpdatedAt(t time.Time) Option {
	return func(b *Branch) { b.updatedAt = t }
}

func New(businessGroupID, companyID int64, code, name string, opts ...Option) *Branch {
	b := &Branch{
		businessGroupID: businessGroupID,
		companyID:       companyID,
		code:            code,
		name:            name,
		isActive:        true,
		createdAt:       time.Now(),
		updatedAt:       time.Now(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Branch) ID() int64              { return b.id }
func (b *Branch) BusinessGroupID() int64 { return b.businessGroupID }
func (b *Branch) CompanyID() int64       { return b.companyID }
func (b *Branch) Code() string           { return b.code }
func (b *Branch) Name() string           { return b.name }
func (b *Branch) IsHeadquarters() bool   { return b.isHeadquarters }
func (b *Branch) IsActive() bool         { return b.isActive }
func (b *Branch) CreatedAt() time.Time   { return b.createdAt }
func (b *Branch) UpdatedAt() time.Time   { return b.updatedAt }

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Branch, error)
	GetByCompany(ctx context.Context, companyID int64, activeOnly bool) ([]*Branch, error)
	Create(ctx context.Context, branch *Branch) (*Branch, error)
}
