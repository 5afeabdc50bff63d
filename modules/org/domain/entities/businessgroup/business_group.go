package businessgroup

import (
	"context"
	"time"
)

// BusinessGroup is the tenant root: every company, branch, department and
// employee below it resolves to exactly one business group.
type BusinessGroup struct {
	id        int64
	code      string
	name      string
	isActive  bool
	createdAt time.Time
	updatedAt time.Time
}

type Option func(*BusinessGroup)

func WithID(id int64) Option {
	return func(b *BusinessGroup) { b.id = id }
}

func WithIsActive(isActive bool) Option {
	return func(b *BusinessGroup) { b.isActive = isActive }
}

func WithCreatedAt(t time.Time) Option {
	return func(b *BusinessGroup) { b.createdAt = t }
}

func WithUpdatedAt(t time.Time) Option {
	return func(b *BusinessGroup) { b.updatedAt = t }
}

func New(code, name string, opts ...Option) *BusinessGroup {
	b := &BusinessGroup{
		code:      code,
		name:      name,
		isActive:  true,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *BusinessGroup) ID() int64            { return b.id }
func (b *BusinessGroup) Code() string         { return b.code }
func (b *BusinessGroup) Name() string         { return b.name }
func (b *BusinessGroup) IsActive() bool       { return b.isActive }
func (b *BusinessGroup) CreatedAt() time.Time { return b.createdAt }
func (b *BusinessGroup) UpdatedAt() time.Time { return b.updatedAt }

type Repository interface {
	GetByID(ctx context.Context, id int64) (*BusinessGroup, error)
	GetAll(ctx context.Context, activeOnly bool) ([]*BusinessGroup, error)
	Create(ctx context.Context, group *BusinessGroup) (*BusinessGroup, error)
}
