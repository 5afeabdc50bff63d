package company

import (
	"context"
	"time"
)

type Company struct {
	id              int64
	businessGroupID int64
	code            string
	name            string
	isActive        bool
	createdAt       time.Time
	updatedAt       time.Time
}

type Option func(*Company)

func WithID(id int64) Option {
	return func(c *Company) { c.id = id }
}

func WithIsActive(isActive bool) Option {
	return func(c *Company) { c.isActive = isActive }
}

func WithCreatedAt(t time.Time) Option {
	return func(c *Company) { c.createdAt = t }
}

func WithUpdatedAt(t time.Time) Option {
	return func(c *Company) { c.updatedAt = t }
}

func New(businessGroupID int64, code, name string, opts ...Option) *Company {
	c := &Company{
		businessGroupID: businessGroupID,
		code:            code,
		name:            name,
		isActive:        true,
		createdAt:       time.Now(),
		updatedAt:       time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Company) ID() int64              { return c.id }
func (c *Company) BusinessGroupID() int64 { return c.businessGroupID }
func (c *Company) Code() string           { return c.code }
func (c *Company) Name() string           { return c.name }
func (c *Company) IsActive() bool         { return c.isActive }
func (c *Company) CreatedAt() time.Time   { return c.createdAt }
func (c *Company) UpdatedAt() time.Time   { return c.updatedAt }

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Company, error)
	GetByBusinessGroup(ctx context.Context, businessGroupID int64, activeOnly bool) ([]*Company, error)
	Create(ctx context.Context, company *Company) (*Company, error)
}
