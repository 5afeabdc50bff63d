package department

import (
	"time"

	"github.com/helioshr/helios/pkg/accesscontrol"
)

// Department is an organizational unit inside a company. A department with
// no branch is corporate-level; one with a branch belongs to that location.
// The parent edge forms a tree whose chain to a corporate root is bounded
// by MaxChainDepth.
type Department struct {
	id              int64
	businessGroupID int64
	companyID       int64
	branchID        int64 // 0 = corporate-level
	parentID        int64 // 0 = root of its chain
	code            string
	name            string
	description     string
	isActive        bool
	createdAt       time.Time
	updatedAt       time.Time
}

// MaxChainDepth bounds the parent chain from any department to a corporate
// root, in edges.
const MaxChainDepth = 5

type Option func(*Department)

func WithID(id int64) Option {
	return func(d *Department) { d.id = id }
}

func WithBranchID(branchID int64) Option {
	return func(d *Department) { d.branchID = branchID }
}

func WithParentID(parentID int64) Option {
	return func(d *Department) { d.parentID = parentID }
}

func WithDescription(description string) Option {
	return func(d *Department) { d.description = description }
}

func WithIsActive(isActive bool) Option {
	return func(d *Department) { d.isActive = isActive }
}

func WithCreatedAt(t time.Time) Option {
	return func(d *Department) { d.createdAt = t }
}

func WithUpdatedAt(t time.Time) Option {
	return func(d *Department) { d.updatedAt = t }
}

func New(businessGroupID, companyID int64, code, name string, opts ...Option) *Department {
	d := &Department{
		businessGroupID: businessGroupID,
		companyID:       companyID,
		code:            code,
		name:            name,
		isActive:        true,
		createdAt:       time.Now(),
		updatedAt:       time.Now(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Department) ID() int64              { return d.id }
func (d *Department) BusinessGroupID() int64 { return d.businessGroupID }
func (d *Department) CompanyID() int64       { return d.companyID }
func (d *Department) BranchID() int64        { return d.branchID }
func (d *Department) ParentID() int64        { return d.parentID }
func (d *Department) Code() string           { return d.code }
func (d *Department) Name() string           { return d.name }
func (d *Department) Description() string    { return d.description }
func (d *Department) IsActive() bool         { return d.isActive }
func (d *Department) CreatedAt() time.Time   { return d.createdAt }
func (d *Department) UpdatedAt() time.Time   { return d.updatedAt }

// IsCorporate is derived from the branch coordinate rather than stored, so
// the corporate-xor-branch rule cannot drift.
func (d *Department) IsCorporate() bool { return d.branchID == 0 }

func (d *Department) SetName(name string) {
	d.name = name
	d.updatedAt = time.Now()
}

func (d *Department) SetDescription(description string) {
	d.description = description
	d.updatedAt = time.Now()
}

func (d *Department) SetParentID(parentID int64) {
	d.parentID = parentID
	d.updatedAt = time.Now()
}

func (d *Department) SetBranchID(branchID int64) {
	d.branchID = branchID
	d.updatedAt = time.Now()
}

func (d *Department) Deactivate() {
	d.isActive = false
	d.updatedAt = time.Now()
}

// Coordinates locates the department for authorization decisions.
func (d *Department) Coordinates() accesscontrol.Coordinates {
	return accesscontrol.Coordinates{
		BusinessGroupID: d.businessGroupID,
		CompanyID:       d.companyID,
		BranchID:        d.branchID,
		DepartmentID:    d.id,
	}
}
