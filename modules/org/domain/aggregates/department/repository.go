package department

import (
	"context"

	"github.com/helioshr/helios/pkg/accesscontrol"
)

type Field int

const (
	FieldName Field = iota
	FieldCode
	FieldCreatedAt
	FieldUpdatedAt
)

type SortBy struct {
	Fields    []Field
	Ascending bool
}

type FindParams struct {
	Limit      int
	Offset     int
	CompanyID  int64
	BranchID   int64
	ParentID   *int64 // nil = any parent; 0 = roots only
	ActiveOnly bool
	Search     string
	SortBy     SortBy
	// Visibility narrows results to what the caller may see. A nil filter
	// means no narrowing.
	Visibility *accesscontrol.Filter
}

type Repository interface {
	Count(ctx context.Context, params *FindParams) (int64, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]*Department, error)
	GetByID(ctx context.Context, id int64) (*Department, error)
	// GetByIDForUpdate locks the row for the duration of the enclosing
	// transaction so concurrent parent-edge writes serialize.
	GetByIDForUpdate(ctx context.Context, id int64) (*Department, error)
	GetChildren(ctx context.Context, parentID int64, activeOnly bool) ([]*Department, error)
	CountActiveChildren(ctx context.Context, parentID int64) (int64, error)
	Create(ctx context.Context, data *Department) (*Department, error)
	Update(ctx context.Context, data *Department) (*Department, error)
	Delete(ctx context.Context, id int64) error
}
