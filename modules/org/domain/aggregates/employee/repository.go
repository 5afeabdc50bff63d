package employee

import (
	"context"

	"github.com/helioshr/helios/pkg/accesscontrol"
)

type Field int

const (
	FieldFirstName Field = iota
	FieldLastName
	FieldCode
	FieldHiredAt
	FieldCreatedAt
)

type SortBy struct {
	Fields    []Field
	Ascending bool
}

type FindParams struct {
	Limit        int
	Offset       int
	CompanyID    int64
	BranchID     int64
	DepartmentID int64
	SupervisorID int64
	ActiveOnly   bool
	Search       string
	SortBy       SortBy
	// Visibility narrows results to what the caller may see. A nil filter
	// means no narrowing.
	Visibility *accesscontrol.Filter
}

type Repository interface {
	Count(ctx context.Context, params *FindParams) (int64, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]*Employee, error)
	GetByID(ctx context.Context, id int64) (*Employee, error)
	// GetByIDForUpdate locks the row for the duration of the enclosing
	// transaction so concurrent supervisor-edge writes serialize.
	GetByIDForUpdate(ctx context.Context, id int64) (*Employee, error)
	GetByUserID(ctx context.Context, userID int64) (*Employee, error)
	GetSubordinates(ctx context.Context, supervisorID int64, activeOnly bool) ([]*Employee, error)
	CountActiveSubordinates(ctx context.Context, supervisorID int64) (int64, error)
	Create(ctx context.Context, data *Employee) (*Employee, error)
	Update(ctx context.Context, data *Employee) (*Employee, error)
	Delete(ctx context.Context, id int64) error
}
