package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"

	"github.com/helioshr/helios/modules/org/domain/aggregates/department"
	"github.com/helioshr/helios/pkg/accesscontrol"
	"github.com/helioshr/helios/pkg/composables"
	"github.com/helioshr/helios/pkg/repo"
)

const (
	selectDepartmentQuery = `
		SELECT
			id,
			business_group_id,
			company_id,
			branch_id,
			parent_id,
			code,
			name,
			description,
			is_active,
			created_at,
			updated_at
		FROM departments`

	countDepartmentQuery = `SELECT COUNT(*) FROM departments`

	countDepartmentChildrenQuery = `
		SELECT COUNT(*) FROM departments WHERE parent_id = $1 AND is_active = TRUE`

	insertDepartmentQuery = `
		INSERT INTO departments (
			business_group_id,
			company_id,
			branch_id,
			parent_id,
			code,
			name,
			description,
			is_active,
			created_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	updateDepartmentQuery = `
		UPDATE departments SET
			branch_id = $1,
			parent_id = $2,
			name = $3,
			description = $4,
			is_active = $5,
			updated_at = $6
		WHERE id = $7`

	deleteDepartmentQuery = `DELETE FROM departments WHERE id = $1`
)

type PgDepartmentRepository struct {
	fieldMap   map[department.Field]string
	filterMap  map[accesscontrol.Field]string
	sortFields []string
}

func NewDepartmentRepository() department.Repository {
	return &PgDepartmentRepository{
		fieldMap: map[department.Field]string{
			department.FieldName:      "name",
			department.FieldCode:      "code",
			department.FieldCreatedAt: "created_at",
			department.FieldUpdatedAt: "updated_at",
		},
		filterMap: map[accesscontrol.Field]string{
			accesscontrol.FieldBusinessGroup: "business_group_id",
			accesscontrol.FieldCompany:       "company_id",
			accesscontrol.FieldBranch:        "branch_id",
			accesscontrol.FieldDepartment:    "id",
		},
	}
}

func (g *PgDepartmentRepository) buildFilters(params *department.FindParams) ([]string, []any, error) {
	var conditions []string
	var args []any
	idx := 1

	add := func(condition string, value any) {
		conditions = append(conditions, condition)
		args = append(args, value)
		idx++
	}

	if params.CompanyID != 0 {
		add(repo.Eq("company_id", idx), params.CompanyID)
	}
	if params.BranchID != 0 {
		add(repo.Eq("branch_id", idx), params.BranchID)
	}
	if params.ParentID != nil {
		if *params.ParentID == 0 {
			conditions = append(conditions, "parent_id IS NULL")
		} else {
			add(repo.Eq("parent_id", idx), *params.ParentID)
		}
	}
	if params.ActiveOnly {
		conditions = append(conditions, "is_active = TRUE")
	}
	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d)", idx, idx))
		args = append(args, "%"+params.Search+"%")
		idx++
	}

	if params.Visibility != nil {
		visConditions, visArgs, err := params.Visibility.ToSQL(g.filterMap, idx)
		if err != nil {
			return nil, nil, err
		}
		conditions = append(conditions, visConditions...)
		args = append(args, visArgs...)
	}
	return conditions, args, nil
}

func (g *PgDepartmentRepository) orderBy(sortBy department.SortBy) string {
	if len(sortBy.Fields) == 0 {
		return "ORDER BY name ASC"
	}
	columns := make([]string, 0, len(sortBy.Fields))
	for _, f := range sortBy.Fields {
		column, ok := g.fieldMap[f]
		if !ok {
			continue
		}
		columns = append(columns, column)
	}
	if len(columns) == 0 {
		return "ORDER BY name ASC"
	}
	direction := "DESC"
	if sortBy.Ascending {
		direction = "ASC"
	}
	return "ORDER BY " + strings.Join(columns, ", ") + " " + direction
}

func (g *PgDepartmentRepository) queryDepartments(ctx context.Context, query string, args ...any) ([]*department.Department, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query departments")
	}
	defer rows.Close()

	out := make([]*department.Department, 0)
	for rows.Next() {
		var row departmentRow
		if err := rows.Scan(
			&row.ID,
			&row.BusinessGroupID,
			&row.CompanyID,
			&row.BranchID,
			&row.ParentID,
			&row.Code,
			&row.Name,
			&row.Description,
			&row.IsActive,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan department row")
		}
		out = append(out, toDomainDepartment(&row))
	}
	return out, rows.Err()
}

func (g *PgDepartmentRepository) Count(ctx context.Context, params *department.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	conditions, args, err := g.buildFilters(params)
	if err != nil {
		return 0, err
	}
	var count int64
	query := repo.Join(countDepartmentQuery, repo.JoinWhere(conditions...))
	if err := tx.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count departments")
	}
	return count, nil
}

func (g *PgDepartmentRepository) GetPaginated(ctx context.Context, params *department.FindParams) ([]*department.Department, error) {
	conditions, args, err := g.buildFilters(params)
	if err != nil {
		return nil, err
	}
	query := repo.Join(
		selectDepartmentQuery,
		repo.JoinWhere(conditions...),
		g.orderBy(params.SortBy),
		repo.FormatLimitOffset(params.Limit, params.Offset),
	)
	return g.queryDepartments(ctx, query, args...)
}

func (g *PgDepartmentRepository) GetByID(ctx context.Context, id int64) (*department.Department, error) {
	departments, err := g.queryDepartments(ctx, repo.Join(selectDepartmentQuery, "WHERE id = $1"), id)
	if err != nil {
		return nil, err
	}
	if len(departments) == 0 {
		return nil, ErrDepartmentNotFound
	}
	return departments[0], nil
}

func (g *PgDepartmentRepository) GetByIDForUpdate(ctx context.Context, id int64) (*department.Department, error) {
	departments, err := g.queryDepartments(ctx, repo.Join(selectDepartmentQuery, "WHERE id = $1 FOR UPDATE"), id)
	if err != nil {
		return nil, err
	}
	if len(departments) == 0 {
		return nil, ErrDepartmentNotFound
	}
	return departments[0], nil
}

func (g *PgDepartmentRepository) GetChildren(ctx context.Context, parentID int64, activeOnly bool) ([]*department.Department, error) {
	conditions := []string{"parent_id = $1"}
	if activeOnly {
		conditions = append(conditions, "is_active = TRUE")
	}
	query := repo.Join(selectDepartmentQuery, repo.JoinWhere(conditions...), "ORDER BY name ASC")
	return g.queryDepartments(ctx, query, parentID)
}

func (g *PgDepartmentRepository) CountActiveChildren(ctx context.Context, parentID int64) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := tx.QueryRow(ctx, countDepartmentChildrenQuery, parentID).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count child departments")
	}
	return count, nil
}

func (g *PgDepartmentRepository) Create(ctx context.Context, data *department.Department) (*department.Department, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var id int64
	if err := tx.QueryRow(
		ctx,
		insertDepartmentQuery,
		data.BusinessGroupID(),
		data.CompanyID(),
		nullable(data.BranchID()),
		nullable(data.ParentID()),
		data.Code(),
		data.Name(),
		data.Description(),
		data.IsActive(),
		data.CreatedAt(),
		data.UpdatedAt(),
	).Scan(&id); err != nil {
		return nil, mapPgError(err, ErrDepartmentNotFound)
	}
	return g.GetByID(ctx, id)
}

func (g *PgDepartmentRepository) Update(ctx context.Context, data *department.Department) (*department.Department, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(
		ctx,
		updateDepartmentQuery,
		nullable(data.BranchID()),
		nullable(data.ParentID()),
		data.Name(),
		data.Description(),
		data.IsActive(),
		data.UpdatedAt(),
		data.ID(),
	); err != nil {
		return nil, mapPgError(err, ErrDepartmentNotFound)
	}
	return g.GetByID(ctx, data.ID())
}

func (g *PgDepartmentRepository) Delete(ctx context.Context, id int64) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, deleteDepartmentQuery, id); err != nil {
		return mapPgError(err, ErrDepartmentNotFound)
	}
	return nil
}
