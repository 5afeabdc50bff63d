package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"

	"github.com/helioshr/helios/modules/org/domain/aggregates/employee"
	"github.com/helioshr/helios/pkg/accesscontrol"
	"github.com/helioshr/helios/pkg/composables"
	"github.com/helioshr/helios/pkg/repo"
)

const (
	selectEmployeeQuery = `
		SELECT
			id,
			user_id,
			business_group_id,
			company_id,
			branch_id,
			department_id,
			supervisor_id,
			code,
			first_name,
			last_name,
			email,
			position,
			hired_at,
			is_active,
			created_at,
			updated_at
		FROM employees`

	countEmployeeQuery = `SELECT COUNT(*) FROM employees`

	countSubordinatesQuery = `
		SELECT COUNT(*) FROM employees WHERE supervisor_id = $1 AND is_active = TRUE`

	insertEmployeeQuery = `
		INSERT INTO employees (
			user_id,
			business_group_id,
			company_id,
			branch_id,
			department_id,
			supervisor_id,
			code,
			first_name,
			last_name,
			email,
			position,
			hired_at,
			is_active,
			created_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`

	updateEmployeeQuery = `
		UPDATE employees SET
			branch_id = $1,
			department_id = $2,
			supervisor_id = $3,
			first_name = $4,
			last_name = $5,
			email = $6,
			position = $7,
			is_active = $8,
			updated_at = $9
		WHERE id = $10`

	deleteEmployeeQuery = `DELETE FROM employees WHERE id = $1`
)

type PgEmployeeRepository struct {
	fieldMap  map[employee.Field]string
	filterMap map[accesscontrol.Field]string
}

func NewEmployeeRepository() employee.Repository {
	return &PgEmployeeRepository{
		fieldMap: map[employee.Field]string{
			employee.FieldFirstName: "first_name",
			employee.FieldLastName:  "last_name",
			employee.FieldCode:      "code",
			employee.FieldHiredAt:   "hired_at",
			employee.FieldCreatedAt: "created_at",
		},
		filterMap: map[accesscontrol.Field]string{
			accesscontrol.FieldBusinessGroup: "business_group_id",
			accesscontrol.FieldCompany:       "company_id",
			accesscontrol.FieldBranch:        "branch_id",
			accesscontrol.FieldDepartment:    "department_id",
			accesscontrol.FieldOwnerUser:     "user_id",
		},
	}
}

func (g *PgEmployeeRepository) buildFilters(params *employee.FindParams) ([]string, []any, error) {
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
	if params.DepartmentID != 0 {
		add(repo.Eq("department_id", idx), params.DepartmentID)
	}
	if params.SupervisorID != 0 {
		add(repo.Eq("supervisor_id", idx), params.SupervisorID)
	}
	if params.ActiveOnly {
		conditions = append(conditions, "is_active = TRUE")
	}
	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR code ILIKE $%d)", idx, idx, idx))
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

func (g *PgEmployeeRepository) orderBy(sortBy employee.SortBy) string {
	if len(sortBy.Fields) == 0 {
		return "ORDER BY last_name ASC, first_name ASC"
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
		return "ORDER BY last_name ASC, first_name ASC"
	}
	direction := "DESC"
	if sortBy.Ascending {
		direction = "ASC"
	}
	return "ORDER BY " + strings.Join(columns, ", ") + " " + direction
}

func (g *PgEmployeeRepository) queryEmployees(ctx context.Context, query string, args ...any) ([]*employee.Employee, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query employees")
	}
	defer rows.Close()

	out := make([]*employee.Employee, 0)
	for rows.Next() {
		var row employeeRow
		if err := rows.Scan(
			&row.ID,
			&row.UserID,
			&row.BusinessGroupID,
			&row.CompanyID,
			&row.BranchID,
			&row.DepartmentID,
			&row.SupervisorID,
			&row.Code,
			&row.FirstName,
			&row.LastName,
			&row.Email,
			&row.Position,
			&row.HiredAt,
			&row.IsActive,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan employee row")
		}
		out = append(out, toDomainEmployee(&row))
	}
	return out, rows.Err()
}

func (g *PgEmployeeRepository) Count(ctx context.Context, params *employee.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	conditions, args, err := g.buildFilters(params)
	if err != nil {
		return 0, err
	}
	var count int64
	query := repo.Join(countEmployeeQuery, repo.JoinWhere(conditions...))
	if err := tx.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count employees")
	}
	return count, nil
}

func (g *PgEmployeeRepository) GetPaginated(ctx context.Context, params *employee.FindParams) ([]*employee.Employee, error) {
	conditions, args, err := g.buildFilters(params)
	if err != nil {
		return nil, err
	}
	query := repo.Join(
		selectEmployeeQuery,
		repo.JoinWhere(conditions...),
		g.orderBy(params.SortBy),
		repo.FormatLimitOffset(params.Limit, params.Offset),
	)
	return g.queryEmployees(ctx, query, args...)
}

func (g *PgEmployeeRepository) GetByID(ctx context.Context, id int64) (*employee.Employee, error) {
	employees, err := g.queryEmployees(ctx, repo.Join(selectEmployeeQuery, "WHERE id = $1"), id)
	if err != nil {
		return nil, err
	}
	if len(employees) == 0 {
		return nil, ErrEmployeeNotFound
	}
	return employees[0], nil
}

func (g *PgEmployeeRepository) GetByIDForUpdate(ctx context.Context, id int64) (*employee.Employee, error) {
	employees, err := g.queryEmployees(ctx, repo.Join(selectEmployeeQuery, "WHERE id = $1 FOR UPDATE"), id)
	if err != nil {
		return nil, err
	}
	if len(employees) == 0 {
		return nil, ErrEmployeeNotFound
	}
	return employees[0], nil
}

func (g *PgEmployeeRepository) GetByUserID(ctx context.Context, userID int64) (*employee.Employee, error) {
	employees, err := g.queryEmployees(ctx, repo.Join(selectEmployeeQuery, "WHERE user_id = $1"), userID)
	if err != nil {
		return nil, err
	}
	if len(employees) == 0 {
		return nil, ErrEmployeeNotFound
	}
	return employees[0], nil
}

func (g *PgEmployeeRepository) GetSubordinates(ctx context.Context, supervisorID int64, activeOnly bool) ([]*employee.Employee, error) {
	conditions := []string{"supervisor_id = $1"}
	if activeOnly {
		conditions = append(conditions, "is_active = TRUE")
	}
	query := repo.Join(selectEmployeeQuery, repo.JoinWhere(conditions...), "ORDER BY last_name ASC, first_name ASC")
	return g.queryEmployees(ctx, query, supervisorID)
}

func (g *PgEmployeeRepository) CountActiveSubordinates(ctx context.Context, supervisorID int64) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := tx.QueryRow(ctx, countSubordinatesQuery, supervisorID).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count subordinates")
	}
	return count, nil
}

func (g *PgEmployeeRepository) Create(ctx context.Context, data *employee.Employee) (*employee.Employee, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var id int64
	if err := tx.QueryRow(
		ctx,
		insertEmployeeQuery,
		nullable(data.UserID()),
		data.BusinessGroupID(),
		data.CompanyID(),
		nullable(data.BranchID()),
		nullable(data.DepartmentID()),
		nullable(data.SupervisorID()),
		data.Code(),
		data.FirstName(),
		data.LastName(),
		data.Email(),
		data.Position(),
		nullableTime(data.HiredAt()),
		data.IsActive(),
		data.CreatedAt(),
		data.UpdatedAt(),
	).Scan(&id); err != nil {
		return nil, mapPgError(err, ErrEmployeeNotFound)
	}
	return g.GetByID(ctx, id)
}

func (g *PgEmployeeRepository) Update(ctx context.Context, data *employee.Employee) (*employee.Employee, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(
		ctx,
		updateEmployeeQuery,
		nullable(data.BranchID()),
		nullable(data.DepartmentID()),
		nullable(data.SupervisorID()),
		data.FirstName(),
		data.LastName(),
		data.Email(),
		data.Position(),
		data.IsActive(),
		data.UpdatedAt(),
		data.ID(),
	); err != nil {
		return nil, mapPgError(err, ErrEmployeeNotFound)
	}
	return g.GetByID(ctx, data.ID())
}

func (g *PgEmployeeRepository) Delete(ctx context.Context, id int64) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, deleteEmployeeQuery, id); err != nil {
		return mapPgError(err, ErrEmployeeNotFound)
	}
	return nil
}
