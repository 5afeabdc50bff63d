package persistence

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/helioshr/helios/modules/org/domain/entities/company"
	"github.com/helioshr/helios/pkg/composables"
	"github.com/helioshr/helios/pkg/repo"
)

const (
	selectCompanyQuery = `
		SELECT id, business_group_id, code, name, is_active, created_at, updated_at
		FROM companies`

	insertCompanyQuery = `
		INSERT INTO companies (business_group_id, code, name, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
)

type PgCompanyRepository struct{}

func NewCompanyRepository() company.Repository {
	return &PgCompanyRepository{}
}

func (g *PgCompanyRepository) queryCompanies(ctx context.Context, query string, args ...any) ([]*company.Company, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query companies")
	}
	defer rows.Close()

	out := make([]*company.Company, 0)
	for rows.Next() {
		var row companyRow
		if err := rows.Scan(&row.ID, &row.BusinessGroupID, &row.Code, &row.Name, &row.IsActive, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan company row")
		}
		out = append(out, toDomainCompany(&row))
	}
	return out, rows.Err()
}

func (g *PgCompanyRepository) GetByID(ctx context.Context, id int64) (*company.Company, error) {
	companies, err := g.queryCompanies(ctx, repo.Join(selectCompanyQuery, "WHERE id = $1"), id)
	if err != nil {
		return nil, err
	}
	if len(companies) == 0 {
		return nil, ErrCompanyNotFound
	}
	return companies[0], nil
}

func (g *PgCompanyRepository) GetByBusinessGroup(ctx context.Context, businessGroupID int64, activeOnly bool) ([]*company.Company, error) {
	conditions := []string{"business_group_id = $1"}
	if activeOnly {
		conditions = append(conditions, "is_active = TRUE")
	}
	query := repo.Join(selectCompanyQuery, repo.JoinWhere(conditions...), "ORDER BY name ASC")
	return g.queryCompanies(ctx, query, businessGroupID)
}

func (g *PgCompanyRepository) Create(ctx context.Context, data *company.Company) (*company.Company, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var id int64
	if err := tx.QueryRow(
		ctx,
		insertCompanyQuery,
		data.BusinessGroupID(),
		data.Code(),
		data.Name(),
		data.IsActive(),
		data.CreatedAt(),
		data.UpdatedAt(),
	).Scan(&id); err != nil {
		return nil, mapPgError(err, ErrCompanyNotFound)
	}
	return g.GetByID(ctx, id)
}
