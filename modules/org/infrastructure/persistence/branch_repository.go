package persistence

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/helioshr/helios/modules/org/domain/entities/branch"
	"github.com/helioshr/helios/pkg/composables"
	"github.com/helioshr/helios/pkg/repo"
)

const (
	selectBranchQuery = `
		SELECT id, business_group_id, company_id, code, name, is_headquarters, is_active, created_at, updated_at
		FROM branches`

	insertBranchQuery = `
		INSERT INTO branches (business_group_id, company_id, code, name, is_headquarters, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
)

type PgBranchRepository struct{}

func NewBranchRepository() branch.Repository {
	return &PgBranchRepository{}
}

func (g *PgBranchRepository) queryBranches(ctx context.Context, query string, args ...any) ([]*branch.Branch, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query branches")
	}
	defer rows.Close()

	out := make([]*branch.Branch, 0)
	for rows.Next() {
		var row branchRow
		if err := rows.Scan(
			&row.ID,
			&row.BusinessGroupID,
			&row.CompanyID,
			&row.Code,
			&row.Name,
			&row.IsHeadquarters,
			&row.IsActive,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan branch row")
		}
		out = append(out, toDomainBranch(&row))
	}
	return out, rows.Err()
}

func (g *PgBranchRepository) GetByID(ctx context.Context, id int64) (*branch.Branch, error) {
	branches, err := g.queryBranches(ctx, repo.Join(selectBranchQuery, "WHERE id = $1"), id)
	if err != nil {
		return nil, err
	}
	if len(branches) == 0 {
		return nil, ErrBranchNotFound
	}
	return branches[0], nil
}

func (g *PgBranchRepository) GetByCompany(ctx context.Context, companyID int64, activeOnly bool) ([]*branch.Branch, error) {
	conditions := []string{"company_id = $1"}
	if activeOnly {
		conditions = append(conditions, "is_active = TRUE")
	}
	query := repo.Join(selectBranchQuery, repo.JoinWhere(conditions...), "ORDER BY name ASC")
	return g.queryBranches(ctx, query, companyID)
}

func (g *PgBranchRepository) Create(ctx context.Context, data *branch.Branch) (*branch.Branch, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var id int64
	if err := tx.QueryRow(
		ctx,
		insertBranchQuery,
		data.BusinessGroupID(),
		data.CompanyID(),
		data.Code(),
		data.Name(),
		data.IsHeadquarters(),
		data.IsActive(),
		data.CreatedAt(),
		data.UpdatedAt(),
	).Scan(&id); err != nil {
		return nil, mapPgError(err, ErrBranchNotFound)
	}
	return g.GetByID(ctx, id)
}
