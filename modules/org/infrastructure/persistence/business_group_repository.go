package persistence

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/helioshr/helios/modules/org/domain/entities/businessgroup"
	"github.com/helioshr/helios/pkg/composables"
	"github.com/helioshr/helios/pkg/repo"
)

const (
	selectBusinessGroupQuery = `
		SELECT id, code, name, is_active, created_at, updated_at
		FROM business_groups`

	insertBusinessGroupQuery = `
		INSERT INTO business_groups (code, name, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
)

type PgBusinessGroupRepository struct{}

func NewBusinessGroupRepository() businessgroup.Repository {
	return &PgBusinessGroupRepository{}
}

func (g *PgBusinessGroupRepository) queryGroups(ctx context.Context, query string, args ...any) ([]*businessgroup.BusinessGroup, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query business groups")
	}
	defer rows.Close()

	out := make([]*businessgroup.BusinessGroup, 0)
	for rows.Next() {
		var row businessGroupRow
		if err := rows.Scan(&row.ID, &row.Code, &row.Name, &row.IsActive, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan business group row")
		}
		out = append(out, toDomainBusinessGroup(&row))
	}
	return out, rows.Err()
}

func (g *PgBusinessGroupRepository) GetByID(ctx context.Context, id int64) (*businessgroup.BusinessGroup, error) {
	groups, err := g.queryGroups(ctx, repo.Join(selectBusinessGroupQuery, "WHERE id = $1"), id)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, ErrBusinessGroupNotFound
	}
	return groups[0], nil
}

func (g *PgBusinessGroupRepository) GetAll(ctx context.Context, activeOnly bool) ([]*businessgroup.BusinessGroup, error) {
	var conditions []string
	if activeOnly {
		conditions = append(conditions, "is_active = TRUE")
	}
	query := repo.Join(selectBusinessGroupQuery, repo.JoinWhere(conditions...), "ORDER BY name ASC")
	return g.queryGroups(ctx, query)
}

func (g *PgBusinessGroupRepository) Create(ctx context.Context, data *businessgroup.BusinessGroup) (*businessgroup.BusinessGroup, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var id int64
	if err := tx.QueryRow(
		ctx,
		insertBusinessGroupQuery,
		data.Code(),
		data.Name(),
		data.IsActive(),
		data.CreatedAt(),
		data.UpdatedAt(),
	).Scan(&id); err != nil {
		return nil, mapPgError(err, ErrBusinessGroupNotFound)
	}
	return g.GetByID(ctx, id)
}
