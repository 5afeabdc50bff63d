package persistence

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/helioshr/helios/modules/core/domain/entities/userscope"
	"github.com/helioshr/helios/pkg/accesscontrol"
	"github.com/helioshr/helios/pkg/composables"
	"github.com/helioshr/helios/pkg/repo"
	"github.com/helioshr/helios/pkg/serrors"
)

var ErrUserScopeNotFound = serrors.NewError("USER_SCOPE_NOT_FOUND", "user scope not found")

const (
	selectUserScopeQuery = `
		SELECT id, user_id, scope_type, scope_id, assigned_by, is_active, created_at, updated_at
		FROM user_scopes`

	insertUserScopeQuery = `
		INSERT INTO user_scopes (user_id, scope_type, scope_id, assigned_by, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	deactivateUserScopeQuery = `
		UPDATE user_scopes SET is_active = FALSE, updated_at = $2 WHERE id = $1`
)

type PgUserScopeRepository struct{}

func NewUserScopeRepository() userscope.Repository {
	return &PgUserScopeRepository{}
}

func (g *PgUserScopeRepository) queryScopes(ctx context.Context, query string, args ...any) ([]*userscope.UserScope, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query user scopes")
	}
	defer rows.Close()

	out := make([]*userscope.UserScope, 0)
	for rows.Next() {
		var (
			id         int64
			userID     int64
			scopeType  string
			scopeID    int64
			assignedBy *int64
			isActive   bool
			createdAt  time.Time
			updatedAt  time.Time
		)
		if err := rows.Scan(&id, &userID, &scopeType, &scopeID, &assignedBy, &isActive, &createdAt, &updatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan user scope row")
		}
		opts := []userscope.Option{
			userscope.WithID(id),
			userscope.WithIsActive(isActive),
			userscope.WithCreatedAt(createdAt),
			userscope.WithUpdatedAt(updatedAt),
		}
		if assignedBy != nil {
			opts = append(opts, userscope.WithAssignedBy(*assignedBy))
		}
		out = append(out, userscope.New(userID, accesscontrol.ScopeType(scopeType), scopeID, opts...))
	}
	return out, rows.Err()
}

func (g *PgUserScopeRepository) GetByID(ctx context.Context, id int64) (*userscope.UserScope, error) {
	scopes, err := g.queryScopes(ctx, repo.Join(selectUserScopeQuery, "WHERE id = $1"), id)
	if err != nil {
		return nil, err
	}
	if len(scopes) == 0 {
		return nil, ErrUserScopeNotFound
	}
	return scopes[0], nil
}

func (g *PgUserScopeRepository) GetActiveByUser(ctx context.Context, userID int64) ([]*userscope.UserScope, error) {
	query := repo.Join(
		selectUserScopeQuery,
		"WHERE user_id = $1 AND is_active = TRUE",
		"ORDER BY created_at DESC",
	)
	return g.queryScopes(ctx, query, userID)
}

func (g *PgUserScopeRepository) Create(ctx context.Context, data *userscope.UserScope) (*userscope.UserScope, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var assignedBy *int64
	if data.AssignedBy() != 0 {
		v := data.AssignedBy()
		assignedBy = &v
	}
	var id int64
	if err := tx.QueryRow(
		ctx,
		insertUserScopeQuery,
		data.UserID(),
		string(data.ScopeType()),
		data.ScopeID(),
		assignedBy,
		data.IsActive(),
		data.CreatedAt(),
		data.UpdatedAt(),
	).Scan(&id); err != nil {
		return nil, errors.Wrap(err, "failed to create user scope")
	}
	return g.GetByID(ctx, id)
}

func (g *PgUserScopeRepository) Deactivate(ctx context.Context, id int64) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, deactivateUserScopeQuery, id, time.Now())
	if err != nil {
		return errors.Wrap(err, "failed to deactivate user scope")
	}
	if tag.RowsAffected() == 0 {
		return ErrUserScopeNotFound
	}
	return nil
}
