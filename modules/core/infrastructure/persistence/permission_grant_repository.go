package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/helioshr/helios/modules/core/domain/entities/permissiongrant"
	"github.com/helioshr/helios/pkg/composables"
	"github.com/helioshr/helios/pkg/repo"
	"github.com/helioshr/helios/pkg/serrors"
)

var ErrPermissionGrantNotFound = serrors.NewError("PERMISSION_GRANT_NOT_FOUND", "permission grant not found")

const (
	selectPermissionGrantQuery = `
		SELECT id, user_id, endpoint, method, is_allowed, granted_by, is_active, created_at, updated_at
		FROM permission_grants`

	lookupPermissionGrantQuery = `
		SELECT is_allowed
		FROM permission_grants
		WHERE user_id = $1 AND endpoint = $2 AND method = $3 AND is_active = TRUE
		ORDER BY created_at DESC
		LIMIT 1`

	insertPermissionGrantQuery = `
		INSERT INTO permission_grants (user_id, endpoint, method, is_allowed, granted_by, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	deactivatePermissionGrantsQuery = `
		UPDATE permission_grants SET is_active = FALSE, updated_at = $2
		WHERE user_id = $1 AND is_active = TRUE`
)

// PgPermissionGrantRepository stores endpoint overrides. It doubles as the
// access engine's GrantStore via Lookup.
type PgPermissionGrantRepository struct{}

func NewPermissionGrantRepository() *PgPermissionGrantRepository {
	return &PgPermissionGrantRepository{}
}

func (g *PgPermissionGrantRepository) queryGrants(ctx context.Context, query string, args ...any) ([]*permissiongrant.PermissionGrant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query permission grants")
	}
	defer rows.Close()

	out := make([]*permissiongrant.PermissionGrant, 0)
	for rows.Next() {
		var (
			id        int64
			userID    int64
			endpoint  string
			method    string
			isAllowed bool
			grantedBy *int64
			isActive  bool
			createdAt time.Time
			updatedAt time.Time
		)
		if err := rows.Scan(&id, &userID, &endpoint, &method, &isAllowed, &grantedBy, &isActive, &createdAt, &updatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan permission grant row")
		}
		opts := []permissiongrant.Option{
			permissiongrant.WithID(id),
			permissiongrant.WithIsActive(isActive),
			permissiongrant.WithCreatedAt(createdAt),
			permissiongrant.WithUpdatedAt(updatedAt),
		}
		if grantedBy != nil {
			opts = append(opts, permissiongrant.WithGrantedBy(*grantedBy))
		}
		out = append(out, permissiongrant.New(userID, endpoint, method, isAllowed, opts...))
	}
	return out, rows.Err()
}

func (g *PgPermissionGrantRepository) GetActiveByUser(ctx context.Context, userID int64) ([]*permissiongrant.PermissionGrant, error) {
	query := repo.Join(
		selectPermissionGrantQuery,
		"WHERE user_id = $1 AND is_active = TRUE",
		"ORDER BY endpoint ASC, method ASC",
	)
	return g.queryGrants(ctx, query, userID)
}

func (g *PgPermissionGrantRepository) Lookup(ctx context.Context, userID int64, endpoint, method string) (*bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var allowed bool
	err = tx.QueryRow(ctx, lookupPermissionGrantQuery, userID, endpoint, strings.ToUpper(method)).Scan(&allowed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to look up permission grant")
	}
	return &allowed, nil
}

func (g *PgPermissionGrantRepository) Create(ctx context.Context, data *permissiongrant.PermissionGrant) (*permissiongrant.PermissionGrant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var grantedBy *int64
	if data.GrantedBy() != 0 {
		v := data.GrantedBy()
		grantedBy = &v
	}
	var id int64
	if err := tx.QueryRow(
		ctx,
		insertPermissionGrantQuery,
		data.UserID(),
		data.Endpoint(),
		data.Method(),
		data.IsAllowed(),
		grantedBy,
		data.IsActive(),
		data.CreatedAt(),
		data.UpdatedAt(),
	).Scan(&id); err != nil {
		return nil, errors.Wrap(err, "failed to create permission grant")
	}
	grants, err := g.queryGrants(ctx, repo.Join(selectPermissionGrantQuery, "WHERE id = $1"), id)
	if err != nil {
		return nil, err
	}
	if len(grants) == 0 {
		return nil, ErrPermissionGrantNotFound
	}
	return grants[0], nil
}

func (g *PgPermissionGrantRepository) DeactivateAllByUser(ctx context.Context, userID int64) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, deactivatePermissionGrantsQuery, userID, time.Now()); err != nil {
		return errors.Wrap(err, "failed to deactivate permission grants")
	}
	return nil
}
