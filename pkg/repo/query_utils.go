package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Tx is the subset of pgx.Tx repositories rely on. Both pgx.Tx and
// *pgxpool.Pool satisfy it, so read paths can run without an explicit
// transaction.
type Tx interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Join concatenates non-empty query fragments with single spaces.
func Join(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// JoinWhere renders a WHERE clause joining the given conditions with AND.
// Returns "" when there are no conditions.
func JoinWhere(conditions ...string) string {
	out := make([]string, 0, len(conditions))
	for _, c := range conditions {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(out, " AND ")
}

// FormatLimitOffset renders LIMIT/OFFSET clauses, omitting non-positive
// values.
func FormatLimitOffset(limit, offset int) string {
	if limit > 0 && offset > 0 {
		return fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset)
	}
	if limit > 0 {
		return fmt.Sprintf("LIMIT %d", limit)
	}
	if offset > 0 {
		return fmt.Sprintf("OFFSET %d", offset)
	}
	return ""
}

// Eq renders "column = $n" for the given placeholder index.
func Eq(column string, index int) string {
	return fmt.Sprintf("%s = $%d", column, index)
}

// In renders "column = ANY($n)"; the argument is expected to be a slice.
func In(column string, index int) string {
	return fmt.Sprintf("%s = ANY($%d)", column, index)
}
