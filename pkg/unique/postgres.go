package unique

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/validkit/pkg/pg"
)

// Querier is the subset of pgxpool.Pool, pgx.Conn and pgx.Tx the checker needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresChecker looks values up in a table column. Scope is
// "[schema.]table.column"; identifiers are quoted, so scopes cannot inject SQL.
type PostgresChecker struct {
	db      Querier
	allowed []string
	fold    bool
}

// PostgresOption configures a PostgresChecker.
type PostgresOption func(*PostgresChecker)

// WithAllowedScopes restricts lookups to the listed scopes.
func WithAllowedScopes(scopes ...string) PostgresOption {
	return func(c *PostgresChecker) {
		c.allowed = append(c.allowed, scopes...)
	}
}

// WithCaseFolding compares lower(column) with lower(value).
func WithCaseFolding() PostgresOption {
	return func(c *PostgresChecker) {
		c.fold = true
	}
}

// NewPostgresChecker looks values up through db.
func NewPostgresChecker(db Querier, opts ...PostgresOption) *PostgresChecker {
	c := &PostgresChecker{db: db}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query returns the statement used for scope.
func (c *PostgresChecker) Query(scope string) (string, error) {
	if len(c.allowed) > 0 && !slices.Contains(c.allowed, scope) {
		return "", fmt.Errorf("%w: %s", ErrScopeForbidden, scope)
	}
	parts := strings.Split(scope, ".")
	if len(parts) < 2 || len(parts) > 3 || slices.Contains(parts, "") {
		return "", fmt.Errorf("%w: %q, want [schema.]table.column", ErrInvalidScope, scope)
	}
	table := pgx.Identifier(parts[:len(parts)-1]).Sanitize()
	column := pgx.Identifier{parts[len(parts)-1]}.Sanitize()
	if c.fold {
		return fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE lower(%s) = lower($1))", table, column), nil
	}
	return fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)", table, column), nil
}

func (c *PostgresChecker) Exists(ctx context.Context, scope, value string) (bool, error) {
	query, err := c.Query(scope)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := c.db.QueryRow(ctx, query, value).Scan(&exists); err != nil {
		if pg.IsUndefinedObjectError(err) {
			return false, fmt.Errorf("%w: %s: %w", ErrInvalidScope, scope, err)
		}
		return false, fmt.Errorf("unique lookup %s: %w", scope, err)
	}
	return exists, nil
}
