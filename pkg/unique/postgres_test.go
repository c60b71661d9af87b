package unique_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/validkit/pkg/unique"
)

type fakeRow struct {
	exists bool
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*bool)) = r.exists
	return nil
}

type fakeDB struct {
	rows  map[string]bool
	err   error
	query string
	args  []any
}

func (db *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	db.query, db.args = sql, args
	return fakeRow{exists: db.rows[args[0].(string)], err: db.err}
}

func TestPostgresChecker_Query(t *testing.T) {
	t.Parallel()

	c := unique.NewPostgresChecker(&fakeDB{})

	q, err := c.Query("users.email")
	require.NoError(t, err)
	assert.Equal(t, `SELECT EXISTS (SELECT 1 FROM "users" WHERE "email" = $1)`, q)

	q, err = c.Query("auth.users.email")
	require.NoError(t, err)
	assert.Equal(t, `SELECT EXISTS (SELECT 1 FROM "auth"."users" WHERE "email" = $1)`, q)

	q, err = c.Query(`users.email"; DROP TABLE users; --`)
	require.NoError(t, err)
	assert.Contains(t, q, `"email""; DROP TABLE users; --"`)

	folded, err := unique.NewPostgresChecker(&fakeDB{}, unique.WithCaseFolding()).Query("users.email")
	require.NoError(t, err)
	assert.Equal(t, `SELECT EXISTS (SELECT 1 FROM "users" WHERE lower("email") = lower($1))`, folded)

	for _, scope := range []string{"users", "a.b.c.d", "users.", ".email"} {
		_, err := c.Query(scope)
		assert.ErrorIs(t, err, unique.ErrInvalidScope, scope)
	}
}

func TestPostgresChecker_Exists(t *testing.T) {
	t.Parallel()

	db := &fakeDB{rows: map[string]bool{"alice@example.com": true}}
	c := unique.NewPostgresChecker(db, unique.WithAllowedScopes("users.email"))

	taken, err := c.Exists(context.Background(), "users.email", "alice@example.com")
	require.NoError(t, err)
	assert.True(t, taken)
	assert.Equal(t, []any{"alice@example.com"}, db.args)

	taken, err = c.Exists(context.Background(), "users.email", "carol@example.com")
	require.NoError(t, err)
	assert.False(t, taken)

	_, err = c.Exists(context.Background(), "users.password", "x")
	assert.ErrorIs(t, err, unique.ErrScopeForbidden)

	boom := errors.New("relation does not exist")
	db.err = boom
	_, err = c.Exists(context.Background(), "users.email", "x")
	assert.ErrorIs(t, err, boom)

	db.err = &pgconn.PgError{Code: "42P01", Message: "relation \"users\" does not exist"}
	_, err = c.Exists(context.Background(), "users.email", "x")
	assert.ErrorIs(t, err, unique.ErrInvalidScope)
}
