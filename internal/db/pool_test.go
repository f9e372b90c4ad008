package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDBPoolParams_ConnString(t *testing.T) {
	params := NewDBPoolParams{
		DBHost: "localhost",
		DBPort: "5432",
		DBName: "portfolio",
	}
	assert.Equal(t, "postgres://postgres@localhost:5432/portfolio", params.ConnString())

	params.DBUser = "folio"
	params.DBHost = "::1"
	assert.Equal(t, "postgres://folio@[::1]:5432/portfolio", params.ConnString())
}

func TestNewDBPool_Lazy(t *testing.T) {
	// pgxpool does not connect on creation, so no server is needed here
	pool, err := NewDBPool(context.Background(), NewDBPoolParams{
		DBHost: "localhost",
		DBPort: "5432",
		DBName: "portfolio",
	})
	require.NoError(t, err)
	require.NotNil(t, pool)
	pool.Close()
}

type execRecorder struct {
	sql string
	err error
}

func (e *execRecorder) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	e.sql = sql
	return pgconn.CommandTag{}, e.err
}

func TestMigrate(t *testing.T) {
	rec := &execRecorder{}
	require.NoError(t, Migrate(context.Background(), rec))
	assert.Contains(t, rec.sql, "CREATE TABLE IF NOT EXISTS public.admin")
	assert.Contains(t, rec.sql, "ux_admin_email")

	rec = &execRecorder{err: errors.New("db down")}
	err := Migrate(context.Background(), rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}
