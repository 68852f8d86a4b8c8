// Package dbtest opens migrated databases for tests.
package dbtest

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/anhbaysgalan1/teenpatti/internal/database"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
)

// PostgresURLEnv names a postgres:// URL used by NewConcurrent.
const PostgresURLEnv = "TEST_DATABASE_URL"

// New returns a fresh, migrated database private to t. The pool is pinned to one
// connection so every statement sees the same in-memory schema. Transactions therefore
// run one after another.
func New(t testing.TB) *database.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := database.Open(sqlite.Open(dsn), true)
	require.NoError(t, err)

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// NewConcurrent returns a database whose pool lets transactions overlap, so row locks are
// actually contended. It uses Postgres in a throwaway schema when TEST_DATABASE_URL is set.
// Without it the tests fall back to New and only observe serialized commits.
func NewConcurrent(t testing.TB) *database.DB {
	t.Helper()

	raw := os.Getenv(PostgresURLEnv)
	if raw == "" {
		t.Logf("%s not set; transactions are serialized on SQLite", PostgresURLEnv)
		return New(t)
	}

	u, err := url.Parse(raw)
	require.NoError(t, err)
	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	admin, err := database.Open(postgres.Open(raw), true)
	require.NoError(t, err)
	require.NoError(t, admin.Exec("CREATE SCHEMA "+schema).Error)
	t.Cleanup(func() {
		_ = admin.Exec("DROP SCHEMA " + schema + " CASCADE").Error
		_ = admin.Close()
	})

	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()

	db, err := database.Open(postgres.Open(u.String()), true)
	require.NoError(t, err)

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(8)

	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })
	return db
}
