package postgres

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory SQLite database with the service schema.
// SQLite has no FOR UPDATE, so the locking clause is stripped before query
// building; the locking semantics themselves are exercised against Postgres.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)

	err = db.Callback().Query().Before("gorm:query").Register("test:strip_for_update", func(d *gorm.DB) {
		delete(d.Statement.Clauses, "FOR")
	})
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	return db
}

func day(year int, month time.Month, dayOfMonth int) time.Time {
	return time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC)
}
