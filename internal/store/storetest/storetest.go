// Package storetest opens throwaway in-memory databases for tests.
package storetest

import (
	"context"
	"fmt"
	"testing"

	"bet_wallet/internal/config"
	"bet_wallet/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewSQLite returns a private in-memory sqlite database migrated for models.
// It is closed when the test ends.
func NewSQLite(t testing.TB, models ...interface{}) *gorm.DB {
	t.Helper()

	db, err := store.Open(config.DatabaseConfig{
		Driver:   "sqlite",
		DSN:      fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString()),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background(), db, models...))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
