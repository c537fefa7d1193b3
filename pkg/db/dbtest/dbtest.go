// Package dbtest opens migrated SQLite stores for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"prompterly/pkg/db"
	"prompterly/pkg/db/migrate"
	"prompterly/pkg/db/migrations"
	"prompterly/pkg/db/seed"
	"prompterly/pkg/schema"
)

// Open returns a store migrated to the latest version with the registry
// callbacks installed. It is closed when the test ends.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	ctx := context.Background()
	h, err := db.Connect(ctx, db.Config{
		Driver:   db.SQLite,
		DSN:      filepath.Join(t.TempDir(), "prompterly.db"),
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })

	r, err := migrate.New(h.ORM, migrations.All(), migrate.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	_, err = r.Up(ctx)
	require.NoError(t, err)

	require.NoError(t, Registry(t).Register(h.ORM))
	return h.ORM
}

// Seeded is Open plus the sample dataset.
func Seeded(t testing.TB) *gorm.DB {
	t.Helper()
	gdb := Open(t)
	l, err := seed.New(gdb, Registry(t))
	require.NoError(t, err)
	ds, err := seed.Sample()
	require.NoError(t, err)
	_, err = l.Load(context.Background(), ds)
	require.NoError(t, err)
	return gdb
}

func Registry(t testing.TB) *schema.Registry {
	t.Helper()
	reg, err := schema.Canonical()
	require.NoError(t, err)
	return reg
}
