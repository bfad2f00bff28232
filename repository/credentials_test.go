package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupCredentialDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.NewDropTable().Model((*CredentialModel)(nil)).IfExists().Exec(context.Background())
	require.NoError(t, err)
	return db
}

func TestSQLiteCredentialStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := setupCredentialDB(t)

	store := NewSQLiteCredentialStore(db, "http://localhost:8000/api")
	require.NoError(t, store.Migrate(ctx))

	_, found, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Save(ctx, "first"))
	require.NoError(t, store.Save(ctx, "second"))

	credential, found, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "second", credential)

	count, err := db.NewSelect().Model((*CredentialModel)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, store.Clear(ctx))
	_, found, err = store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Clear(ctx), "clearing an empty store is not an error")
}

func TestSQLiteCredentialStore_ScopedByOrigin(t *testing.T) {
	ctx := context.Background()
	db := setupCredentialDB(t)

	prod := NewSQLiteCredentialStore(db, "https://gallery.example.com/api")
	local := NewSQLiteCredentialStore(db, "http://localhost:8000/api")
	require.NoError(t, prod.Migrate(ctx))

	require.NoError(t, prod.Save(ctx, "prod-token"))

	_, found, err := local.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, local.Save(ctx, "local-token"))
	require.NoError(t, local.Clear(ctx))

	credential, found, err := prod.Load(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "prod-token", credential)
}

func TestSQLiteCredentialStore_SavedAt(t *testing.T) {
	ctx := context.Background()
	db := setupCredentialDB(t)

	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewSQLiteCredentialStore(db, "origin")
	store.now = func() time.Time { return fixed }
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Save(ctx, "token"))

	var model CredentialModel
	require.NoError(t, db.NewSelect().Model(&model).Where("origin = ?", "origin").Scan(ctx))
	assert.True(t, fixed.Equal(model.SavedAt))
}

func TestOpenSQLiteCredentialStore(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + t.TempDir() + "/session.db"

	store, err := OpenSQLiteCredentialStore(ctx, dsn, "origin")
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "persisted"))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLiteCredentialStore(ctx, dsn, "origin")
	require.NoError(t, err)
	defer reopened.Close()

	credential, found, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "persisted", credential)
}
