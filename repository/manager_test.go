package repository

import (
	"context"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		badField string
	}{
		{name: "memory", opts: Options{Kind: KindMemory}},
		{name: "sqlite", opts: Options{Kind: KindSQLite, SQLiteDSN: "file::memory:"}},
		{name: "kind is case insensitive", opts: Options{Kind: "SQLite", SQLiteDSN: "file::memory:"}},
		{name: "sqlite without dsn", opts: Options{Kind: KindSQLite}, badField: "SQLiteDSN"},
		{name: "redis", opts: Options{Kind: KindRedis, RedisAddr: "localhost:6379"}},
		{name: "redis without addr", opts: Options{Kind: KindRedis}, badField: "RedisAddr"},
		{name: "redis negative db", opts: Options{Kind: KindRedis, RedisAddr: "localhost:6379", RedisDB: -1}, badField: "RedisDB"},
		{name: "missing kind", opts: Options{}, badField: "Kind"},
		{name: "unknown", opts: Options{Kind: "etcd"}, badField: "Kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.badField == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var errs validation.Errors
			require.ErrorAs(t, err, &errs)
			assert.Contains(t, errs, tt.badField)
			assert.Len(t, errs, 1)
		})
	}
}

func TestOpen_RejectsInvalidOptions(t *testing.T) {
	store, err := Open(context.Background(), Options{Kind: KindRedis})
	require.Error(t, err)
	assert.Nil(t, store)
}

func TestOpen_Memory(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, Options{Kind: KindMemory})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(ctx, "token"))
	credential, found, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "token", credential)
}

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, Options{
		Kind:      KindSQLite,
		SQLiteDSN: "file:" + t.TempDir() + "/gallery.db",
		Origin:    "origin",
	})
	require.NoError(t, err)
	defer store.Close()

	_, ok := store.(*SQLiteCredentialStore)
	assert.True(t, ok)
}
