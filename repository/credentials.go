package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// CredentialModel is the Bun model for stored credentials. There is at most
// one row per API origin.
type CredentialModel struct {
	bun.BaseModel `bun:"table:credentials"`

	Origin  string    `bun:"origin,pk"`
	Token   string    `bun:"token,notnull"`
	SavedAt time.Time `bun:"saved_at,notnull"`
}

// SQLiteCredentialStore implements auth.CredentialStore using Bun.
type SQLiteCredentialStore struct {
	db     *bun.DB
	origin string
	owned  bool
	now    func() time.Time
}

// NewSQLiteCredentialStore creates a store scoped to origin on an existing
// database. The caller owns db.
func NewSQLiteCredentialStore(db *bun.DB, origin string) *SQLiteCredentialStore {
	return &SQLiteCredentialStore{
		db:     db,
		origin: origin,
		now:    time.Now,
	}
}

// OpenSQLiteCredentialStore opens dsn, runs Migrate and returns a store
// that closes the database on Close.
func OpenSQLiteCredentialStore(ctx context.Context, dsn, origin string) (*SQLiteCredentialStore, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}
	sqldb.SetMaxOpenConns(1)

	store := NewSQLiteCredentialStore(bun.NewDB(sqldb, sqlitedialect.New()), origin)
	store.owned = true

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// Migrate creates the credentials table when missing.
func (s *SQLiteCredentialStore) Migrate(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*CredentialModel)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// Save implements auth.CredentialStore.
func (s *SQLiteCredentialStore) Save(ctx context.Context, credential string) error {
	model := &CredentialModel{
		Origin:  s.origin,
		Token:   credential,
		SavedAt: s.now().UTC(),
	}

	_, err := s.db.NewInsert().
		Model(model).
		On("CONFLICT (origin) DO UPDATE").
		Set("token = EXCLUDED.token").
		Set("saved_at = EXCLUDED.saved_at").
		Exec(ctx)
	return err
}

// Load implements auth.CredentialStore.
func (s *SQLiteCredentialStore) Load(ctx context.Context) (string, bool, error) {
	var model CredentialModel
	err := s.db.NewSelect().
		Model(&model).
		Where("origin = ?", s.origin).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return model.Token, true, nil
}

// Clear implements auth.CredentialStore.
func (s *SQLiteCredentialStore) Clear(ctx context.Context) error {
	_, err := s.db.NewDelete().
		Model((*CredentialModel)(nil)).
		Where("origin = ?", s.origin).
		Exec(ctx)
	return err
}

// Close releases the database when the store opened it.
func (s *SQLiteCredentialStore) Close() error {
	if s == nil || s.db == nil || !s.owned {
		return nil
	}
	return s.db.Close()
}
