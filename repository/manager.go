package repository

import (
	"context"
	"fmt"
	"strings"

	auth "github.com/gallery-collective/go-gallery-auth"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/redis/go-redis/v9"
)

const (
	KindSQLite = "sqlite"
	KindRedis  = "redis"
	KindMemory = "memory"
)

// Store is a CredentialStore holding resources released by Close.
type Store interface {
	auth.CredentialStore
	Close() error
}

// Options selects and configures the credential backend.
type Options struct {
	Kind          string
	Origin        string
	SQLiteDSN     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	Logger        auth.Logger
}

// Validate checks that the selected backend has what it needs. Kind is
// matched case-insensitively.
func (o Options) Validate() error {
	o.Kind = strings.ToLower(o.Kind)

	var dsnRules, addrRules []validation.Rule
	switch o.Kind {
	case KindSQLite:
		dsnRules = append(dsnRules, validation.Required)
	case KindRedis:
		addrRules = append(addrRules, validation.Required)
	}

	if err := validation.ValidateStruct(&o,
		validation.Field(&o.Kind, validation.Required, validation.In(KindSQLite, KindRedis, KindMemory)),
		validation.Field(&o.SQLiteDSN, dsnRules...),
		validation.Field(&o.RedisAddr, addrRules...),
		validation.Field(&o.RedisDB, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("repository: invalid store options: %w", err)
	}
	return nil
}

// Open returns the credential store selected by opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = auth.NopLogger{}
	}

	switch strings.ToLower(opts.Kind) {
	case KindSQLite:
		store, err := OpenSQLiteCredentialStore(ctx, opts.SQLiteDSN, opts.Origin)
		if err != nil {
			return nil, fmt.Errorf("repository: open sqlite store: %w", err)
		}
		logger.Info("credential store ready", "kind", KindSQLite, "origin", opts.Origin)
		return store, nil

	case KindRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		store := NewRedisCredentialStore(client, opts.RedisPrefix, opts.Origin)
		store.owned = true

		if err := store.Ping(ctx); err != nil {
			logger.Warn("unable to reach redis", "addr", opts.RedisAddr, "error", err)
		} else {
			logger.Info("credential store ready", "kind", KindRedis, "key", store.Key())
		}
		return store, nil
	}

	logger.Info("credential store ready", "kind", KindMemory)
	return memoryStore{auth.NewMemoryStore()}, nil
}

type memoryStore struct {
	*auth.MemoryStore
}

func (memoryStore) Close() error { return nil }
