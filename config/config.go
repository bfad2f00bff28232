package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	auth "github.com/gallery-collective/go-gallery-auth"
	"github.com/gallery-collective/go-gallery-auth/repository"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL     = "http://localhost:8000/api"
	DefaultSQLiteDSN  = "file:gallery-session.db?cache=shared"
	DefaultListenAddr = "127.0.0.1:3000"
)

// Config aggregates runtime configuration for the client and companion server.
type Config struct {
	API    APIConfig
	Store  StoreConfig
	Server ServerConfig
	Logger LoggerConfig
}

// APIConfig points at the gallery API.
type APIConfig struct {
	BaseURL               string
	LoginPath             string
	RegisterPath          string
	RequestTimeoutSeconds int
}

// StoreConfig selects the credential backend.
type StoreConfig struct {
	Kind          string
	SQLiteDSN     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// ServerConfig controls `gallery serve`.
type ServerConfig struct {
	ListenAddr string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

var _ auth.Config = (*Config)(nil)

// Load reads configuration from environment variables, applying defaults
// where possible. A .env file in the working directory is honored.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("GALLERY_REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid GALLERY_REDIS_DB: %w", err)
	}

	timeout, err := strconv.Atoi(getEnv("GALLERY_HTTP_TIMEOUT_SECONDS", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid GALLERY_HTTP_TIMEOUT_SECONDS: %w", err)
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL:               strings.TrimRight(getEnv("GALLERY_API_URL", DefaultAPIURL), "/"),
			LoginPath:             getEnv("GALLERY_LOGIN_PATH", auth.DefaultLoginPath),
			RegisterPath:          getEnv("GALLERY_REGISTER_PATH", auth.DefaultRegisterPath),
			RequestTimeoutSeconds: timeout,
		},
		Store: StoreConfig{
			Kind:          strings.ToLower(getEnv("GALLERY_STORE", repository.KindSQLite)),
			SQLiteDSN:     getEnv("GALLERY_SQLITE_DSN", DefaultSQLiteDSN),
			RedisAddr:     getEnv("GALLERY_REDIS_ADDR", "127.0.0.1:6379"),
			RedisPassword: os.Getenv("GALLERY_REDIS_PASSWORD"),
			RedisDB:       redisDB,
			RedisPrefix:   getEnv("GALLERY_REDIS_PREFIX", repository.DefaultRedisPrefix),
		},
		Server: ServerConfig{
			ListenAddr: getEnv("GALLERY_LISTEN_ADDR", DefaultListenAddr),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.API,
		validation.Field(&c.API.BaseURL, validation.Required, is.URL),
		validation.Field(&c.API.LoginPath, validation.Required),
		validation.Field(&c.API.RegisterPath, validation.Required),
		validation.Field(&c.API.RequestTimeoutSeconds, validation.Min(1)),
	); err != nil {
		return fmt.Errorf("invalid api config: %w", err)
	}

	if err := validation.ValidateStruct(&c.Store,
		validation.Field(&c.Store.Kind, validation.Required, validation.In(
			repository.KindSQLite,
			repository.KindRedis,
			repository.KindMemory,
		)),
		validation.Field(&c.Store.RedisDB, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("invalid store config: %w", err)
	}

	if err := c.StoreOptions(nil).Validate(); err != nil {
		return fmt.Errorf("invalid store config: %w", err)
	}

	if err := validation.ValidateStruct(&c.Logger,
		validation.Field(&c.Logger.Level, validation.In("debug", "info", "warn", "error")),
	); err != nil {
		return fmt.Errorf("invalid logger config: %w", err)
	}

	return nil
}

// StoreOptions translates the store section for repository.Open.
func (c *Config) StoreOptions(logger auth.Logger) repository.Options {
	return repository.Options{
		Kind:          c.Store.Kind,
		Origin:        c.GetOrigin(),
		SQLiteDSN:     c.Store.SQLiteDSN,
		RedisAddr:     c.Store.RedisAddr,
		RedisPassword: c.Store.RedisPassword,
		RedisDB:       c.Store.RedisDB,
		RedisPrefix:   c.Store.RedisPrefix,
		Logger:        logger,
	}
}

func (c *Config) GetBaseURL() string {
	return c.API.BaseURL
}

func (c *Config) GetLoginPath() string {
	return c.API.LoginPath
}

func (c *Config) GetRegisterPath() string {
	return c.API.RegisterPath
}

func (c *Config) GetRequestTimeout() time.Duration {
	if c.API.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.API.RequestTimeoutSeconds) * time.Second
}

// GetOrigin scopes stored credentials to the API they were issued by.
func (c *Config) GetOrigin() string {
	return c.API.BaseURL
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
