package main

import (
	"context"
	"net/http"

	auth "github.com/gallery-collective/go-gallery-auth"
	"github.com/gallery-collective/go-gallery-auth/activitymap"
	"github.com/gallery-collective/go-gallery-auth/adapters/zaplogger"
	"github.com/gallery-collective/go-gallery-auth/config"
	"github.com/gallery-collective/go-gallery-auth/gallery"
	"github.com/gallery-collective/go-gallery-auth/repository"
)

// app holds the process wide session components.
type app struct {
	cfg      *config.Config
	logger   *zaplogger.Logger
	store    repository.Store
	identity *auth.IdentityContext
	gallery  *gallery.Client
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger, _, err := zaplogger.NewJSON(cfg.Logger.Level)
	if err != nil {
		return nil, err
	}

	store, err := repository.Open(ctx, cfg.StoreOptions(logger))
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	activity := activitymap.SinkFunc(func(n activitymap.Normalized) error {
		logger.Debug("session activity", n.Fields()...)
		return nil
	}, activitymap.WithDefaultChannel("gallery-cli"))

	httpClient := &http.Client{Timeout: cfg.GetRequestTimeout()}

	api := auth.NewHTTPAuthAPI(auth.APIConfig{
		BaseURL:      cfg.GetBaseURL(),
		LoginPath:    cfg.GetLoginPath(),
		RegisterPath: cfg.GetRegisterPath(),
		Timeout:      cfg.GetRequestTimeout(),
		HTTPClient:   httpClient,
		Logger:       logger,
	})

	service := auth.NewSessionService(api, store,
		auth.WithServiceLogger(logger),
		auth.WithServiceActivitySink(activity),
	)

	identity := auth.NewIdentityContext(service,
		auth.WithIdentityLogger(logger),
		auth.WithIdentityActivitySink(activity),
	)

	client := gallery.NewClient(cfg.GetBaseURL(),
		gallery.WithHTTPClient(auth.NewBearerClient(identity, httpClient)),
		gallery.WithLogger(logger),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		identity: identity,
		gallery:  client,
	}, nil
}

func (a *app) Close() error {
	err := a.store.Close()
	_ = a.logger.Sync()
	return err
}
