package cmd

import (
	"context"
	"fmt"

	"roster-sync/core/config"
	"roster-sync/core/logger"
	"roster-sync/core/remote"
	"roster-sync/feature/players"
	"roster-sync/feature/players/api"
	"roster-sync/feature/players/live"

	"go.uber.org/zap"
)

// bootstrap loads configuration and builds the logger.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(logg)
	return cfg, logg, nil
}

// newAPIClient builds the REST client for the configured backend.
func newAPIClient(cfg *config.Config, logg *zap.Logger) (*api.Client, error) {
	client, err := api.NewClient(cfg.Remote.BaseURL, remote.NewHTTPClient(cfg.Remote), logg.Named("api"))
	if err != nil {
		return nil, fmt.Errorf("failed to create api client: %w", err)
	}
	return client, nil
}

// newRoster wires the roster engine to its snapshot and event sources.
// The engine is not started.
func newRoster(ctx context.Context, cfg *config.Config, logg *zap.Logger) (*players.Engine, *api.Client, error) {
	client, err := newAPIClient(cfg, logg)
	if err != nil {
		return nil, nil, err
	}

	eventsURL, err := cfg.Remote.ResolveEventsURL()
	if err != nil {
		return nil, nil, err
	}

	// The decode hook only fires after Start, once engine is set.
	var engine *players.Engine
	source := live.NewSource(eventsURL, logg.Named("live"),
		live.WithReconnect(cfg.Remote.ReconnectInterval()),
		live.WithDecodeErrorHandler(func(err error) {
			engine.ReportDecodeFailure(err)
		}),
	)
	engine = players.NewEngine(ctx, client, source, cfg.Sync, logg.Named("engine"))
	return engine, client, nil
}
