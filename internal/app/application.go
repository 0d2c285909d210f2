package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/raysh454/velkoz/internal/logging"
	"github.com/raysh454/velkoz/internal/webclient"
	"github.com/raysh454/velkoz/internal/webpage"
)

// Application wires the configured web client, logger and page fetcher.
type Application struct {
	Config  *Config
	Logger  logging.Logger
	Client  webclient.WebClient
	Fetcher *webpage.Fetcher
}

// NewApplication builds the collaborators described by cfg. A nil logger
// means one is built from cfg.Log. When reg is non-nil the web client
// metrics are registered with it.
func NewApplication(cfg *Config, logger logging.Logger, reg prometheus.Registerer) (*Application, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewLogger(cfg.Log)
	}
	if reg != nil {
		if err := webclient.RegisterMetrics(reg); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	client, err := webclient.NewWebClient(cfg.WebClient, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("application ready",
		logging.Field{Key: "webclient", Value: string(cfg.WebClient.Client)})

	return &Application{
		Config:  cfg,
		Logger:  logger,
		Client:  client,
		Fetcher: webpage.NewFetcher(client, logger),
	}, nil
}

// Fetch is a shortcut for a.Fetcher.Fetch.
func (a *Application) Fetch(ctx context.Context, rawURL string, cfg webpage.Config) (*webpage.Page, error) {
	return a.Fetcher.Fetch(ctx, rawURL, cfg)
}

// Shutdown releases the web client.
func (a *Application) Shutdown() error {
	if a == nil {
		return errors.New("application is nil")
	}
	a.Logger.Info("application shutdown")
	if err := a.Client.Close(); err != nil {
		return fmt.Errorf("close webclient: %w", err)
	}
	return nil
}
