package webpage

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/velkoz/internal/logging"
	"github.com/raysh454/velkoz/internal/webclient"
)

// Fetcher issues page fetches through a WebClient.
type Fetcher struct {
	client webclient.WebClient
	logger logging.Logger
	now    func() time.Time
}

func NewFetcher(client webclient.WebClient, logger logging.Logger) *Fetcher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Fetcher{
		client: client,
		logger: logger.With(logging.Field{Key: "component", Value: "webpage"}),
		now:    time.Now,
	}
}

// Fetch performs exactly one GET to rawURL and returns the resulting Page.
// Client failures come back as *TransportError, unchanged inside; nothing is
// retried. An empty rawURL is a *ConfigurationError and no request is sent.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, cfg Config) (*Page, error) {
	if rawURL == "" {
		return nil, &ConfigurationError{Field: "url", Reason: "url is required"}
	}
	cfg = cfg.clone()
	initializedAt := f.now()

	req := &webclient.Request{
		Method:  http.MethodGet,
		URL:     rawURL,
		Query:   cfg.QueryParams,
		Headers: cfg.Headers,
	}

	f.logger.Debug("fetching page",
		logging.Field{Key: "url", Value: rawURL},
		logging.Field{Key: "params", Value: len(cfg.QueryParams)})

	resp, err := f.client.Do(ctx, req)
	if err == nil && resp == nil {
		err = errors.New("client returned nil response")
	}
	if err != nil {
		f.logger.Warn("page fetch failed",
			logging.Field{Key: "url", Value: rawURL},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, &TransportError{URL: rawURL, Err: err}
	}

	if cfg.RequireSuccess && !resp.Success() {
		f.logger.Warn("page fetch rejected status",
			logging.Field{Key: "url", Value: rawURL},
			logging.Field{Key: "status", Value: resp.StatusCode})
		return nil, &TransportError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	page := NewPage(uuid.NewString(), rawURL, initializedAt, cfg, resp)
	f.logger.Debug("fetched page",
		logging.Field{Key: "page", Value: page.String()},
		logging.Field{Key: "status", Value: resp.StatusCode},
		logging.Field{Key: "bytes", Value: len(page.Body())})
	return page, nil
}

// FetchWithOptions validates a loosely typed option bag with
// ConfigFromOptions before fetching. Invalid options never reach the network.
func (f *Fetcher) FetchWithOptions(ctx context.Context, rawURL string, options map[string]any) (*Page, error) {
	cfg, err := ConfigFromOptions(options)
	if err != nil {
		return nil, err
	}
	return f.Fetch(ctx, rawURL, cfg)
}

// Fetch is NewFetcher(client, nil).Fetch.
func Fetch(ctx context.Context, client webclient.WebClient, rawURL string, cfg Config) (*Page, error) {
	return NewFetcher(client, nil).Fetch(ctx, rawURL, cfg)
}

// FetchWithOptions is NewFetcher(client, nil).FetchWithOptions.
func FetchWithOptions(ctx context.Context, client webclient.WebClient, rawURL string, options map[string]any) (*Page, error) {
	return NewFetcher(client, nil).FetchWithOptions(ctx, rawURL, options)
}
