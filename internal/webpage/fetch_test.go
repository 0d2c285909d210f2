package webpage_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/velkoz/internal/logging"
	"github.com/raysh454/velkoz/internal/webclient"
	"github.com/raysh454/velkoz/internal/webpage"
)

// recordingClient is a stub WebClient that records every request.
type recordingClient struct {
	mu       sync.Mutex
	requests []*webclient.Request
	status   int
	body     string
	headers  http.Header
	err      error
}

func (c *recordingClient) Do(_ context.Context, req *webclient.Request) (*webclient.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	if c.err != nil {
		return nil, c.err
	}
	status := c.status
	if status == 0 {
		status = http.StatusOK
	}
	return &webclient.Response{
		Request:    req,
		StatusCode: status,
		Headers:    c.headers,
		Body:       []byte(c.body),
		FetchedAt:  time.Now(),
	}, nil
}

func (c *recordingClient) Close() error { return nil }

func (c *recordingClient) calls() []*webclient.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*webclient.Request(nil), c.requests...)
}

func TestFetch_PlainGet(t *testing.T) {
	t.Parallel()
	client := &recordingClient{body: "<html><body>hi</body></html>"}

	page, err := webpage.Fetch(context.Background(), client, "https://example.test/page", webpage.Config{})
	require.NoError(t, err)

	calls := client.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodGet, calls[0].Method)
	assert.Equal(t, "https://example.test/page", calls[0].URL)
	assert.Empty(t, calls[0].Query)

	assert.Equal(t, "<html><body>hi</body></html>", string(page.Body()))
	assert.Equal(t, page.Response().Body, page.Body())
	assert.Equal(t, http.StatusOK, page.StatusCode())
	assert.Equal(t, "https://example.test/page", page.URL())
	assert.NotEmpty(t, page.ID())
	assert.False(t, page.InitializedAt().IsZero())
}

func TestFetch_QueryParams(t *testing.T) {
	t.Parallel()
	client := &recordingClient{}

	_, err := webpage.Fetch(context.Background(), client, "https://example.test/search", webpage.Config{
		QueryParams: url.Values{"q": {"test"}},
	})
	require.NoError(t, err)

	calls := client.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "test", calls[0].Query.Get("q"))
	target, err := calls[0].TargetURL()
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/search?q=test", target)
}

func TestFetchWithOptions_Params(t *testing.T) {
	t.Parallel()
	client := &recordingClient{}

	page, err := webpage.FetchWithOptions(context.Background(), client, "https://example.test/search",
		map[string]any{"params": map[string]string{"k": "v"}})
	require.NoError(t, err)

	calls := client.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, url.Values{"k": {"v"}}, calls[0].Query)
	assert.Equal(t, url.Values{"k": {"v"}}, page.Config().QueryParams)
}

func TestFetchWithOptions_NonMappingParamsMakesNoCalls(t *testing.T) {
	t.Parallel()
	for name, params := range map[string]any{
		"string": "q=test",
		"number": 42,
		"slice":  []string{"q", "test"},
		"nested": map[string]any{"q": map[string]string{"x": "y"}},
	} {
		params := params
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			client := &recordingClient{}

			page, err := webpage.FetchWithOptions(context.Background(), client, "https://example.test/search",
				map[string]any{"params": params})

			assert.Nil(t, page)
			var cfgErr *webpage.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, "params", cfgErr.Field)
			assert.Contains(t, err.Error(), "params must be a mapping of string to string")
			assert.ErrorIs(t, err, webpage.ErrConfiguration)
			assert.Empty(t, client.calls())
		})
	}
}

func TestFetch_EmptyURL(t *testing.T) {
	t.Parallel()
	client := &recordingClient{}

	_, err := webpage.Fetch(context.Background(), client, "", webpage.Config{})
	assert.ErrorIs(t, err, webpage.ErrConfiguration)
	assert.Empty(t, client.calls())
}

func TestFetch_TransportErrorPropagates(t *testing.T) {
	t.Parallel()
	refused := &url.Error{Op: "Get", URL: "https://example.test/page", Err: syscall.ECONNREFUSED}
	client := &recordingClient{err: refused}

	page, err := webpage.Fetch(context.Background(), client, "https://example.test/page", webpage.Config{})

	assert.Nil(t, page)
	var tErr *webpage.TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "https://example.test/page", tErr.URL)
	assert.ErrorIs(t, err, webpage.ErrTransport)
	assert.ErrorIs(t, err, syscall.ECONNREFUSED)
	assert.Len(t, client.calls(), 1, "no retries")
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	t.Parallel()
	client := &recordingClient{status: http.StatusNotFound, body: "missing"}

	page, err := webpage.Fetch(context.Background(), client, "https://example.test/gone", webpage.Config{})
	require.NoError(t, err, "statuses are data unless RequireSuccess is set")
	assert.Equal(t, http.StatusNotFound, page.StatusCode())
	assert.Equal(t, "missing", string(page.Body()))

	page, err = webpage.Fetch(context.Background(), client, "https://example.test/gone", webpage.Config{RequireSuccess: true})
	assert.Nil(t, page)
	var tErr *webpage.TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, http.StatusNotFound, tErr.StatusCode)
	assert.Nil(t, errors.Unwrap(err))
	assert.Contains(t, err.Error(), "unexpected status 404")
}

type nilClient struct{}

func (nilClient) Do(context.Context, *webclient.Request) (*webclient.Response, error) { return nil, nil }
func (nilClient) Close() error { return nil }

func TestFetch_NilResponseIsTransportError(t *testing.T) {
	t.Parallel()
	_, err := webpage.Fetch(context.Background(), nilClient{}, "https://example.test", webpage.Config{})
	assert.ErrorIs(t, err, webpage.ErrTransport)
}

func TestFetch_InitializedAtNonDecreasing(t *testing.T) {
	t.Parallel()
	client := &recordingClient{}
	fetcher := webpage.NewFetcher(client, logging.NewNopLogger())

	first, err := fetcher.Fetch(context.Background(), "https://example.test/a", webpage.Config{})
	require.NoError(t, err)
	second, err := fetcher.Fetch(context.Background(), "https://example.test/b", webpage.Config{})
	require.NoError(t, err)

	assert.False(t, second.InitializedAt().Before(first.InitializedAt()))
	assert.NotEqual(t, first.ID(), second.ID())
}

func TestFetch_ConfigIsCopied(t *testing.T) {
	t.Parallel()
	client := &recordingClient{}
	params := url.Values{"q": {"one"}}

	page, err := webpage.Fetch(context.Background(), client, "https://example.test/search", webpage.Config{QueryParams: params})
	require.NoError(t, err)

	params.Set("q", "two")
	assert.Equal(t, "one", page.Config().QueryParams.Get("q"))
	assert.Equal(t, "one", client.calls()[0].Query.Get("q"))
}

// ─── end to end through the nethttp backend ────────────────────────────

func TestFetch_NetHTTPEndToEnd(t *testing.T) {
	t.Parallel()
	var gotQuery, gotAgent string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><head><title>Search</title></head><body>hi</body></html>"))
	}))
	defer ts.Close()

	client, err := webclient.NewNetHTTPClient(webclient.Config{}, logging.NewNopLogger(), ts.Client())
	require.NoError(t, err)
	defer client.Close()

	page, err := webpage.FetchWithOptions(context.Background(), client, ts.URL+"/search", map[string]any{
		"params":  map[string]any{"q": "test"},
		"headers": map[string]string{"User-Agent": "velkoz-test"},
	})
	require.NoError(t, err)

	assert.Equal(t, "q=test", gotQuery)
	assert.Equal(t, "velkoz-test", gotAgent)
	assert.Equal(t, "text/html", page.ContentType())
	assert.Contains(t, string(page.Body()), "<title>Search</title>")
}

func TestFetch_NetHTTPConnectionRefused(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.NotFoundHandler())
	addr := ts.URL
	ts.Close()

	client, err := webclient.NewNetHTTPClient(webclient.Config{Timeout: time.Second}, logging.NewNopLogger(), nil)
	require.NoError(t, err)
	defer client.Close()

	page, err := webpage.Fetch(context.Background(), client, addr, webpage.Config{})
	assert.Nil(t, page)
	assert.ErrorIs(t, err, webpage.ErrTransport)
}
