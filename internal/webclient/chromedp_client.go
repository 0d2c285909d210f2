package webclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/raysh454/velkoz/internal/logging"
)

// ChromedpClient renders pages in a headless browser and returns the DOM
// after the network goes idle. Only GET is supported.
type ChromedpClient struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	timeout     time.Duration
	idleAfter   time.Duration
	logger      logging.Logger
}

func NewChromedpClient(cfg Config, logger logging.Logger) (*ChromedpClient, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	componentLogger := logger.With(logging.Field{Key: "backend", Value: string(ClientChromedp)})

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.Flag("headless", cfg.headless()))
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	componentLogger.Debug("created chromedp webclient",
		logging.Field{Key: "idle_after", Value: cfg.idleAfter().String()},
		logging.Field{Key: "headless", Value: cfg.headless()})

	return &ChromedpClient{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		timeout:     cfg.timeout(),
		idleAfter:   cfg.idleAfter(),
		logger:      componentLogger,
	}, nil
}

// waitNetworkIdle returns a channel closed once no request has been in flight
// for idleAfter. The timer is armed immediately so pages without
// subresources still settle.
func waitNetworkIdle(ctx context.Context, idleAfter time.Duration) <-chan struct{} {
	idleChan := make(chan struct{})
	var activeReqs int32
	var timer *time.Timer
	var timerMutex sync.Mutex
	var once sync.Once

	startTimer := func() {
		timerMutex.Lock()
		defer timerMutex.Unlock()

		if timer != nil {
			timer.Stop()
		}

		timer = time.AfterFunc(idleAfter, func() {
			if atomic.LoadInt32(&activeReqs) == 0 {
				once.Do(func() { close(idleChan) })
			}
		})
	}

	chromedp.ListenTarget(ctx, func(ev any) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent:
			atomic.AddInt32(&activeReqs, 1)
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			if atomic.AddInt32(&activeReqs, -1) <= 0 {
				startTimer()
			}
		}
	})
	startTimer()

	return idleChan
}

// documentResponse records the status and headers of the top-level document.
type documentResponse struct {
	mu      sync.Mutex
	seen    bool
	status  int
	headers http.Header
}

func (d *documentResponse) listen(ctx context.Context) {
	chromedp.ListenTarget(ctx, func(ev any) {
		e, ok := ev.(*network.EventResponseReceived)
		if !ok || e.Type != network.ResourceTypeDocument || e.Response == nil {
			return
		}
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.seen {
			return
		}
		d.seen = true
		d.status = int(e.Response.Status)
		d.headers = http.Header{}
		for k, v := range e.Response.Headers {
			d.headers.Add(k, fmt.Sprint(v))
		}
	})
}

func (d *documentResponse) result() (int, http.Header) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.seen {
		// about:blank and data: URLs produce no network response
		return http.StatusOK, http.Header{}
	}
	return d.status, d.headers
}

func (cdc *ChromedpClient) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	method := strings.ToUpper(req.Method)
	if method != "" && method != http.MethodGet {
		return nil, fmt.Errorf("method %s not supported by chromedp backend", method)
	}

	target, err := req.TargetURL()
	if err != nil {
		return nil, err
	}

	tabCtx, cancelTab := chromedp.NewContext(cdc.allocCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, cdc.timeout)
	defer cancelTimeout()

	// The tab derives from the allocator, so the caller's ctx is bridged in.
	go func() {
		select {
		case <-ctx.Done():
			cancelTab()
		case <-tabCtx.Done():
		}
	}()

	cdc.logger.Debug("navigating",
		logging.Field{Key: "url", Value: target})

	var doc documentResponse
	doc.listen(tabCtx)
	idle := waitNetworkIdle(tabCtx, cdc.idleAfter)

	actions := []chromedp.Action{network.Enable()}
	if len(req.Headers) > 0 {
		extra := network.Headers{}
		for k, vs := range req.Headers {
			extra[k] = strings.Join(vs, ", ")
		}
		actions = append(actions, network.SetExtraHTTPHeaders(extra))
	}
	actions = append(actions, chromedp.Navigate(target))

	start := time.Now()
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		observe(string(ClientChromedp), start, 0, err)
		cdc.logger.Warn("navigation failed",
			logging.Field{Key: "url", Value: target},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, fmt.Errorf("chromedp navigate: %w", err)
	}

	select {
	case <-idle:
	case <-tabCtx.Done():
		err := tabCtx.Err()
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		observe(string(ClientChromedp), start, 0, err)
		return nil, fmt.Errorf("chromedp wait idle: %w", err)
	}

	var html string
	if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &html)); err != nil {
		observe(string(ClientChromedp), start, 0, err)
		return nil, fmt.Errorf("chromedp outer html: %w", err)
	}

	status, headers := doc.result()
	observe(string(ClientChromedp), start, status, nil)

	return &Response{
		Request:    req,
		Headers:    headers,
		Body:       []byte(html),
		StatusCode: status,
		FetchedAt:  time.Now(),
	}, nil
}

// Close shuts down the browser allocator.
func (cdc *ChromedpClient) Close() error {
	cdc.logger.Debug("closing chromedp webclient")
	cdc.allocCancel()
	return nil
}
