package webclient

import "time"

type Client string

const (
	ClientNetHTTP  Client = "nethttp"
	ClientChromedp Client = "chromedp"
)

// Config holds the settings backends read at construction time.
type Config struct {
	Client Client `yaml:"client"`

	// Timeout bounds a whole request for the nethttp backend and page load for
	// chromedp. Zero means DefaultTimeout.
	Timeout time.Duration `yaml:"timeout"`

	// UserAgent is sent when the request carries no User-Agent header.
	UserAgent string `yaml:"user_agent"`

	// Headless controls the chromedp browser window. Nil means headless.
	Headless *bool `yaml:"headless"`

	// IdleAfter is how long chromedp waits for network silence before
	// capturing the DOM. Zero means DefaultIdleAfter.
	IdleAfter time.Duration `yaml:"idle_after"`
}

const (
	DefaultTimeout   = 30 * time.Second
	DefaultIdleAfter = 2 * time.Second
)

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c Config) idleAfter() time.Duration {
	if c.IdleAfter <= 0 {
		return DefaultIdleAfter
	}
	return c.IdleAfter
}

func (c Config) headless() bool {
	return c.Headless == nil || *c.Headless
}
