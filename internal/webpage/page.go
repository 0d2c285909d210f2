// Package webpage fetches a single web page and keeps the response together
// with when and how it was requested. Site-specific scrapers embed *Page and
// parse Body.
package webpage

import (
	"fmt"
	"net/url"
	"time"

	"github.com/raysh454/velkoz/internal/htmlparse"
	"github.com/raysh454/velkoz/internal/webclient"
)

// Page is the immutable result of one fetch. Accessors return shared data;
// callers must not modify returned slices or maps.
type Page struct {
	id            string
	url           string
	initializedAt time.Time
	config        Config
	response      *webclient.Response
	body          []byte
}

// NewPage assembles a Page from an already completed response. It performs no
// I/O; Fetch is the usual way to obtain a Page.
func NewPage(id, rawURL string, initializedAt time.Time, cfg Config, resp *webclient.Response) *Page {
	p := &Page{
		id:            id,
		url:           rawURL,
		initializedAt: initializedAt,
		config:        cfg.clone(),
		response:      resp,
	}
	if resp != nil {
		p.body = resp.Body
	}
	return p
}

// ID uniquely identifies this fetch.
func (p *Page) ID() string { return p.id }

// URL is the address as given by the caller, without query params merged.
func (p *Page) URL() string { return p.url }

func (p *Page) InitializedAt() time.Time { return p.initializedAt }

func (p *Page) Config() Config { return p.config }

func (p *Page) Response() *webclient.Response { return p.response }

// Body is the raw, undecoded response body.
func (p *Page) Body() []byte { return p.body }

func (p *Page) StatusCode() int {
	if p.response == nil {
		return 0
	}
	return p.response.StatusCode
}

func (p *Page) ContentType() string {
	if p.response == nil || p.response.Headers == nil {
		return ""
	}
	return p.response.Headers.Get("Content-Type")
}

// Parse runs parser over the body. Links in the resulting document resolve
// against the page URL.
func (p *Page) Parse(parser htmlparse.Parser) (*htmlparse.Document, error) {
	doc, err := parser.Parse(p.body, p.ContentType())
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", p.url, err)
	}
	return doc, nil
}

// BaseURL parses the page URL for resolving relative links.
func (p *Page) BaseURL() (*url.URL, error) {
	return url.Parse(p.url)
}

// String identifies the page by URL and fetch time. It is a label for logs,
// not an equality key.
func (p *Page) String() string {
	return fmt.Sprintf("WebPage(%s_%s)", p.url, p.initializedAt.Format(time.RFC3339Nano))
}
