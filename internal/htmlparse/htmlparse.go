// Package htmlparse is the parse boundary between fetched page bytes and
// the scrapers that walk them.
package htmlparse

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// Parser turns a raw response body into a Document. contentType is the
// response Content-Type header and may be empty.
type Parser interface {
	Parse(body []byte, contentType string) (*Document, error)
}

// Document is a parsed HTML tree.
type Document struct {
	doc *goquery.Document
}

// NewDocument wraps an already parsed goquery document.
func NewDocument(doc *goquery.Document) *Document {
	return &Document{doc: doc}
}

// Selection returns the root selection for goquery traversal.
func (d *Document) Selection() *goquery.Selection {
	return d.doc.Selection
}

// Find is shorthand for Selection().Find(selector).
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Title returns the trimmed <title> text, or "" when absent.
func (d *Document) Title() string {
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

// Text returns the visible body text with runs of whitespace collapsed.
func (d *Document) Text() string {
	body := d.doc.Find("body").Clone()
	body.Find("script, style, noscript").Remove()
	return strings.Join(strings.Fields(body.Text()), " ")
}

// Links returns the absolute targets of every <a href> in document order,
// deduplicated. Relative hrefs are resolved against the document's <base>
// element when present, then base. Fragment-only, javascript: and mailto:
// links are skipped, as are relative links when no base is known.
func (d *Document) Links(base *url.URL) []string {
	if href, ok := d.doc.Find("base[href]").First().Attr("href"); ok {
		if bu, err := url.Parse(strings.TrimSpace(href)); err == nil {
			if base != nil {
				bu = base.ResolveReference(bu)
			}
			if bu.IsAbs() {
				base = bu
			}
		}
	}

	seen := map[string]struct{}{}
	var out []string
	d.doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		u, err := url.Parse(href)
		if err != nil {
			return
		}
		switch strings.ToLower(u.Scheme) {
		case "javascript", "mailto", "tel", "data":
			return
		}
		if !u.IsAbs() {
			if base == nil {
				return
			}
			u = base.ResolveReference(u)
		}
		u.Fragment = ""
		link := u.String()
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		out = append(out, link)
	})
	return out
}

// GoqueryParser decodes the body to UTF-8 and builds a goquery document.
type GoqueryParser struct{}

func NewGoqueryParser() *GoqueryParser {
	return &GoqueryParser{}
}

func (p *GoqueryParser) Parse(body []byte, contentType string) (*Document, error) {
	var r io.Reader = bytes.NewReader(body)
	// charset.NewReader reports io.EOF on empty input
	if len(body) > 0 {
		decoded, err := charset.NewReader(r, contentType)
		if err != nil {
			return nil, fmt.Errorf("detect charset: %w", err)
		}
		r = decoded
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{doc: doc}, nil
}
