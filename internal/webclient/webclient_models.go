package webclient

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type Request struct {
	Method  string
	URL     string
	// Query is merged into the query string already present in URL.
	Query   url.Values
	Headers http.Header
	Body    []byte
}

type Response struct {
	Request    *Request
	Headers    http.Header
	Body       []byte
	StatusCode int
	FetchedAt  time.Time
}

// Success reports whether the status code is 2xx.
func (r *Response) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// TargetURL returns req.URL with req.Query merged into its query string.
// URL is returned untouched when there is nothing to merge.
func (req *Request) TargetURL() (string, error) {
	if len(req.Query) == 0 {
		return req.URL, nil
	}
	u, err := url.Parse(req.URL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	for k, vs := range req.Query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
