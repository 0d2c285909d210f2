package webclient

import "context"

// WebClient performs outbound HTTP requests on behalf of the fetch core.
// Implementations must be safe for concurrent use.
type WebClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)

	Close() error
}
