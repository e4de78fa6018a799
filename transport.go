package httprpc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// Sender is the send capability operations are invoked through. Ready must
// succeed before Call is issued; it may block to apply backpressure. Both
// *Server (in-process) and *Transport (net/http) implement it.
type Sender interface {
	Ready(ctx context.Context) error
	Call(ctx context.Context, req *Request) (*Response, error)
}

// Transport is a Sender backed by a net/http client.
type Transport struct {
	client  *http.Client
	base    *url.URL
	limiter *rate.Limiter
	header  http.Header
	logger  *slog.Logger
	closed  atomic.Bool
}

// TransportOption configures a Transport.
type TransportOption func(*Transport)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) TransportOption {
	return func(t *Transport) {
		t.client = c
	}
}

// WithRateLimit makes Ready wait for a token from a limiter allowing rps
// calls per second with the given burst.
func WithRateLimit(rps float64, burst int) TransportOption {
	return func(t *Transport) {
		t.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithDefaultHeader adds a header sent with every request.
func WithDefaultHeader(key, value string) TransportOption {
	return func(t *Transport) {
		t.header.Add(key, value)
	}
}

// WithTransportLogger sets the logger for transport-level events.
func WithTransportLogger(l *slog.Logger) TransportOption {
	return func(t *Transport) {
		t.logger = l
	}
}

// NewTransport creates a Transport sending requests to baseURL, which must
// be absolute. A path on baseURL is kept as a prefix.
func NewTransport(baseURL string, opts ...TransportOption) (*Transport, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""

	t := &Transport{
		client: http.DefaultClient,
		base:   u,
		header: make(http.Header),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Ready waits until a call may be issued. It returns ErrUnavailable once the
// transport is closed.
func (t *Transport) Ready(ctx context.Context) error {
	if t.closed.Load() {
		return ErrUnavailable
	}
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Call sends req and returns the response with its body still streaming.
func (t *Transport) Call(ctx context.Context, req *Request) (*Response, error) {
	if t.closed.Load() {
		//nolint:errcheck,gosec // request was never sent
		req.Body.Close()
		return nil, ErrUnavailable
	}

	target := t.base.Scheme + "://" + t.base.Host + t.base.EscapedPath() + req.URI

	n, known := req.Body.Len()
	var body io.ReadCloser = http.NoBody
	if !known || n > 0 {
		body = req.Body.Reader(ctx)
	}

	hreq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		//nolint:errcheck,gosec // request was never sent
		req.Body.Close()
		return nil, err
	}
	if known {
		hreq.ContentLength = n
	}
	for k, vs := range t.header {
		hreq.Header[k] = append([]string(nil), vs...)
	}
	for k, vs := range req.Header {
		hreq.Header[k] = append([]string(nil), vs...)
	}

	hresp, err := t.client.Do(hreq)
	if err != nil {
		t.logger.DebugContext(ctx, "transport call failed",
			slog.String("method", req.Method),
			slog.String("uri", req.URI),
			slog.Any("err", err),
		)
		return nil, err
	}
	return newResponseFromHTTP(hresp), nil
}

// Close marks the transport permanently unavailable and releases idle
// connections.
func (t *Transport) Close() error {
	t.closed.Store(true)
	t.client.CloseIdleConnections()
	return nil
}
