package httprpc

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Server routes requests to registered operations and dispatches them to
// their handlers. It is both an http.Handler and an in-process Sender, so
// clients can call it without a socket.
//
// Operations must be registered with Handle before the server is used;
// after that the routing table is read-only.
type Server struct {
	router     *Router
	routes     []serverRoute
	middleware []Middleware

	logger       *slog.Logger
	metrics      *Metrics
	errorHandler ErrorHandler
	timeout      time.Duration

	closed atomic.Bool
	mu     sync.Mutex
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// ErrorHandler converts a dispatch failure into a response. The error is
// always a *ServerError.
type ErrorHandler func(ctx context.Context, err error) *Response

// WithLogger sets the logger for dispatch events.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMetrics records per-operation request counts and latencies.
func WithMetrics(m *Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithErrorHandler sets a custom error response builder.
func WithErrorHandler(h ErrorHandler) ServerOption {
	return func(s *Server) {
		s.errorHandler = h
	}
}

// WithRequestTimeout bounds every call with a deadline covering argument
// decoding and the handler. It applies to in-process calls and to
// ServeHTTP alike. A handler failing with context.DeadlineExceeded is
// answered 504.
func WithRequestTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		s.timeout = d
	}
}

// NewServer creates a new Server with the given options.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		router: NewRouter(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Use adds middleware applied by ServeHTTP. Middleware is applied in the
// order added. In-process calls through Call bypass it.
func (s *Server) Use(mw ...Middleware) {
	s.middleware = append(s.middleware, mw...)
}

// Dispatch resolves req and runs the matching handler. Failures are
// returned as *ServerError without being rendered.
func (s *Server) Dispatch(ctx context.Context, req *Request) (*Response, error) {
	_, resp, err := s.dispatch(ctx, req)
	return resp, err
}

func (s *Server) dispatch(ctx context.Context, req *Request) (string, *Response, error) {
	defer func() {
		//nolint:errcheck,gosec // unread remainder is discarded
		req.Body.Close()
	}()

	id, params, err := s.router.Resolve(req.Method, req.Path())
	if err != nil {
		return "", nil, &ServerError{Kind: ServerInvalidRequest, Err: err}
	}

	route := s.routes[id]
	if ci := callInfoFromContext(ctx); ci != nil {
		ci.operation = route.name
	}
	if route.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, route.timeout)
		defer cancel()
	}
	resp, err := route.dispatch(ctx, params, req)
	return route.name, resp, err
}

// OperationName reports the name of the operation method and the escaped
// path resolve to, without dispatching.
func (s *Server) OperationName(method, path string) (string, bool) {
	id, _, err := s.router.Resolve(method, path)
	if err != nil {
		return "", false
	}
	return s.routes[id].name, true
}

// Ready reports whether the server accepts calls. It returns ErrUnavailable
// after Close.
func (s *Server) Ready(context.Context) error {
	if s.closed.Load() {
		return ErrUnavailable
	}
	return nil
}

// Call dispatches req and renders any failure as a response, exactly as
// ServeHTTP would write it.
func (s *Server) Call(ctx context.Context, req *Request) (*Response, error) {
	if s.closed.Load() {
		//nolint:errcheck,gosec // request was never dispatched
		req.Body.Close()
		return nil, ErrUnavailable
	}

	ci := callInfoFromContext(ctx)
	if ci != nil {
		ci.dispatched = true
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	name, resp, err := s.dispatch(ctx, req)
	if err != nil {
		if ci != nil {
			ci.err = err
		}
		s.logDispatchError(ctx, req, err)
		if s.errorHandler != nil {
			resp = s.errorHandler(ctx, err)
		}
		if resp == nil {
			resp = errorResponse(err)
		}
	}

	s.metrics.observe(name, resp.Status, time.Since(start))
	return resp, nil
}

// Close makes the server refuse further calls.
func (s *Server) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *Server) logDispatchError(ctx context.Context, req *Request, err error) {
	level := slog.LevelDebug
	var se *ServerError
	if errors.As(err, &se) && se.Kind == ServerSerialize {
		level = slog.LevelError
	}
	s.logger.LogAttrs(ctx, level, "dispatch failed",
		slog.String("method", req.Method),
		slog.String("path", req.Path()),
		slog.String("operation", operationName(se)),
		slog.String("request_id", RequestIDFromContext(ctx)),
		slog.Any("err", err),
	)
}

func operationName(se *ServerError) string {
	if se == nil {
		return ""
	}
	return se.Operation
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handler := http.Handler(http.HandlerFunc(s.serveHTTP))
	for i := len(s.middleware) - 1; i >= 0; i-- {
		handler = s.middleware[i](handler)
	}
	handler.ServeHTTP(w, r)
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp, err := s.Call(ctx, NewRequestFromHTTP(r))
	if err != nil {
		writeProblem(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err := writeResponse(ctx, w, resp); err != nil {
		s.logger.DebugContext(ctx, "write response failed", slog.String("path", r.URL.Path), slog.Any("err", err))
	}
}

// ListenAndServe starts an HTTP server on the given address.
// It blocks until the context is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
