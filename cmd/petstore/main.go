// Command petstore serves and exercises the pet store over httprpc.
//
// Modes:
//
//	petstore serve       listen on addr and serve the pet store
//	petstore client      run the demo scenario against url
//	petstore inprocess   run the demo scenario with no socket
//
// Configuration is read from --config or $PETSTORE_CONFIG (YAML).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/bjaus/httprpc"
	"github.com/bjaus/httprpc/petstore"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	var (
		configPath string
		addr       string
		url        string
	)

	flagSet := pflag.NewFlagSet("petstore", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to YAML config (default: $"+configEnv+")")
	flagSet.StringVar(&addr, "addr", "", "listen address for serve mode (overrides config)")
	flagSet.StringVar(&url, "url", "", "server base URL for client mode (overrides config)")
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: petstore [flags] serve|client|inprocess\n\n%s", flagSet.FlagUsages())
	}

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	mode := "inprocess"
	if rest := flagSet.Args(); len(rest) > 0 {
		mode = rest[0]
		if len(rest) > 1 {
			return fmt.Errorf("unexpected argument: %s", rest[1])
		}
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if url != "" {
		cfg.URL = url
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch mode {
	case "serve":
		return serve(ctx, cfg, logger)
	case "client":
		tr, err := newTransport(cfg, logger)
		if err != nil {
			return err
		}
		defer tr.Close() //nolint:errcheck
		return scenario(ctx, petstore.NewClient(tr), out)
	case "inprocess":
		srv, err := petstore.NewServer(petstore.NewStore(), httprpc.WithLogger(logger))
		if err != nil {
			return err
		}
		defer srv.Close() //nolint:errcheck
		return scenario(ctx, petstore.NewClient(srv), out)
	default:
		return fmt.Errorf("unknown mode %q (want serve, client, or inprocess)", mode)
	}
}

// newHandler builds the HTTP handler for serve mode: the pet store behind
// the configured middleware, plus the metrics endpoint when enabled.
func newHandler(cfg *Config, logger *slog.Logger) (http.Handler, error) {
	opts := []httprpc.ServerOption{httprpc.WithLogger(logger)}
	if cfg.Server.RequestTimeout > 0 {
		opts = append(opts, httprpc.WithRequestTimeout(cfg.Server.RequestTimeout))
	}

	var reg *prometheus.Registry
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts = append(opts, httprpc.WithMetrics(httprpc.NewMetrics(reg, cfg.Metrics.Namespace)))
	}

	srv, err := petstore.NewServer(petstore.NewStore(), opts...)
	if err != nil {
		return nil, err
	}

	srv.Use(httprpc.Recovery())
	srv.Use(httprpc.RequestID())
	srv.Use(httprpc.Logger(logger))
	if cfg.Server.RateLimit > 0 {
		srv.Use(httprpc.RateLimit(httprpc.RateLimitConfig{
			Rate:  cfg.Server.RateLimit,
			Burst: max(cfg.Server.RateBurst, 1),
		}))
	}
	if cfg.Server.BodyLimit > 0 {
		srv.Use(httprpc.BodyLimit(cfg.Server.BodyLimit))
	}

	if reg == nil {
		return srv, nil
	}

	// Everything but the exact metrics path goes to the pet store untouched.
	// http.ServeMux would clean dot segments and redirect, so a pet named
	// ".." would be reachable in-process but not over the socket.
	metrics := promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == cfg.Metrics.Path {
			metrics.ServeHTTP(w, r)
			return
		}
		srv.ServeHTTP(w, r)
	}), nil
}

func serve(ctx context.Context, cfg *Config, logger *slog.Logger) error {
	handler, err := newHandler(cfg, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	logger.Info("serving pet store", "addr", cfg.Addr, "metrics", cfg.Metrics.Enabled)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func newTransport(cfg *Config, logger *slog.Logger) (*httprpc.Transport, error) {
	opts := []httprpc.TransportOption{
		httprpc.WithHTTPClient(&http.Client{Timeout: cfg.Client.Timeout}),
		httprpc.WithTransportLogger(logger),
	}
	if cfg.Client.RateLimit > 0 {
		opts = append(opts, httprpc.WithRateLimit(cfg.Client.RateLimit, max(cfg.Client.RateBurst, 1)))
	}
	return httprpc.NewTransport(cfg.URL, opts...)
}

// scenario runs the create/list/delete walkthrough against p and prints
// each outcome. The second delete is expected to fail with
// petstore.ErrPetNotFound.
func scenario(ctx context.Context, p petstore.Pets, out io.Writer) error {
	fido := petstore.Pet{Name: "Fido", Age: 2, Kind: petstore.Dog}

	created, err := p.Create(ctx, fido)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	fmt.Fprintf(out, "created: %+v\n", created)

	pets, err := p.List(ctx)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	fmt.Fprintf(out, "list: %+v\n", pets)

	if err := p.Delete(ctx, fido.Name); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	fmt.Fprintf(out, "deleted: %s\n", fido.Name)

	err = p.Delete(ctx, fido.Name)
	if !errors.Is(err, petstore.ErrPetNotFound) {
		return fmt.Errorf("second delete: want not found, got %v", err)
	}
	fmt.Fprintf(out, "second delete: %v\n", err)

	pets, err = p.List(ctx)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	fmt.Fprintf(out, "list: %+v\n", pets)
	return nil
}
