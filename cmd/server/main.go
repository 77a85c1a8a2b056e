// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unclebandit/customer-publisher/internal/app"
	"github.com/unclebandit/customer-publisher/internal/config"
	"github.com/unclebandit/customer-publisher/internal/handler"
	"github.com/unclebandit/customer-publisher/internal/logging"
	"github.com/unclebandit/customer-publisher/internal/observe"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	grace, err := cfg.GracePeriod()
	if err != nil {
		return err
	}

	log, logCloser, err := logging.New(cfg.Log, "server")
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(observe.Middleware(func(method, path string) string {
		if path == cfg.MetricsPath {
			return "metrics"
		}
		return handler.RouteName(method, path)
	}))

	r.Method(http.MethodGet, cfg.MetricsPath, promhttp.Handler())
	routerHandler := a.Router.HTTPHandler(log)
	r.Handle("/*", routerHandler)
	r.NotFound(routerHandler.ServeHTTP)
	r.MethodNotAllowed(routerHandler.ServeHTTP)

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server running", "listen", cfg.Listen, "publish_backend", cfg.Publish.Backend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	log.Info("shutting down", "grace_period", grace)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
