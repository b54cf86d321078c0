// Package app wires the config loader, the router core, and the HTTP
// front door together into a runnable server.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/edgerouter/edgerouter/adapters/metrics"
	"github.com/edgerouter/edgerouter/config"
)

// App is the fully-wired, ready-to-run server.
type App struct {
	Logger  zerolog.Logger
	Metrics *metrics.Collector
	Holder  *config.Holder
	Server  *http.Server

	hotReload bool
}

// New builds an App from the config at cfgPath without enabling hot
// reload.
func New(cfgPath string) (*App, error) {
	return newApp(cfgPath, false)
}

// NewWithHotReload builds an App that watches cfgPath for changes and
// reacts to SIGHUP, recompiling the service tree on each change.
func NewWithHotReload(cfgPath string) (*App, error) {
	return newApp(cfgPath, true)
}

func newApp(cfgPath string, hotReload bool) (*App, error) {
	logger := newLoggerFromEnv()
	m := metrics.New()

	holder, err := config.NewHolder(cfgPath, logger, m)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	a := &App{
		Logger:    logger,
		Metrics:   m,
		Holder:    holder,
		hotReload: hotReload,
	}

	mux := chi.NewRouter()
	mux.Get("/healthz", a.handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())
	mux.NotFound((&routerHandler{holder: holder, metrics: m, logger: logger}).ServeHTTP)

	a.Server = &http.Server{
		Addr:    holder.Config().HTTPServer.Bind,
		Handler: mux,
	}

	return a, nil
}

func (a *App) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Run starts the listener and blocks until a termination signal
// arrives, then shuts down gracefully.
func (a *App) Run() error {
	if a.hotReload {
		if err := a.Holder.WatchFile(); err != nil {
			a.Logger.Warn().Err(err).Msg("could not watch config file for changes")
		}
		a.Holder.WatchSignals()
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("bind", a.Server.Addr).Msg("listening")
		tls := a.Holder.Config().HTTPServer.TLS
		var err error
		if tls != nil {
			err = a.Server.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = a.Server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		a.Logger.Info().Msg("shutting down")
	}

	a.Holder.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.Server.Shutdown(ctx)
}
