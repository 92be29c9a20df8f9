// Package app assembles the process: configuration, logging, storage, and
// the HTTP server, with graceful shutdown on SIGINT/SIGTERM.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/taskorbit/taskorbit/internal/http"
	"github.com/taskorbit/taskorbit/internal/store"
	"github.com/taskorbit/taskorbit/internal/store/drivers/postgres"
	"github.com/taskorbit/taskorbit/internal/store/drivers/sqlite"
	"github.com/taskorbit/taskorbit/pkg/cookiex"
	"github.com/taskorbit/taskorbit/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application holds the assembled process.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db      store.Store
	cookies *cookiex.Codec

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "taskorbit",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.cookies = &cookiex.Codec{
		Secret: []byte(cfg.CookieSecret),
		TTL:    cfg.SessionTTL,
		Secure: cfg.SecureCookie,
	}

	app.initHTTP()
	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("taskorbit starting",
		"port", app.cfg.Port, "driver", app.cfg.Driver, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains the HTTP server and closes the store.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down taskorbit...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("taskorbit stopped")
	return nil
}

// initDatabase opens the configured backend and applies migrations.
func (app *Application) initDatabase() error {
	var (
		db  store.Store
		err error
	)
	switch app.cfg.Driver {
	case "postgres":
		db, err = postgres.NewStore(postgres.Config{
			Host:     app.cfg.PGHost,
			Port:     app.cfg.PGPort,
			User:     app.cfg.PGUser,
			Password: app.cfg.PGPassword,
			DBName:   app.cfg.PGDatabase,
			SSLMode:  app.cfg.PGSSLMode,
			Schema:   app.cfg.PGSchema,
		})
	default:
		db, err = sqlite.NewStore(app.cfg.DatabaseFile, app.cfg.TablePrefix)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initHTTP builds the router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.db, app.cookies, BuildVersion, app.logger)
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
