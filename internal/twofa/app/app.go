package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/twofa/internal/twofa/http"
	"github.com/aussiebroadwan/twofa/internal/twofa/metrics"
	"github.com/aussiebroadwan/twofa/internal/twofa/otpauth"
	"github.com/aussiebroadwan/twofa/internal/twofa/service"
	"github.com/aussiebroadwan/twofa/internal/twofa/store"
	"github.com/aussiebroadwan/twofa/pkg/clock"
	"github.com/aussiebroadwan/twofa/pkg/cryptox"
	"github.com/aussiebroadwan/twofa/pkg/jwtx"
	"github.com/aussiebroadwan/twofa/pkg/slogx"
	"github.com/aussiebroadwan/twofa/pkg/validatex"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the 2FA service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger
	clock  clock.Clock

	// Core dependencies
	db       store.Store
	signer   jwtx.Signer
	keys     *jwtx.KeySet
	verifier *jwtx.EdDSAVerifier
	metrics  *metrics.Metrics

	// Services
	loginService     *service.LoginService
	tokenService     *service.TokenService
	twoFactorService *service.TwoFactorService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg:   cfg,
		clock: clock.New(),
		logger: slogx.New(slogx.Config{
			Service: "twofa-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(cfg.PepperFile)
	if cfg.MasterKeyPath != "" {
		cryptox.SetMasterKeyPath(cfg.MasterKeyPath)
	}

	ctx := context.Background()
	if err := app.initStore(ctx); err != nil {
		return nil, err
	}

	signer, keys, err := InitSigningKey(cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize signing key: %w", err)
	}
	app.signer = signer
	app.keys = keys
	app.verifier = jwtx.NewVerifierEdDSA(keys, cfg.Issuer, []string{cfg.Issuer})
	app.verifier.Now = app.clock.Now

	if err := app.initHTTP(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	return app, nil
}

// Handler exposes the fully wired router, mostly for tests.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("twofa service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down twofa service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing store", "error", err)
		return err
	}

	app.logger.Info("twofa service stopped")
	return nil
}

// initStore opens the configured driver and makes sure the user exists.
func (app *Application) initStore(ctx context.Context) error {
	db, err := OpenStore(ctx, app.cfg, app.clock, app.logger)
	if err != nil {
		return err
	}
	app.db = db

	if err := SeedUser(ctx, db, app.cfg, app.logger); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to seed user: %w", err)
	}
	return nil
}

func (app *Application) initServices() {
	verifier := otpauth.NewVerifier()

	app.loginService = &service.LoginService{
		Store:    app.db,
		Verifier: verifier,
		Clock:    app.clock,
	}
	app.tokenService = &service.TokenService{
		Signer: app.signer,
		Issuer: app.cfg.Issuer,
		TTL:    app.cfg.AccessTokenTTL,
		Clock:  app.clock,
	}
	app.twoFactorService = &service.TwoFactorService{
		Store: app.db,
		Generator: &otpauth.Generator{
			Issuer:       app.cfg.Issuer,
			SecretLength: app.cfg.SecretLength,
		},
		Verifier: verifier,
		Clock:    app.clock,
	}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() error {
	app.initServices()

	v, err := validatex.New()
	if err != nil {
		return fmt.Errorf("failed to initialize validator: %w", err)
	}
	app.metrics = metrics.New()

	router := httpapi.NewRouter(
		app.keys,
		app.verifier,
		BuildVersion,
		app.db,
		app.metrics,
		v,
		app.logger,
	)

	router.LoginService = app.loginService
	router.TokenService = app.tokenService
	router.TwoFactorService = app.twoFactorService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
