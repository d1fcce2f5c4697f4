package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/rti-filing/api"
	"github.com/frahmantamala/rti-filing/internal/application"
	authpkg "github.com/frahmantamala/rti-filing/internal/auth"
	"github.com/frahmantamala/rti-filing/internal/catalog"
	"github.com/frahmantamala/rti-filing/internal/checkout"
	"github.com/frahmantamala/rti-filing/internal/lead"
	"github.com/frahmantamala/rti-filing/internal/observability"
	"github.com/frahmantamala/rti-filing/internal/recovery"
	"github.com/frahmantamala/rti-filing/internal/transport"
	"github.com/frahmantamala/rti-filing/internal/transport/middleware"
	"github.com/frahmantamala/rti-filing/internal/transport/rest"
	"github.com/frahmantamala/rti-filing/internal/user"
)

// version is stamped at build time with -ldflags "-X .../cmd.version=..."
var version = "dev"

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startHTTPServer(cmd.Context())
	},
}

func startHTTPServer(parent context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Observability.Tracing, version)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}

	app, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}

	notify := startNotifications(ctx, cfg, log, app.Bus)

	opts := rest.Options{
		AllowedOrigins: cfg.Server.Origins(),
		OpenAPISpec:    api.Spec,
	}
	if cfg.Observability.Metrics.Enabled {
		opts.MetricsPath = cfg.Observability.Metrics.Path
	}
	if cfg.RateLimit.Enabled {
		opts.RateLimiter = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	validator, err := middleware.NewRequestValidator(ctx, api.Spec, rest.APIPrefix)
	if err != nil {
		return fmt.Errorf("failed to load api document: %w", err)
	}
	opts.Validator = validator

	base := transport.NewBaseHandler(log)
	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Handlers{
		Health: rest.NewHealthHandler(app.DB, map[string]rest.StateReporter{
			"whatsapp": notify.state,
		}),
		Auth:        authpkg.NewHandler(base, app.Auth),
		User:        user.NewHandler(base, app.Users),
		Catalog:     catalog.NewHandler(base, app.Catalog),
		Application: application.NewHandler(base, app.Applications),
		Recovery:    recovery.NewHandler(base, app.Recoveries),
		Checkout:    checkout.NewHandler(base, app.Orchestrator, app.Gateway),
		Lead:        lead.NewHandler(base, app.Leads),
	}, opts, log)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "address", addr, "version", version)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("received signal, shutting down")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			_ = app.Close()
			return err
		}
	}

	// order: stop intake, flush queued notifications, then release the pool
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", "error", err)
	}
	app.Bus.Close()
	notify.shutdown(shutdownCtx)
	if err := app.Close(); err != nil {
		log.Error("database close error", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracer shutdown error", "error", err)
	}

	log.Info("server stopped")
	return nil
}
