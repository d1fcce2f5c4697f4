package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/rti-filing/internal"
	"github.com/frahmantamala/rti-filing/internal/application"
	applicationPostgres "github.com/frahmantamala/rti-filing/internal/application/postgres"
	"github.com/frahmantamala/rti-filing/internal/auth"
	"github.com/frahmantamala/rti-filing/internal/catalog"
	catalogPostgres "github.com/frahmantamala/rti-filing/internal/catalog/postgres"
	"github.com/frahmantamala/rti-filing/internal/checkout"
	"github.com/frahmantamala/rti-filing/internal/core/events"
	"github.com/frahmantamala/rti-filing/internal/database"
	"github.com/frahmantamala/rti-filing/internal/lead"
	leadPostgres "github.com/frahmantamala/rti-filing/internal/lead/postgres"
	"github.com/frahmantamala/rti-filing/internal/paymentgateway"
	"github.com/frahmantamala/rti-filing/internal/recovery"
	recoveryPostgres "github.com/frahmantamala/rti-filing/internal/recovery/postgres"
	"github.com/frahmantamala/rti-filing/internal/user"
	userPostgres "github.com/frahmantamala/rti-filing/internal/user/postgres"
)

// App holds the services shared by the server and the operator commands.
type App struct {
	Config *internal.Config
	Logger *slog.Logger
	DB     *database.DB
	Bus    *events.EventBus

	Gateway      *paymentgateway.Client
	Users        *user.Service
	Auth         *auth.Service
	Catalog      *catalog.Service
	Applications *application.Service
	Recoveries   *recovery.Service
	Leads        *lead.Service
	Orchestrator *checkout.Orchestrator
}

func newApp(ctx context.Context, cfg *internal.Config, log *slog.Logger) (*App, error) {
	db, err := database.Open(ctx, cfg.Database, database.Options{
		Tracing: cfg.Observability.Tracing.Enabled,
		Logger:  log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	bus := events.NewEventBus(log)

	gateway := paymentgateway.NewClient(paymentgateway.Config{
		KeyID:     cfg.Payment.KeyID,
		KeySecret: cfg.Payment.KeySecret,
		BaseURL:   cfg.Payment.BaseURL,
		Currency:  cfg.Payment.Currency,
		Timeout:   cfg.Payment.Timeout,
	}, log)
	if !gateway.IsConfigured() {
		log.Warn("razorpay credentials missing, paid checkouts will be refused")
	}

	appRepo := applicationPostgres.NewApplicationRepository(db.Gorm)
	recoveryRepo := recoveryPostgres.NewRecoveryRepository(db.Gorm)

	users := user.NewService(userPostgres.NewUserRepository(db.Gorm), cfg.Security.BCryptCost, log)
	catalogSvc := catalog.NewService(catalogPostgres.NewCatalogRepository(db.Gorm), log)

	app := &App{
		Config:       cfg,
		Logger:       log,
		DB:           db,
		Bus:          bus,
		Gateway:      gateway,
		Users:        users,
		Auth:         auth.NewService(users, auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.AccessTokenDuration), log),
		Catalog:      catalogSvc,
		Applications: application.NewService(appRepo, log),
		Recoveries:   recovery.NewService(recoveryRepo, appRepo, bus, log),
		Leads: lead.NewService(
			leadPostgres.NewConsultationRepository(db.SQL),
			leadPostgres.NewCallbackRepository(db.SQL),
			leadPostgres.NewNewsletterRepository(db.SQL),
			bus,
			log,
		),
		Orchestrator: checkout.NewOrchestrator(catalogSvc, gateway, appRepo, recoveryRepo, bus, checkout.Config{
			PersistTimeout: 10 * time.Second,
		}, log),
	}
	return app, nil
}

// Close stops the bus, waits for its handlers, then closes the pool.
func (a *App) Close() error {
	a.Bus.Close()
	return a.DB.Close()
}
