package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/frahmantamala/rti-filing/internal/application"
	"github.com/frahmantamala/rti-filing/internal/auth"
	"github.com/frahmantamala/rti-filing/internal/catalog"
	"github.com/frahmantamala/rti-filing/internal/checkout"
	"github.com/frahmantamala/rti-filing/internal/lead"
	"github.com/frahmantamala/rti-filing/internal/recovery"
	"github.com/frahmantamala/rti-filing/internal/transport/middleware"
	"github.com/frahmantamala/rti-filing/internal/transport/swagger"
	"github.com/frahmantamala/rti-filing/internal/user"
)

const APIPrefix = "/api/v1"

type Handlers struct {
	Health      *HealthHandler
	Auth        *auth.Handler
	User        *user.Handler
	Catalog     *catalog.Handler
	Application *application.Handler
	Recovery    *recovery.Handler
	Checkout    *checkout.Handler
	Lead        *lead.Handler
}

type Options struct {
	AllowedOrigins []string
	// nil disables rate limiting on public write endpoints
	RateLimiter *middleware.RateLimiter
	// nil disables schema validation of public request bodies
	Validator   *middleware.RequestValidator
	MetricsPath string
	OpenAPISpec []byte
}

func RegisterAllRoutes(router chi.Router, h Handlers, opts Options, logger *slog.Logger) {
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.LoggingMiddleware(logger))
	if opts.MetricsPath != "" {
		router.Use(middleware.Metrics)
		router.Method(http.MethodGet, opts.MetricsPath, promhttp.Handler())
	}

	if len(opts.OpenAPISpec) > 0 {
		router.Get("/openapi.yml", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/yaml")
			_, _ = w.Write(opts.OpenAPISpec)
		})
		router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))
	}

	public := func(r chi.Router) {
		if opts.RateLimiter != nil {
			r.Use(opts.RateLimiter.Handler)
		}
		if opts.Validator != nil {
			r.Use(opts.Validator.Handler)
		}
	}

	router.Route(APIPrefix, func(r chi.Router) {
		r.Get("/health", h.Health.Health)
		r.Get("/ping", h.Health.Ping)

		r.Group(func(ar chi.Router) {
			public(ar)
			ar.Post("/auth/register", h.Auth.Register)
			ar.Post("/auth/login", h.Auth.Login)
		})

		// catalog reads
		r.Get("/services", h.Catalog.GetServices)
		r.Get("/services/{slug}", h.Catalog.GetService)
		r.Get("/states", h.Catalog.GetStates)
		r.Get("/states/{slug}", h.Catalog.GetState)

		// public submissions; a signed-in caller is linked when present
		r.Group(func(pr chi.Router) {
			public(pr)
			pr.Use(h.Auth.OptionalAuth)

			pr.Post("/payments/create-order", h.Checkout.CreateOrder)
			pr.Post("/payments/verify", h.Checkout.VerifyPayment)
			pr.Post("/rti-applications/checkout", h.Checkout.Checkout)
			pr.Post("/rti-applications/public", h.Checkout.SubmitPublic)

			pr.Post("/consultations", h.Lead.CreateConsultation)
			pr.Post("/callback-requests", h.Lead.CreateCallback)
			pr.Post("/newsletter/subscribe", h.Lead.Subscribe)
			pr.Post("/newsletter/unsubscribe", h.Lead.Unsubscribe)
		})
		r.Post("/rti-applications/checkout/cancel", h.Checkout.CancelCheckout)

		r.Group(func(ur chi.Router) {
			ur.Use(h.Auth.AuthMiddleware)

			ur.Get("/users/me", h.User.GetCurrentUser)
			ur.Get("/rti-applications/mine", h.Application.ListMine)

			ur.Group(func(admin chi.Router) {
				admin.Use(h.Auth.RequireAdmin)

				admin.Get("/rti-applications", h.Application.List)
				admin.Get("/rti-applications/{id}", h.Application.Get)
				admin.Patch("/rti-applications/{id}", h.Application.UpdateStatus)
				admin.Delete("/rti-applications/{id}", h.Application.Delete)

				admin.Get("/payment-recoveries", h.Recovery.List)
				admin.Get("/payment-recoveries/{id}", h.Recovery.Get)
				admin.Post("/payment-recoveries/{id}/process", h.Recovery.Process)
				admin.Post("/payment-recoveries/{id}/fail", h.Recovery.Fail)
				admin.Post("/payment-recoveries/{id}/reconcile", h.Recovery.Reconcile)

				admin.Post("/services", h.Catalog.CreateService)
				admin.Put("/services/{id}", h.Catalog.UpdateService)
				admin.Delete("/services/{id}", h.Catalog.DeleteService)
				admin.Post("/states", h.Catalog.CreateState)
				admin.Put("/states/{id}", h.Catalog.UpdateState)
				admin.Delete("/states/{id}", h.Catalog.DeleteState)

				admin.Get("/consultations", h.Lead.ListConsultations)
				admin.Get("/consultations/{id}", h.Lead.GetConsultation)
				admin.Patch("/consultations/{id}", h.Lead.UpdateConsultationStatus)
				admin.Delete("/consultations/{id}", h.Lead.DeleteConsultation)

				admin.Get("/callback-requests", h.Lead.ListCallbacks)
				admin.Get("/callback-requests/{id}", h.Lead.GetCallback)
				admin.Patch("/callback-requests/{id}", h.Lead.UpdateCallbackStatus)
				admin.Delete("/callback-requests/{id}", h.Lead.DeleteCallback)

				admin.Get("/newsletter", h.Lead.ListSubscriptions)
			})
		})
	})
}
