// Package httptransport is the JSON HTTP boundary of the booking backend.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"pestbook/backend/internal/customers"
	"pestbook/backend/internal/domain"
)

type Config struct {
	Logger         *slog.Logger
	Appointments   *AppointmentsHandler
	Availability   *AvailabilityHandler
	Customers      *CustomersHandler
	Catalog        *domain.SlotCatalog
	Store          pinger
	DirectoryEnv   func() customers.Health
	MetricsHandler http.Handler
	CORS           CORSPolicy
	RequestTimeout time.Duration
	BodyLimit      int64
	Tracing        bool
}

func NewRouter(cfg Config) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = domain.DefaultSlotCatalog()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(withAccessLog(log.With(slog.String("component", "http"))))
	r.Use(withRecover(log.With(slog.String("component", "http"))))
	r.Use(withCORS(cfg.CORS))
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(withBodyLimit(cfg.BodyLimit))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})

	if cfg.Appointments != nil {
		r.Handle("/appointments", cfg.Appointments.Routes())
	}
	if cfg.Availability != nil {
		r.Handle("/availability", methods(map[string]http.HandlerFunc{
			http.MethodGet: cfg.Availability.Get,
		}))
	}
	if cfg.Customers != nil {
		r.Handle("/customers", cfg.Customers.Routes())
	}
	r.Handle("/config", methods(map[string]http.HandlerFunc{
		http.MethodGet: presentationHandler(catalog),
	}))
	if cfg.Store != nil {
		r.Handle("/health", methods(map[string]http.HandlerFunc{
			http.MethodGet: healthHandler(cfg.Store, cfg.DirectoryEnv, log.With(slog.String("component", "http.health"))),
		}))
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.Tracing {
		return otelhttp.NewHandler(r, "pestbook")
	}
	return r
}
