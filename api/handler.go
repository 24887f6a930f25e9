// Package api exposes the back-office engine as a JSON HTTP API.
//
// Every response is an envelope: {"success": true, ...} on success and
// {"success": false, "error": "..."} on failure. Sessions travel in the
// auth_token cookie issued by the session package.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/havelihousing/backoffice"
	"github.com/havelihousing/backoffice/observability"
	"github.com/havelihousing/backoffice/session"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// Handler serves the API.
type Handler struct {
	engine   *backoffice.Engine
	sessions *session.Manager
	logger   *slog.Logger
	validate *validator.Validate

	origins  []string
	metrics  *observability.HTTPMetrics
	gatherer prometheus.Gatherer
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithCORSOrigins allows browser calls with credentials from origins.
func WithCORSOrigins(origins ...string) Option {
	return func(h *Handler) {
		h.origins = origins
	}
}

// WithMetrics instruments requests and serves gatherer at /metrics.
func WithMetrics(m *observability.HTTPMetrics, gatherer prometheus.Gatherer) Option {
	return func(h *Handler) {
		h.metrics = m
		h.gatherer = gatherer
	}
}

// New builds the router.
func New(engine *backoffice.Engine, sessions *session.Manager, opts ...Option) http.Handler {
	h := &Handler{
		engine:   engine,
		sessions: sessions,
		logger:   slog.Default(),
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(h)
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(h.logRequests)
	r.Use(h.recoverer)
	if h.metrics != nil {
		r.Use(h.instrument)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	if h.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(RequestBodyLimit(MaxBodyBytes))

		// ── Public ───────────────────────────────────────────────────────────
		r.Get("/health", h.health)

		r.Post("/auth/register", h.register)
		r.Post("/auth/login", h.login)
		r.Post("/auth/logout", h.logout)

		r.Get("/properties", h.listProperties)
		r.Get("/properties/{id}", h.getProperty)

		// ── Session required ─────────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)

			r.Get("/auth/me", h.me)

			r.Post("/properties", h.createProperty)
			r.Put("/properties/{id}", h.updateProperty)
			r.Delete("/properties/{id}", h.deleteProperty)

			r.Get("/employees", h.listEmployees)
			r.Post("/employees", h.createEmployee)
			r.Get("/employees/{id}", h.getEmployee)
			r.Put("/employees/{id}", h.updateEmployee)
			r.Get("/employees/{id}/performance", h.employeePerformance)

			r.Post("/booking", h.createBooking)
			r.Get("/booking", h.listBookings)
			r.Get("/booking/clients", h.listClients)
			r.Get("/booking/clients/{id}", h.getClient)
			r.Post("/booking/clients/{id}/payments", h.recordPayment)
			r.Get("/booking/{id}", h.getBooking)
			r.Put("/booking/{id}/status", h.setBookingStatus)
		})
	})

	if len(h.origins) == 0 {
		return r
	}
	return cors.New(cors.Options{
		AllowedOrigins:   h.origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
	}).Handler(r)
}

// health reports whether the store answers a ping.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Health(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, envelope{
			"status":  "unhealthy",
			"message": "Database is unreachable",
		})
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"status":  "healthy",
		"message": "Haveli Housing API is running",
	})
}
