package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	mw "github.com/lorrc/ticket-insight/internal/adapters/primary/http/middleware"
	"github.com/lorrc/ticket-insight/internal/adapters/primary/websocket"
	"github.com/lorrc/ticket-insight/internal/config"
	"github.com/lorrc/ticket-insight/internal/core/ports"
)

// RouterDeps holds everything the router wires into handlers.
// Hub and RateLimiter are optional.
type RouterDeps struct {
	Config            *config.Config
	Logger            *slog.Logger
	TicketService     ports.TicketService
	RequestLogService ports.RequestLogService
	Store             HealthChecker
	Driver            string
	Hub               *websocket.Hub
	RateLimiter       *mw.RateLimiter
}

// InfoResponse describes the service at GET /.
type InfoResponse struct {
	Message string            `json:"message"`
	Version string            `json:"version"`
	Routes  map[string]string `json:"routes"`
}

// NewRouter builds the chi router with global middleware and all routes.
func NewRouter(deps RouterDeps) http.Handler {
	cfg := deps.Config
	logger := deps.Logger

	errorHandler := NewErrorHandler(logger)
	ticketHandler := NewTicketHandler(deps.TicketService, errorHandler, logger)
	requestHandler := NewRequestHandler(deps.RequestLogService, errorHandler, logger)
	healthHandler := NewHealthHandler(deps.Store, deps.Driver, cfg.App.Version)

	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", mw.RequestIDHeader},
		ExposedHeaders:   []string{mw.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if deps.RateLimiter != nil {
		r.Use(deps.RateLimiter.Middleware)
	}

	if cfg.Capture.Enabled {
		r.Use(mw.CaptureRequests(deps.RequestLogService, mw.DefaultCaptureSkip, logger))
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		WriteOK(w, InfoResponse{
			Message: "Ticket & API Request Management API",
			Version: cfg.App.Version,
			Routes: map[string]string{
				"tickets":  "/api/v1/tickets",
				"requests": "/api/v1/requests",
				"events":   "/ws",
				"health":   "/health",
			},
		})
	})

	// Health check endpoints (outside /api/v1 for standard probe paths)
	healthHandler.RegisterRoutes(r)

	if deps.Hub != nil {
		r.Get("/ws", NewWebSocketHandler(deps.Hub, cfg, logger).ServeHTTP)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/tickets", ticketHandler.RegisterRoutes)
		r.Route("/requests", requestHandler.RegisterRoutes)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusNotFound, ErrorResponse{Error: "Resource not found", Code: "NOT_FOUND"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed", Code: "METHOD_NOT_ALLOWED"})
	})

	return r
}
