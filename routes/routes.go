package routes

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/upb/logistics-assistant/app"
	"github.com/upb/logistics-assistant/handlers"
	"github.com/upb/logistics-assistant/middleware"
	"github.com/upb/logistics-assistant/utils"
)

const defaultRequestTimeout = 60 * time.Second

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	timeout := deps.Config.Server.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(timeout))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "https://*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:         300,
	}))

	var db *sql.DB
	if deps.DB != nil {
		db = deps.DB.DB
	}

	health := handlers.NewHealthHandler(db, deps.Provider, deps.Chat, deps.Logger)
	metrics := handlers.NewMetricsHandler(deps.Locations, deps.Logger)
	chat := handlers.NewChatHandler(deps.Chat, deps.Logger)
	kb := handlers.NewKnowledgeBaseHandler(deps.Chat, deps.Logger)

	// Status and health check endpoints
	r.Get("/", health.HandleRoot)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	// Location metrics
	r.Route("/metrics", func(r chi.Router) {
		r.Get("/top", metrics.HandleTop)
		r.Get("/{location_id}", metrics.HandleGet)
	})

	// Question answering
	r.With(deps.RateLimiter.Limit).Post("/chat", chat.HandleChat)

	// Knowledge base management
	r.Route("/knowledge-base", func(r chi.Router) {
		r.Get("/", kb.HandleGet)
		r.Post("/reload", kb.HandleReload)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	return r
}
