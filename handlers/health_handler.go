package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/upb/logistics-assistant/internal/rag"
	"github.com/upb/logistics-assistant/utils"
)

const readyMessage = "Logistics API is ready."

// StatusResponse is the body of GET /
type StatusResponse struct {
	Status        string     `json:"status"`
	Message       string     `json:"message"`
	KnowledgeBase *rag.Stats `json:"knowledge_base"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ProviderChecker reports whether the language model backend answers
type ProviderChecker interface {
	Name() string
	IsAvailable(ctx context.Context) bool
}

// KnowledgeBaseReporter exposes the published knowledge base, if any
type KnowledgeBaseReporter interface {
	Ready() bool
	KnowledgeBaseStats() (*rag.Stats, error)
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db       *sql.DB
	provider ProviderChecker
	kb       KnowledgeBaseReporter
	logger   *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. db and provider may be nil.
func NewHealthHandler(db *sql.DB, provider ProviderChecker, kb KnowledgeBaseReporter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:       db,
		provider: provider,
		kb:       kb,
		logger:   logger,
	}
}

// HandleRoot handles GET /
func (h *HealthHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	response := StatusResponse{
		Status:  "offline",
		Message: readyMessage,
	}
	if stats, err := h.kb.KnowledgeBaseStats(); err == nil {
		response.Status = "online"
		response.KnowledgeBase = stats
	}

	writeOK(w, response, h.logger)
}

// HandleHealth handles GET /healthz
// Basic health check - always returns 200 if service is running
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	writeOK(w, response, h.logger)
}

// HandleReadiness handles GET /readyz
// Readiness check - validates that all dependencies are available
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	if err := h.checkDatabase(ctx); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		checks["database"] = "unhealthy"
		allHealthy = false
	} else {
		checks["database"] = "healthy"
	}

	switch {
	case h.provider == nil:
		checks["provider"] = "not_configured"
	case h.provider.IsAvailable(ctx):
		checks["provider"] = "healthy"
	default:
		h.logger.Warn("provider health check failed", zap.String("provider", h.provider.Name()))
		checks["provider"] = "unhealthy"
		allHealthy = false
	}

	if h.kb.Ready() {
		checks["knowledge_base"] = "ready"
	} else {
		checks["knowledge_base"] = "not_ready"
		allHealthy = false
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if err := utils.WriteJSON(w, httpStatus, response); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

// checkDatabase checks database connectivity
func (h *HealthHandler) checkDatabase(ctx context.Context) error {
	if h.db == nil {
		return nil // No database configured
	}

	if err := h.db.PingContext(ctx); err != nil {
		return err
	}

	var result int
	return h.db.QueryRowContext(ctx, "SELECT 1").Scan(&result)
}
