package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/upb/logistics-assistant/models"
	"github.com/upb/logistics-assistant/services/locations"
	"github.com/upb/logistics-assistant/utils"
)

// LocationService defines the read operations on location metrics
type LocationService interface {
	Top(ctx context.Context, limit int) ([]models.LocationMetric, error)
	Get(ctx context.Context, locationID int64) (*models.LocationMetric, error)
}

// topQuery holds the validated query string of GET /metrics/top
type topQuery struct {
	Limit int `query:"limit" validate:"gte=1,lte=100"`
}

// MetricsHandler handles location metric lookups
type MetricsHandler struct {
	service LocationService
	logger  *zap.Logger
}

// NewMetricsHandler creates a new MetricsHandler
func NewMetricsHandler(service LocationService, logger *zap.Logger) *MetricsHandler {
	return &MetricsHandler{
		service: service,
		logger:  logger,
	}
}

// HandleTop handles GET /metrics/top?limit=N
func (h *MetricsHandler) HandleTop(w http.ResponseWriter, r *http.Request) {
	q := topQuery{Limit: locations.DefaultTopLimit}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			HandleValidationError(w, utils.NewFieldValidationError(
				utils.LocationQuery, "limit", "value is not a valid integer", "type_error.integer"), h.logger)
			return
		}
		q.Limit = limit
	}

	if err := utils.ValidateStruct(&q, utils.LocationQuery); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	metrics, err := h.service.Top(r.Context(), q.Limit)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if metrics == nil {
		metrics = []models.LocationMetric{}
	}

	writeOK(w, metrics, h.logger)
}

// HandleGet handles GET /metrics/{location_id}
func (h *MetricsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "location_id"), 10, 64)
	if err != nil {
		HandleValidationError(w, utils.NewFieldValidationError(
			utils.LocationPath, "location_id", "value is not a valid integer", "type_error.integer"), h.logger)
		return
	}

	metric, err := h.service.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeOK(w, metric, h.logger)
}
