package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/upb/logistics-assistant/internal/rag"
	"github.com/upb/logistics-assistant/services/chat"
)

// KnowledgeBaseResponse is the body of GET /knowledge-base
type KnowledgeBaseResponse struct {
	*rag.Stats
	Pipeline chat.PipelineStats `json:"pipeline"`
}

// KnowledgeBaseHandler exposes the published knowledge base
type KnowledgeBaseHandler struct {
	service ChatService
	logger  *zap.Logger
}

// NewKnowledgeBaseHandler creates a new KnowledgeBaseHandler
func NewKnowledgeBaseHandler(service ChatService, logger *zap.Logger) *KnowledgeBaseHandler {
	return &KnowledgeBaseHandler{
		service: service,
		logger:  logger,
	}
}

// HandleGet handles GET /knowledge-base
func (h *KnowledgeBaseHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.KnowledgeBaseStats()
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeOK(w, KnowledgeBaseResponse{Stats: stats, Pipeline: h.service.Stats()}, h.logger)
}

// HandleReload handles POST /knowledge-base/reload
func (h *KnowledgeBaseHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Reload(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("knowledge base reloaded",
		zap.String("knowledge_base_id", stats.ID),
		zap.Int("documents", stats.Documents))

	writeOK(w, stats, h.logger)
}
