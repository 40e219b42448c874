package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/upb/logistics-assistant/internal/rag"
	"github.com/upb/logistics-assistant/services/chat"
	"github.com/upb/logistics-assistant/utils"
)

// maxChatBody caps the request body of POST /chat
const maxChatBody = 64 << 10

// ChatService defines the question answering and knowledge base operations
type ChatService interface {
	Ask(ctx context.Context, req *chat.AskRequest) (*chat.AskResponse, error)
	Reload(ctx context.Context) (*rag.Stats, error)
	KnowledgeBaseStats() (*rag.Stats, error)
	Stats() chat.PipelineStats
}

// ChatHandler handles questions about the logistics data
type ChatHandler struct {
	service ChatService
	logger  *zap.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(service ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		logger:  logger,
	}
}

// HandleChat handles POST /chat
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req chat.AskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
		h.logger.Debug("invalid chat request body", zap.Error(err))
		HandleValidationError(w, fmt.Errorf("request body is not valid JSON: %w", err), h.logger)
		return
	}

	if err := utils.ValidateStruct(&req, utils.LocationBody); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	resp, err := h.service.Ask(ctx, &req)
	if err != nil {
		h.logger.Info("chat request failed",
			zap.String("request_id", middleware.GetReqID(ctx)),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	writeOK(w, resp, h.logger)
}
