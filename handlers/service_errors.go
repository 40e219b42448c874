package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	"go.uber.org/zap"

	"github.com/upb/logistics-assistant/services"
	"github.com/upb/logistics-assistant/utils"
)

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	var writeErr error
	switch {
	case services.IsNotFoundError(err):
		writeErr = utils.WriteNotFound(w, services.GetErrorMessage(err))

	case services.IsValidationError(err):
		writeErr = utils.WriteUnprocessableEntity(w, domainFieldErrors(err))

	case services.IsUnavailableError(err):
		writeErr = utils.WriteServiceUnavailable(w, services.GetErrorMessage(err))

	case services.IsRateLimitError(err):
		writeErr = utils.WriteTooManyRequests(w, services.GetErrorMessage(err), 1)

	case services.IsConflictError(err):
		writeErr = utils.WriteConflict(w, services.GetErrorMessage(err))

	case services.IsTimeoutError(err):
		logger.Warn("request timed out", zap.Error(err))
		writeErr = utils.WriteGatewayTimeout(w, services.GetErrorMessage(err))

	case services.IsExternalError(err):
		// generator and embedder failures carry their cause to the client
		logger.Error("external dependency failed", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, externalDetail(err))

	case services.IsInternalError(err):
		logger.Error("internal server error", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "An internal error occurred")

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		writeErr = utils.WriteInternalServerError(w, "An unexpected error occurred")
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// HandleValidationError writes a 422 for request parsing and validation failures
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	detail := utils.GetValidationErrors(err)
	if detail == nil {
		detail = []utils.FieldError{{Loc: []string{utils.LocationBody}, Msg: err.Error(), Type: "value_error"}}
	}
	if err := utils.WriteUnprocessableEntity(w, detail); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}

func domainFieldErrors(err error) []utils.FieldError {
	details := services.GetErrorDetails(err)
	if len(details) == 0 {
		return []utils.FieldError{{Loc: []string{}, Msg: services.GetErrorMessage(err), Type: "value_error"}}
	}

	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]utils.FieldError, 0, len(keys))
	for _, k := range keys {
		out = append(out, utils.FieldError{Loc: []string{k}, Msg: fmt.Sprint(details[k]), Type: "value_error"})
	}
	return out
}

func externalDetail(err error) string {
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) && domainErr.Err != nil {
		return fmt.Sprintf("%s: %v", domainErr.Message, domainErr.Err)
	}
	return services.GetErrorMessage(err)
}

// writeOK sends a 200 JSON body and logs a failed write
func writeOK(w http.ResponseWriter, data interface{}, logger *zap.Logger) {
	if err := utils.WriteOK(w, data); err != nil {
		logger.Error("failed to write response", zap.Error(err))
	}
}
