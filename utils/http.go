package utils

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// ErrorResponse is the error body shared by every endpoint. Detail is either
// a message or a list of FieldError.
type ErrorResponse struct {
	Detail interface{} `json:"detail"`
	Error  string      `json:"error,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// WriteOK writes a 200 OK response with data as the body
func WriteOK(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, data)
}

// WriteBadRequest writes a 400 Bad Request response
func WriteBadRequest(w http.ResponseWriter, detail interface{}) error {
	return WriteJSON(w, http.StatusBadRequest, ErrorResponse{
		Detail: detail,
		Error:  "bad_request",
	})
}

// WriteNotFound writes a 404 Not Found response
func WriteNotFound(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Not Found"
	}
	return WriteJSON(w, http.StatusNotFound, ErrorResponse{
		Detail: message,
		Error:  "not_found",
	})
}

// WriteConflict writes a 409 Conflict response
func WriteConflict(w http.ResponseWriter, message string) error {
	return WriteJSON(w, http.StatusConflict, ErrorResponse{
		Detail: message,
		Error:  "conflict",
	})
}

// WriteUnprocessableEntity writes a 422 response for requests that fail validation
func WriteUnprocessableEntity(w http.ResponseWriter, detail interface{}) error {
	return WriteJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Detail: detail,
		Error:  "validation_error",
	})
}

// WriteTooManyRequests writes a 429 Too Many Requests response
func WriteTooManyRequests(w http.ResponseWriter, message string, retryAfterSeconds int) error {
	if message == "" {
		message = "Rate limit exceeded"
	}
	if retryAfterSeconds > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
	return WriteJSON(w, http.StatusTooManyRequests, ErrorResponse{
		Detail: message,
		Error:  "rate_limit_exceeded",
	})
}

// WriteInternalServerError writes a 500 Internal Server Error response
func WriteInternalServerError(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Internal server error"
	}
	return WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
		Detail: message,
		Error:  "internal_error",
	})
}

// WriteServiceUnavailable writes a 503 Service Unavailable response
func WriteServiceUnavailable(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Service unavailable"
	}
	return WriteJSON(w, http.StatusServiceUnavailable, ErrorResponse{
		Detail: message,
		Error:  "service_unavailable",
	})
}

// WriteGatewayTimeout writes a 504 Gateway Timeout response
func WriteGatewayTimeout(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Request timed out"
	}
	return WriteJSON(w, http.StatusGatewayTimeout, ErrorResponse{
		Detail: message,
		Error:  "timeout",
	})
}

// WriteError writes an error response based on the status code
func WriteError(w http.ResponseWriter, status int, detail interface{}) error {
	var errorType string
	switch status {
	case http.StatusBadRequest:
		errorType = "bad_request"
	case http.StatusNotFound:
		errorType = "not_found"
	case http.StatusMethodNotAllowed:
		errorType = "method_not_allowed"
	case http.StatusConflict:
		errorType = "conflict"
	case http.StatusUnprocessableEntity:
		errorType = "validation_error"
	case http.StatusTooManyRequests:
		errorType = "rate_limit_exceeded"
	case http.StatusServiceUnavailable:
		errorType = "service_unavailable"
	case http.StatusGatewayTimeout:
		errorType = "timeout"
	default:
		errorType = "internal_error"
	}

	return WriteJSON(w, status, ErrorResponse{
		Detail: detail,
		Error:  errorType,
	})
}
