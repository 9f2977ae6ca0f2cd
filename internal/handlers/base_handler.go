package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// errorResponse is the body shape for every error status
type errorResponse struct {
	Error string `json:"error"`
}

// BaseHandler provides the response helpers shared by every HTTP handler
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON sends data as a JSON response with the given status
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, errorResponse{Error: message})
}

// RespondInternalError logs the underlying error and answers 500 with only
// the given message, so internals never reach the client.
func (h *BaseHandler) RespondInternalError(w http.ResponseWriter, message string, err error, fields ...zap.Field) {
	h.Logger.Error(message, append(fields, zap.Error(err))...)
	h.RespondError(w, http.StatusInternalServerError, message)
}
