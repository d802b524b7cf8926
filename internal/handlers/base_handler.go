package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/institute/coursecatalog/internal/apperrors"
	"go.uber.org/zap"
)

type BaseHandler struct {
	logger *zap.Logger
}

// respondJSON sends a JSON response
func (h *BaseHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// respondError sends an error JSON response
func (h *BaseHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps a store error kind to its HTTP status and sends it
//
// Validation and conflict messages are returned to the caller; store failures are logged and reported generically.
func (h *BaseHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperrors.ErrHistoryNotFound):
		h.respondError(w, http.StatusNotFound, apperrors.ErrHistoryNotFound.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		h.respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, apperrors.ErrInvalidInput):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperrors.ErrConflict):
		h.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, apperrors.ErrTimeout):
		h.logger.Error("store operation timed out", zap.String("path", r.URL.Path), zap.Error(err))
		h.respondError(w, http.StatusGatewayTimeout, "operation timed out")
	case errors.Is(err, apperrors.ErrStoreUnavailable):
		h.logger.Error("store unavailable", zap.String("path", r.URL.Path), zap.Error(err))
		h.respondError(w, http.StatusServiceUnavailable, "store unavailable")
	default:
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
