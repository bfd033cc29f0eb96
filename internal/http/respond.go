package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/api"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/cart"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/checkout"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/pkg/logger"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError converts domain and backend errors to HTTP responses.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context(), nil).Error("request failed", zap.Error(err))
		msg = "internal server error"
	} else if status >= 500 {
		logger.FromContext(r.Context(), nil).Warn("backend failure", zap.Error(err))
	}

	respondJSON(w, status, ErrorResponse{
		Error:   msg,
		Code:    code,
		Details: string(api.KindOf(err)),
	})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, checkout.ErrNothingSelected):
		return http.StatusBadRequest, "nothing_selected"
	case errors.Is(err, checkout.ErrNoAddress):
		return http.StatusBadRequest, "no_address"
	case errors.Is(err, cart.ErrInvalidKey):
		return http.StatusBadRequest, "invalid_item_key"
	case errors.Is(err, api.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, api.ErrValidation):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, api.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, api.ErrShape):
		return http.StatusBadGateway, "bad_backend_response"
	case errors.Is(err, api.ErrUnavailable):
		return http.StatusServiceUnavailable, "service_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}
