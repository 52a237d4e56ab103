package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/FloFRCD/nutrition-app-sub001/catalog"
	"github.com/FloFRCD/nutrition-app-sub001/journal"
	"github.com/FloFRCD/nutrition-app-sub001/logger"
	"github.com/FloFRCD/nutrition-app-sub001/nutrition"
	"github.com/FloFRCD/nutrition-app-sub001/openfoodfacts"
	"github.com/FloFRCD/nutrition-app-sub001/revenuecat"
	"github.com/FloFRCD/nutrition-app-sub001/services"
	"github.com/FloFRCD/nutrition-app-sub001/vision"

	"go.uber.org/zap"
)

// maxBodyBytes leaves room for base64 meal photos.
const maxBodyBytes = 10 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", services.ErrInvalidInput, err)
	}
	return nil
}

// errorStatus maps service errors to HTTP status codes.
func errorStatus(err error) int {
	var (
		offErr *openfoodfacts.StatusError
		rcErr  *revenuecat.APIError
	)
	switch {
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, journal.ErrInvalidEntry),
		errors.Is(err, nutrition.ErrInvalidProfile),
		errors.Is(err, catalog.ErrInvalidFood),
		errors.Is(err, vision.ErrInvalidDataURI):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, services.ErrProfileNotFound),
		errors.Is(err, services.ErrRecipeNotFound),
		errors.Is(err, services.ErrItemNotFound),
		errors.Is(err, services.ErrNoNutrition),
		errors.Is(err, services.ErrNoFoodRecognized),
		errors.Is(err, journal.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrUpstream),
		errors.As(err, &offErr),
		errors.As(err, &rcErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError writes err with its mapped status. Internal errors are logged
// and hidden from the client.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}
