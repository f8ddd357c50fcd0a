package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ahemkaric/cashflow-monitoring/internal/adapter/http/dto"
	"github.com/ahemkaric/cashflow-monitoring/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	var upstream *domain.UpstreamError

	switch {
	case errors.Is(err, domain.ErrCompanyNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCompanyInfoNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflictingCounterparties):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAfterIDWithoutTimestamp):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrFeedUnavailable):
		return http.StatusBadGateway
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
