package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/user-dev-arch/MarketSentimentApp/internal/market"
)

// Error code constants for structured API error responses.
const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotFound    = "not_found"
	ErrCodeInternal    = "internal"
	ErrCodeRateLimited = "rate_limited"
)

// APIError represents a structured error returned by the API.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError for JSON serialization.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// writeError writes a JSON error response with the given HTTP status code.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error: APIError{Code: code, Message: message},
	}); err != nil {
		log.Error().Err(err).Msg("write error response")
	}
}

// writeJSON writes a JSON response with the given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("write json response")
	}
}

// writeServiceError maps market service errors to HTTP responses. Anything
// unrecognised is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, market.ErrInvalidTicker):
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Ticker parameter is required")
	case errors.Is(err, market.ErrInvalidID):
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid UUID format")
	case errors.Is(err, market.ErrInvalidSentiment):
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Sentiment must be one of Bullish, Bearish, Neutral")
	case errors.Is(err, market.ErrNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "News article not found")
	default:
		logFor(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
