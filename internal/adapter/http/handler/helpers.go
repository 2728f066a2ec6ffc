package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/validation"
)

const (
	codeValidationFailed = "ValidationFailed"
	codeInvalidBody      = "InvalidRequestBody"
	codeInternal         = "InternalServerError"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// writeFailure renders err. Rule violations and business failures carry
// their own code and message; anything else is logged and hidden behind a 500.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var verrs *validation.Errors
	if errors.As(err, &verrs) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:   codeValidationFailed,
			Message: "One or more validation errors occurred",
			Fields:  verrs.Fields,
		})
		return
	}

	if be, ok := domain.AsBusinessError(err); ok {
		writeError(w, mapDomainError(err), string(be.Code), be.Description)
		return
	}

	zerolog.Ctx(r.Context()).Error().Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("request failed")
	writeError(w, http.StatusInternalServerError, codeInternal, "An unexpected error occurred")
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrWalletNotFound),
		errors.Is(err, domain.ErrFromWalletNotFound),
		errors.Is(err, domain.ErrToWalletNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case domain.IsBusinessError(err):
		return http.StatusBadRequest
	case errors.Is(err, validation.ErrValidationFailed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes the request body into v and writes a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidBody, err.Error())
		return false
	}
	return true
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

// parseTimeQuery accepts RFC 3339 timestamps or plain dates (midnight UTC).
// A missing parameter yields nil.
func parseTimeQuery(r *http.Request, key string) (*time.Time, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil, nil
	}

	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, val); err == nil {
			return &t, nil
		}
	}

	return nil, &validation.Errors{Fields: map[string][]string{
		key: {"must be an RFC 3339 timestamp or a YYYY-MM-DD date"},
	}}
}
