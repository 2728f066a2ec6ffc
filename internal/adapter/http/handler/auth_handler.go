package handler

import (
	"net/http"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/usecase"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	pipelines *usecase.Pipelines
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(pipelines *usecase.Pipelines) *AuthHandler {
	return &AuthHandler{pipelines: pipelines}
}

// Login exchanges email and password for a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.pipelines.Login(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LoginFromResult(result))
}
