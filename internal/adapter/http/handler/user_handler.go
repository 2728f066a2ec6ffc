package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/usecase"
)

// UserHandler handles user endpoints.
type UserHandler struct {
	pipelines *usecase.Pipelines
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(pipelines *usecase.Pipelines) *UserHandler {
	return &UserHandler{pipelines: pipelines}
}

// Create registers a user together with the default wallet.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.pipelines.CreateUser(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/users/"+result.User.ID)
	writeJSON(w, http.StatusCreated, dto.CreateUserFromResult(result))
}

// Get retrieves a user by ID.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.pipelines.GetUserByID(r.Context(), usecase.GetUserByIDInput{
		UserID: chi.URLParam(r, "userID"),
	})
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UserFromDomain(user))
}

// ListWallets lists the user's wallets.
func (h *UserHandler) ListWallets(w http.ResponseWriter, r *http.Request) {
	wallets, err := h.pipelines.GetUserWallets(r.Context(), usecase.GetUserWalletsInput{
		UserID: chi.URLParam(r, "userID"),
	})
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"wallets": dto.WalletsFromDomain(wallets),
	})
}

// ListTransactions lists transactions across the user's wallets. startDate
// and endDate bound the processed time.
func (h *UserHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	start, err := parseTimeQuery(r, "startDate")
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	end, err := parseTimeQuery(r, "endDate")
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	transactions, err := h.pipelines.GetUserTransactions(r.Context(), usecase.GetUserTransactionsInput{
		UserID:    chi.URLParam(r, "userID"),
		StartDate: start,
		EndDate:   end,
		Limit:     parseIntQuery(r, "limit", 0),
		Offset:    parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": dto.TransactionsFromDomain(transactions),
	})
}
