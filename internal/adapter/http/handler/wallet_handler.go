package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/usecase"
)

// WalletHandler handles wallet endpoints.
type WalletHandler struct {
	pipelines *usecase.Pipelines
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(pipelines *usecase.Pipelines) *WalletHandler {
	return &WalletHandler{pipelines: pipelines}
}

// Create opens a wallet for a user.
func (h *WalletHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateWalletRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	wallet, err := h.pipelines.CreateWallet(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/wallets/"+wallet.ID)
	writeJSON(w, http.StatusCreated, dto.WalletFromDomain(wallet))
}

// GetBalance returns the wallet balance.
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.pipelines.GetWalletBalance(r.Context(), usecase.GetWalletBalanceInput{
		WalletID: chi.URLParam(r, "walletID"),
	})
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromResult(balance))
}

// AddBalance credits the wallet.
func (h *WalletHandler) AddBalance(w http.ResponseWriter, r *http.Request) {
	var req dto.AddBalanceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.pipelines.AddBalance(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "walletID")))
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AddBalanceFromResult(result))
}

// UpdateStatus activates or deactivates the wallet.
func (h *WalletHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateWalletStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	wallet, err := h.pipelines.UpdateWalletStatus(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "walletID")))
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletFromDomain(wallet))
}

// ListTransactions lists the wallet's transactions, newest first.
func (h *WalletHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.pipelines.GetWalletTransactions(r.Context(), usecase.GetWalletTransactionsInput{
		WalletID: chi.URLParam(r, "walletID"),
		Limit:    parseIntQuery(r, "limit", 0),
		Offset:   parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": dto.TransactionsFromDomain(transactions),
	})
}

// Reconcile compares the stored balance with the ledger.
func (h *WalletHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	result, err := h.pipelines.ReconcileWallet(r.Context(), usecase.ReconcileWalletInput{
		WalletID: chi.URLParam(r, "walletID"),
	})
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromResult(result))
}
