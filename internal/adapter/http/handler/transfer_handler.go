package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/usecase"
)

// TransferHandler handles transfers and single-transaction lookups.
type TransferHandler struct {
	pipelines *usecase.Pipelines
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(pipelines *usecase.Pipelines) *TransferHandler {
	return &TransferHandler{pipelines: pipelines}
}

// Create moves money between two wallets.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.pipelines.CreateTransfer(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransferFromResult(result))
}

// GetTransaction retrieves one transaction by ID.
func (h *TransferHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.pipelines.GetTransaction(r.Context(), usecase.GetTransactionInput{
		TransactionID: chi.URLParam(r, "transactionID"),
	})
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(tx))
}
