package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func registerTransactionRoutes(r chi.Router, h *chainHandler) {
	r.Get("/transactions/{id}", h.GetTransaction)
}

// GetTransaction returns the receipt of a committed transaction.
// GET /api/v1/transactions/{id}
//
// @Summary  Transaction receipt
// @Tags     transactions
// @Produce  json
// @Param    id path string true "Transaction ID"
// @Success  200 {object} ReceiptResponse
// @Failure  404 {object} ErrorResponse
// @Security BearerToken
// @Router   /transactions/{id} [get]
func (h *chainHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	rc, err := h.chain.Receipt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeChainError(w, err, true)
		return
	}
	writeJSON(w, http.StatusOK, receiptResponse(rc))
}
