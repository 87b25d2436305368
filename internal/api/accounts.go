package api

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/joestump/joe-market/internal/auth"
)

func registerAccountRoutes(r chi.Router, h *chainHandler) {
	r.Get("/accounts/me", h.GetMe)
	r.Get("/accounts/{address}", h.GetAccount)
}

// GetMe returns the balance of the authenticated address.
// GET /api/v1/accounts/me
//
// @Summary  Caller balance
// @Tags     accounts
// @Produce  json
// @Success  200 {object} AccountResponse
// @Security BearerToken
// @Router   /accounts/me [get]
func (h *chainHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	addr, ok := auth.AddressFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, errNoCaller.Error(), "UNAUTHORIZED")
		return
	}
	h.writeAccount(w, r, addr)
}

// GetAccount returns the balance of any address.
// GET /api/v1/accounts/{address}
//
// @Summary  Account balance
// @Tags     accounts
// @Produce  json
// @Param    address path string true "Account address"
// @Success  200 {object} AccountResponse
// @Failure  400 {object} ErrorResponse
// @Security BearerToken
// @Router   /accounts/{address} [get]
func (h *chainHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	addr, ok := addressParam(w, r, "address")
	if !ok {
		return
	}
	h.writeAccount(w, r, addr)
}

func (h *chainHandler) writeAccount(w http.ResponseWriter, r *http.Request, addr common.Address) {
	bal, err := h.chain.Balance(r.Context(), addr)
	if err != nil {
		h.writeChainError(w, err, true)
		return
	}
	writeJSON(w, http.StatusOK, AccountResponse{Address: addr.Hex(), Balance: amountOf(bal)})
}
