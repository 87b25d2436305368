package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"

	"github.com/joestump/joe-market/internal/auth"
	"github.com/joestump/joe-market/internal/chain"
)

// chainHandler serves every route that reads or writes contract state.
type chainHandler struct {
	chain *chain.Chain
	log   chain.Logger
}

var errNoCaller = errors.New("no authenticated address")

// transact submits a call from the authenticated address. On failure the
// error response has been written and ok is false.
func (h *chainHandler) transact(w http.ResponseWriter, r *http.Request, to common.Address, method string, value *uint256.Int, fn func(target any) error) (rc *chain.Receipt, ok bool) {
	from, found := auth.AddressFromContext(r.Context())
	if !found {
		writeError(w, http.StatusUnauthorized, errNoCaller.Error(), "UNAUTHORIZED")
		return nil, false
	}
	rc, err := h.chain.Transact(r.Context(), chain.Msg{From: from, To: to, Value: value, Method: method}, fn)
	if err != nil {
		h.writeChainError(w, err, false)
		return nil, false
	}
	h.log.Debugf("api: %s %s on %s: tx %s", from.Hex(), method, to.Hex(), rc.ID)
	return rc, true
}

// view runs a read-only call. On failure the error response has been
// written and ok is false.
func (h *chainHandler) view(w http.ResponseWriter, r *http.Request, to common.Address, fn func(target any) error) (ok bool) {
	if err := h.chain.View(r.Context(), to, fn); err != nil {
		h.writeChainError(w, err, true)
		return false
	}
	return true
}

// writeTx writes the receipt of a committed call.
func writeTx(w http.ResponseWriter, status int, rc *chain.Receipt, result any) {
	writeJSON(w, status, TxResponse{Transaction: receiptResponse(rc), Result: result})
}

// decode reads a JSON request body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return false
	}
	return true
}

// addressParam reads a hex address from the named URL parameter.
func addressParam(w http.ResponseWriter, r *http.Request, name string) (common.Address, bool) {
	addr, err := parseAddress(chi.URLParam(r, name))
	if err != nil {
		writeBadRequest(w, err)
		return common.Address{}, false
	}
	return addr, true
}

// indexParam reads a non-negative integer from the named URL parameter.
func indexParam(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	n, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, name+" must be a non-negative integer", "BAD_REQUEST")
		return 0, false
	}
	return n, true
}
