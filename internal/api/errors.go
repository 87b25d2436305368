package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/joestump/joe-market/internal/chain"
	"github.com/joestump/joe-market/internal/fault"
)

// ErrorResponse is the body of every error response. Class is set on
// reverts and names the kind of precondition that failed.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Class string `json:"class,omitempty"`
}

// writeError writes a JSON error response with the given HTTP status code.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// writeJSON writes a JSON response with the given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeBadRequest reports input the handler could not turn into a call.
func writeBadRequest(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
}

// writeChainError renders a failed chain call. Rejected calls are 422 with
// code REVERTED whatever precondition failed. Reads against a missing
// contract are 404.
func (h *chainHandler) writeChainError(w http.ResponseWriter, err error, view bool) {
	class := fault.Class(err)
	reason := err
	var revert *chain.RevertError
	if errors.As(err, &revert) {
		reason = revert.Err
	}
	switch {
	case class == "internal":
		h.log.Errorf("api: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
	case class == "not_found", view && errors.Is(err, fault.ErrNoCode):
		writeError(w, http.StatusNotFound, reason.Error(), "NOT_FOUND")
	default:
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: reason.Error(), Code: "REVERTED", Class: class})
	}
}
