package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/joestump/joe-market/internal/auth"
	"github.com/joestump/joe-market/internal/fault"
)

// tokensAPIHandler provides REST handlers for API token management.
// A token created here is bound to the address of the token that created it.
type tokensAPIHandler struct {
	tokens auth.TokenStore
}

// registerTokenRoutes registers token management routes on r.
func registerTokenRoutes(r chi.Router, tokens auth.TokenStore) {
	h := &tokensAPIHandler{tokens: tokens}
	r.Get("/tokens", h.List)
	r.Post("/tokens", h.Create)
	r.Delete("/tokens/{id}", h.Revoke)
}

func tokenResponse(rec *auth.TokenRecord) *TokenResponse {
	item := &TokenResponse{
		ID:        rec.ID,
		Name:      rec.Name,
		Address:   rec.Address,
		CreatedAt: rec.CreatedAt,
	}
	if rec.LastUsedAt.Valid {
		t := rec.LastUsedAt.Time
		item.LastUsedAt = &t
	}
	if rec.ExpiresAt.Valid {
		t := rec.ExpiresAt.Time
		item.ExpiresAt = &t
	}
	return item
}

// List returns the caller's active tokens without sensitive fields.
// GET /api/v1/tokens
//
// @Summary  List API tokens
// @Tags     tokens
// @Produce  json
// @Success  200 {object} TokenListResponse
// @Security BearerToken
// @Router   /tokens [get]
func (h *tokensAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	addr, ok := auth.AddressFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}

	records, err := h.tokens.ListByAddress(r.Context(), addr.Hex())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}

	resp := &TokenListResponse{Tokens: make([]*TokenResponse, 0, len(records))}
	for _, rec := range records {
		if rec.RevokedAt.Valid {
			continue
		}
		resp.Tokens = append(resp.Tokens, tokenResponse(rec))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create generates a new token for the caller's address and returns the
// plaintext once.
// POST /api/v1/tokens
//
// @Summary  Create an API token
// @Tags     tokens
// @Accept   json
// @Produce  json
// @Param    body body CreateTokenRequest true "Token name and optional expiry"
// @Success  201 {object} TokenCreatedResponse
// @Failure  400 {object} ErrorResponse
// @Security BearerToken
// @Router   /tokens [post]
func (h *tokensAPIHandler) Create(w http.ResponseWriter, r *http.Request) {
	addr, ok := auth.AddressFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}

	var req CreateTokenRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", "BAD_REQUEST")
		return
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(time.Now()) {
		writeError(w, http.StatusBadRequest, "expires_at must be in the future", "BAD_REQUEST")
		return
	}

	plaintext, hash, err := auth.GenerateToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token generation failed", "INTERNAL_ERROR")
		return
	}

	rec, err := h.tokens.Create(r.Context(), addr.Hex(), req.Name, hash, req.ExpiresAt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token creation failed", "INTERNAL_ERROR")
		return
	}

	writeJSON(w, http.StatusCreated, TokenCreatedResponse{
		TokenResponse: *tokenResponse(rec),
		Token:         plaintext,
	})
}

// Revoke soft-deletes a token bound to the caller's address.
// DELETE /api/v1/tokens/{id}
//
// @Summary  Revoke an API token
// @Tags     tokens
// @Param    id path string true "Token ID"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Security BearerToken
// @Router   /tokens/{id} [delete]
func (h *tokensAPIHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	addr, ok := auth.AddressFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}

	err := h.tokens.Revoke(r.Context(), chi.URLParam(r, "id"), addr.Hex())
	if errors.Is(err, fault.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found", "NOT_FOUND")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "revoke failed", "INTERNAL_ERROR")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
