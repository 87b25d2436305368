package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// BearerTokenMiddleware authenticates API requests via Bearer token and
// resolves each token to the account it is bound to.
type BearerTokenMiddleware struct {
	tokens TokenStore
}

// NewBearerTokenMiddleware creates a new BearerTokenMiddleware.
func NewBearerTokenMiddleware(ts TokenStore) *BearerTokenMiddleware {
	return &BearerTokenMiddleware{tokens: ts}
}

// Authenticate is an http.Handler middleware that extracts and validates a Bearer token.
// WHEN valid: injects the bound address into context and fires an async last_used_at update.
// WHEN invalid/missing/expired/revoked: returns 401 with {"error": "unauthorized"}.
func (m *BearerTokenMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			writeUnauthorized(w)
			return
		}
		plaintext := strings.TrimPrefix(authHeader, "Bearer ")
		if plaintext == "" {
			writeUnauthorized(w)
			return
		}

		rec, err := m.tokens.GetByHash(r.Context(), HashToken(plaintext))
		if err != nil {
			writeUnauthorized(w)
			return
		}
		if rec.RevokedAt.Valid {
			writeUnauthorized(w)
			return
		}
		if rec.ExpiresAt.Valid && rec.ExpiresAt.Time.Before(time.Now()) {
			writeUnauthorized(w)
			return
		}
		if !common.IsHexAddress(rec.Address) {
			writeUnauthorized(w)
			return
		}

		// Update last_used_at asynchronously to avoid write overhead on every read.
		go m.tokens.UpdateLastUsed(context.Background(), rec.ID)

		ctx := WithAddress(r.Context(), common.HexToAddress(rec.Address))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// writeUnauthorized writes a 401 JSON response with {"error": "unauthorized"}.
func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}
