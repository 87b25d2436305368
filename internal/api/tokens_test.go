package api_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/joestump/joe-market/internal/api"
	"github.com/joestump/joe-market/internal/auth"
	"github.com/joestump/joe-market/internal/testutil"
)

func TestTokens_List_OK(t *testing.T) {
	env := newTestEnv(t)
	token := seedToken(t, env, testutil.Seller)

	_, hash2, _ := auth.GenerateToken()
	if _, err := env.TokenStore.Create(context.Background(), testutil.Seller.Hex(), "second-token", hash2, nil); err != nil {
		t.Fatalf("create second token: %v", err)
	}
	seedToken(t, env, testutil.Buyer)

	var resp api.TokenListResponse
	expect(t, do(t, env, "GET", "/tokens", token, nil), http.StatusOK, &resp)
	if len(resp.Tokens) != 2 {
		t.Fatalf("len(tokens) = %d, want 2", len(resp.Tokens))
	}
	for _, tk := range resp.Tokens {
		if tk.Address != testutil.Seller.Hex() {
			t.Errorf("token %s bound to %s, want seller", tk.ID, tk.Address)
		}
	}
}

func TestTokens_List_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)
	expect(t, do(t, env, "GET", "/tokens", "", nil), http.StatusUnauthorized, nil)
}

func TestTokens_Create_Created(t *testing.T) {
	env := newTestEnv(t)
	token := seedToken(t, env, testutil.Seller)

	var resp api.TokenCreatedResponse
	expect(t, do(t, env, "POST", "/tokens", token, api.CreateTokenRequest{Name: "ci"}), http.StatusCreated, &resp)
	if resp.Token == "" {
		t.Fatal("expected plaintext token in response")
	}
	if resp.Address != testutil.Seller.Hex() {
		t.Errorf("address = %s, want seller", resp.Address)
	}

	// the new token acts as the same address
	var acct api.AccountResponse
	expect(t, do(t, env, "GET", "/accounts/me", resp.Token, nil), http.StatusOK, &acct)
	if acct.Address != testutil.Seller.Hex() {
		t.Errorf("me = %s, want seller", acct.Address)
	}
}

func TestTokens_Create_Validation(t *testing.T) {
	env := newTestEnv(t)
	token := seedToken(t, env, testutil.Seller)

	expect(t, do(t, env, "POST", "/tokens", token, api.CreateTokenRequest{}), http.StatusBadRequest, nil)

	past := time.Now().Add(-time.Hour)
	expect(t, do(t, env, "POST", "/tokens", token, api.CreateTokenRequest{Name: "old", ExpiresAt: &past}), http.StatusBadRequest, nil)
}

func TestTokens_Revoke(t *testing.T) {
	env := newTestEnv(t)
	token := seedToken(t, env, testutil.Seller)
	other := seedToken(t, env, testutil.Buyer)

	var created api.TokenCreatedResponse
	expect(t, do(t, env, "POST", "/tokens", token, api.CreateTokenRequest{Name: "temp"}), http.StatusCreated, &created)

	expect(t, do(t, env, "DELETE", "/tokens/"+created.ID, other, nil), http.StatusNotFound, nil)
	expect(t, do(t, env, "DELETE", "/tokens/"+created.ID, token, nil), http.StatusNoContent, nil)
	expect(t, do(t, env, "GET", "/accounts/me", created.Token, nil), http.StatusUnauthorized, nil)

	var resp api.TokenListResponse
	expect(t, do(t, env, "GET", "/tokens", token, nil), http.StatusOK, &resp)
	if len(resp.Tokens) != 1 {
		t.Errorf("len(tokens) = %d, want 1 after revoke", len(resp.Tokens))
	}
}
