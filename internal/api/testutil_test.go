package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/joestump/joe-market/internal/api"
	"github.com/joestump/joe-market/internal/auth"
	"github.com/joestump/joe-market/internal/chain"
	"github.com/joestump/joe-market/internal/testutil"
)

// testEnv holds the chain, token store and router for API integration tests.
type testEnv struct {
	Router     http.Handler
	Chain      *chain.Chain
	TokenStore *auth.SQLTokenStore
}

// newTestEnv creates an in-memory SQLite test database, runs migrations,
// funds the well-known accounts and wires up the full API router.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	c := testutil.NewTestChainOn(t, db)
	ts := auth.NewSQLTokenStore(db)

	router := api.NewAPIRouter(api.Deps{
		Chain:      c,
		BearerAuth: auth.NewBearerTokenMiddleware(ts),
		TokenStore: ts,
	})
	return &testEnv{Router: router, Chain: c, TokenStore: ts}
}

// seedToken creates a real API token bound to addr and returns the plaintext Bearer value.
func seedToken(t *testing.T, env *testEnv, addr common.Address) string {
	t.Helper()
	plaintext, hash, err := auth.GenerateToken()
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	_, err = env.TokenStore.Create(context.Background(), addr.Hex(), "test-token", hash, nil)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}
	return plaintext
}

// authRequest adds a Bearer token to the request.
func authRequest(r *http.Request, token string) *http.Request {
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

// do sends a request through the router. A non-nil body is sent as JSON.
func do(t *testing.T, env *testEnv, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		authRequest(req, token)
	}
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)
	return rec
}

// expect fails the test unless rec has the wanted status, then decodes
// the body into v when v is non-nil.
func expect(t *testing.T, rec *httptest.ResponseRecorder, status int, v any) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, status, rec.Body.String())
	}
	if v == nil {
		return
	}
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

// expectRevert fails the test unless rec is a revert of the given class.
func expectRevert(t *testing.T, rec *httptest.ResponseRecorder, class string) {
	t.Helper()
	var resp api.ErrorResponse
	expect(t, rec, http.StatusUnprocessableEntity, &resp)
	if resp.Code != "REVERTED" {
		t.Errorf("code = %q, want REVERTED", resp.Code)
	}
	if resp.Class != class {
		t.Errorf("class = %q, want %q (error %q)", resp.Class, class, resp.Error)
	}
}

// tokens for the well-known accounts
type actors struct {
	Admin, Seller, Buyer, Stranger string
}

func seedActors(t *testing.T, env *testEnv) actors {
	t.Helper()
	return actors{
		Admin:    seedToken(t, env, testutil.Admin),
		Seller:   seedToken(t, env, testutil.Seller),
		Buyer:    seedToken(t, env, testutil.Buyer),
		Stranger: seedToken(t, env, testutil.Stranger),
	}
}

// proposal is a CIDv0 used as store proposals and product descriptions.
var proposal = api.ContentCID([]byte("a store that sells tea"))

// deployMarketplace deploys a marketplace of the given version as Admin
// through the API and returns the proxy address.
func deployMarketplace(t *testing.T, env *testEnv, tok actors, version string) string {
	t.Helper()
	var d api.DeploymentResponse
	expect(t, do(t, env, "POST", "/marketplaces", tok.Admin, api.DeployMarketplaceRequest{Version: version}), http.StatusCreated, &d)
	return d.Proxy
}

// openStore runs the request/approve flow for Seller in slot 0 and returns
// the new store's address.
func openStore(t *testing.T, env *testEnv, tok actors, mkt string) string {
	t.Helper()
	expect(t, do(t, env, "POST", "/marketplaces/"+mkt+"/requests", tok.Seller, api.StoreRequestBody{Proposal: proposal}), http.StatusCreated, nil)

	var tx struct {
		Transaction api.ReceiptResponse `json:"transaction"`
		Result      struct {
			Store string `json:"store"`
		} `json:"result"`
	}
	expect(t, do(t, env, "POST", "/marketplaces/"+mkt+"/approvals", tok.Admin, api.ApproveStoreRequest{Approve: true, StoreIndex: 0}), http.StatusOK, &tx)
	if tx.Result.Store == "" {
		t.Fatal("approval returned no store address")
	}
	return tx.Result.Store
}
