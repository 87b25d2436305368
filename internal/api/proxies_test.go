package api_test

import (
	"net/http"
	"testing"

	"github.com/joestump/joe-market/internal/api"
	"github.com/joestump/joe-market/internal/testutil"
)

func TestProxies_Get(t *testing.T) {
	env := newTestEnv(t)
	tok := seedActors(t, env)

	var d api.DeploymentResponse
	expect(t, do(t, env, "POST", "/marketplaces", tok.Admin, nil), http.StatusCreated, &d)

	var p api.ProxyResponse
	expect(t, do(t, env, "GET", "/proxies/"+d.Proxy, tok.Stranger, nil), http.StatusOK, &p)
	if p.Implementation != d.Implementation || p.ProxyOwner != testutil.Admin.Hex() {
		t.Errorf("proxy = %+v", p)
	}
	if p.Kind != "marketplace" || p.Version != "v1" {
		t.Errorf("code = %s/%s, want marketplace/v1", p.Kind, p.Version)
	}
}

func TestProxies_Get_NotAProxy(t *testing.T) {
	env := newTestEnv(t)
	tok := seedActors(t, env)

	var d api.DeploymentResponse
	expect(t, do(t, env, "POST", "/marketplaces", tok.Admin, nil), http.StatusCreated, &d)

	expectRevert(t, do(t, env, "GET", "/proxies/"+d.Implementation, tok.Admin, nil), "state")
}

func TestProxies_UpgradeKeepsState(t *testing.T) {
	env := newTestEnv(t)
	tok := seedActors(t, env)
	mkt := deployMarketplace(t, env, tok, "v1")
	storeAddr := openStore(t, env, tok, mkt)

	expectRevert(t, do(t, env, "POST", "/proxies/"+mkt+"/upgrade", tok.Stranger, api.UpgradeRequest{Version: "v2"}), "unauthorized")

	var up struct {
		Implementation string `json:"implementation"`
	}
	expect(t, do(t, env, "POST", "/proxies/"+mkt+"/upgrade", tok.Admin, api.UpgradeRequest{Version: "v2"}), http.StatusOK, &up)

	var p api.ProxyResponse
	expect(t, do(t, env, "GET", "/proxies/"+mkt, tok.Admin, nil), http.StatusOK, &p)
	if p.Version != "v2" || p.Implementation != up.Implementation {
		t.Errorf("proxy = %+v, want v2 at %s", p, up.Implementation)
	}

	var m api.MarketplaceResponse
	expect(t, do(t, env, "GET", "/marketplaces/"+mkt, tok.Admin, nil), http.StatusOK, &m)
	if m.Owner != testutil.Admin.Hex() || m.NextRequestIndex != 1 {
		t.Errorf("state lost across upgrade: %+v", m)
	}
	if m.ApprovedCount == nil || m.PendingRequests == nil || *m.PendingRequests != 0 {
		t.Errorf("v2 counters = %v/%v", m.ApprovedCount, m.PendingRequests)
	}

	var owned api.OwnerStoresResponse
	expect(t, do(t, env, "GET", "/marketplaces/"+mkt+"/owners/"+testutil.Seller.Hex()+"/stores", tok.Admin, nil), http.StatusOK, &owned)
	if len(owned.Stores) != 1 || owned.Stores[0] != storeAddr {
		t.Errorf("stores = %v", owned.Stores)
	}
}

func TestProxies_Upgrade_BadRequests(t *testing.T) {
	env := newTestEnv(t)
	tok := seedActors(t, env)
	mkt := deployMarketplace(t, env, tok, "v1")

	expect(t, do(t, env, "POST", "/proxies/"+mkt+"/upgrade", tok.Admin, api.UpgradeRequest{}), http.StatusBadRequest, nil)
	expect(t, do(t, env, "POST", "/proxies/"+mkt+"/upgrade", tok.Admin, api.UpgradeRequest{Version: "v2", Implementation: mkt}), http.StatusBadRequest, nil)

	// a proxy is not upgradeable code
	expectRevert(t, do(t, env, "POST", "/proxies/"+mkt+"/upgrade", tok.Admin, api.UpgradeRequest{Implementation: mkt}), "invalid")
}

func TestProxies_TransferOwnership(t *testing.T) {
	env := newTestEnv(t)
	tok := seedActors(t, env)
	mkt := deployMarketplace(t, env, tok, "v1")

	body := api.OwnershipRequest{NewOwner: testutil.Stranger.Hex()}
	expectRevert(t, do(t, env, "POST", "/proxies/"+mkt+"/ownership", tok.Seller, body), "unauthorized")
	expect(t, do(t, env, "POST", "/proxies/"+mkt+"/ownership", tok.Admin, body), http.StatusOK, nil)

	var p api.ProxyResponse
	expect(t, do(t, env, "GET", "/proxies/"+mkt, tok.Admin, nil), http.StatusOK, &p)
	if p.ProxyOwner != testutil.Stranger.Hex() {
		t.Errorf("proxy_owner = %s, want stranger", p.ProxyOwner)
	}
	// marketplace ownership is separate
	var m api.MarketplaceResponse
	expect(t, do(t, env, "GET", "/marketplaces/"+mkt, tok.Admin, nil), http.StatusOK, &m)
	if m.Owner != testutil.Admin.Hex() {
		t.Errorf("marketplace owner = %s, want admin", m.Owner)
	}
}
