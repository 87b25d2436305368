package api

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/joestump/joe-market/internal/auth"
	"github.com/joestump/joe-market/internal/chain"
	"github.com/joestump/joe-market/internal/market"
	"github.com/joestump/joe-market/internal/marketplace"
	"github.com/joestump/joe-market/internal/proxy"
)

func registerProxyRoutes(r chi.Router, h *chainHandler) {
	r.Get("/proxies/{address}", h.GetProxy)
	r.Post("/proxies/{address}/upgrade", h.UpgradeProxy)
	r.Post("/proxies/{address}/ownership", h.TransferProxyOwnership)
}

// GetProxy describes a proxy and the code it currently runs.
// GET /api/v1/proxies/{address}
//
// @Summary  Get a proxy
// @Tags     proxies
// @Produce  json
// @Param    address path string true "Proxy address"
// @Success  200 {object} ProxyResponse
// @Failure  404 {object} ErrorResponse
// @Security BearerToken
// @Router   /proxies/{address} [get]
func (h *chainHandler) GetProxy(w http.ResponseWriter, r *http.Request) {
	addr, ok := addressParam(w, r, "address")
	if !ok {
		return
	}
	var impl, owner common.Address
	ok = h.view(w, r, addr, func(target any) error {
		p, err := chain.Resolve[*proxy.Proxy](target)
		if err != nil {
			return err
		}
		if impl, err = p.Implementation(); err != nil {
			return err
		}
		owner, err = p.ProxyOwner()
		return err
	})
	if !ok {
		return
	}
	code, err := h.chain.CodeAt(r.Context(), impl)
	if err != nil {
		h.writeChainError(w, err, true)
		return
	}
	writeJSON(w, http.StatusOK, ProxyResponse{
		Address:        addr.Hex(),
		ProxyOwner:     owner.Hex(),
		Implementation: impl.Hex(),
		Kind:           code.Kind,
		Version:        code.Version,
	})
}

// UpgradeProxy points a proxy at new code. With a version, a fresh
// marketplace implementation is deployed first.
// POST /api/v1/proxies/{address}/upgrade
//
// @Summary  Upgrade a proxy
// @Tags     proxies
// @Accept   json
// @Produce  json
// @Param    address path string         true "Proxy address"
// @Param    body    body UpgradeRequest true "Version or implementation"
// @Success  200 {object} TxResponse
// @Failure  400 {object} ErrorResponse
// @Failure  422 {object} ErrorResponse
// @Security BearerToken
// @Router   /proxies/{address}/upgrade [post]
func (h *chainHandler) UpgradeProxy(w http.ResponseWriter, r *http.Request) {
	addr, ok := addressParam(w, r, "address")
	if !ok {
		return
	}
	var req UpgradeRequest
	if !decode(w, r, &req) {
		return
	}

	switch {
	case req.Version != "" && req.Implementation == "":
		from, found := auth.AddressFromContext(r.Context())
		if !found {
			writeError(w, http.StatusUnauthorized, errNoCaller.Error(), "UNAUTHORIZED")
			return
		}
		if req.Version != marketplace.VersionV1 && req.Version != marketplace.VersionV2 {
			writeError(w, http.StatusBadRequest, "unknown marketplace version", "BAD_REQUEST")
			return
		}
		impl, err := market.UpgradeMarketplace(r.Context(), h.chain, from, addr, req.Version)
		if err != nil {
			h.writeChainError(w, err, false)
			return
		}
		h.log.Infof("api: proxy %s upgraded to %s %s by %s", addr.Hex(), req.Version, impl.Hex(), from.Hex())
		writeJSON(w, http.StatusOK, map[string]string{"implementation": impl.Hex()})
	case req.Implementation != "" && req.Version == "":
		impl, err := parseAddress(req.Implementation)
		if err != nil {
			writeBadRequest(w, err)
			return
		}
		rc, ok := h.transact(w, r, addr, "upgradeImplementation", nil, func(target any) error {
			p, err := chain.Resolve[*proxy.Proxy](target)
			if err != nil {
				return err
			}
			return p.UpgradeImplementation(impl)
		})
		if ok {
			writeTx(w, http.StatusOK, rc, map[string]string{"implementation": impl.Hex()})
		}
	default:
		writeError(w, http.StatusBadRequest, "exactly one of version and implementation is required", "BAD_REQUEST")
	}
}

// TransferProxyOwnership hands upgrade rights to a new owner.
// POST /api/v1/proxies/{address}/ownership
//
// @Summary  Transfer proxy ownership
// @Tags     proxies
// @Accept   json
// @Produce  json
// @Param    address path string           true "Proxy address"
// @Param    body    body OwnershipRequest true "New owner"
// @Success  200 {object} TxResponse
// @Failure  422 {object} ErrorResponse
// @Security BearerToken
// @Router   /proxies/{address}/ownership [post]
func (h *chainHandler) TransferProxyOwnership(w http.ResponseWriter, r *http.Request) {
	addr, ok := addressParam(w, r, "address")
	if !ok {
		return
	}
	var req OwnershipRequest
	if !decode(w, r, &req) {
		return
	}
	newOwner, err := parseAddress(req.NewOwner)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	rc, ok := h.transact(w, r, addr, "transferProxyOwnership", nil, func(target any) error {
		p, err := chain.Resolve[*proxy.Proxy](target)
		if err != nil {
			return err
		}
		return p.TransferProxyOwnership(newOwner)
	})
	if ok {
		writeTx(w, http.StatusOK, rc, nil)
	}
}
