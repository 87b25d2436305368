package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"

	"github.com/joestump/joe-market/internal/auth"
	"github.com/joestump/joe-market/internal/chain"
	"github.com/joestump/joe-market/internal/fault"
	"github.com/joestump/joe-market/internal/market"
	"github.com/joestump/joe-market/internal/marketplace"
)

func registerMarketplaceRoutes(r chi.Router, h *chainHandler) {
	r.Post("/marketplaces", h.DeployMarketplace)
	r.Route("/marketplaces/{address}", func(r chi.Router) {
		r.Get("/", h.GetMarketplace)
		r.Post("/init", h.InitMarketplace)
		r.Post("/ownership", h.TransferMarketplaceOwnership)
		r.Get("/requests", h.ListStoreRequests)
		r.Post("/requests", h.RequestStore)
		r.Post("/approvals", h.ApproveStore)
		r.Post("/revocations", h.RevokeStore)
		r.Post("/store-withdrawals", h.WithdrawFromStore)
		r.Post("/withdrawals", h.MarketplaceOwnerWithdraw)
		r.Get("/owners/{owner}/stores", h.GetStoresByOwner)
	})
}

func manager(target any) (marketplace.Manager, error) {
	return chain.Resolve[marketplace.Manager](target)
}

// DeployMarketplace deploys a marketplace implementation and a proxy in
// front of it, and claims both for the caller.
// POST /api/v1/marketplaces
//
// @Summary  Deploy a marketplace
// @Tags     marketplaces
// @Accept   json
// @Produce  json
// @Param    body body DeployMarketplaceRequest false "Implementation version (default v1)"
// @Success  201 {object} DeploymentResponse
// @Failure  400 {object} ErrorResponse
// @Security BearerToken
// @Router   /marketplaces [post]
func (h *chainHandler) DeployMarketplace(w http.ResponseWriter, r *http.Request) {
	from, ok := auth.AddressFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, errNoCaller.Error(), "UNAUTHORIZED")
		return
	}
	var req DeployMarketplaceRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	if req.Version == "" {
		req.Version = marketplace.VersionV1
	}
	if req.Version != marketplace.VersionV1 && req.Version != marketplace.VersionV2 {
		writeError(w, http.StatusBadRequest, "unknown marketplace version "+strconv.Quote(req.Version), "BAD_REQUEST")
		return
	}

	d, err := market.DeployMarketplace(r.Context(), h.chain, from, req.Version)
	if err != nil {
		h.writeChainError(w, err, false)
		return
	}
	h.log.Infof("api: marketplace %s deployed by %s at proxy %s", req.Version, from.Hex(), d.Proxy.Hex())
	writeJSON(w, http.StatusCreated, DeploymentResponse{Proxy: d.Proxy.Hex(), Implementation: d.Implementation.Hex()})
}

// GetMarketplace summarises a marketplace.
// GET /api/v1/marketplaces/{address}
//
// @Summary  Get a marketplace
// @Tags     marketplaces
// @Produce  json
// @Param    address path string true "Marketplace (proxy) address"
// @Success  200 {object} MarketplaceResponse
// @Failure  404 {object} ErrorResponse
// @Security BearerToken
// @Router   /marketplaces/{address} [get]
func (h *chainHandler) GetMarketplace(w http.ResponseWriter, r *http.Request) {
	addr, ok := addressParam(w, r, "address")
	if !ok {
		return
	}
	resp := MarketplaceResponse{Address: addr.Hex()}
	ok = h.view(w, r, addr, func(target any) error {
		m, err := manager(target)
		if err != nil {
			return err
		}
		owner, err := m.Owner()
		if err != nil {
			return err
		}
		resp.Owner = owner.Hex()
		if resp.NextRequestIndex, err = m.NextRequestIndex(); err != nil {
			return err
		}
		reqs, err := m.StoreRequests()
		if err != nil {
			return err
		}
		resp.RequestCount = len(reqs)
		owners, err := m.GetStoreOwners()
		if err != nil {
			return err
		}
		resp.StoreOwners = hexAll(owners)
		bal, err := m.Balance()
		if err != nil {
			return err
		}
		resp.Balance = amountOf(bal)

		counter, err := chain.Resolve[marketplace.Counter](target)
		if errors.Is(err, fault.ErrWrongKind) {
			return nil
		}
		if err != nil {
			return err
		}
		pending, err := counter.PendingRequests()
		if err != nil {
			return err
		}
		approved, err := counter.ApprovedCount()
		if err != nil {
			return err
		}
		resp.PendingRequests, resp.ApprovedCount = &pending, &approved
		return nil
	})
	if ok {
		writeJSON(w, http.StatusOK, resp)
	}
}

// InitMarketplace claims an uninitialised marketplace for the caller.
// POST /api/v1/marketplaces/{address}/init
//
// @Summary  Claim a marketplace
// @Tags     marketplaces
// @Produce  json
// @Param    address path string true "Marketplace (proxy) address"
// @Success  200 {object} TxResponse
// @Failure  422 {object} ErrorResponse
// @Security BearerToken
// @Router   /marketplaces/{address}/init [post]
func (h *chainHandler) InitMarketplace(w http.ResponseWriter, r *http.Request) {
	addr, ok := addressParam(w, r, "address")
	if !ok {
		return
	}
	rc, ok := h.transact(w, r, addr, "init", nil, func(target any) error {
		m, err := manager(target)
		if err != nil {
			return err
		}
		return m.Init()
	})
	if ok {
		writeTx(w, http.StatusOK, rc, nil)
	}
}

// TransferMarketplaceOwnership hands the marketplace to a new owner.
// POST /api/v1/marketplaces/{address}/ownership
//
// @Summary  Transfer marketplace ownership
// @Tags     marketplaces
// @Accept   json
// @Produce  json
// @Param    address path string           true "Marketplace (proxy) address"
// @Param    body    body OwnershipRequest true "New owner"
// @Success  200 {object} TxResponse
// @Failure  422 {object} ErrorResponse
// @Security BearerToken
// @Router   /marketplaces/{address}/ownership [post]
func (h *chainHandler) TransferMarketplaceOwnership(w http.ResponseWriter, r *http.Request) {
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
	rc, ok := h.transact(w, r, addr, "transferOwnership", nil, func(target any) error {
		m, err := manager(target)
		if err != nil {
			return err
		}
		return m.TransferOwnership(newOwner)
	})
	if ok {
		writeTx(w, http.StatusOK, rc, nil)
	}
}

// ListStoreRequests pages through the store request queue in arrival order.
// GET /api/v1/marketplaces/{address}/requests
//
// @Summary  List store requests
// @Tags     marketplaces
// @Produce  json
// @Param    address path  string true  "Marketplace (proxy) address"
// @Param    cursor  query string false "Pagination cursor"
// @Param    limit   query int    false "Page size (default 50, max 200)"
// @Success  200 {object} StoreRequestListResponse
// @Security BearerToken
// @Router   /marketplaces/{address}/requests [get]
func (h *chainHandler) ListStoreRequests(w http.ResponseWriter, r *http.Request) {
	addr, ok := addressParam(w, r, "address")
	if !ok {
		return
	}
	cursor, limit := parsePagination(r)
	start, err := decodeIndexCursor(cursor)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid cursor", "BAD_REQUEST")
		return
	}

	var (
		reqs []marketplace.Request
		next uint64
	)
	ok = h.view(w, r, addr, func(target any) error {
		m, err := manager(target)
		if err != nil {
			return err
		}
		if next, err = m.NextRequestIndex(); err != nil {
			return err
		}
		reqs, err = m.StoreRequests()
		return err
	})
	if !ok {
		return
	}

	resp := StoreRequestListResponse{Requests: []StoreRequestResponse{}}
	for i := start; i < uint64(len(reqs)) && len(resp.Requests) < limit; i++ {
		resp.Requests = append(resp.Requests, StoreRequestResponse{
			Index:     i,
			Proposal:  hexutil.Encode(reqs[i].Proposal[:]),
			CID:       cidOf(reqs[i].Proposal),
			Requester: reqs[i].Requester.Hex(),
			Pending:   i >= next,
		})
	}
	if end := start + uint64(len(resp.Requests)); end < uint64(len(reqs)) {
		c := encodeIndexCursor(end)
		resp.NextCursor = &c
	}
	writeJSON(w, http.StatusOK, resp)
}

// RequestStore queues a store request on behalf of the caller.
// POST /api/v1/marketplaces/{address}/requests
//
// @Summary  Request a store
// @Tags     marketplaces
// @Accept   json
// @Produce  json
// @Param    address path string           true "Marketplace (proxy) address"
// @Param    body    body StoreRequestBody true "Proposal as 0x hex or CIDv0"
// @Success  201 {object} TxResponse
// @Failure  400 {object} ErrorResponse
// @Failure  422 {object} ErrorResponse
// @Security BearerToken
// @Router   /marketplaces/{address}/requests [post]
func (h *chainHandler) RequestStore(w http.ResponseWriter, r *http.Request) {
	addr, ok := addressParam(w, r, "address")
	if !ok {
		return
	}
	var req StoreRequestBody
	if !decode(w, r, &req) {
		return
	}
	proposal, err := parseBytes32(req.Proposal)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var index uint64
	rc, ok := h.transact(w, r, addr, "requestStore", nil, func(target any) error {
		m, err := manager(target)
		if err != nil {
			return err
		}
		index, err = m.RequestStore(proposal)
		return err
	})
	if ok {
		writeTx(w, http.StatusCreated, rc, map[string]uint64{"request_index": index})
	}
}

// ApproveStore approves or rejects the oldest pending store request.
// POST /api/v1/marketplaces/{address}/approvals
//
// @Summary  Approve or reject the next store request
// @Tags     marketplaces
// @Accept   json
// @Produce  json
// @Param    address path string              true "Marketplace (proxy) address"
// @Param    body    body ApproveStoreRequest true "Decision and target slot"
// @Success  200 {object} TxResponse
// @Failure  422 {object} ErrorResponse
// @Security BearerToken
// @Router   /marketplaces/{address}/approvals [post]
func (h *chainHandler) ApproveStore(w http.ResponseWriter, r *http.Request) {
	addr, ok := addressParam(w, r, "address")
	if !ok {
		return
	}
	var req ApproveStoreRequest
	if !decode(w, r, &req) {
		return
	}
	var created common.Address
	rc, ok := h.transact(w, r, addr, "approveStore", nil, func(target any) error {
		m, err := manager(target)
		if err != nil {
			return err
		}
		created, err = m.ApproveStore(req.Approve, req.StoreIndex)
		return err
	})
	if !ok {
		return
	}
	var result any
	if created != (common.Address{}) {
		result = map[string]string{"store": created.Hex()}
	}
	writeTx(w, http.StatusOK, rc, result)
}

// RevokeStore destroys a store and frees its slot.
// POST /api/v1/marketplaces/{address}/revocations
//
// @Summary  Revoke a store
// @Tags     marketplaces
// @Accept   json
// @Produce  json
// @Param    address path string             true "Marketplace (proxy) address"
// @Param    body    body RevokeStoreRequest true "Owner and slot"
// @Success  200 {object} TxResponse
// @Failure  422 {object} ErrorResponse
// @Security BearerToken
// @Router   /marketplaces/{address}/revocations [post]
func (h *chainHandler) RevokeStore(w http.ResponseWriter, r *http.Request) {
	addr, ok := addressParam(w, r, "address")
	if !ok {
		return
	}
	var req RevokeStoreRequest
	if !decode(w, r, &req) {
		return
	}
	owner, err := parseAddress(req.Owner)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	rc, ok := h.transact(w, r, addr, "revokeStore", nil, func(target any) error {
		m, err := manager(target)
		if err != nil {
			return err
		}
		return m.RevokeStore(owner, req.StoreIndex)
	})
	if ok {
		writeTx(w, http.StatusOK, rc, nil)
	}
}

// WithdrawFromStore pulls the marketplace's tax share out of a store.
// POST /api/v1/marketplaces/{address}/store-withdrawals
//
// @Summary  Withdraw tax from a store
// @Tags     marketplaces
// @Accept   json
// @Produce  json
// @Param    address path string                 true "Marketplace (proxy) address"
// @Param    body    body StoreWithdrawalRequest true "Store and amount"
// @Success  200 {object} TxResponse
// @Failure  422 {object} ErrorResponse
// @Security BearerToken
// @Router   /marketplaces/{address}/store-withdrawals [post]
func (h *chainHandler) WithdrawFromStore(w http.ResponseWriter, r *http.Request) {
	addr, ok := addressParam(w, r, "address")
	if !ok {
		return
	}
	var req StoreWithdrawalRequest
	if !decode(w, r, &req) {
		return
	}
	st, err := parseAddress(req.Store)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	rc, ok := h.transact(w, r, addr, "withdrawFromStore", nil, func(target any) error {
		m, err := manager(target)
		if err != nil {
			return err
		}
		return m.WithdrawFromStore(st, amount)
	})
	if ok {
		writeTx(w, http.StatusOK, rc, nil)
	}
}

// MarketplaceOwnerWithdraw pays out of the marketplace balance.
// POST /api/v1/marketplaces/{address}/withdrawals
//
// @Summary  Withdraw from the marketplace
// @Tags     marketplaces
// @Accept   json
// @Produce  json
// @Param    address path string            true "Marketplace (proxy) address"
// @Param    body    body WithdrawalRequest true "Recipient and amount"
// @Success  200 {object} TxResponse
// @Failure  422 {object} ErrorResponse
// @Security BearerToken
// @Router   /marketplaces/{address}/withdrawals [post]
func (h *chainHandler) MarketplaceOwnerWithdraw(w http.ResponseWriter, r *http.Request) {
	addr, ok := addressParam(w, r, "address")
	if !ok {
		return
	}
	to, amount, ok := withdrawal(w, r)
	if !ok {
		return
	}
	rc, ok := h.transact(w, r, addr, "ownerWithdraw", nil, func(target any) error {
		m, err := manager(target)
		if err != nil {
			return err
		}
		return m.OwnerWithdraw(to, amount)
	})
	if ok {
		writeTx(w, http.StatusOK, rc, nil)
	}
}

// GetStoresByOwner lists the store slots of an owner.
// GET /api/v1/marketplaces/{address}/owners/{owner}/stores
//
// @Summary  Stores of an owner
// @Tags     marketplaces
// @Produce  json
// @Param    address path string true "Marketplace (proxy) address"
// @Param    owner   path string true "Store owner"
// @Success  200 {object} OwnerStoresResponse
// @Security BearerToken
// @Router   /marketplaces/{address}/owners/{owner}/stores [get]
func (h *chainHandler) GetStoresByOwner(w http.ResponseWriter, r *http.Request) {
	addr, ok := addressParam(w, r, "address")
	if !ok {
		return
	}
	owner, ok := addressParam(w, r, "owner")
	if !ok {
		return
	}
	var stores []common.Address
	ok = h.view(w, r, addr, func(target any) error {
		m, err := manager(target)
		if err != nil {
			return err
		}
		stores, err = m.GetStoresByOwner(owner)
		return err
	})
	if ok {
		writeJSON(w, http.StatusOK, OwnerStoresResponse{Owner: owner.Hex(), Stores: hexAll(stores)})
	}
}

// withdrawal reads a WithdrawalRequest body.
func withdrawal(w http.ResponseWriter, r *http.Request) (common.Address, *uint256.Int, bool) {
	var req WithdrawalRequest
	if !decode(w, r, &req) {
		return common.Address{}, nil, false
	}
	to, err := parseAddress(req.To)
	if err != nil {
		writeBadRequest(w, err)
		return common.Address{}, nil, false
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeBadRequest(w, err)
		return common.Address{}, nil, false
	}
	return to, amount, true
}

func hexAll(addrs []common.Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.Hex()
	}
	return out
}
