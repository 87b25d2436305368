package api

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"

	"github.com/joestump/joe-market/internal/chain"
	"github.com/joestump/joe-market/internal/store"
)

func registerStoreRoutes(r chi.Router, h *chainHandler) {
	r.Route("/stores/{address}", func(r chi.Router) {
		r.Get("/", h.GetStore)
		r.Delete("/", h.DestroyStore)
		r.Post("/pause", h.PauseStore)
		r.Post("/unpause", h.UnpauseStore)

		r.Get("/products", h.ListProducts)
		r.Post("/products", h.AddProduct)
		r.Get("/products/{index}", h.GetProduct)
		r.Put("/products/{index}", h.UpdateProduct)
		r.Delete("/products/{index}", h.RemoveProduct)
		r.Put("/products/{index}/price", h.SetPrice)
		r.Post("/products/{index}/quantity", h.ChangeQuantity)
		r.Put("/storefront/{slot}", h.SetStorefront)

		r.Post("/purchases", h.Buy)
		r.Post("/withdrawals", h.StoreOwnerWithdraw)

		r.Post("/ownership-requests", h.RequestStoreTransfer)
		r.Post("/ownership-approvals", h.ApproveStoreTransfer)
	})
}

// storeCall is a state-changing store method run from a handler.
type storeCall func(s *store.Store) error

// transactStore submits fn against the store at the {address} parameter
// and writes the receipt.
func (h *chainHandler) transactStore(w http.ResponseWriter, r *http.Request, method string, value *uint256.Int, status int, fn storeCall) {
	addr, ok := addressParam(w, r, "address")
	if !ok {
		return
	}
	rc, ok := h.transact(w, r, addr, method, value, func(target any) error {
		s, err := chain.Resolve[*store.Store](target)
		if err != nil {
			return err
		}
		return fn(s)
	})
	if ok {
		writeTx(w, status, rc, nil)
	}
}

// viewStore runs fn read-only against the store at the {address} parameter.
func (h *chainHandler) viewStore(w http.ResponseWriter, r *http.Request, fn storeCall) bool {
	addr, ok := addressParam(w, r, "address")
	if !ok {
		return false
	}
	return h.view(w, r, addr, func(target any) error {
		s, err := chain.Resolve[*store.Store](target)
		if err != nil {
			return err
		}
		return fn(s)
	})
}

func productResponse(index uint64, p store.Product) ProductResponse {
	return ProductResponse{
		Index:       index,
		Description: hexutil.Encode(p.Description[:]),
		CID:         cidOf(p.Description),
		Quantity:    p.Quantity,
		Price:       amountOf(p.Price),
	}
}

// GetStore summarises a store.
// GET /api/v1/stores/{address}
//
// @Summary  Get a store
// @Tags     stores
// @Produce  json
// @Param    address path string true "Store address"
// @Success  200 {object} StoreResponse
// @Failure  404 {object} ErrorResponse
// @Security BearerToken
// @Router   /stores/{address} [get]
func (h *chainHandler) GetStore(w http.ResponseWriter, r *http.Request) {
	var resp StoreResponse
	ok := h.viewStore(w, r, func(s *store.Store) error {
		resp.Address = s.Address().Hex()
		owner, err := s.Owner()
		if err != nil {
			return err
		}
		resp.Owner = owner.Hex()
		mkt, err := s.Marketplace()
		if err != nil {
			return err
		}
		resp.Marketplace = mkt.Hex()
		if resp.Paused, err = s.Paused(); err != nil {
			return err
		}
		bal, err := s.Balance()
		if err != nil {
			return err
		}
		ownerBal, err := s.OwnerBalance()
		if err != nil {
			return err
		}
		mktBal, err := s.MarketplaceBalance()
		if err != nil {
			return err
		}
		resp.Balance, resp.OwnerBalance, resp.MarketplaceBalance = amountOf(bal), amountOf(ownerBal), amountOf(mktBal)
		if resp.ProductCount, err = s.ProductCount(); err != nil {
			return err
		}
		if resp.Storefront, err = s.Storefront(); err != nil {
			return err
		}
		candidate, idx, err := s.PendingTransfer()
		if err != nil {
			return err
		}
		if candidate != (common.Address{}) {
			resp.OwnerCandidate = candidate.Hex()
			resp.CandidateIndex = &idx
		}
		return nil
	})
	if ok {
		writeJSON(w, http.StatusOK, resp)
	}
}

// DestroyStore shuts a store down, paying each party its share.
// DELETE /api/v1/stores/{address}
//
// @Summary  Destroy a store
// @Tags     stores
// @Produce  json
// @Param    address path string true "Store address"
// @Success  200 {object} TxResponse
// @Failure  422 {object} ErrorResponse
// @Security BearerToken
// @Router   /stores/{address} [delete]
func (h *chainHandler) DestroyStore(w http.ResponseWriter, r *http.Request) {
	h.transactStore(w, r, "destroy", nil, http.StatusOK, func(s *store.Store) error {
		return s.Destroy()
	})
}

// PauseStore stops purchases.
// POST /api/v1/stores/{address}/pause
//
// @Summary  Pause a store
// @Tags     stores
// @Produce  json
// @Param    address path string true "Store address"
// @Success  200 {object} TxResponse
// @Failure  422 {object} ErrorResponse
// @Security BearerToken
// @Router   /stores/{address}/pause [post]
func (h *chainHandler) PauseStore(w http.ResponseWriter, r *http.Request) {
	h.transactStore(w, r, "pause", nil, http.StatusOK, func(s *store.Store) error {
		return s.Pause()
	})
}

// UnpauseStore resumes purchases.
// POST /api/v1/stores/{address}/unpause
//
// @Summary  Unpause a store
// @Tags     stores
// @Produce  json
// @Param    address path string true "Store address"
// @Success  200 {object} TxResponse
// @Failure  422 {object} ErrorResponse
// @Security BearerToken
// @Router   /stores/{address}/unpause [post]
func (h *chainHandler) UnpauseStore(w http.ResponseWriter, r *http.Request) {
	h.transactStore(w, r, "unpause", nil, http.StatusOK, func(s *store.Store) error {
		return s.Unpause()
	})
}

// ListProducts lists every product, removed ones included.
// GET /api/v1/stores/{address}/products
//
// @Summary  List products
// @Tags     stores
// @Produce  json
// @Param    address path string true "Store address"
// @Success  200 {object} ProductListResponse
// @Security BearerToken
// @Router   /stores/{address}/products [get]
func (h *chainHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	var products []store.Product
	ok := h.viewStore(w, r, func(s *store.Store) error {
		var err error
		products, err = s.Products()
		return err
	})
	if !ok {
		return
	}
	resp := ProductListResponse{Products: make([]ProductResponse, 0, len(products))}
	for i, p := range products {
		resp.Products = append(resp.Products, productResponse(uint64(i), p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetProduct returns one product.
// GET /api/v1/stores/{address}/products/{index}
//
// @Summary  Get a product
// @Tags     stores
// @Produce  json
// @Param    address path string true "Store address"
// @Param    index   path int    true "Product index"
// @Success  200 {object} ProductResponse
// @Failure  422 {object} ErrorResponse
// @Security BearerToken
// @Router   /stores/{address}/products/{index} [get]
func (h *chainHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r, "index")
	if !ok {
		return
	}
	var p store.Product
	ok = h.viewStore(w, r, func(s *store.Store) error {
		var err error
		p, err = s.Product(index)
		return err
	})
	if ok {
		writeJSON(w, http.StatusOK, productResponse(index, p))
	}
}

// parseProduct validates a ProductRequest body.
func parseProduct(w http.ResponseWriter, r *http.Request) (desc [32]byte, qty uint16, price *uint256.Int, ok bool) {
	var req ProductRequest
	if !decode(w, r, &req) {
		return desc, 0, nil, false
	}
	var err error
	if desc, err = parseBytes32(req.Description); err != nil {
		writeBadRequest(w, err)
		return desc, 0, nil, false
	}
	if qty, err = parseUint16(req.Quantity); err != nil {
		writeBadRequest(w, err)
		return desc, 0, nil, false
	}
	if price, err = parseAmount(req.Price); err != nil {
		writeBadRequest(w, err)
		return desc, 0, nil, false
	}
	return desc, qty, price, true
}

// AddProduct appends a product to the catalogue.
// POST /api/v1/stores/{address}/products
//
// @Summary  Add a product
// @Tags     stores
// @Accept   json
// @Produce  json
// @Param    address path string         true "Store address"
// @Param    body    body ProductRequest true "Product"
// @Success  201 {object} TxResponse
// @Failure  400 {object} ErrorResponse
// @Failure  422 {object} ErrorResponse
// @Security BearerToken
// @Router   /stores/{address}/products [post]
func (h *chainHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	addr, ok := addressParam(w, r, "address")
	if !ok {
		return
	}
	desc, qty, price, ok := parseProduct(w, r)
	if !ok {
		return
	}
	var index uint64
	rc, ok := h.transact(w, r, addr, "addProduct", nil, func(target any) error {
		s, err := chain.Resolve[*store.Store](target)
		if err != nil {
			return err
		}
		index, err = s.AddProduct(desc, qty, price)
		return err
	})
	if ok {
		writeTx(w, http.StatusCreated, rc, map[string]uint64{"product_index": index})
	}
}

// UpdateProduct replaces a product.
// PUT /api/v1/stores/{address}/products/{index}
//
// @Summary  Replace a product
// @Tags     stores
// @Accept   json
// @Produce  json
// @Param    address path string         true "Store address"
// @Param    index   path int            true "Product index"
// @Param    body    body ProductRequest true "Product"
// @Success  200 {object} TxResponse
// @Failure  422 {object} ErrorResponse
// @Security BearerToken
// @Router   /stores/{address}/products/{index} [put]
func (h *chainHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r, "index")
	if !ok {
		return
	}
	desc, qty, price, ok := parseProduct(w, r)
	if !ok {
		return
	}
	h.transactStore(w, r, "updateProduct", nil, http.StatusOK, func(s *store.Store) error {
		return s.UpdateProduct(index, desc, qty, price)
	})
}

// RemoveProduct zeroes a product. Indices of other products do not move.
// DELETE /api/v1/stores/{address}/products/{index}
//
// @Summary  Remove a product
// @Tags     stores
// @Produce  json
// @Param    address path string true "Store address"
// @Param    index   path int    true "Product index"
// @Success  200 {object} TxResponse
// @Failure  422 {object} ErrorResponse
// @Security BearerToken
// @Router   /stores/{address}/products/{index} [delete]
func (h *chainHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r, "index")
	if !ok {
		return
	}
	h.transactStore(w, r, "removeProduct", nil, http.StatusOK, func(s *store.Store) error {
		return s.RemoveProduct(index)
	})
}

// SetPrice changes a product's price.
// PUT /api/v1/stores/{address}/products/{index}/price
//
// @Summary  Set a product price
// @Tags     stores
// @Accept   json
// @Produce  json
// @Param    address path string       true "Store address"
// @Param    index   path int          true "Product index"
// @Param    body    body PriceRequest true "Price"
// @Success  200 {object} TxResponse
// @Failure  422 {object} ErrorResponse
// @Security BearerToken
// @Router   /stores/{address}/products/{index}/price [put]
func (h *chainHandler) SetPrice(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r, "index")
	if !ok {
		return
	}
	var req PriceRequest
	if !decode(w, r, &req) {
		return
	}
	price, err := parseAmount(req.Price)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	h.transactStore(w, r, "setPrice", nil, http.StatusOK, func(s *store.Store) error {
		return s.SetPrice(index, price)
	})
}

// ChangeQuantity restocks or destocks a product.
// POST /api/v1/stores/{address}/products/{index}/quantity
//
// @Summary  Change a product quantity
// @Tags     stores
// @Accept   json
// @Produce  json
// @Param    address path string          true "Store address"
// @Param    index   path int             true "Product index"
// @Param    body    body QuantityRequest true "increase or decrease"
// @Success  200 {object} TxResponse
// @Failure  422 {object} ErrorResponse
// @Security BearerToken
// @Router   /stores/{address}/products/{index}/quantity [post]
func (h *chainHandler) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r, "index")
	if !ok {
		return
	}
	var req QuantityRequest
	if !decode(w, r, &req) {
		return
	}
	delta, err := parseUint16(req.Quantity)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	switch req.Op {
	case "increase":
		h.transactStore(w, r, "increaseQuantity", nil, http.StatusOK, func(s *store.Store) error {
			return s.IncreaseQuantity(index, delta)
		})
	case "decrease":
		h.transactStore(w, r, "decreaseQuantity", nil, http.StatusOK, func(s *store.Store) error {
			return s.DecreaseQuantity(index, delta)
		})
	default:
		writeError(w, http.StatusBadRequest, `op must be "increase" or "decrease"`, "BAD_REQUEST")
	}
}

// SetStorefront shows a product in a storefront slot.
// PUT /api/v1/stores/{address}/storefront/{slot}
//
// @Summary  Set a storefront slot
// @Tags     stores
// @Accept   json
// @Produce  json
// @Param    address path string            true "Store address"
// @Param    slot    path int               true "Storefront slot (0-15)"
// @Param    body    body StorefrontRequest true "Product index"
// @Success  200 {object} TxResponse
// @Failure  422 {object} ErrorResponse
// @Security BearerToken
// @Router   /stores/{address}/storefront/{slot} [put]
func (h *chainHandler) SetStorefront(w http.ResponseWriter, r *http.Request) {
	slot, ok := indexParam(w, r, "slot")
	if !ok {
		return
	}
	var req StorefrontRequest
	if !decode(w, r, &req) {
		return
	}
	h.transactStore(w, r, "setStorefront", nil, http.StatusOK, func(s *store.Store) error {
		return s.SetStorefront(slot, req.ProductIndex)
	})
}

// Buy purchases units of a product. The attached value must equal price
// times quantity exactly.
// POST /api/v1/stores/{address}/purchases
//
// @Summary  Buy a product
// @Tags     stores
// @Accept   json
// @Produce  json
// @Param    address path string          true "Store address"
// @Param    body    body PurchaseRequest true "Product, quantity and payment"
// @Success  201 {object} TxResponse
// @Failure  422 {object} ErrorResponse
// @Security BearerToken
// @Router   /stores/{address}/purchases [post]
func (h *chainHandler) Buy(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequest
	if !decode(w, r, &req) {
		return
	}
	qty, err := parseUint16(req.Quantity)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	value, err := parseAmount(req.Value)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	h.transactStore(w, r, "buy", value, http.StatusCreated, func(s *store.Store) error {
		return s.Buy(req.Index, qty)
	})
}

// StoreOwnerWithdraw pays the owner's share of the store balance out.
// POST /api/v1/stores/{address}/withdrawals
//
// @Summary  Withdraw store revenue
// @Tags     stores
// @Accept   json
// @Produce  json
// @Param    address path string            true "Store address"
// @Param    body    body WithdrawalRequest true "Recipient and amount"
// @Success  200 {object} TxResponse
// @Failure  422 {object} ErrorResponse
// @Security BearerToken
// @Router   /stores/{address}/withdrawals [post]
func (h *chainHandler) StoreOwnerWithdraw(w http.ResponseWriter, r *http.Request) {
	to, amount, ok := withdrawal(w, r)
	if !ok {
		return
	}
	h.transactStore(w, r, "ownerWithdraw", nil, http.StatusOK, func(s *store.Store) error {
		return s.OwnerWithdraw(to, amount)
	})
}

// RequestStoreTransfer nominates a candidate to take the store over.
// POST /api/v1/stores/{address}/ownership-requests
//
// @Summary  Request a store ownership transfer
// @Tags     stores
// @Accept   json
// @Produce  json
// @Param    address path string                   true "Store address"
// @Param    body    body OwnershipTransferRequest true "Candidate and the candidate's target slot"
// @Success  200 {object} TxResponse
// @Failure  422 {object} ErrorResponse
// @Security BearerToken
// @Router   /stores/{address}/ownership-requests [post]
func (h *chainHandler) RequestStoreTransfer(w http.ResponseWriter, r *http.Request) {
	var req OwnershipTransferRequest
	if !decode(w, r, &req) {
		return
	}
	candidate, err := parseAddress(req.Candidate)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	h.transactStore(w, r, "requestOwnershipTransfer", nil, http.StatusOK, func(s *store.Store) error {
		return s.RequestOwnershipTransfer(candidate, req.StoreIndex)
	})
}

// ApproveStoreTransfer lets the candidate accept a pending transfer.
// POST /api/v1/stores/{address}/ownership-approvals
//
// @Summary  Accept a store ownership transfer
// @Tags     stores
// @Accept   json
// @Produce  json
// @Param    address path string                   true "Store address"
// @Param    body    body OwnershipApprovalRequest true "Confirmed slot"
// @Success  200 {object} TxResponse
// @Failure  422 {object} ErrorResponse
// @Security BearerToken
// @Router   /stores/{address}/ownership-approvals [post]
func (h *chainHandler) ApproveStoreTransfer(w http.ResponseWriter, r *http.Request) {
	var req OwnershipApprovalRequest
	if !decode(w, r, &req) {
		return
	}
	h.transactStore(w, r, "approveOwnershipTransfer", nil, http.StatusOK, func(s *store.Store) error {
		return s.ApproveOwnershipTransfer(req.StoreIndex)
	})
}
