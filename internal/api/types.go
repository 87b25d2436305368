package api

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/joestump/joe-market/internal/chain"
)

// Amount is a value in base units with its ether rendering alongside.
type Amount struct {
	Wei   string `json:"wei"`
	Ether string `json:"ether"`
}

func amountOf(v *uint256.Int) Amount {
	if v == nil {
		v = new(uint256.Int)
	}
	return Amount{Wei: v.Dec(), Ether: formatEther(v)}
}

// --- Transaction types ---

// EventResponse is one event of a committed transaction.
type EventResponse struct {
	Address string            `json:"address"`
	Name    string            `json:"name"`
	Fields  map[string]string `json:"fields"`
}

// ReceiptResponse is the JSON representation of a committed transaction.
type ReceiptResponse struct {
	ID        string          `json:"id"`
	From      string          `json:"from"`
	To        string          `json:"to,omitempty"`
	Method    string          `json:"method"`
	Value     Amount          `json:"value"`
	Created   string          `json:"created,omitempty"`
	Events    []EventResponse `json:"events"`
	CreatedAt time.Time       `json:"created_at"`
}

func receiptResponse(rc *chain.Receipt) ReceiptResponse {
	resp := ReceiptResponse{
		ID:        rc.ID,
		From:      rc.From.Hex(),
		Method:    rc.Method,
		Value:     amountOf(rc.Value),
		Events:    make([]EventResponse, 0, len(rc.Events)),
		CreatedAt: rc.CreatedAt,
	}
	if rc.To != (common.Address{}) {
		resp.To = rc.To.Hex()
	}
	if rc.Created != (common.Address{}) {
		resp.Created = rc.Created.Hex()
	}
	for _, ev := range rc.Events {
		fields := make(map[string]string, len(ev.Fields))
		for _, f := range ev.Fields {
			fields[f.Name] = f.Value
		}
		resp.Events = append(resp.Events, EventResponse{Address: ev.Address.Hex(), Name: ev.Name, Fields: fields})
	}
	return resp
}

// --- Account types ---

// AccountResponse is an account balance.
type AccountResponse struct {
	Address string `json:"address"`
	Balance Amount `json:"balance"`
}

// --- Marketplace types ---

// DeployMarketplaceRequest is the request body for POST /api/v1/marketplaces.
type DeployMarketplaceRequest struct {
	Version string `json:"version,omitempty"`
}

// DeploymentResponse describes a marketplace deployed behind a proxy.
type DeploymentResponse struct {
	Proxy          string `json:"proxy"`
	Implementation string `json:"implementation"`
}

// MarketplaceResponse summarises a marketplace.
type MarketplaceResponse struct {
	Address          string   `json:"address"`
	Owner            string   `json:"owner"`
	NextRequestIndex uint64   `json:"next_request_index"`
	RequestCount     int      `json:"request_count"`
	StoreOwners      []string `json:"store_owners"`
	Balance          Amount   `json:"balance"`
	PendingRequests  *uint64  `json:"pending_requests,omitempty"`
	ApprovedCount    *uint64  `json:"approved_count,omitempty"`
}

// StoreRequestBody is the request body for POST /marketplaces/{address}/requests.
type StoreRequestBody struct {
	Proposal string `json:"proposal"`
}

// StoreRequestResponse is one entry of the store request queue.
type StoreRequestResponse struct {
	Index     uint64 `json:"index"`
	Proposal  string `json:"proposal"`
	CID       string `json:"cid"`
	Requester string `json:"requester"`
	Pending   bool   `json:"pending"`
}

// StoreRequestListResponse is the paginated store request queue.
type StoreRequestListResponse struct {
	Requests   []StoreRequestResponse `json:"requests"`
	NextCursor *string                `json:"next_cursor"`
}

// ApproveStoreRequest is the request body for POST /marketplaces/{address}/approvals.
type ApproveStoreRequest struct {
	Approve    bool   `json:"approve"`
	StoreIndex uint64 `json:"store_index"`
}

// RevokeStoreRequest is the request body for POST /marketplaces/{address}/revocations.
type RevokeStoreRequest struct {
	Owner      string `json:"owner"`
	StoreIndex uint64 `json:"store_index"`
}

// StoreWithdrawalRequest is the request body for POST /marketplaces/{address}/store-withdrawals.
type StoreWithdrawalRequest struct {
	Store  string `json:"store"`
	Amount string `json:"amount"`
}

// WithdrawalRequest moves a balance held by a contract to an account.
type WithdrawalRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// OwnershipRequest names a new owner.
type OwnershipRequest struct {
	NewOwner string `json:"new_owner"`
}

// OwnerStoresResponse lists the store slots of one owner. Empty slots are
// the zero address.
type OwnerStoresResponse struct {
	Owner  string   `json:"owner"`
	Stores []string `json:"stores"`
}

// TxResponse wraps the receipt of a state-changing call, plus the value
// the call returned when it has one.
type TxResponse struct {
	Transaction ReceiptResponse `json:"transaction"`
	Result      any             `json:"result,omitempty"`
}

// --- Proxy types ---

// ProxyResponse describes a proxy.
type ProxyResponse struct {
	Address        string `json:"address"`
	ProxyOwner     string `json:"proxy_owner"`
	Implementation string `json:"implementation"`
	Kind           string `json:"kind"`
	Version        string `json:"version"`
}

// UpgradeRequest is the request body for POST /proxies/{address}/upgrade.
// Version deploys a fresh implementation; Implementation points at an
// existing one. Exactly one must be set.
type UpgradeRequest struct {
	Version        string `json:"version,omitempty"`
	Implementation string `json:"implementation,omitempty"`
}

// --- Store types ---

// StoreResponse summarises a store.
type StoreResponse struct {
	Address            string     `json:"address"`
	Owner              string     `json:"owner"`
	Marketplace        string     `json:"marketplace"`
	Paused             bool       `json:"paused"`
	Balance            Amount     `json:"balance"`
	OwnerBalance       Amount     `json:"owner_balance"`
	MarketplaceBalance Amount     `json:"marketplace_balance"`
	ProductCount       uint64     `json:"product_count"`
	Storefront         [16]uint64 `json:"storefront"`
	OwnerCandidate     string     `json:"owner_candidate,omitempty"`
	CandidateIndex     *uint64    `json:"candidate_store_index,omitempty"`
}

// ProductRequest is the request body for creating or replacing a product.
type ProductRequest struct {
	Description string `json:"description"`
	Quantity    uint64 `json:"quantity"`
	Price       string `json:"price"`
}

// ProductResponse is the JSON representation of a product.
type ProductResponse struct {
	Index       uint64 `json:"index"`
	Description string `json:"description"`
	CID         string `json:"cid"`
	Quantity    uint16 `json:"quantity"`
	Price       Amount `json:"price"`
}

// ProductListResponse lists every product of a store, removed ones included.
type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
}

// PriceRequest is the request body for PUT /stores/{address}/products/{index}/price.
type PriceRequest struct {
	Price string `json:"price"`
}

// QuantityRequest is the request body for POST /stores/{address}/products/{index}/quantity.
// Op is "increase" or "decrease".
type QuantityRequest struct {
	Op       string `json:"op"`
	Quantity uint64 `json:"quantity"`
}

// StorefrontRequest is the request body for PUT /stores/{address}/storefront/{slot}.
type StorefrontRequest struct {
	ProductIndex uint64 `json:"product_index"`
}

// PurchaseRequest is the request body for POST /stores/{address}/purchases.
// Value is the payment attached to the call.
type PurchaseRequest struct {
	Index    uint64 `json:"index"`
	Quantity uint64 `json:"quantity"`
	Value    string `json:"value"`
}

// OwnershipTransferRequest is the request body for POST /stores/{address}/ownership-requests.
type OwnershipTransferRequest struct {
	Candidate  string `json:"candidate"`
	StoreIndex uint64 `json:"store_index"`
}

// OwnershipApprovalRequest is the request body for POST /stores/{address}/ownership-approvals.
type OwnershipApprovalRequest struct {
	StoreIndex uint64 `json:"store_index"`
}

// --- Token types ---

// CreateTokenRequest is the request body for POST /api/v1/tokens.
type CreateTokenRequest struct {
	Name      string     `json:"name"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// TokenResponse is the JSON representation of an API token.
type TokenResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Address    string     `json:"address"`
	LastUsedAt *time.Time `json:"last_used_at"`
	ExpiresAt  *time.Time `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TokenCreatedResponse is returned once, on creation, with the plaintext.
type TokenCreatedResponse struct {
	TokenResponse
	Token string `json:"token"`
}

// TokenListResponse lists the caller's active tokens.
type TokenListResponse struct {
	Tokens []*TokenResponse `json:"tokens"`
}
