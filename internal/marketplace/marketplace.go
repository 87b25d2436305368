// Package marketplace implements the store manager: a FIFO queue of store
// requests that the marketplace owner approves or rejects, a per-owner
// registry of store addresses where a zero entry marks a free slot, and
// the withdrawal paths that pull tax shares out of stores.
//
// The code is meant to run behind a proxy, so the owner is claimed with
// Init rather than set by a constructor.
package marketplace

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/joestump/joe-market/internal/access"
	"github.com/joestump/joe-market/internal/chain"
)

const (
	Kind = "marketplace"

	VersionV1 = "v1"
	VersionV2 = "v2"

	// MaxOwnerStores bounds the store sequence of a single owner.
	MaxOwnerStores = 65536
)

// LayoutV1 is the storage layout of the first marketplace version.
var LayoutV1 = chain.Layout{
	{Name: "owner", Type: "address"},
	{Name: "nextRequestIndex", Type: "uint256"},
	{Name: "storeRequests", Type: "request[]"},
	{Name: "stores", Type: "mapping(address=>address[])"},
	{Name: "storeOwners", Type: "address[]"},
}

// LayoutV2 appends the approval counter to LayoutV1.
var LayoutV2 = append(append(chain.Layout{}, LayoutV1...),
	chain.Var{Name: "requestsApproved", Type: "uint256"},
)

var (
	slotNextRequestIndex = LayoutV1.Slot("nextRequestIndex")
	slotRequestsApproved = LayoutV2.Slot("requestsApproved")

	ownable = access.Ownable{Slot: LayoutV1.Slot("owner")}
)

var tables = []string{"store_requests", "owner_stores", "store_owners"}

// CodeV1 returns the registrable code of marketplace v1.
func CodeV1() chain.Code {
	return chain.Code{
		Kind:        Kind,
		Version:     VersionV1,
		Layout:      LayoutV1,
		Upgradeable: true,
		Bind:        func(f *chain.Frame) any { return &V1{f: f} },
		Tables:      tables,
	}
}

// CodeV2 returns the registrable code of marketplace v2.
func CodeV2() chain.Code {
	return chain.Code{
		Kind:        Kind,
		Version:     VersionV2,
		Layout:      LayoutV2,
		Upgradeable: true,
		Bind:        func(f *chain.Frame) any { return &V2{V1{f: f}} },
		Tables:      tables,
	}
}

// Request is a pending or consumed store request.
type Request struct {
	Proposal  [32]byte
	Requester common.Address
}

// Manager is the call surface shared by every marketplace version.
type Manager interface {
	Init() error
	Owner() (common.Address, error)
	TransferOwnership(newOwner common.Address) error

	RequestStore(proposal [32]byte) (uint64, error)
	ApproveStore(approve bool, storeIndex uint64) (common.Address, error)
	RevokeStore(owner common.Address, storeIndex uint64) error
	WithdrawFromStore(store common.Address, amount *uint256.Int) error
	OwnerWithdraw(to common.Address, amount *uint256.Int) error
	TransferStore(previousOwner, newOwner common.Address, storeIndex uint64) error

	NextRequestIndex() (uint64, error)
	StoreRequest(index uint64) (Request, error)
	StoreRequests() ([]Request, error)
	StoresAt(owner common.Address, index uint64) (common.Address, error)
	IsStoreOwner(addr common.Address) (bool, error)
	GetStoresByOwner(owner common.Address) ([]common.Address, error)
	GetStoreOwners() ([]common.Address, error)
	Balance() (*uint256.Int, error)
}

// Counter is implemented from v2 on.
type Counter interface {
	PendingRequests() (uint64, error)
	ApprovedCount() (uint64, error)
}

var (
	_ Manager = (*V1)(nil)
	_ Manager = (*V2)(nil)
	_ Counter = (*V2)(nil)
)
