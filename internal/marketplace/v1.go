package marketplace

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"github.com/joestump/joe-market/internal/chain"
	"github.com/joestump/joe-market/internal/fault"
	"github.com/joestump/joe-market/internal/store"
)

// V1 is the first marketplace version bound to a call frame.
type V1 struct {
	f *chain.Frame
}

func (m *V1) self() string { return m.f.Self().Hex() }

func (m *V1) Init() error { return ownable.Init(m.f) }

func (m *V1) Owner() (common.Address, error) { return ownable.Owner(m.f) }

func (m *V1) TransferOwnership(newOwner common.Address) error {
	return ownable.TransferOwnership(m.f, newOwner)
}

// RequestStore queues a request for a new store and returns its index.
func (m *V1) RequestStore(proposal [32]byte) (uint64, error) {
	if proposal == ([32]byte{}) {
		return 0, fault.ErrEmptyProposal
	}
	n, err := m.requestCount()
	if err != nil {
		return 0, err
	}
	err = m.f.Exec(`INSERT INTO store_requests (contract, idx, proposal, requester) VALUES (?, ?, ?, ?)`,
		m.self(), n, hexutil.Encode(proposal[:]), m.f.Caller().Hex())
	if err != nil {
		return 0, fmt.Errorf("insert store request: %w", err)
	}
	m.f.Emit("LogStoreRequested", chain.F("requestIndex", n))
	return n, nil
}

// ApproveStore consumes the request at the head of the queue. Rejected
// requests are discarded. An approved request creates a store owned by the
// requester and places it at storeIndex of the requester's stores, which
// must be a free slot or the next one past the end. It returns the new
// store address, or the zero address on rejection.
func (m *V1) ApproveStore(approve bool, storeIndex uint64) (common.Address, error) {
	if err := ownable.RequireOwner(m.f); err != nil {
		return common.Address{}, err
	}
	next, err := m.NextRequestIndex()
	if err != nil {
		return common.Address{}, err
	}
	n, err := m.requestCount()
	if err != nil {
		return common.Address{}, err
	}
	if next >= n {
		return common.Address{}, fault.ErrEmptyQueue
	}
	req, err := m.StoreRequest(next)
	if err != nil {
		return common.Address{}, err
	}
	if err := m.f.StoreUint(slotNextRequestIndex, uint256.NewInt(next+1)); err != nil {
		return common.Address{}, err
	}
	if !approve {
		m.f.Emit("LogStoreRejected", chain.F("requestIndex", next))
		return common.Address{}, nil
	}

	if err := m.checkSlot(req.Requester, storeIndex); err != nil {
		return common.Address{}, err
	}
	addr, obj, err := m.f.Create(store.Kind, store.Version, nil)
	if err != nil {
		return common.Address{}, err
	}
	st, err := chain.Resolve[*store.Store](obj)
	if err != nil {
		return common.Address{}, err
	}
	if err := st.Construct(req.Requester); err != nil {
		return common.Address{}, err
	}
	if err := m.placeStore(req.Requester, storeIndex, addr); err != nil {
		return common.Address{}, err
	}
	m.f.Emit("LogStoreApproved", chain.F("requestIndex", next), chain.F("owner", req.Requester))
	return addr, nil
}

// RevokeStore destroys the store at storeIndex of owner's stores and
// frees the slot.
func (m *V1) RevokeStore(owner common.Address, storeIndex uint64) error {
	if err := ownable.RequireOwner(m.f); err != nil {
		return err
	}
	if owner == (common.Address{}) {
		return fault.ErrZeroAddress
	}
	addr, err := m.StoresAt(owner, storeIndex)
	if err != nil {
		return err
	}
	if addr == (common.Address{}) {
		return fault.ErrEmptySlot
	}
	st, err := m.bindStore(addr)
	if err != nil {
		return err
	}
	if err := st.Destroy(); err != nil {
		return err
	}
	if err := m.setStoreAt(owner, storeIndex, common.Address{}); err != nil {
		return err
	}
	m.f.Emit("LogStoreRevoked", chain.F("owner", owner), chain.F("store", addr))
	return nil
}

// WithdrawFromStore pulls amount of a store's tax share into the
// marketplace balance. The store enforces the amount against its ledger.
func (m *V1) WithdrawFromStore(storeAddr common.Address, amount *uint256.Int) error {
	if err := ownable.RequireOwner(m.f); err != nil {
		return err
	}
	if storeAddr == (common.Address{}) {
		return fault.ErrZeroAddress
	}
	if amount == nil || amount.IsZero() {
		return fault.ErrZeroAmount
	}
	st, err := m.bindStore(storeAddr)
	if err != nil {
		return err
	}
	if err := st.MarketplaceWithdraw(amount); err != nil {
		return err
	}
	m.f.Emit("LogStoreWithdrawal", chain.F("store", storeAddr), chain.F("amount", amount))
	return nil
}

// OwnerWithdraw pays amount of the marketplace balance to to.
func (m *V1) OwnerWithdraw(to common.Address, amount *uint256.Int) error {
	if err := ownable.RequireOwner(m.f); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return fault.ErrZeroAddress
	}
	if amount == nil || amount.IsZero() {
		return fault.ErrZeroAmount
	}
	bal, err := m.Balance()
	if err != nil {
		return err
	}
	if amount.Gt(bal) {
		return fault.ErrInsufficientBalance
	}
	if err := m.f.Transfer(to, amount); err != nil {
		return err
	}
	m.f.Emit("LogOwnerWithdrawal", chain.F("to", to), chain.F("amount", amount))
	return nil
}

// TransferStore moves the calling store from previousOwner's stores to
// storeIndex of newOwner's stores. Only a store registered under
// previousOwner may call it, as part of its own ownership handover.
func (m *V1) TransferStore(previousOwner, newOwner common.Address, storeIndex uint64) error {
	storeAddr := m.f.Caller()
	var prevIndex uint64
	err := m.f.Get(&prevIndex,
		`SELECT idx FROM owner_stores WHERE contract = ? AND owner = ? AND store = ? ORDER BY idx LIMIT 1`,
		m.self(), previousOwner.Hex(), storeAddr.Hex())
	if fault.IsErrNotFound(err) {
		return fault.ErrNotRegisteredStore
	}
	if err != nil {
		return err
	}
	if err := m.checkSlot(newOwner, storeIndex); err != nil {
		return err
	}
	if err := m.setStoreAt(previousOwner, prevIndex, common.Address{}); err != nil {
		return err
	}
	if err := m.placeStore(newOwner, storeIndex, storeAddr); err != nil {
		return err
	}
	m.f.Emit("LogStoreTransferred",
		chain.F("store", storeAddr),
		chain.F("previousOwner", previousOwner),
		chain.F("newOwner", newOwner))
	return nil
}

func (m *V1) bindStore(addr common.Address) (*store.Store, error) {
	target, err := m.f.Call(addr, nil)
	if err != nil {
		return nil, err
	}
	return chain.Resolve[*store.Store](target)
}
