package marketplace

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/joestump/joe-market/internal/fault"
)

type requestRow struct {
	Proposal  string `db:"proposal"`
	Requester string `db:"requester"`
}

func (r requestRow) request() Request {
	return Request{
		Proposal:  common.HexToHash(r.Proposal),
		Requester: common.HexToAddress(r.Requester),
	}
}

func (m *V1) requestCount() (uint64, error) {
	var n uint64
	err := m.f.Get(&n, `SELECT COUNT(*) FROM store_requests WHERE contract = ?`, m.self())
	return n, err
}

// NextRequestIndex is the index of the request ApproveStore consumes next.
func (m *V1) NextRequestIndex() (uint64, error) {
	v, err := m.f.LoadUint(slotNextRequestIndex)
	if err != nil {
		return 0, err
	}
	return v.Uint64(), nil
}

func (m *V1) StoreRequest(index uint64) (Request, error) {
	var row requestRow
	err := m.f.Get(&row, `SELECT proposal, requester FROM store_requests WHERE contract = ? AND idx = ?`, m.self(), index)
	if fault.IsErrNotFound(err) {
		return Request{}, fault.ErrIndexOutOfRange
	}
	if err != nil {
		return Request{}, err
	}
	return row.request(), nil
}

// StoreRequests returns every request ever made, consumed ones included.
func (m *V1) StoreRequests() ([]Request, error) {
	var rows []requestRow
	if err := m.f.Select(&rows, `SELECT proposal, requester FROM store_requests WHERE contract = ? ORDER BY idx`, m.self()); err != nil {
		return nil, err
	}
	out := make([]Request, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.request())
	}
	return out, nil
}

func (m *V1) storeCount(owner common.Address) (uint64, error) {
	var n uint64
	err := m.f.Get(&n, `SELECT COUNT(*) FROM owner_stores WHERE contract = ? AND owner = ?`, m.self(), owner.Hex())
	return n, err
}

// StoresAt returns the store at index of owner's stores. A zero address
// is a free slot.
func (m *V1) StoresAt(owner common.Address, index uint64) (common.Address, error) {
	var raw string
	err := m.f.Get(&raw, `SELECT store FROM owner_stores WHERE contract = ? AND owner = ? AND idx = ?`,
		m.self(), owner.Hex(), index)
	if fault.IsErrNotFound(err) {
		return common.Address{}, fault.ErrIndexOutOfRange
	}
	if err != nil {
		return common.Address{}, err
	}
	return common.HexToAddress(raw), nil
}

// GetStoresByOwner returns owner's full store sequence. Free slots are
// returned as zero addresses.
func (m *V1) GetStoresByOwner(owner common.Address) ([]common.Address, error) {
	var raw []string
	err := m.f.Select(&raw, `SELECT store FROM owner_stores WHERE contract = ? AND owner = ? ORDER BY idx`,
		m.self(), owner.Hex())
	if err != nil {
		return nil, err
	}
	return toAddresses(raw), nil
}

// IsStoreOwner reports whether addr has ever been given a store.
func (m *V1) IsStoreOwner(addr common.Address) (bool, error) {
	n, err := m.storeCount(addr)
	return n > 0, err
}

// GetStoreOwners returns every owner in the order they got their first
// store.
func (m *V1) GetStoreOwners() ([]common.Address, error) {
	var raw []string
	if err := m.f.Select(&raw, `SELECT owner FROM store_owners WHERE contract = ? ORDER BY idx`, m.self()); err != nil {
		return nil, err
	}
	return toAddresses(raw), nil
}

// Balance is the native balance of the marketplace.
func (m *V1) Balance() (*uint256.Int, error) {
	return m.f.Balance(m.f.Self())
}

// checkSlot verifies that index of owner's stores is free or extends the
// sequence by exactly one.
func (m *V1) checkSlot(owner common.Address, index uint64) error {
	if index >= MaxOwnerStores {
		return fault.ErrIndexOutOfRange
	}
	n, err := m.storeCount(owner)
	if err != nil {
		return err
	}
	switch {
	case index == n:
		return nil
	case index > n:
		return fault.ErrIndexOutOfRange
	}
	cur, err := m.StoresAt(owner, index)
	if err != nil {
		return err
	}
	if cur != (common.Address{}) {
		return fault.ErrSlotOccupied
	}
	return nil
}

// placeStore writes addr to a slot already validated by checkSlot and
// records owner on their first store.
func (m *V1) placeStore(owner common.Address, index uint64, addr common.Address) error {
	n, err := m.storeCount(owner)
	if err != nil {
		return err
	}
	if n == 0 {
		if err := m.addOwner(owner); err != nil {
			return err
		}
	}
	if index == n {
		err = m.f.Exec(`INSERT INTO owner_stores (contract, owner, idx, store) VALUES (?, ?, ?, ?)`,
			m.self(), owner.Hex(), index, addr.Hex())
		if err != nil {
			return fmt.Errorf("append store: %w", err)
		}
		return nil
	}
	return m.setStoreAt(owner, index, addr)
}

func (m *V1) setStoreAt(owner common.Address, index uint64, addr common.Address) error {
	err := m.f.Exec(`UPDATE owner_stores SET store = ? WHERE contract = ? AND owner = ? AND idx = ?`,
		addr.Hex(), m.self(), owner.Hex(), index)
	if err != nil {
		return fmt.Errorf("set store: %w", err)
	}
	return nil
}

// addOwner appends owner to the owners sequence unless already present.
func (m *V1) addOwner(owner common.Address) error {
	var exists int
	if err := m.f.Get(&exists, `SELECT COUNT(*) FROM store_owners WHERE contract = ? AND owner = ?`, m.self(), owner.Hex()); err != nil {
		return err
	}
	if exists > 0 {
		return nil
	}
	var n uint64
	if err := m.f.Get(&n, `SELECT COUNT(*) FROM store_owners WHERE contract = ?`, m.self()); err != nil {
		return err
	}
	err := m.f.Exec(`INSERT INTO store_owners (contract, idx, owner) VALUES (?, ?, ?)`, m.self(), n, owner.Hex())
	if err != nil {
		return fmt.Errorf("append owner: %w", err)
	}
	return nil
}

func toAddresses(raw []string) []common.Address {
	out := make([]common.Address, 0, len(raw))
	for _, s := range raw {
		out = append(out, common.HexToAddress(s))
	}
	return out
}
